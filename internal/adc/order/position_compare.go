package order

import "sort"

// StartFirst orders children by ascending registration index.
type StartFirst struct{}

func (StartFirst) Sort(children []Child) {
	sort.SliceStable(children, func(i, j int) bool {
		return children[i].RegistrationIndex < children[j].RegistrationIndex
	})
}

// Next rotates the ascending registration-index order so Pos comes first
// (OrderNext(pos)): children registered before Pos are treated as
// appended at the end, those at-or-after Pos keep their relative order at
// the front.
type Next struct {
	Pos int
}

func (n Next) Sort(children []Child) {
	sort.SliceStable(children, func(i, j int) bool {
		a, b := children[i].RegistrationIndex, children[j].RegistrationIndex
		aBefore := a < n.Pos
		bBefore := b < n.Pos
		if aBefore != bBefore {
			return bBefore // a is at/after Pos, b is before it -> a sorts first
		}
		return a < b
	})
}
