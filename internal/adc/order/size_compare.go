package order

import (
	"sort"

	"github.com/att/vrm/internal/ids"
)

// SizeFunc returns the total resource capacity an ADC attributes to a
// child, supplied by the ADC.
type SizeFunc func(ids.ComponentId) int64

// Size orders children by ascending total capacity, tie-broken by
// registration index.
type Size struct {
	Capacity SizeFunc
}

func (s Size) Sort(children []Child) {
	sort.SliceStable(children, func(i, j int) bool {
		a, b := children[i], children[j]
		if a.RegistrationIndex == b.RegistrationIndex {
			return false
		}
		ca, cb := s.Capacity(a.Id), s.Capacity(b.Id)
		if ca != cb {
			return ca < cb
		}
		return a.RegistrationIndex < b.RegistrationIndex
	})
}

// SizeReverse is the inverse of Size.
type SizeReverse struct {
	Capacity SizeFunc
}

func (s SizeReverse) Sort(children []Child) {
	sort.SliceStable(children, func(i, j int) bool {
		a, b := children[i], children[j]
		if a.RegistrationIndex == b.RegistrationIndex {
			return false
		}
		ca, cb := s.Capacity(a.Id), s.Capacity(b.Id)
		if ca != cb {
			return ca > cb
		}
		return a.RegistrationIndex < b.RegistrationIndex
	})
}
