package order

import (
	"sort"

	"github.com/att/vrm/internal/ids"
)

// LoadFunc returns the aggregated utilization an ADC currently attributes
// to a child (node + link load metric, summed). Supplied by the ADC since
// only it has the child proxies to query.
type LoadFunc func(ids.ComponentId) float64

// Load orders children by ascending aggregated utilization over [Start,End],
// tie-broken by registration index.
type Load struct {
	Start, End int64
	Utilization LoadFunc
}

func (l Load) Sort(children []Child) {
	sort.SliceStable(children, func(i, j int) bool {
		a, b := children[i], children[j]
		if a.RegistrationIndex == b.RegistrationIndex {
			return false
		}
		ua, ub := l.Utilization(a.Id), l.Utilization(b.Id)
		if ua != ub {
			return ua < ub
		}
		return a.RegistrationIndex < b.RegistrationIndex
	})
}

// ReverseLoad is the inverse of Load.
type ReverseLoad struct {
	Start, End int64
	Utilization LoadFunc
}

func (r ReverseLoad) Sort(children []Child) {
	sort.SliceStable(children, func(i, j int) bool {
		a, b := children[i], children[j]
		if a.RegistrationIndex == b.RegistrationIndex {
			return false
		}
		ua, ub := r.Utilization(a.Id), r.Utilization(b.Id)
		if ua != ub {
			return ua > ub
		}
		return a.RegistrationIndex < b.RegistrationIndex
	})
}
