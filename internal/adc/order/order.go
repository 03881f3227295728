// Package order implements the VrmComponentOrder comparators, one file
// per strategy rather than one switch.
package order

import "github.com/att/vrm/internal/ids"

// Child is the minimal view of a registered VrmComponent a comparator needs:
// its registration index (insertion order) and id. The ADC supplies the
// load/size lookups via the Comparator's own closures rather than this
// struct carrying them, so this package has no dependency on transport or
// schedule.
type Child struct {
	RegistrationIndex int
	Id                ids.ComponentId
}

// Comparator orders a slice of Child in place, least-first, following the
// strategy it embeds.
type Comparator interface {
	Sort(children []Child)
}
