// Package model holds the VRM data model: reservations (node and
// link), workflow nodes and dependencies, and co-allocations.
//
// Reservations are modeled as a tagged variant over a shared base record
// rather than an interface/inheritance hierarchy: Base
// carries every field common to node and link reservations, and exactly one
// of NodeExtra / LinkExtra is populated according to Kind. Schedules and
// stores hold only a Record's Id (never the Record itself) and resolve the
// current data through the ReservationStore, so there is no
// reservation-to-schedule back-reference to break at teardown.
package model

import "github.com/att/vrm/internal/ids"

type Kind int

const (
	KindNode Kind = iota
	KindLink
)

func (k Kind) String() string {
	if k == KindLink {
		return "Link"
	}
	return "Node"
}

// Base holds the fields shared by NodeReservation and LinkReservation.
type Base struct {
	Id        ids.ReservationId
	Name      string
	ClientId  ids.ClientId
	HandlerId *ids.ComponentId // component currently responsible; nil if none

	State             State
	RequestProceeding Proceeding

	ArrivalTime int64

	BookingIntervalStart int64
	BookingIntervalEnd   int64

	AssignedStart int64 // valid iff State.IsAtLeast(ProbeAnswer)
	AssignedEnd   int64

	TaskDuration     int64 // seconds, >= schedule slot_width
	ReservedCapacity int64 // cpus (node) or bandwidth units (link)

	IsMoldable   bool
	MoldableWork int64 // reserved_capacity * task_duration, constant over life

	FragDelta float64 // populated during probing when schedule tracks fragmentation

	// WorkflowId is non-zero-valued when this reservation belongs to a
	// workflow's decomposition (used by ADC.is_workflow and by the
	// WorkflowScheduler to find its sub-reservations).
	WorkflowId ids.WorkflowId
}

// NodeExtra carries the NodeReservation-only fields. File paths are
// opaque strings at this layer: nothing in the core interprets them, they
// are only carried through to the RMS adapter on Commit.
type NodeExtra struct {
	TaskPath   string
	OutputPath string
	ErrorPath  string
}

// LinkExtra carries the LinkReservation-only fields.
type LinkExtra struct {
	StartPoint ids.RouterId
	EndPoint   ids.RouterId
}

// Record is a NodeReservation or LinkReservation, tagged by Kind.
type Record struct {
	Base
	Kind Kind
	Node *NodeExtra // non-nil iff Kind == KindNode
	Link *LinkExtra // non-nil iff Kind == KindLink
}

// Clone returns a deep-enough copy for store snapshot/probe-candidate use:
// value fields copy by assignment, and the two pointer-typed extras and
// HandlerId are copied into fresh allocations so mutating the clone never
// touches the original record.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	c := *r
	if r.HandlerId != nil {
		h := *r.HandlerId
		c.HandlerId = &h
	}
	if r.Node != nil {
		n := *r.Node
		c.Node = &n
	}
	if r.Link != nil {
		l := *r.Link
		c.Link = &l
	}
	return &c
}

// BookingWindow returns the booking window length.
func (r *Record) BookingWindow() int64 {
	return r.BookingIntervalEnd - r.BookingIntervalStart
}

// IsFeasiblePlacement checks the placement invariant for a reservation that has
// reached at least ProbeAnswer: assigned_end - assigned_start ==
// task_duration, and [assigned_start, assigned_end] is within the booking
// interval.
func (r *Record) IsFeasiblePlacement() bool {
	if !r.State.IsAtLeast(ProbeAnswer) {
		return false
	}
	if r.AssignedEnd-r.AssignedStart != r.TaskDuration {
		return false
	}
	return r.AssignedStart >= r.BookingIntervalStart && r.AssignedEnd <= r.BookingIntervalEnd
}

// IsMoldableConsistent checks moldable_work == reserved_capacity *
// task_duration for moldable reservations.
func (r *Record) IsMoldableConsistent() bool {
	if !r.IsMoldable {
		return true
	}
	return r.ReservedCapacity*r.TaskDuration == r.MoldableWork
}
