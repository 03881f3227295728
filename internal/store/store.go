// Package store implements the ReservationStore: the process-wide registry
// of reservation records, keyed by ReservationId, with change-notification
// fan-out. It is the sole owner of reservation records; schedules and
// components hold only ids and call back into the store to read or mutate
// a record.
//
// Grounded on Tegu's Inventory (managers/res_mgr.go), which is also the
// single owner of pledge records keyed by id and run behind one goroutine;
// this store generalizes that single-owner idea to a many-readers/
// serialized-writers model using a striped entry lock instead of funneling
// every call through one manager goroutine, since the store is meant to be
// shared with serialized writers rather than actor-owned like a
// SlottedSchedule.
package store

import (
	"fmt"
	"sync"

	"github.com/att/vrm/internal/ids"
	"github.com/att/vrm/internal/model"
)

// Listener receives reservation state transitions in strictly monotonic
// order with respect to the commitment total order, per id.
type Listener func(id ids.ReservationId, old, new model.State)

type entry struct {
	mu     sync.Mutex // serializes mutations to this record
	record *model.Record
	gate   *SyncGate
}

// Store is the ReservationStore. The zero value is not usable; use New.
type Store struct {
	mapMu sync.RWMutex // guards the map's structure (insert/remove), not record contents
	byId  map[ids.ReservationId]*entry

	listenMu  sync.Mutex
	listeners []Listener

	notify *notifier
}

func New() *Store {
	s := &Store{
		byId:   map[ids.ReservationId]*entry{},
		notify: newNotifier(),
	}
	return s
}

// Create installs a fresh record (assigning it an id if unset) and fires the
// initial state-change notification (old == new == record.State, signaling
// birth rather than a transition). Returns the assigned id.
func (s *Store) Create(r *model.Record) ids.ReservationId {
	if r.Id == "" {
		r.Id = ids.NewReservationId()
	}
	e := &entry{record: r.Clone(), gate: newSyncGate()}

	s.mapMu.Lock()
	s.byId[r.Id] = e
	s.mapMu.Unlock()

	s.emit(r.Id, r.State, r.State)
	return r.Id
}

func (s *Store) get(id ids.ReservationId) (*entry, bool) {
	s.mapMu.RLock()
	e, ok := s.byId[id]
	s.mapMu.RUnlock()
	return e, ok
}

// Snapshot returns a deep-enough clone of the current record, or nil if the
// id is unknown.
func (s *Store) Snapshot(id ids.ReservationId) *model.Record {
	e, ok := s.get(id)
	if !ok {
		return nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.record.Clone()
}

// Exists reports whether id names a live record.
func (s *Store) Exists(id ids.ReservationId) bool {
	_, ok := s.get(id)
	return ok
}

// IsWorkflow reports whether the reservation belongs to a workflow
// decomposition.
func (s *Store) IsWorkflow(id ids.ReservationId) bool {
	r := s.Snapshot(id)
	return r != nil && r.WorkflowId != ""
}

func (s *Store) mutate(id ids.ReservationId, fn func(r *model.Record)) error {
	e, ok := s.get(id)
	if !ok {
		return fmt.Errorf("store: unknown reservation %s", id)
	}
	e.mu.Lock()
	old := e.record.State
	fn(e.record)
	newState := e.record.State
	e.mu.Unlock()

	if newState != old {
		s.emit(id, old, newState)
	}
	if newState.IsTerminal() {
		e.gate.signal(newState)
	}
	return nil
}

func (s *Store) SetState(id ids.ReservationId, st model.State) error {
	return s.mutate(id, func(r *model.Record) { r.State = st })
}

func (s *Store) SetBookingIntervalStart(id ids.ReservationId, t int64) error {
	return s.mutate(id, func(r *model.Record) { r.BookingIntervalStart = t })
}

func (s *Store) SetBookingIntervalEnd(id ids.ReservationId, t int64) error {
	return s.mutate(id, func(r *model.Record) { r.BookingIntervalEnd = t })
}

func (s *Store) SetAssignedStart(id ids.ReservationId, t int64) error {
	return s.mutate(id, func(r *model.Record) { r.AssignedStart = t })
}

func (s *Store) SetAssignedEnd(id ids.ReservationId, t int64) error {
	return s.mutate(id, func(r *model.Record) { r.AssignedEnd = t })
}

// SetTaskDuration overrides a reservation's duration directly, used by the
// WorkflowScheduler's placement loop when it fixes a CoAllocation member's
// duration to the CoAllocation's computation time w(A), which
// is not the moldable capacity/duration trade AdjustCapacity performs.
func (s *Store) SetTaskDuration(id ids.ReservationId, d int64) error {
	return s.mutate(id, func(r *model.Record) { r.TaskDuration = d })
}

func (s *Store) SetHandler(id ids.ReservationId, c *ids.ComponentId) error {
	return s.mutate(id, func(r *model.Record) { r.HandlerId = c })
}

func (s *Store) SetFragDelta(id ids.ReservationId, delta float64) error {
	return s.mutate(id, func(r *model.Record) { r.FragDelta = delta })
}

// AdjustCapacity trades capacity against duration for a moldable
// reservation, preserving moldable_work: task_duration = moldable_work / cap.
// Rounded up to a whole number of slots of width slotWidth, matching
// the SlottedSchedule probe rounding rule.
func (s *Store) AdjustCapacity(id ids.ReservationId, cap int64, slotWidth int64) error {
	return s.mutate(id, func(r *model.Record) {
		if !r.IsMoldable || cap <= 0 {
			return
		}
		r.ReservedCapacity = cap
		dur := r.MoldableWork / cap
		if r.MoldableWork%cap != 0 {
			dur++
		}
		if slotWidth > 0 {
			rem := dur % slotWidth
			if rem != 0 {
				dur += slotWidth - rem
			}
		}
		r.TaskDuration = dur
	})
}

// AddListener registers a listener for every reservation's state changes.
func (s *Store) AddListener(l Listener) {
	s.listenMu.Lock()
	s.listeners = append(s.listeners, l)
	s.listenMu.Unlock()
}

func (s *Store) emit(id ids.ReservationId, old, new model.State) {
	s.listenMu.Lock()
	ls := make([]Listener, len(s.listeners))
	copy(ls, s.listeners)
	s.listenMu.Unlock()

	s.notify.enqueue(func() {
		for _, l := range ls {
			l(id, old, new)
		}
	})
}

// Gate returns the ReservationSyncGate for id, or nil if unknown.
func (s *Store) Gate(id ids.ReservationId) *SyncGate {
	e, ok := s.get(id)
	if !ok {
		return nil
	}
	return e.gate
}

// Range calls fn with a snapshot of every live record, for bulk reporting
// (the periodic metrics/CSV sweep); fn must not call back into the store.
func (s *Store) Range(fn func(r *model.Record)) {
	s.mapMu.RLock()
	entries := make([]*entry, 0, len(s.byId))
	for _, e := range s.byId {
		entries = append(entries, e)
	}
	s.mapMu.RUnlock()

	for _, e := range entries {
		e.mu.Lock()
		r := e.record.Clone()
		e.mu.Unlock()
		fn(r)
	}
}

// Remove deletes a record's store entry. This must only be called after
// the record reached a terminal state AND no
// schedule still lists it; the store itself does not check the second half
// of that condition, callers (schedules, after Delete) are responsible.
func (s *Store) Remove(id ids.ReservationId) {
	e, ok := s.get(id)
	if !ok {
		return
	}
	if !e.record.State.IsTerminal() {
		return
	}
	s.mapMu.Lock()
	delete(s.byId, id)
	s.mapMu.Unlock()
}
