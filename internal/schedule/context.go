// Package schedule implements the SlottedSchedule engine: the per-resource
// time-slot accounting used by both the Node and Link specializations.
// The two specializations share identical slot/probe/reserve/delete/
// fragmentation logic — only the resource metadata around them differs
// (internal/resource) — so this package implements the engine once,
// generically over "capacity" (cpus or bandwidth units).
//
// Grounded on Tegu's queue-vs-link-capacity tracking over time windows
// (its fq_mgr.go), generalized here to an explicit slotted/ring-buffer
// model with fixed-width slots and a sliding load-retention window.
package schedule

import (
	"github.com/go-logr/logr"

	"github.com/att/vrm/internal/clock"
	"github.com/att/vrm/internal/ids"
	"github.com/att/vrm/internal/model"
	"github.com/att/vrm/internal/store"
)

// SLOTS_TO_DROP_ON_START / _END: simulation warm-up/cool-down slots excluded
// from get_simulation_load_metric.
const (
	SlotsToDropOnStart = 2
	SlotsToDropOnEnd   = 2
)

// Context is the SlottedScheduleContext.
type Context struct {
	Id    ids.ShadowScheduleId
	store *store.Store
	clk   clock.Clock
	log   logr.Logger

	slotWidth       int64
	numOfSlots      int64
	windowStartSlot int64
	resourceCap     int64

	slots []Slot // ring buffer; physical index = logical index mod numOfSlots

	active map[ids.ReservationId]struct{}

	loadBuffer *LoadBuffer

	fragCache            float64
	fragCacheUpToDate    bool
	useQuadraticMeanFrag bool

	probeCache map[ids.ReservationId][]Candidate
}

type Option func(*Context)

func WithQuadraticMeanFragmentation(on bool) Option {
	return func(c *Context) { c.useQuadraticMeanFrag = on }
}

// New builds a Context over numSlots slots of slotWidth seconds each,
// starting at logical slot windowStartSlot, for a resource of the given
// nominal capacity.
func New(id ids.ShadowScheduleId, st *store.Store, clk clock.Clock, log logr.Logger,
	slotWidth, numSlots, windowStartSlot, resourceCapacity int64, opts ...Option) *Context {

	c := &Context{
		Id:              id,
		store:           st,
		clk:             clk,
		log:             log,
		slotWidth:       slotWidth,
		numOfSlots:      numSlots,
		windowStartSlot: windowStartSlot,
		resourceCap:     resourceCapacity,
		slots:           make([]Slot, numSlots),
		active:          map[ids.ReservationId]struct{}{},
		loadBuffer:      newLoadBuffer(),
		probeCache:      map[ids.ReservationId][]Candidate{},
	}
	for i := range c.slots {
		c.slots[i] = newSlot(resourceCapacity)
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Context) SlotWidth() int64        { return c.slotWidth }
func (c *Context) NumOfSlots() int64       { return c.numOfSlots }
func (c *Context) ResourceCapacity() int64 { return c.resourceCap }
func (c *Context) WindowStartSlot() int64  { return c.windowStartSlot }

// SlotIndex maps an absolute time (seconds) to its logical slot index.
func (c *Context) SlotIndex(t int64) int64 {
	if t < 0 {
		return 0
	}
	return t / c.slotWidth
}

// SlotStartTime maps a logical slot index to its absolute start time.
func (c *Context) SlotStartTime(idx int64) int64 {
	return idx * c.slotWidth
}

func (c *Context) windowEndSlot() int64   { return c.windowStartSlot + c.numOfSlots }
func (c *Context) windowStartTime() int64 { return c.SlotStartTime(c.windowStartSlot) }
func (c *Context) windowEndTime() int64   { return c.SlotStartTime(c.windowEndSlot()) }

func (c *Context) physicalIndex(logical int64) int {
	n := c.numOfSlots
	offset := (logical - c.windowStartSlot) % n
	if offset < 0 {
		offset += n
	}
	return int(offset)
}

// slotAt returns the slot for logical index idx. idx must be within the
// current window; callers are expected to have clipped already.
func (c *Context) slotAt(idx int64) *Slot {
	return &c.slots[c.physicalIndex(idx)]
}

func (c *Context) inWindow(idx int64) bool {
	return idx >= c.windowStartSlot && idx < c.windowEndSlot()
}

func (c *Context) invalidateFragCache() {
	c.fragCacheUpToDate = false
}

// Active reports whether id currently occupies this schedule.
func (c *Context) Active(id ids.ReservationId) bool {
	_, ok := c.active[id]
	return ok
}

// Update advances the sliding window to the current clock time. Each slot
// that falls fully behind the new window start
// has its load aggregated into the LoadBuffer, is reset, and the window
// slides forward by one slot; reservations whose assigned_end has fallen at
// or behind the new window start transition to Finished.
func (c *Context) Update() {
	now := c.clk.NowSecs()
	for c.SlotStartTime(c.windowStartSlot+1) <= now {
		expiring := c.slotAt(c.windowStartSlot)
		c.loadBuffer.record(expiring.Capacity, expiring.Load)

		finishedIds := make([]ids.ReservationId, 0, len(expiring.Contributions))
		for id := range expiring.Contributions {
			finishedIds = append(finishedIds, id)
		}
		expiring.reset()
		c.windowStartSlot++

		newStart := c.windowStartTime()
		for _, id := range finishedIds {
			rec := c.store.Snapshot(id)
			if rec == nil {
				continue
			}
			if rec.AssignedEnd <= newStart {
				delete(c.active, id)
				_ = c.store.SetState(id, model.Finished)
			}
		}
		c.invalidateFragCache()
	}
}
