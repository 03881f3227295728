package schedule

import (
	"github.com/att/vrm/internal/ids"
	"github.com/att/vrm/internal/model"
)

// Reserve performs probe (with caching) and picks the candidate with the
// smallest assigned_start, installing its load into every covered slot.
// Returns nil on success, or the reservation id (now Rejected) on failure.
func (c *Context) Reserve(id ids.ReservationId) *ids.ReservationId {
	candidates, ok := c.probeCache[id]
	if !ok {
		candidates = c.Probe(id)
	}
	if len(candidates) == 0 {
		_ = c.store.SetState(id, model.Rejected)
		rejected := id
		return &rejected
	}

	best := candidates[0]
	for _, cand := range candidates[1:] {
		if cand.AssignedStart < best.AssignedStart {
			best = cand
		}
	}

	c.install(id, best)
	delete(c.probeCache, id)

	_ = c.store.SetAssignedStart(id, best.AssignedStart)
	_ = c.store.SetAssignedEnd(id, best.AssignedEnd)
	if best.ReservedCapacity != 0 {
		_ = c.store.AdjustCapacity(id, best.ReservedCapacity, c.slotWidth)
	}
	_ = c.store.SetState(id, model.ReserveAnswer)

	return nil
}

// InstallCandidate installs a specific (already-chosen) candidate directly,
// bypassing re-probing. Used by the workflow scheduler's gang-scheduling
// placement loop once a common assigned_start has been agreed across
// a CoAllocation's members: each member reserves at that shared start rather
// than independently picking its own earliest slot.
func (c *Context) InstallCandidate(cand Candidate) {
	c.install(cand.ReservationId, cand)
	delete(c.probeCache, cand.ReservationId)
	_ = c.store.SetAssignedStart(cand.ReservationId, cand.AssignedStart)
	_ = c.store.SetAssignedEnd(cand.ReservationId, cand.AssignedEnd)
	if cand.ReservedCapacity != 0 {
		_ = c.store.AdjustCapacity(cand.ReservationId, cand.ReservedCapacity, c.slotWidth)
	}
	_ = c.store.SetState(cand.ReservationId, model.ReserveAnswer)
}

func (c *Context) install(id ids.ReservationId, cand Candidate) {
	startIdx := c.SlotIndex(cand.AssignedStart)
	endIdx := c.SlotIndex(cand.AssignedEnd - 1)
	for idx := startIdx; idx <= endIdx; idx++ {
		if !c.inWindow(idx) {
			continue
		}
		c.slotAt(idx).add(id, cand.ReservedCapacity)
	}
	c.active[id] = struct{}{}
	c.invalidateFragCache()
}

// Delete removes id from every slot it covers and restores capacity.
// Idempotent if id is unknown or not active.
func (c *Context) Delete(id ids.ReservationId) {
	if !c.Active(id) {
		return
	}
	r := c.store.Snapshot(id)
	if r != nil && r.State.IsAtLeast(model.ProbeAnswer) {
		startIdx := c.SlotIndex(r.AssignedStart)
		endIdx := c.SlotIndex(r.AssignedEnd - 1)
		for idx := startIdx; idx <= endIdx; idx++ {
			if c.inWindow(idx) {
				c.slotAt(idx).remove(id)
			}
		}
	} else {
		// record already gone or never placed; fall back to a full scan so
		// the schedule never leaks a slot contribution.
		for i := range c.slots {
			c.slots[i].remove(id)
		}
	}
	delete(c.active, id)
	delete(c.probeCache, id)
	c.invalidateFragCache()
}
