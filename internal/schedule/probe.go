package schedule

import (
	"sort"

	"github.com/att/vrm/internal/ids"
	"github.com/att/vrm/internal/model"
)

// Candidate is a ProbeReservation: a feasible placement for a reservation,
// with possibly-reduced capacity/duration if moldable.
type Candidate struct {
	ReservationId    ids.ReservationId
	AssignedStart    int64
	AssignedEnd      int64
	ReservedCapacity int64
	TaskDuration     int64
}

// Probe runs the feasibility search for reservation id, against its
// current store record, and returns every feasible candidate in
// ascending assigned_start order. Does not mutate the schedule.
func (c *Context) Probe(id ids.ReservationId) []Candidate {
	c.Update()

	r := c.store.Snapshot(id)
	if r == nil {
		return nil
	}

	if r.ReservedCapacity > c.resourceCap && !r.IsMoldable {
		return nil
	}

	bookingStart := r.BookingIntervalStart
	if bookingStart < c.windowStartTime() {
		bookingStart = c.windowStartTime()
	}
	bookingEnd := r.BookingIntervalEnd
	if bookingEnd > c.windowEndTime() {
		bookingEnd = c.windowEndTime()
	}
	if bookingEnd <= bookingStart || r.TaskDuration <= 0 {
		return nil
	}

	earliestStartIdx := c.SlotIndex(bookingStart)
	if earliestStartIdx < c.windowStartSlot {
		earliestStartIdx = c.windowStartSlot
	}
	latestStartIdx := c.SlotIndex(bookingEnd - r.TaskDuration)
	if latestStartIdx >= c.windowEndSlot() {
		latestStartIdx = c.windowEndSlot() - 1
	}
	if latestStartIdx < earliestStartIdx {
		return nil
	}

	var out []Candidate
	for s := earliestStartIdx; s <= latestStartIdx; s++ {
		cand, ok := c.tryStart(r, s, bookingEnd)
		if ok {
			out = append(out, cand)
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].AssignedStart < out[j].AssignedStart })
	c.probeCache[id] = out
	return out
}

// tryStart evaluates one candidate start slot, including the moldable
// shrink-in-place logic.
func (c *Context) tryStart(r *model.Record, s int64, bookingEnd int64) (Candidate, bool) {
	startTime := r.BookingIntervalStart
	if slotStart := c.SlotStartTime(s); slotStart > startTime {
		startTime = slotStart
	}

	required := r.ReservedCapacity
	duration := r.TaskDuration
	endTime := startTime + duration

	for {
		endSlot := c.SlotIndex(endTime - 1) // last slot actually occupied; end_time itself is exclusive
		infeasible := false
		shrunk := false

		for slotIdx := s; slotIdx <= endSlot; slotIdx++ {
			if !c.inWindow(slotIdx) {
				infeasible = true
				break
			}
			slot := c.slotAt(slotIdx)
			available := slot.Available()

			if available == 0 && required > 0 {
				infeasible = true
				break
			}
			if !r.IsMoldable && available < required {
				infeasible = true
				break
			}
			if r.IsMoldable && available < required {
				required = available
				if required <= 0 {
					infeasible = true
					break
				}
				newDuration := ceilDiv(r.MoldableWork, required)
				newDuration = roundUpToSlotWidth(newDuration, c.slotWidth)
				if newDuration != duration {
					duration = newDuration
					endTime = startTime + duration
					shrunk = true
					break // recompute endSlot and re-walk from s with the new, shorter/longer span
				}
			}
		}

		if infeasible {
			return Candidate{}, false
		}
		if shrunk {
			continue
		}

		if endTime > bookingEnd {
			return Candidate{}, false
		}
		return Candidate{
			ReservationId:    r.Id,
			AssignedStart:    startTime,
			AssignedEnd:      endTime,
			ReservedCapacity: required,
			TaskDuration:     duration,
		}, true
	}
}

func ceilDiv(a, b int64) int64 {
	if b <= 0 {
		return a
	}
	q := a / b
	if a%b != 0 {
		q++
	}
	return q
}

// roundUpToSlotWidth rounds a duration up to a whole number of slots.
func roundUpToSlotWidth(d, slotWidth int64) int64 {
	if slotWidth <= 0 {
		return d
	}
	rem := d % slotWidth
	if rem == 0 {
		return d
	}
	return d + (slotWidth - rem)
}
