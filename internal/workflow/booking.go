package workflow

import (
	"fmt"

	"github.com/att/vrm/internal/model"
)

// DecomposeBookingIntervals computes each CoAllocation's booking interval
// from the workflow's overall interval and the already-computed ranks.
// Returns an error (the workflow is infeasible and should be rejected) if
// any CoAllocation's spare_time comes out negative.
func DecomposeBookingIntervals(w *model.Workflow, weight map[int]int64) error {
	for _, a := range w.CoAllocations {
		a.BookingStart = w.BookingIntervalStart + int64(a.RankDownward)
		a.BookingEnd = w.BookingIntervalEnd - int64(a.RankUpward-float64(weight[a.Index]))
		a.SpareTime = a.BookingEnd - a.BookingStart - weight[a.Index]

		if a.SpareTime < 0 {
			return fmt.Errorf("workflow %s: co-allocation %d has negative spare_time (%d)", w.Id, a.Index, a.SpareTime)
		}
	}
	return nil
}
