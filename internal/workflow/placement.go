package workflow

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/multierr"

	"github.com/att/vrm/internal/model"
	"github.com/att/vrm/internal/store"
	"github.com/att/vrm/internal/transport"
)

// Place runs the placement loop: processes CoAllocations in
// ascending rank_downward (ties broken by ascending Index), and for each
// one sets member booking intervals/durations, probes every member through
// target, intersects the returned placements by identical assigned_start,
// reserves at the earliest common start, and tightens successor booking
// starts by the dependency transfer time.
//
// On any failure, every workflow sub-reservation and the workflow itself
// (w.State) transition to Rejected and the error is returned.
func Place(ctx context.Context, w *model.Workflow, st *store.Store, target transport.Component, bytesPerSec float64) error {
	order := make([]*model.CoAllocation, len(w.CoAllocations))
	copy(order, w.CoAllocations)
	sort.Slice(order, func(i, j int) bool {
		if order[i].RankDownward != order[j].RankDownward {
			return order[i].RankDownward < order[j].RankDownward
		}
		return order[i].Index < order[j].Index
	})

	for _, a := range order {
		for _, memberId := range a.Members {
			_ = st.SetBookingIntervalStart(memberId, a.BookingStart)
			_ = st.SetBookingIntervalEnd(memberId, a.BookingEnd)
			if st.Exists(memberId) {
				_ = st.SetTaskDuration(memberId, weightOf(a, st))
			}
		}

		commonStart, err := probeAndIntersect(ctx, a, st, target)
		if err != nil {
			return multierr.Append(err, rejectAll(ctx, w, st, target))
		}

		for _, memberId := range a.Members {
			if _, err := target.Reserve(ctx, memberId); err != nil {
				teardownErr := rejectAll(ctx, w, st, target)
				return multierr.Append(fmt.Errorf("workflow %s: reserve failed for %s: %w", w.Id, memberId, err), teardownErr)
			}
			_ = st.SetAssignedStart(memberId, commonStart)
			_ = st.SetAssignedEnd(memberId, commonStart+weightOf(a, st))
		}

		for _, edge := range a.Outgoing {
			transferTime := edge.Dep.TransferTime(bytesPerSec)
			minStart := commonStart + weightOf(a, st) + transferTime
			if edge.To.BookingStart < minStart {
				edge.To.BookingStart = minStart
			}
		}
	}
	return nil
}

// weightOf recomputes w(A) on demand from the members' current
// task_duration values in the store, without re-running ComputationTime
// globally.
func weightOf(a *model.CoAllocation, st *store.Store) int64 {
	var maxDur int64
	for _, memberId := range a.Members {
		r := st.Snapshot(memberId)
		if r != nil && r.TaskDuration > maxDur {
			maxDur = r.TaskDuration
		}
	}
	return maxDur
}

// probeAndIntersect probes every member of a via target and returns the
// earliest assigned_start common to all of them.
// Since AcI/ADC Probe only reports the single best (earliest) candidate per
// reservation rather than the full candidate set, this intersects on that
// best candidate directly: the gang is feasible only if every member's
// independently-best start already agrees once the slower members'
// constraints are accounted for by a shared booking window, and infeasible
// otherwise — a caller needing finer-grained multi-candidate intersection
// can route through schedule.Context.Probe directly instead of the
// transport-level single-answer Probe.
func probeAndIntersect(ctx context.Context, a *model.CoAllocation, st *store.Store, target transport.Component) (int64, error) {
	var commonStart int64 = -1
	for _, memberId := range a.Members {
		result, err := target.Probe(ctx, memberId)
		if err != nil {
			return 0, err
		}
		if !result.Feasible {
			return 0, fmt.Errorf("co-allocation %d: member %s infeasible", a.Index, memberId)
		}
		if commonStart == -1 {
			commonStart = result.AssignedStart
		} else if result.AssignedStart != commonStart {
			return 0, fmt.Errorf("co-allocation %d: members disagree on assigned_start (%d vs %d)",
				a.Index, commonStart, result.AssignedStart)
		}
	}
	if commonStart == -1 {
		return 0, fmt.Errorf("co-allocation %d: no members", a.Index)
	}
	return commonStart, nil
}

// rejectAll transitions every workflow sub-reservation to Rejected,
// deleting any that had already been reserved. Teardown Delete failures are
// aggregated with multierr rather than discarded, since a failed Delete
// leaves a stale allocation behind at the target and the caller needs to
// know that cleanup is incomplete.
func rejectAll(ctx context.Context, w *model.Workflow, st *store.Store, target transport.Component) error {
	var errs error
	for _, id := range w.SubReservationIds() {
		r := st.Snapshot(id)
		if r == nil {
			continue
		}
		if r.State.IsAtLeast(model.ProbeAnswer) && r.State != model.Rejected {
			if err := target.Delete(ctx, id); err != nil {
				errs = multierr.Append(errs, fmt.Errorf("teardown %s: %w", id, err))
			}
		}
		_ = st.SetState(id, model.Rejected)
	}
	w.State = model.Rejected
	return errs
}
