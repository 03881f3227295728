package workflow

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/go-logr/logr"
	"go.uber.org/multierr"

	"github.com/att/vrm/internal/ids"
	"github.com/att/vrm/internal/model"
	"github.com/att/vrm/internal/store"
	"github.com/att/vrm/internal/transport"
)

// Scheduler is the WorkflowScheduler. It holds every workflow it is
// currently responsible for, keyed by id, so Commit/Delete (invoked later,
// out of band, by an ADC delegating) can find the decomposition again.
type Scheduler struct {
	store       *store.Store
	target      transport.Component
	bytesPerSec float64
	log         logr.Logger

	mu        sync.Mutex
	workflows map[ids.WorkflowId]*model.Workflow
}

func New(st *store.Store, target transport.Component, bytesPerSec float64, log logr.Logger) *Scheduler {
	return &Scheduler{
		store:       st,
		target:      target,
		bytesPerSec: bytesPerSec,
		log:         log,
		workflows:   map[ids.WorkflowId]*model.Workflow{},
	}
}

// Schedule runs the full four-stage pipeline for w: decompose into
// CoAllocations, compute ranks, decompose booking intervals, then place.
// On success every sub-reservation holds an assigned_start/end and w is
// retained for a later Commit/Delete call. On failure w's sub-reservations
// (and w itself) are Rejected and the error is returned.
func (s *Scheduler) Schedule(ctx context.Context, w *model.Workflow) error {
	Decompose(w)

	weight := ComputeRanks(w, s.store, s.bytesPerSec)

	if err := DecomposeBookingIntervals(w, weight); err != nil {
		return multierr.Append(err, rejectAll(ctx, w, s.store, s.target))
	}

	if err := Place(ctx, w, s.store, s.target, s.bytesPerSec); err != nil {
		return err
	}

	s.mu.Lock()
	s.workflows[w.Id] = w
	s.mu.Unlock()
	return nil
}

// Commit iterates the workflow's sub-reservations in rank_downward order
// and commits each; on the first failure it calls handleFailure to delete
// the not-yet-committed sub-reservations and roll back the committed ones.
// Once every
// sub-reservation is Committed, finalizeCommit transitions the
// workflow-level state to Committed too.
func (s *Scheduler) Commit(ctx context.Context, workflowId ids.WorkflowId) error {
	s.mu.Lock()
	w, ok := s.workflows[workflowId]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("workflow scheduler: unknown workflow %s", workflowId)
	}

	order := rankDownwardMemberOrder(w)

	for i, id := range order {
		if err := s.target.Commit(ctx, id); err != nil {
			teardownErr := s.handleFailure(ctx, w, order[:i])
			commitErr := fmt.Errorf("workflow %s: sub-reservation %s commit failed: %w", workflowId, id, err)
			return multierr.Append(commitErr, teardownErr)
		}
	}

	return s.finalizeCommit(w)
}

// handleFailure deletes every already-committed sub-reservation from
// committed (the slice of ids that succeeded before the failing one), deletes
// every other sub-reservation that had reached at least ProbeAnswer, and
// marks them and the whole workflow Rejected. Delete failures are aggregated with
// multierr and returned rather than discarded, since a failed teardown
// Delete leaves the sub-reservation committed at the target even though the
// store now records it Rejected.
func (s *Scheduler) handleFailure(ctx context.Context, w *model.Workflow, committed []ids.ReservationId) error {
	var errs error
	for _, id := range committed {
		if err := s.target.Delete(ctx, id); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("teardown %s: %w", id, err))
		}
		_ = s.store.SetState(id, model.Rejected)
	}
	for _, id := range w.SubReservationIds() {
		r := s.store.Snapshot(id)
		if r != nil && r.State != model.Rejected && r.State != model.Committed {
			if r.State.IsAtLeast(model.ProbeAnswer) {
				if err := s.target.Delete(ctx, id); err != nil {
					errs = multierr.Append(errs, fmt.Errorf("teardown %s: %w", id, err))
				}
			}
			_ = s.store.SetState(id, model.Rejected)
		}
	}
	w.State = model.Rejected
	return errs
}

func (s *Scheduler) finalizeCommit(w *model.Workflow) error {
	for _, id := range w.SubReservationIds() {
		r := s.store.Snapshot(id)
		if r == nil || r.State != model.Committed {
			return fmt.Errorf("workflow %s: sub-reservation %s not Committed at finalize", w.Id, id)
		}
	}
	w.State = model.Committed
	return nil
}

// Delete reverses a scheduled (or committed) workflow: every sub-
// reservation is deleted and the workflow-level state becomes Deleted.
func (s *Scheduler) Delete(ctx context.Context, workflowId ids.WorkflowId) error {
	s.mu.Lock()
	w, ok := s.workflows[workflowId]
	s.mu.Unlock()
	if !ok {
		return nil // unknown; idempotent
	}

	for _, id := range w.SubReservationIds() {
		_ = s.target.Delete(ctx, id)
	}
	w.State = model.Deleted

	s.mu.Lock()
	delete(s.workflows, workflowId)
	s.mu.Unlock()
	return nil
}

// rankDownwardMemberOrder flattens every CoAllocation's members (ascending
// rank_downward, ties by Index) into one sub-reservation order, then
// appends every Dependency's LinkReservation id, data and sync alike (dependency
// sub-reservations have no rank of their own; they commit after the nodes
// that produce/consume them).
func rankDownwardMemberOrder(w *model.Workflow) []ids.ReservationId {
	coallocs := make([]*model.CoAllocation, len(w.CoAllocations))
	copy(coallocs, w.CoAllocations)
	sort.Slice(coallocs, func(i, j int) bool {
		if coallocs[i].RankDownward != coallocs[j].RankDownward {
			return coallocs[i].RankDownward < coallocs[j].RankDownward
		}
		return coallocs[i].Index < coallocs[j].Index
	})

	var out []ids.ReservationId
	for _, a := range coallocs {
		out = append(out, a.Members...)
	}
	for _, dep := range w.Dependencies {
		out = append(out, dep.Id())
	}
	return out
}
