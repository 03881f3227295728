package workflow

import (
	"context"
	"errors"
	"testing"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"

	"github.com/att/vrm/internal/ids"
	"github.com/att/vrm/internal/model"
	"github.com/att/vrm/internal/store"
	"github.com/att/vrm/internal/transport"
)

func buildScheduledWorkflow(t *testing.T) (*Scheduler, *model.Workflow, *store.Store, *fakeTarget) {
	t.Helper()
	w, st := buildTwoStageWorkflow(t)
	a := w.CoAllocations[0].Members[0]
	b := w.CoAllocations[1].Members[0]

	target := newFakeTarget()
	target.st = st
	target.probes[a] = transport.ProbeResult{Feasible: true, AssignedStart: 0, AssignedEnd: 5}
	target.probes[b] = transport.ProbeResult{Feasible: true, AssignedStart: 0, AssignedEnd: 10}

	s := New(st, target, 1, logr.Discard())
	require.NoError(t, Place(context.Background(), w, st, target, 1))
	s.workflows[w.Id] = w
	return s, w, st, target
}

func TestScheduler_Commit_TransitionsWorkflowToCommitted(t *testing.T) {
	s, w, _, _ := buildScheduledWorkflow(t)
	require.NoError(t, s.Commit(context.Background(), w.Id))
	assert.Equal(t, model.Committed, w.State)
}

func TestScheduler_Commit_UnknownWorkflowIsError(t *testing.T) {
	st := store.New()
	s := New(st, newFakeTarget(), 1, logr.Discard())
	err := s.Commit(context.Background(), ids.NewWorkflowId())
	assert.Error(t, err)
}

func TestScheduler_Commit_FailureRollsBackAlreadyCommitted(t *testing.T) {
	s, w, st, target := buildScheduledWorkflow(t)

	order := rankDownwardMemberOrder(w)
	require.NotEmpty(t, order)
	failing := order[len(order)-1]
	target.commitErr[failing] = errors.New("rms unreachable")

	err := s.Commit(context.Background(), w.Id)
	assert.Error(t, err)
	assert.Equal(t, model.Rejected, w.State)

	for _, id := range order {
		if id == failing {
			continue
		}
		r := st.Snapshot(id)
		if r != nil {
			assert.Equal(t, model.Rejected, r.State)
		}
	}
}

func TestScheduler_Commit_AggregatesTeardownDeleteErrors(t *testing.T) {
	s, w, _, target := buildScheduledWorkflow(t)

	order := rankDownwardMemberOrder(w)
	require.Len(t, order, 3)
	failing := order[2]
	alreadyCommitted := order[0]
	target.commitErr[failing] = errors.New("rms unreachable")
	target.deleteErr[alreadyCommitted] = errors.New("teardown rms timeout")

	err := s.Commit(context.Background(), w.Id)
	require.Error(t, err)
	assert.Equal(t, model.Rejected, w.State)

	errs := multierr.Errors(err)
	require.Len(t, errs, 2)
	assert.ErrorContains(t, errs[0], "rms unreachable")
	assert.ErrorContains(t, errs[1], "teardown rms timeout")
}

func TestScheduler_Delete_ClearsWorkflowAndIsIdempotent(t *testing.T) {
	s, w, _, target := buildScheduledWorkflow(t)
	require.NoError(t, s.Delete(context.Background(), w.Id))
	assert.Equal(t, model.Deleted, w.State)

	for _, id := range w.SubReservationIds() {
		assert.True(t, target.deleted[id])
	}

	// idempotent: workflow no longer tracked, second call is a no-op
	require.NoError(t, s.Delete(context.Background(), w.Id))
}

func TestRankDownwardMemberOrder_SortsCoAllocationsByRankThenAppendsDependencies(t *testing.T) {
	w, _ := buildTwoStageWorkflow(t)
	order := rankDownwardMemberOrder(w)

	require.Len(t, order, 3) // two node members + one link dependency
	assert.Equal(t, w.CoAllocations[0].Members[0], order[0])
	assert.Equal(t, w.CoAllocations[1].Members[0], order[1])
}
