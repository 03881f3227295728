package workflow

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"

	"github.com/att/vrm/internal/ids"
	"github.com/att/vrm/internal/model"
	"github.com/att/vrm/internal/store"
	"github.com/att/vrm/internal/transport"
)

type fakeTarget struct {
	st         *store.Store
	probes     map[ids.ReservationId]transport.ProbeResult
	probeErr   map[ids.ReservationId]error
	reserveErr map[ids.ReservationId]error
	commitErr  map[ids.ReservationId]error
	deleteErr  map[ids.ReservationId]error
	deleted    map[ids.ReservationId]bool
}

func newFakeTarget() *fakeTarget {
	return &fakeTarget{
		probes:     map[ids.ReservationId]transport.ProbeResult{},
		probeErr:   map[ids.ReservationId]error{},
		reserveErr: map[ids.ReservationId]error{},
		commitErr:  map[ids.ReservationId]error{},
		deleteErr:  map[ids.ReservationId]error{},
		deleted:    map[ids.ReservationId]bool{},
	}
}

func (f *fakeTarget) Probe(ctx context.Context, id ids.ReservationId) (transport.ProbeResult, error) {
	if err := f.probeErr[id]; err != nil {
		return transport.ProbeResult{}, err
	}
	return f.probes[id], nil
}
func (f *fakeTarget) Reserve(ctx context.Context, id ids.ReservationId) (model.State, error) {
	if err := f.reserveErr[id]; err != nil {
		return model.Rejected, err
	}
	return model.ReserveAnswer, nil
}
func (f *fakeTarget) Commit(ctx context.Context, id ids.ReservationId) error {
	if err := f.commitErr[id]; err != nil {
		return err
	}
	if f.st != nil {
		_ = f.st.SetState(id, model.Committed)
	}
	return nil
}
func (f *fakeTarget) Delete(ctx context.Context, id ids.ReservationId) error {
	f.deleted[id] = true
	return f.deleteErr[id]
}
func (f *fakeTarget) GetLoadMetric(ctx context.Context, start, end int64) (transport.LoadMetricResult, error) {
	return transport.LoadMetricResult{}, nil
}
func (f *fakeTarget) GetSatisfaction(ctx context.Context) (float64, error) { return 1, nil }
func (f *fakeTarget) GetRouterList(ctx context.Context) ([]ids.RouterId, error) {
	return nil, nil
}
func (f *fakeTarget) CanHandle(ctx context.Context, id ids.ReservationId) (bool, error) {
	return true, nil
}

func buildTwoStageWorkflow(t *testing.T) (*model.Workflow, *store.Store) {
	t.Helper()
	st := store.New()
	a := st.Create(&model.Record{Base: model.Base{TaskDuration: 5}})
	b := st.Create(&model.Record{Base: model.Base{TaskDuration: 10}})
	link := st.Create(&model.Record{Base: model.Base{Id: "link-ab"}})

	w := model.NewWorkflow(ids.NewWorkflowId(), ids.ClientIdOf("client"), 0, 0, 1000)
	dep := newDataDep(link, a, b, 1)
	w.AddNode(&model.WorkflowNode{NodeReservationId: a})
	w.AddNode(&model.WorkflowNode{NodeReservationId: b})
	w.AddDependency(dep)

	coA := &model.CoAllocation{Index: 0, Members: []ids.ReservationId{a}}
	coB := &model.CoAllocation{Index: 1, Members: []ids.ReservationId{b}}
	edge := &model.CoAllocationDependency{From: coA, To: coB, Dep: dep}
	coA.Outgoing = []*model.CoAllocationDependency{edge}
	coB.Incoming = []*model.CoAllocationDependency{edge}
	w.CoAllocations = []*model.CoAllocation{coA, coB}

	weight := ComputeRanks(w, st, 1)
	require.NoError(t, DecomposeBookingIntervals(w, weight))
	return w, st
}

func TestPlace_FeasibleGangReservesAtCommonStart(t *testing.T) {
	w, st := buildTwoStageWorkflow(t)
	a := w.CoAllocations[0].Members[0]
	b := w.CoAllocations[1].Members[0]

	target := newFakeTarget()
	target.probes[a] = transport.ProbeResult{Feasible: true, AssignedStart: 0, AssignedEnd: 5}
	target.probes[b] = transport.ProbeResult{Feasible: true, AssignedStart: 0, AssignedEnd: 10}

	require.NoError(t, Place(context.Background(), w, st, target, 1))

	assert.Equal(t, int64(0), st.Snapshot(a).AssignedStart)
	assert.Equal(t, int64(0), st.Snapshot(b).AssignedStart)
}

func TestPlace_MemberInfeasibleRejectsAndRollsBackEverything(t *testing.T) {
	w, st := buildTwoStageWorkflow(t)
	a := w.CoAllocations[0].Members[0]
	b := w.CoAllocations[1].Members[0]

	target := newFakeTarget()
	target.probes[a] = transport.ProbeResult{Feasible: false}
	target.probes[b] = transport.ProbeResult{Feasible: true, AssignedStart: 0, AssignedEnd: 10}

	err := Place(context.Background(), w, st, target, 1)
	assert.Error(t, err)
	assert.Equal(t, model.Rejected, w.State)
}

func TestPlace_DisagreeingStartsAreRejected(t *testing.T) {
	st := store.New()
	a := st.Create(&model.Record{Base: model.Base{TaskDuration: 5}})
	b := st.Create(&model.Record{Base: model.Base{TaskDuration: 5}})
	w := model.NewWorkflow(ids.NewWorkflowId(), ids.ClientIdOf("client"), 0, 0, 1000)
	w.CoAllocations = []*model.CoAllocation{{Index: 0, Members: []ids.ReservationId{a, b}}}

	target := newFakeTarget()
	target.probes[a] = transport.ProbeResult{Feasible: true, AssignedStart: 0, AssignedEnd: 5}
	target.probes[b] = transport.ProbeResult{Feasible: true, AssignedStart: 10, AssignedEnd: 15}

	err := Place(context.Background(), w, st, target, 1)
	assert.Error(t, err)
}

func TestPlace_TightensSuccessorBookingStartByTransferTime(t *testing.T) {
	w, st := buildTwoStageWorkflow(t)
	a := w.CoAllocations[0].Members[0]
	b := w.CoAllocations[1].Members[0]

	target := newFakeTarget()
	target.probes[a] = transport.ProbeResult{Feasible: true, AssignedStart: 0, AssignedEnd: 5}
	target.probes[b] = transport.ProbeResult{Feasible: true, AssignedStart: 0, AssignedEnd: 10}

	require.NoError(t, Place(context.Background(), w, st, target, 1))

	transferTime := w.Dependencies["link-ab"].TransferTime(1)
	assert.GreaterOrEqual(t, w.CoAllocations[1].BookingStart, transferTime)
}

func TestRejectAll_AggregatesTeardownDeleteErrors(t *testing.T) {
	w, st := buildTwoStageWorkflow(t)
	a := w.CoAllocations[0].Members[0]
	b := w.CoAllocations[1].Members[0]
	require.NoError(t, st.SetState(a, model.ReserveAnswer))
	require.NoError(t, st.SetState(b, model.ReserveAnswer))

	target := newFakeTarget()
	target.deleteErr[a] = errors.New("rms unreachable")
	target.deleteErr[b] = errors.New("rms timeout")

	err := rejectAll(context.Background(), w, st, target)
	require.Error(t, err)
	assert.Len(t, multierr.Errors(err), 2)
	assert.True(t, target.deleted[a])
	assert.True(t, target.deleted[b])
	assert.Equal(t, model.Rejected, st.Snapshot(a).State)
	assert.Equal(t, model.Rejected, st.Snapshot(b).State)
	assert.Equal(t, model.Rejected, w.State)
}

func TestRejectAll_NoTeardownNeededReturnsNilError(t *testing.T) {
	w, st := buildTwoStageWorkflow(t)

	target := newFakeTarget()
	err := rejectAll(context.Background(), w, st, target)
	assert.NoError(t, err)
	assert.Equal(t, model.Rejected, w.State)
}
