package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/att/vrm/internal/ids"
	"github.com/att/vrm/internal/model"
)

func newSyncDep(id, source, target ids.ReservationId, bandwidth int64) *model.Dependency {
	return &model.Dependency{
		Kind:      model.DependencySync,
		Link:      &model.Record{Base: model.Base{Id: id}},
		Source:    source,
		Target:    target,
		Bandwidth: bandwidth,
	}
}

func newDataDep(id, source, target ids.ReservationId, fileSize int64) *model.Dependency {
	return &model.Dependency{
		Kind:     model.DependencyData,
		Link:     &model.Record{Base: model.Base{Id: id}},
		Source:   source,
		Target:   target,
		FileSize: fileSize,
	}
}

// buildGangWorkflow returns a, b (sync-linked gang), c (standalone node),
// and a data dependency from the gang (via a) to c.
func buildGangWorkflow() *model.Workflow {
	w := model.NewWorkflow(ids.NewWorkflowId(), ids.ClientIdOf("client"), 0, 0, 1000)

	a := ids.ReservationId("a")
	b := ids.ReservationId("b")
	c := ids.ReservationId("c")

	sync := newSyncDep("sync-ab", a, b, 100)
	w.AddDependency(sync)

	data := newDataDep("data-ac", a, c, 1000)
	w.AddDependency(data)

	w.AddNode(&model.WorkflowNode{NodeReservationId: a, SyncDeps: []ids.ReservationId{sync.Id()}, OutgoingData: []ids.ReservationId{data.Id()}})
	w.AddNode(&model.WorkflowNode{NodeReservationId: b, SyncDeps: []ids.ReservationId{sync.Id()}})
	w.AddNode(&model.WorkflowNode{NodeReservationId: c, IncomingData: []ids.ReservationId{data.Id()}})

	return w
}

func TestDecompose_GroupsSyncLinkedNodesIntoOneCoAllocation(t *testing.T) {
	w := buildGangWorkflow()
	Decompose(w)

	require.Len(t, w.CoAllocations, 2)

	var gang, solo *model.CoAllocation
	for _, co := range w.CoAllocations {
		if len(co.Members) == 2 {
			gang = co
		} else {
			solo = co
		}
	}
	require.NotNil(t, gang)
	require.NotNil(t, solo)
	assert.ElementsMatch(t, []ids.ReservationId{"a", "b"}, gang.Members)
	assert.Equal(t, []ids.ReservationId{"c"}, solo.Members)
}

func TestDecompose_CrossGroupDataDependencyBecomesCoAllocationEdge(t *testing.T) {
	w := buildGangWorkflow()
	Decompose(w)

	var gang, solo *model.CoAllocation
	for _, co := range w.CoAllocations {
		if len(co.Members) == 2 {
			gang = co
		} else {
			solo = co
		}
	}

	require.Len(t, gang.Outgoing, 1)
	assert.Equal(t, solo, gang.Outgoing[0].To)
	require.Len(t, solo.Incoming, 1)
	assert.Equal(t, gang, solo.Incoming[0].From)
}

func TestDecompose_SameGroupDataDependencyIsNotAnEdge(t *testing.T) {
	w := model.NewWorkflow(ids.NewWorkflowId(), ids.ClientIdOf("client"), 0, 0, 1000)
	a := ids.ReservationId("a")
	b := ids.ReservationId("b")

	sync := newSyncDep("sync-ab", a, b, 100)
	w.AddDependency(sync)
	data := newDataDep("data-ab", a, b, 500) // same-group: internal constraint
	w.AddDependency(data)

	w.AddNode(&model.WorkflowNode{NodeReservationId: a, SyncDeps: []ids.ReservationId{sync.Id()}, OutgoingData: []ids.ReservationId{data.Id()}})
	w.AddNode(&model.WorkflowNode{NodeReservationId: b, SyncDeps: []ids.ReservationId{sync.Id()}, IncomingData: []ids.ReservationId{data.Id()}})

	Decompose(w)
	require.Len(t, w.CoAllocations, 1)
	assert.Empty(t, w.CoAllocations[0].Incoming)
	assert.Empty(t, w.CoAllocations[0].Outgoing)
}

func TestDecompose_SingletonNodeWithNoEdgesIsItsOwnGroup(t *testing.T) {
	w := model.NewWorkflow(ids.NewWorkflowId(), ids.ClientIdOf("client"), 0, 0, 1000)
	w.AddNode(&model.WorkflowNode{NodeReservationId: "solo"})

	Decompose(w)
	require.Len(t, w.CoAllocations, 1)
	assert.Equal(t, []ids.ReservationId{"solo"}, w.CoAllocations[0].Members)
}
