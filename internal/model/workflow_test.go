package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/att/vrm/internal/ids"
)

func TestDependency_TransferTime(t *testing.T) {
	dep := &Dependency{Kind: DependencyData, FileSize: 1_000_000, Link: &Record{}}
	// 1MB at 1MB/s rounds up to 1s.
	assert.Equal(t, int64(1), dep.TransferTime(1_000_000))
}

func TestDependency_TransferTime_RoundsUpPartialSecond(t *testing.T) {
	dep := &Dependency{Kind: DependencyData, FileSize: 1_500_000, Link: &Record{}}
	assert.Equal(t, int64(2), dep.TransferTime(1_000_000))
}

func TestDependency_TransferTime_SyncIsAlwaysZero(t *testing.T) {
	dep := &Dependency{Kind: DependencySync, FileSize: 5_000_000, Link: &Record{}}
	assert.Equal(t, int64(0), dep.TransferTime(1_000_000))
}

func TestDependency_TransferTime_ZeroBandwidth(t *testing.T) {
	dep := &Dependency{Kind: DependencyData, FileSize: 100, Link: &Record{}}
	assert.Equal(t, int64(0), dep.TransferTime(0))
}

func TestDependency_Id_UsesLinkReservationId(t *testing.T) {
	dep := &Dependency{Link: &Record{Base: Base{Id: ids.ReservationId("link-1")}}}
	assert.Equal(t, ids.ReservationId("link-1"), dep.Id())
}

func TestWorkflow_AddNodeAndDependency(t *testing.T) {
	w := NewWorkflow(ids.WorkflowId("wf-1"), ids.ClientIdOf("c1"), 0, 0, 600)

	n := &WorkflowNode{NodeReservationId: ids.ReservationId("n1")}
	w.AddNode(n)

	dep := &Dependency{Kind: DependencySync, Link: &Record{Base: Base{Id: ids.ReservationId("l1")}}}
	w.AddDependency(dep)

	require.Contains(t, w.Nodes, ids.ReservationId("n1"))
	require.Contains(t, w.Dependencies, ids.ReservationId("l1"))
}

func TestWorkflow_SubReservationIds(t *testing.T) {
	w := NewWorkflow(ids.WorkflowId("wf-1"), ids.ClientIdOf("c1"), 0, 0, 600)
	w.AddNode(&WorkflowNode{NodeReservationId: ids.ReservationId("n1")})
	w.AddNode(&WorkflowNode{NodeReservationId: ids.ReservationId("n2")})
	w.AddDependency(&Dependency{Link: &Record{Base: Base{Id: ids.ReservationId("l1")}}})

	got := w.SubReservationIds()
	assert.ElementsMatch(t, []ids.ReservationId{"n1", "n2", "l1"}, got)
}
