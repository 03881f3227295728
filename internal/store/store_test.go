package store

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/att/vrm/internal/ids"
	"github.com/att/vrm/internal/model"
)

func newTestRecord() *model.Record {
	return &model.Record{
		Kind: model.KindNode,
		Base: model.Base{
			ClientId:             ids.ClientIdOf("client"),
			BookingIntervalStart: 0,
			BookingIntervalEnd:   600,
			TaskDuration:         60,
			ReservedCapacity:     2,
		},
		Node: &model.NodeExtra{},
	}
}

func TestStore_CreateAssignsIdAndSnapshotIsIndependent(t *testing.T) {
	s := New()
	id := s.Create(newTestRecord())
	assert.NotEmpty(t, id)

	snap := s.Snapshot(id)
	require.NotNil(t, snap)
	snap.ReservedCapacity = 999

	again := s.Snapshot(id)
	assert.Equal(t, int64(2), again.ReservedCapacity)
}

func TestStore_Snapshot_UnknownIdReturnsNil(t *testing.T) {
	s := New()
	assert.Nil(t, s.Snapshot(ids.ReservationId("missing")))
}

func TestStore_Exists(t *testing.T) {
	s := New()
	id := s.Create(newTestRecord())
	assert.True(t, s.Exists(id))
	assert.False(t, s.Exists(ids.ReservationId("missing")))
}

func TestStore_IsWorkflow(t *testing.T) {
	s := New()
	r := newTestRecord()
	r.WorkflowId = ids.NewWorkflowId()
	id := s.Create(r)
	assert.True(t, s.IsWorkflow(id))

	plain := s.Create(newTestRecord())
	assert.False(t, s.IsWorkflow(plain))
}

func TestStore_SetState_UpdatesRecordAndFiresListener(t *testing.T) {
	s := New()
	id := s.Create(newTestRecord())

	var mu sync.Mutex
	var got []model.State
	done := make(chan struct{}, 1)
	s.AddListener(func(gotId ids.ReservationId, old, new model.State) {
		if gotId != id {
			return
		}
		mu.Lock()
		got = append(got, new)
		mu.Unlock()
		if new == model.ProbeAnswer {
			done <- struct{}{}
		}
	})

	require.NoError(t, s.SetState(id, model.ProbeAnswer))

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("listener was not invoked")
	}

	snap := s.Snapshot(id)
	assert.Equal(t, model.ProbeAnswer, snap.State)
}

func TestStore_Mutate_UnknownIdReturnsError(t *testing.T) {
	s := New()
	err := s.SetState(ids.ReservationId("missing"), model.ProbeAnswer)
	assert.Error(t, err)
}

func TestStore_SetAssignedStartEnd(t *testing.T) {
	s := New()
	id := s.Create(newTestRecord())
	require.NoError(t, s.SetAssignedStart(id, 120))
	require.NoError(t, s.SetAssignedEnd(id, 180))

	snap := s.Snapshot(id)
	assert.Equal(t, int64(120), snap.AssignedStart)
	assert.Equal(t, int64(180), snap.AssignedEnd)
}

func TestStore_SetHandler(t *testing.T) {
	s := New()
	id := s.Create(newTestRecord())
	comp := ids.NewComponentId()
	require.NoError(t, s.SetHandler(id, &comp))

	snap := s.Snapshot(id)
	require.NotNil(t, snap.HandlerId)
	assert.Equal(t, comp, *snap.HandlerId)
}

func TestStore_AdjustCapacity_NonMoldableIsNoOp(t *testing.T) {
	s := New()
	id := s.Create(newTestRecord())
	require.NoError(t, s.AdjustCapacity(id, 1, 60))

	snap := s.Snapshot(id)
	assert.Equal(t, int64(2), snap.ReservedCapacity)
	assert.Equal(t, int64(60), snap.TaskDuration)
}

func TestStore_AdjustCapacity_MoldablePreservesWorkAndRoundsToSlotWidth(t *testing.T) {
	s := New()
	r := newTestRecord()
	r.IsMoldable = true
	r.MoldableWork = 480
	r.ReservedCapacity = 4
	r.TaskDuration = 120
	id := s.Create(r)

	require.NoError(t, s.AdjustCapacity(id, 3, 60))

	snap := s.Snapshot(id)
	assert.Equal(t, int64(3), snap.ReservedCapacity)
	// ceil(480/3) = 160, rounded up to a 60s slot width = 180.
	assert.Equal(t, int64(180), snap.TaskDuration)
}

func TestStore_Gate_SignalsOnTerminalState(t *testing.T) {
	s := New()
	id := s.Create(newTestRecord())

	gate := s.Gate(id)
	require.NotNil(t, gate)

	go func() {
		_ = s.SetState(id, model.Rejected)
	}()

	st, ok := gate.WaitWithTimeout(time.Second)
	assert.True(t, ok)
	assert.Equal(t, model.Rejected, st)
}

func TestStore_Gate_TimesOutWithoutSignal(t *testing.T) {
	s := New()
	id := s.Create(newTestRecord())
	gate := s.Gate(id)

	_, ok := gate.WaitWithTimeout(10 * time.Millisecond)
	assert.False(t, ok)
}

func TestStore_Gate_UnknownIdReturnsNil(t *testing.T) {
	s := New()
	assert.Nil(t, s.Gate(ids.ReservationId("missing")))
}

func TestStore_Range_VisitsEveryLiveRecordAsASnapshot(t *testing.T) {
	s := New()
	idA := s.Create(newTestRecord())
	idB := s.Create(newTestRecord())

	seen := map[ids.ReservationId]bool{}
	s.Range(func(r *model.Record) {
		seen[r.Id] = true
		r.ReservedCapacity = 0 // mutating the snapshot must not reach the store
	})
	assert.True(t, seen[idA])
	assert.True(t, seen[idB])

	assert.Equal(t, int64(2), s.Snapshot(idA).ReservedCapacity)
}

func TestStore_Remove_OnlyDeletesTerminalRecords(t *testing.T) {
	s := New()
	id := s.Create(newTestRecord())

	s.Remove(id)
	assert.True(t, s.Exists(id), "non-terminal record must survive Remove")

	require.NoError(t, s.SetState(id, model.Deleted))
	s.Remove(id)
	assert.False(t, s.Exists(id))
}

func TestStore_Remove_UnknownIdIsNoOp(t *testing.T) {
	s := New()
	s.Remove(ids.ReservationId("missing"))
}
