package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/att/vrm/internal/ids"
)

func TestRecord_Clone_IsIndependent(t *testing.T) {
	orig := &Record{
		Base: Base{Id: ids.ReservationId("r1"), HandlerId: idPtr(ids.ComponentIdOf("c1"))},
		Kind: KindNode,
		Node: &NodeExtra{TaskPath: "/bin/job"},
	}

	clone := orig.Clone()
	require.NotSame(t, orig, clone)
	require.NotSame(t, orig.HandlerId, clone.HandlerId)
	require.NotSame(t, orig.Node, clone.Node)

	clone.Node.TaskPath = "/bin/other"
	*clone.HandlerId = ids.ComponentIdOf("c2")

	assert.Equal(t, "/bin/job", orig.Node.TaskPath)
	assert.Equal(t, ids.ComponentIdOf("c1"), *orig.HandlerId)
}

func TestRecord_Clone_Nil(t *testing.T) {
	var r *Record
	assert.Nil(t, r.Clone())
}

func TestRecord_BookingWindow(t *testing.T) {
	r := &Record{Base: Base{BookingIntervalStart: 100, BookingIntervalEnd: 400}}
	assert.Equal(t, int64(300), r.BookingWindow())
}

func TestRecord_IsFeasiblePlacement(t *testing.T) {
	r := &Record{Base: Base{
		State:                ProbeAnswer,
		BookingIntervalStart: 0,
		BookingIntervalEnd:   100,
		AssignedStart:        10,
		AssignedEnd:          70,
		TaskDuration:         60,
	}}
	assert.True(t, r.IsFeasiblePlacement())
}

func TestRecord_IsFeasiblePlacement_NotYetProbed(t *testing.T) {
	r := &Record{Base: Base{State: Open, TaskDuration: 60, AssignedEnd: 60}}
	assert.False(t, r.IsFeasiblePlacement())
}

func TestRecord_IsFeasiblePlacement_DurationMismatch(t *testing.T) {
	r := &Record{Base: Base{
		State: ProbeAnswer, BookingIntervalStart: 0, BookingIntervalEnd: 100,
		AssignedStart: 10, AssignedEnd: 50, TaskDuration: 60,
	}}
	assert.False(t, r.IsFeasiblePlacement())
}

func TestRecord_IsFeasiblePlacement_OutsideBookingWindow(t *testing.T) {
	r := &Record{Base: Base{
		State: ProbeAnswer, BookingIntervalStart: 0, BookingIntervalEnd: 50,
		AssignedStart: 10, AssignedEnd: 70, TaskDuration: 60,
	}}
	assert.False(t, r.IsFeasiblePlacement())
}

func TestRecord_IsMoldableConsistent(t *testing.T) {
	r := &Record{Base: Base{IsMoldable: true, ReservedCapacity: 4, TaskDuration: 60, MoldableWork: 240}}
	assert.True(t, r.IsMoldableConsistent())

	r.MoldableWork = 100
	assert.False(t, r.IsMoldableConsistent())
}

func TestRecord_IsMoldableConsistent_NonMoldableAlwaysTrue(t *testing.T) {
	r := &Record{Base: Base{IsMoldable: false, MoldableWork: 0}}
	assert.True(t, r.IsMoldableConsistent())
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "Node", KindNode.String())
	assert.Equal(t, "Link", KindLink.String())
}

func idPtr(id ids.ComponentId) *ids.ComponentId { return &id }
