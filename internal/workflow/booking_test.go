package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/att/vrm/internal/ids"
	"github.com/att/vrm/internal/model"
	"github.com/att/vrm/internal/store"
)

func TestDecomposeBookingIntervals_ComputesStartEndAndSpareTime(t *testing.T) {
	w, st := buildChain(t)
	weight := ComputeRanks(w, st, 1)

	require.NoError(t, DecomposeBookingIntervals(w, weight))

	coA, coB, coC := w.CoAllocations[0], w.CoAllocations[1], w.CoAllocations[2]

	assert.Equal(t, w.BookingIntervalStart+int64(coA.RankDownward), coA.BookingStart)
	assert.Equal(t, w.BookingIntervalStart+int64(coB.RankDownward), coB.BookingStart)
	assert.Equal(t, w.BookingIntervalStart+int64(coC.RankDownward), coC.BookingStart)

	assert.Equal(t, w.BookingIntervalEnd-int64(coA.RankUpward-float64(weight[coA.Index])), coA.BookingEnd)

	for _, a := range w.CoAllocations {
		assert.GreaterOrEqual(t, a.SpareTime, int64(0))
		assert.Equal(t, a.BookingEnd-a.BookingStart-weight[a.Index], a.SpareTime)
	}
}

func TestDecomposeBookingIntervals_NegativeSpareTimeIsRejected(t *testing.T) {
	w, st := buildChain(t)
	w.BookingIntervalEnd = 10 // far too tight for the 5+2+10+4+3 chain
	weight := ComputeRanks(w, st, 1)

	err := DecomposeBookingIntervals(w, weight)
	assert.Error(t, err)
}

func TestDecomposeBookingIntervals_SingleCoAllocationFillsWholeWindow(t *testing.T) {
	st := store.New()
	a := st.Create(&model.Record{Base: model.Base{TaskDuration: 5}})

	w := model.NewWorkflow(ids.NewWorkflowId(), ids.ClientIdOf("client"), 0, 0, 100)
	w.CoAllocations = []*model.CoAllocation{{Index: 0, Members: []ids.ReservationId{a}}}
	weight := ComputeRanks(w, st, 1)

	require.NoError(t, DecomposeBookingIntervals(w, weight))
	co := w.CoAllocations[0]
	assert.Equal(t, int64(0), co.BookingStart)
	assert.Equal(t, int64(100), co.BookingEnd)
	assert.Equal(t, int64(95), co.SpareTime)
}
