package rms

import (
	"context"
	"testing"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/att/vrm/internal/ids"
	"github.com/att/vrm/internal/model"
)

func TestNullBroker_CommitThenDelete(t *testing.T) {
	b := NewNullBroker(logr.Discard())
	r := &model.Record{Base: model.Base{Id: ids.ReservationId("r1")}}

	require.NoError(t, b.Commit(context.Background(), r))
	assert.True(t, b.Committed(r.Id))

	require.NoError(t, b.Delete(context.Background(), r.Id))
	assert.False(t, b.Committed(r.Id))
}

func TestNullBroker_Ping_AlwaysSucceeds(t *testing.T) {
	b := NewNullBroker(logr.Discard())
	assert.NoError(t, b.Ping(context.Background()))
}

func TestNullBroker_Delete_UnknownIdIsNoOp(t *testing.T) {
	b := NewNullBroker(logr.Discard())
	assert.NoError(t, b.Delete(context.Background(), ids.ReservationId("missing")))
}
