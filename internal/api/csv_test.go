package api

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/att/vrm/internal/clock"
	"github.com/att/vrm/internal/ids"
	"github.com/att/vrm/internal/model"
)

func TestCsvSink_WritesHeaderOnce(t *testing.T) {
	var buf bytes.Buffer
	sink := NewCsvSink(&buf, clock.NewSimulated(42))

	require.NoError(t, sink.Write(CsvRow{LogDescription: "probe", ComponentType: "AcI", ComponentId: "aci-1"}))
	require.NoError(t, sink.Write(CsvRow{LogDescription: "reserve", ComponentType: "AcI", ComponentId: "aci-1"}))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, len(csvColumns), len(strings.Split(lines[0], ";")))
	assert.Contains(t, lines[1], "probe")
	assert.True(t, strings.HasPrefix(lines[1], "42;"))
}

func TestCsvSink_RecordFieldsPopulated(t *testing.T) {
	var buf bytes.Buffer
	sink := NewCsvSink(&buf, clock.NewSimulated(0))

	rec := &model.Record{
		Base: model.Base{
			Id: ids.ReservationId("r1"), ClientId: ids.ClientIdOf("c1"),
			State: model.Committed, TaskDuration: 60, ReservedCapacity: 4,
		},
		Kind: model.KindNode,
	}
	require.NoError(t, sink.Write(CsvRow{LogDescription: "committed", ComponentType: "AcI", ComponentId: "aci-1", Record: rec}))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 2)
	fields := strings.Split(lines[1], ";")
	require.Len(t, fields, len(csvColumns))
	assert.Equal(t, "r1", fields[4])
	assert.Equal(t, "Committed", fields[7])
}
