package api

import (
	"fmt"
	"io"
	"sync"

	"github.com/att/vrm/internal/clock"
	"github.com/att/vrm/internal/ids"
	"github.com/att/vrm/internal/model"
)

// csvColumns is the analytics CSV's fixed 20-column header: a
// ";"-separated line per logged event, one sink shared by every component
// rather than per-component files, matching Tegu's single checkpoint/log
// file per process.
var csvColumns = []string{
	"Time", "LogDescription", "ComponentType", "ComponentId",
	"ReservationId", "WorkflowId", "Kind", "State", "RequestProceeding",
	"ClientId", "HandlerId", "AssignedStart", "AssignedEnd",
	"TaskDuration", "ReservedCapacity", "IsMoldable", "MoldableWork",
	"FragDelta", "Utilization", "PossibleCapacity",
}

// CsvRow is one analytics line; fields beyond Time/LogDescription/
// ComponentType/ComponentId are optional and left at their zero value when
// the logged event doesn't carry them (e.g. a load-metric sample has no
// ReservationId).
type CsvRow struct {
	LogDescription string
	ComponentType  string
	ComponentId    string

	Record *model.Record // nil for component-level (non-reservation) events

	Utilization      float64
	PossibleCapacity float64
}

// CsvSink serializes CsvRows to an io.Writer, 20 ";"-separated columns per
// line. Writes are serialized by a mutex since the
// sink is shared across every component's goroutine.
type CsvSink struct {
	mu    sync.Mutex
	w     io.Writer
	clock clock.Clock

	wroteHeader bool
}

func NewCsvSink(w io.Writer, clk clock.Clock) *CsvSink {
	return &CsvSink{w: w, clock: clk}
}

func (s *CsvSink) Write(row CsvRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.wroteHeader {
		if _, err := fmt.Fprintln(s.w, joinSemi(csvColumns)); err != nil {
			return err
		}
		s.wroteHeader = true
	}

	var (
		reservationId, workflowId, kind, state, proceeding, clientId, handlerId string
		assignedStart, assignedEnd, taskDuration, reservedCapacity, moldableWork int64
		isMoldable                                                              bool
		fragDelta                                                               float64
	)
	if r := row.Record; r != nil {
		reservationId = string(r.Id)
		workflowId = string(r.WorkflowId)
		kind = r.Kind.String()
		state = r.State.String()
		proceeding = r.RequestProceeding.String()
		clientId = string(r.ClientId)
		if r.HandlerId != nil {
			handlerId = string(*r.HandlerId)
		}
		assignedStart, assignedEnd = r.AssignedStart, r.AssignedEnd
		taskDuration, reservedCapacity = r.TaskDuration, r.ReservedCapacity
		isMoldable, moldableWork = r.IsMoldable, r.MoldableWork
		fragDelta = r.FragDelta
	}

	fields := []string{
		fmt.Sprintf("%d", s.clock.NowSecs()), row.LogDescription, row.ComponentType, row.ComponentId,
		reservationId, workflowId, kind, state, proceeding,
		clientId, handlerId, fmt.Sprintf("%d", assignedStart), fmt.Sprintf("%d", assignedEnd),
		fmt.Sprintf("%d", taskDuration), fmt.Sprintf("%d", reservedCapacity), fmt.Sprintf("%t", isMoldable), fmt.Sprintf("%d", moldableWork),
		fmt.Sprintf("%g", fragDelta), fmt.Sprintf("%g", row.Utilization), fmt.Sprintf("%g", row.PossibleCapacity),
	}
	_, err := fmt.Fprintln(s.w, joinSemi(fields))
	return err
}

// ListenStore registers a store.Listener-compatible closure that emits a CSV
// row for every reservation state transition, mirroring what Notifier does
// for websocket clients.
func (s *CsvSink) ListenStore() func(id ids.ReservationId, old, new model.State) {
	return func(id ids.ReservationId, old, new model.State) {
		_ = s.Write(CsvRow{
			LogDescription: fmt.Sprintf("state %s -> %s", old, new),
			ComponentType:  "ReservationStore",
			Record:         &model.Record{Base: model.Base{Id: id, State: new}},
		})
	}
}

func joinSemi(fields []string) string {
	out := fields[0]
	for _, f := range fields[1:] {
		out += ";" + f
	}
	return out
}
