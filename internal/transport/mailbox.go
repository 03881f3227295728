package transport

import (
	"context"
	"fmt"

	"github.com/att/vrm/internal/ids"
	"github.com/att/vrm/internal/model"
)

// Op tags which Component method a Request invokes.
type Op int

const (
	OpProbe Op = iota
	OpReserve
	OpCommit
	OpDelete
	OpGetLoadMetric
	OpGetSatisfaction
	OpGetRouterList
	OpCanHandle
)

// Request is one tagged-variant call with a one-shot reply channel; the
// owning executor serializes all method invocations on its component.
type Request struct {
	Op            Op
	ReservationId ids.ReservationId
	RangeStart    int64
	RangeEnd      int64
	ReplyCh       chan Reply
}

// Reply carries back whichever result field the Op produced, plus an error.
type Reply struct {
	Probe       ProbeResult
	State       model.State
	LoadMetric  LoadMetricResult
	Float       float64
	RouterList  []ids.RouterId
	Bool        bool
	Err         error
}

// Mailbox is the single-goroutine executor every VrmComponent runs under: it
// owns a request channel and dispatches each Request to the wrapped
// Component strictly sequentially.
type Mailbox struct {
	Id      ids.ComponentId
	reqCh   chan *Request
	handler Component
}

func NewMailbox(id ids.ComponentId, handler Component, bufSize int) *Mailbox {
	return &Mailbox{Id: id, reqCh: make(chan *Request, bufSize), handler: handler}
}

// Chan returns the request channel, used to build a Proxy pointed at this
// mailbox.
func (m *Mailbox) Chan() chan *Request { return m.reqCh }

// Run serves requests until ctx is cancelled or the channel is closed. It is
// meant to be launched as `go mailbox.Run(ctx)` once per component instance.
func (m *Mailbox) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case req, ok := <-m.reqCh:
			if !ok {
				return
			}
			m.dispatch(ctx, req)
		}
	}
}

func (m *Mailbox) dispatch(ctx context.Context, req *Request) {
	var reply Reply
	switch req.Op {
	case OpProbe:
		reply.Probe, reply.Err = m.handler.Probe(ctx, req.ReservationId)
	case OpReserve:
		reply.State, reply.Err = m.handler.Reserve(ctx, req.ReservationId)
	case OpCommit:
		reply.Err = m.handler.Commit(ctx, req.ReservationId)
	case OpDelete:
		reply.Err = m.handler.Delete(ctx, req.ReservationId)
	case OpGetLoadMetric:
		reply.LoadMetric, reply.Err = m.handler.GetLoadMetric(ctx, req.RangeStart, req.RangeEnd)
	case OpGetSatisfaction:
		reply.Float, reply.Err = m.handler.GetSatisfaction(ctx)
	case OpGetRouterList:
		reply.RouterList, reply.Err = m.handler.GetRouterList(ctx)
	case OpCanHandle:
		reply.Bool, reply.Err = m.handler.CanHandle(ctx, req.ReservationId)
	default:
		reply.Err = fmt.Errorf("transport: unknown op %d", req.Op)
	}
	if req.ReplyCh != nil {
		req.ReplyCh <- reply
	}
}
