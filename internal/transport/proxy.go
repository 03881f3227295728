package transport

import (
	"context"

	"github.com/att/vrm/internal/ids"
	"github.com/att/vrm/internal/model"
	"github.com/att/vrm/internal/vrmerr"
)

// Proxy is a handle to a remote (or in-process, same-binary) Component: it
// holds only the component's id and its mailbox's request channel, and
// forwards every call as a Request/Reply round-trip.
type Proxy struct {
	Id    ids.ComponentId
	reqCh chan *Request
}

func NewProxy(id ids.ComponentId, reqCh chan *Request) *Proxy {
	return &Proxy{Id: id, reqCh: reqCh}
}

// call sends req and blocks for its reply, honoring ctx cancellation. A send
// that blocks (full or unread mailbox) or a reply wait that outlasts ctx
// surfaces as a TransportError; an error carried in the reply is returned
// as is. The mailbox channel is never expected to be closed: a send on a
// closed channel panics.
func (p *Proxy) call(ctx context.Context, req *Request) (Reply, error) {
	req.ReplyCh = make(chan Reply, 1)
	select {
	case p.reqCh <- req:
	case <-ctx.Done():
		return Reply{}, vrmerr.NewTransportError(string(p.Id), "send blocked: "+ctx.Err().Error())
	}
	select {
	case reply := <-req.ReplyCh:
		return reply, reply.Err
	case <-ctx.Done():
		return Reply{}, vrmerr.NewTransportError(string(p.Id), "reply wait cancelled: "+ctx.Err().Error())
	}
}

func (p *Proxy) Probe(ctx context.Context, id ids.ReservationId) (ProbeResult, error) {
	reply, err := p.call(ctx, &Request{Op: OpProbe, ReservationId: id})
	return reply.Probe, err
}

func (p *Proxy) Reserve(ctx context.Context, id ids.ReservationId) (model.State, error) {
	reply, err := p.call(ctx, &Request{Op: OpReserve, ReservationId: id})
	return reply.State, err
}

func (p *Proxy) Commit(ctx context.Context, id ids.ReservationId) error {
	_, err := p.call(ctx, &Request{Op: OpCommit, ReservationId: id})
	return err
}

func (p *Proxy) Delete(ctx context.Context, id ids.ReservationId) error {
	_, err := p.call(ctx, &Request{Op: OpDelete, ReservationId: id})
	return err
}

func (p *Proxy) GetLoadMetric(ctx context.Context, start, end int64) (LoadMetricResult, error) {
	reply, err := p.call(ctx, &Request{Op: OpGetLoadMetric, RangeStart: start, RangeEnd: end})
	return reply.LoadMetric, err
}

func (p *Proxy) GetSatisfaction(ctx context.Context) (float64, error) {
	reply, err := p.call(ctx, &Request{Op: OpGetSatisfaction})
	return reply.Float, err
}

func (p *Proxy) GetRouterList(ctx context.Context) ([]ids.RouterId, error) {
	reply, err := p.call(ctx, &Request{Op: OpGetRouterList})
	return reply.RouterList, err
}

func (p *Proxy) CanHandle(ctx context.Context, id ids.ReservationId) (bool, error) {
	reply, err := p.call(ctx, &Request{Op: OpCanHandle, ReservationId: id})
	return reply.Bool, err
}
