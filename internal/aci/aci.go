// Package aci implements the AcI leaf broker: wraps exactly one RMS
// (plus the one or more SlottedSchedules/NetworkSchedule backing it) and
// exposes the probe/reserve/commit/delete/metric operations behind a
// transport.Mailbox, enforcing the commit-timeout state machine.
//
// Grounded on Tegu's managers/res_mgr.go for the per-reservation timer
// bookkeeping pattern (its reservation manager also tracks one expiry timer
// per pledge).
package aci

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-logr/logr"

	"github.com/att/vrm/internal/ids"
	"github.com/att/vrm/internal/model"
	"github.com/att/vrm/internal/network"
	"github.com/att/vrm/internal/rms"
	"github.com/att/vrm/internal/schedule"
	"github.com/att/vrm/internal/store"
	"github.com/att/vrm/internal/transport"
	"github.com/att/vrm/internal/vrmerr"
)

// AcI is a leaf broker wrapping one RMS.
type AcI struct {
	Id            ids.AciId
	ComponentId   ids.ComponentId
	store         *store.Store
	rmsImpl       rms.RMS
	commitTimeout time.Duration
	node          *schedule.Context // set when this AcI serves node reservations
	network       *network.Schedule // set when this AcI serves link reservations
	routers       []ids.RouterId
	log           logr.Logger

	mu     sync.Mutex
	timers map[ids.ReservationId]*time.Timer
}

// Option configures an AcI at construction.
type Option func(*AcI)

func WithNodeSchedule(s *schedule.Context) Option { return func(a *AcI) { a.node = s } }
func WithNetworkSchedule(s *network.Schedule) Option {
	return func(a *AcI) { a.network = s }
}
func WithRouters(routers []ids.RouterId) Option { return func(a *AcI) { a.routers = routers } }

func New(id ids.AciId, st *store.Store, rmsImpl rms.RMS, commitTimeout time.Duration,
	log logr.Logger, opts ...Option) *AcI {

	a := &AcI{
		Id:            id,
		ComponentId:   ids.ComponentIdOf(string(id)),
		store:         st,
		rmsImpl:       rmsImpl,
		commitTimeout: commitTimeout,
		log:           log,
		timers:        map[ids.ReservationId]*time.Timer{},
	}
	for _, o := range opts {
		o(a)
	}
	return a
}

// Probe implements transport.Component.
func (a *AcI) Probe(ctx context.Context, id ids.ReservationId) (transport.ProbeResult, error) {
	r := a.store.Snapshot(id)
	if r == nil {
		return transport.ProbeResult{}, vrmerr.NewInputError("id", fmt.Sprintf("unknown reservation %s", id))
	}

	switch r.Kind {
	case model.KindNode:
		if a.node == nil {
			return transport.ProbeResult{}, vrmerr.NewConfigError(string(a.Id), "no node schedule configured")
		}
		cands := a.node.Probe(id)
		if len(cands) == 0 {
			return transport.ProbeResult{ReservationId: id}, nil
		}
		best := cands[0]
		for _, c := range cands[1:] {
			if c.AssignedStart < best.AssignedStart {
				best = c
			}
		}
		return transport.ProbeResult{
			ReservationId: id, Feasible: true,
			AssignedStart: best.AssignedStart, AssignedEnd: best.AssignedEnd,
		}, nil

	case model.KindLink:
		if a.network == nil {
			return transport.ProbeResult{}, vrmerr.NewConfigError(string(a.Id), "no network schedule configured")
		}
		cands, err := a.network.Probe(r)
		if err != nil || len(cands) == 0 {
			return transport.ProbeResult{ReservationId: id}, err
		}
		best := cands[0]
		for _, c := range cands[1:] {
			if c.AssignedStart < best.AssignedStart ||
				(c.AssignedStart == best.AssignedStart && c.Path.Length() < best.Path.Length()) {
				best = c
			}
		}
		return transport.ProbeResult{
			ReservationId: id, Feasible: true,
			AssignedStart: best.AssignedStart, AssignedEnd: best.AssignedEnd,
		}, nil
	}
	return transport.ProbeResult{}, vrmerr.NewInputError("kind", "unrecognized reservation kind")
}

// Reserve installs the earliest feasible candidate and arms the
// commit-timeout timer.
func (a *AcI) Reserve(ctx context.Context, id ids.ReservationId) (model.State, error) {
	r := a.store.Snapshot(id)
	if r == nil {
		return model.Rejected, vrmerr.NewInputError("id", fmt.Sprintf("unknown reservation %s", id))
	}

	switch r.Kind {
	case model.KindNode:
		if a.node == nil {
			return model.Rejected, vrmerr.NewConfigError(string(a.Id), "no node schedule configured")
		}
		if rejected := a.node.Reserve(id); rejected != nil {
			return model.Rejected, nil
		}

	case model.KindLink:
		if a.network == nil {
			return model.Rejected, vrmerr.NewConfigError(string(a.Id), "no network schedule configured")
		}
		cands, err := a.network.Probe(r)
		if err != nil {
			return model.Rejected, err
		}
		if len(cands) == 0 {
			_ = a.store.SetState(id, model.Rejected)
			return model.Rejected, nil
		}
		best := cands[0]
		for _, c := range cands[1:] {
			if c.AssignedStart < best.AssignedStart {
				best = c
			}
		}
		a.network.Reserve(r, best)
		_ = a.store.SetAssignedStart(id, best.AssignedStart)
		_ = a.store.SetAssignedEnd(id, best.AssignedEnd)
		_ = a.store.SetState(id, model.ReserveAnswer)

	default:
		return model.Rejected, vrmerr.NewInputError("kind", "unrecognized reservation kind")
	}

	_ = a.store.SetHandler(id, &a.ComponentId)
	a.armCommitTimeout(id)
	return model.ReserveAnswer, nil
}

// armCommitTimeout installs the commit_timeout timer: if Commit
// doesn't arrive in time, the reservation auto-transitions to Deleted and
// its slots are freed.
func (a *AcI) armCommitTimeout(id ids.ReservationId) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if existing, ok := a.timers[id]; ok {
		existing.Stop()
	}
	a.timers[id] = time.AfterFunc(a.commitTimeout, func() {
		a.mu.Lock()
		delete(a.timers, id)
		a.mu.Unlock()

		r := a.store.Snapshot(id)
		if r == nil || r.State != model.ReserveAnswer {
			return // already committed, deleted, or gone
		}
		a.releaseSchedule(id)
		_ = a.store.SetState(id, model.Deleted)
		a.log.V(0).Info("commit timeout expired, auto-deleted", "reservation", id)
	})
}

func (a *AcI) cancelCommitTimeout(id ids.ReservationId) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if t, ok := a.timers[id]; ok {
		t.Stop()
		delete(a.timers, id)
	}
}

func (a *AcI) releaseSchedule(id ids.ReservationId) {
	if a.node != nil {
		a.node.Delete(id)
	}
	if a.network != nil {
		a.network.Delete(id)
	}
}

// Commit forwards the reservation to the underlying RMS.
func (a *AcI) Commit(ctx context.Context, id ids.ReservationId) error {
	a.cancelCommitTimeout(id)

	r := a.store.Snapshot(id)
	if r == nil {
		return vrmerr.NewInputError("id", fmt.Sprintf("unknown reservation %s", id))
	}
	if r.State != model.ReserveAnswer {
		return vrmerr.NewInputError("state", fmt.Sprintf("reservation %s not in ReserveAnswer (got %s)", id, r.State))
	}

	if err := a.rmsImpl.Commit(ctx, r); err != nil {
		a.log.Error(err, "rms commit failed, rejecting reservation", "reservation", id)
		a.releaseSchedule(id)
		_ = a.store.SetState(id, model.Rejected)
		return err
	}

	return a.store.SetState(id, model.Committed)
}

// Delete withdraws a reservation at any stage, reversing its schedule
// installation and, if already committed, asking the RMS to withdraw it
// too.
func (a *AcI) Delete(ctx context.Context, id ids.ReservationId) error {
	a.cancelCommitTimeout(id)

	r := a.store.Snapshot(id)
	if r == nil {
		return nil // already gone; idempotent
	}

	wasCommitted := r.State == model.Committed
	a.releaseSchedule(id)

	if wasCommitted {
		if err := a.rmsImpl.Delete(ctx, id); err != nil {
			a.log.Error(err, "rms delete failed", "reservation", id)
		}
	}
	return a.store.SetState(id, model.Deleted)
}

// GetLoadMetric reports utilization on the node schedule over [start, end].
func (a *AcI) GetLoadMetric(ctx context.Context, start, end int64) (transport.LoadMetricResult, error) {
	if a.node == nil {
		return transport.LoadMetricResult{}, vrmerr.NewConfigError(string(a.Id), "no node schedule configured")
	}
	m := a.node.GetLoadMetric(start, end)
	return transport.LoadMetricResult{
		Start: m.Start, End: m.End,
		AvgReservedCapacity: m.AvgReservedCapacity,
		PossibleCapacity:    m.PossibleCapacity,
		Utilization:         m.Utilization,
		Fragmentation:       a.node.GetSystemFragmentation(),
	}, nil
}

// GetSatisfaction reports a scalar health indicator for this AcI: 1 minus
// its schedule's current system fragmentation (a compact single-number
// summary derived from the already-specified fragmentation metric rather
// than inventing an unrelated one).
func (a *AcI) GetSatisfaction(ctx context.Context) (float64, error) {
	if a.node == nil {
		return 1.0, nil
	}
	return 1.0 - a.node.GetSystemFragmentation(), nil
}

// GetRouterList returns the routers this AcI's resources connect through.
func (a *AcI) GetRouterList(ctx context.Context) ([]ids.RouterId, error) {
	return a.routers, nil
}

// CanHandle reports feasibility without mutating anything.
func (a *AcI) CanHandle(ctx context.Context, id ids.ReservationId) (bool, error) {
	result, err := a.Probe(ctx, id)
	return result.Feasible, err
}
