// Package transport implements the VrmComponent actor plumbing: every
// AcI/ADC runs under its own single-threaded executor reachable only
// through a Proxy, a directory maps component ids to proxies, and remote
// (cross-process) peers exchange length-prefixed Envelope frames.
//
// Grounded on Tegu's managers/agent.go (a single goroutine select-looping
// on one request channel, each request carrying its own one-shot reply
// channel) for the executor shape itself.
package transport

import (
	"context"

	"github.com/att/vrm/internal/ids"
	"github.com/att/vrm/internal/model"
)

// Component is the capability-based interface every VrmComponent (AcI or
// ADC) implements: probe, reserve, commit, delete, plus the metric/health/
// routing queries. Never downcast a Component back to its concrete type —
// callers that need component-kind-specific behavior go through the
// tagged Op values below instead.
type Component interface {
	Probe(ctx context.Context, id ids.ReservationId) (ProbeResult, error)
	Reserve(ctx context.Context, id ids.ReservationId) (model.State, error)
	Commit(ctx context.Context, id ids.ReservationId) error
	Delete(ctx context.Context, id ids.ReservationId) error
	GetLoadMetric(ctx context.Context, start, end int64) (LoadMetricResult, error)
	GetSatisfaction(ctx context.Context) (float64, error)
	GetRouterList(ctx context.Context) ([]ids.RouterId, error)
	CanHandle(ctx context.Context, id ids.ReservationId) (bool, error)
}

// ProbeResult is the single best candidate placement a component returns
// for a reservation; it does not carry the full candidate set.
type ProbeResult struct {
	ReservationId ids.ReservationId
	Feasible      bool
	AssignedStart int64
	AssignedEnd   int64
}

// LoadMetricResult mirrors schedule.LoadMetric without importing the
// schedule package (transport sits below it in the dependency graph).
type LoadMetricResult struct {
	Start               int64
	End                 int64
	AvgReservedCapacity float64
	PossibleCapacity    float64
	Utilization         float64
	Fragmentation       float64
}
