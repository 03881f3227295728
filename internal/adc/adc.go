// Package adc implements the ADC interior broker: an ordered registry of
// child VrmComponents, reachable uniformly as transport.Component (AcI
// leaves or nested ADCs), with pluggable ordering and an admission-rate
// limiter for rejectNewReservationsAt.
//
// Grounded on Tegu's managers/res_mgr.go for the "registry of children
// reachable by id, with an explicit allocation map from reservation to
// owning child" shape (its inventory maps pledge id -> owning queue
// manager the same way).
package adc

import (
	"context"
	"fmt"
	"math/rand"
	"sync"

	"github.com/go-logr/logr"
	"golang.org/x/time/rate"

	"github.com/att/vrm/internal/adc/order"
	"github.com/att/vrm/internal/ids"
	"github.com/att/vrm/internal/metrics"
	"github.com/att/vrm/internal/model"
	"github.com/att/vrm/internal/store"
	"github.com/att/vrm/internal/transport"
	"github.com/att/vrm/internal/vrmerr"
)

// WorkflowCommitter is the subset of workflow.Scheduler's API the ADC needs
// for delegation on commit: when a reservation belongs to a workflow, the
// ADC hands Commit/Delete off to the scheduler owning the decomposition
// instead of looking up an allocation entry. Declared here, satisfied by
// *workflow.Scheduler via structural typing, so this package never imports
// internal/workflow (which itself depends on transport.Component, not on
// adc, breaking the cycle).
type WorkflowCommitter interface {
	Commit(ctx context.Context, workflowId ids.WorkflowId) error
	Delete(ctx context.Context, workflowId ids.WorkflowId) error
}

type registeredChild struct {
	index int
	id    ids.ComponentId
	proxy *transport.Proxy
}

// ADC is an interior broker.
type ADC struct {
	Id          ids.AdcId
	ComponentId ids.ComponentId
	store       *store.Store
	log         logr.Logger

	mu        sync.RWMutex
	children  []*registeredChild
	nextIndex int

	allocationMu sync.Mutex
	allocation   map[ids.ReservationId]ids.ComponentId

	orderer order.Comparator

	admission *rate.Limiter

	workflowScheduler WorkflowCommitter
}

func New(id ids.AdcId, st *store.Store, log logr.Logger, orderer order.Comparator) *ADC {
	return &ADC{
		Id:          id,
		ComponentId: ids.ComponentIdOf(string(id)),
		store:       st,
		log:         log,
		allocation:  map[ids.ReservationId]ids.ComponentId{},
		orderer:     orderer,
	}
}

// SetAdmissionLimit configures rejectNewReservationsAt: new Probe/
// Reserve calls beyond this rate are refused outright before reaching any
// child.
func (a *ADC) SetAdmissionLimit(perSecond rate.Limit, burst int) {
	a.admission = rate.NewLimiter(perSecond, burst)
}

func (a *ADC) SetWorkflowScheduler(ws WorkflowCommitter) { a.workflowScheduler = ws }

// RegisterChild adds a child component (AcI or nested ADC), reachable only
// through its Proxy.
func (a *ADC) RegisterChild(id ids.ComponentId, proxy *transport.Proxy) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.children = append(a.children, &registeredChild{index: a.nextIndex, id: id, proxy: proxy})
	a.nextIndex++
}

// DeregisterChild removes a child, e.g. after a TransportError.
func (a *ADC) DeregisterChild(id ids.ComponentId) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for i, c := range a.children {
		if c.id == id {
			a.children = append(a.children[:i], a.children[i+1:]...)
			break
		}
	}
}

func (a *ADC) orderedChildren() []*registeredChild {
	a.mu.RLock()
	snapshot := make([]*registeredChild, len(a.children))
	copy(snapshot, a.children)
	a.mu.RUnlock()

	if a.orderer == nil {
		return snapshot
	}
	asOrder := make([]order.Child, len(snapshot))
	for i, c := range snapshot {
		asOrder[i] = order.Child{RegistrationIndex: c.index, Id: c.id}
	}
	a.orderer.Sort(asOrder)

	byId := map[ids.ComponentId]*registeredChild{}
	for _, c := range snapshot {
		byId[c.id] = c
	}
	out := make([]*registeredChild, 0, len(asOrder))
	for _, oc := range asOrder {
		out = append(out, byId[oc.Id])
	}
	return out
}

func (a *ADC) admit() error {
	if a.admission == nil {
		return nil
	}
	if !a.admission.Allow() {
		return vrmerr.NewScheduleFullError(string(a.Id))
	}
	return nil
}

// Probe consults every child in random order, unions their ProbeAnswers,
// and logs the feasible count.
func (a *ADC) Probe(ctx context.Context, id ids.ReservationId) (transport.ProbeResult, error) {
	if err := a.admit(); err != nil {
		return transport.ProbeResult{}, err
	}

	children := a.orderedChildren()
	rand.Shuffle(len(children), func(i, j int) { children[i], children[j] = children[j], children[i] })

	count := 0
	var best transport.ProbeResult
	for _, c := range children {
		result, err := c.proxy.Probe(ctx, id)
		if err != nil {
			continue
		}
		if result.Feasible {
			count++
			if !best.Feasible || result.AssignedStart < best.AssignedStart {
				best = result
			}
		}
	}
	metrics.ProbeAnswers.WithLabelValues(string(a.ComponentId)).Set(float64(count))
	a.log.V(2).Info("adc probe union", "adc", a.Id, "reservation", id, "feasible_children", count)
	return best, nil
}

// Reserve iterates children in the configured order; the first to return a
// non-Rejected answer wins.
func (a *ADC) Reserve(ctx context.Context, id ids.ReservationId) (model.State, error) {
	if err := a.admit(); err != nil {
		return model.Rejected, err
	}

	for _, c := range a.orderedChildren() {
		state, err := c.proxy.Reserve(ctx, id)
		if err != nil {
			continue
		}
		if state != model.Rejected {
			a.allocationMu.Lock()
			a.allocation[id] = c.id
			a.allocationMu.Unlock()
			return state, nil
		}
	}
	_ = a.store.SetState(id, model.Rejected)
	return model.Rejected, nil
}

// Commit delegates to the WorkflowScheduler for workflow reservations,
// otherwise forwards to the allocation-map entry.
func (a *ADC) Commit(ctx context.Context, id ids.ReservationId) error {
	if a.store.IsWorkflow(id) {
		if a.workflowScheduler == nil {
			return vrmerr.NewConfigError(string(a.Id), "reservation belongs to a workflow but no scheduler is wired")
		}
		r := a.store.Snapshot(id)
		return a.workflowScheduler.Commit(ctx, r.WorkflowId)
	}

	child, ok := a.childFor(id)
	if !ok {
		return vrmerr.NewInputError("id", fmt.Sprintf("no allocation recorded for reservation %s", id))
	}
	return child.Commit(ctx, id)
}

// Delete looks up the handler via the allocation map and forwards;
// atomic-job deletion clears the allocation entry on success.
func (a *ADC) Delete(ctx context.Context, id ids.ReservationId) error {
	if a.store.IsWorkflow(id) {
		if a.workflowScheduler == nil {
			return vrmerr.NewConfigError(string(a.Id), "reservation belongs to a workflow but no scheduler is wired")
		}
		r := a.store.Snapshot(id)
		return a.workflowScheduler.Delete(ctx, r.WorkflowId)
	}

	child, ok := a.childFor(id)
	if !ok {
		return nil // unknown; idempotent
	}
	err := child.Delete(ctx, id)
	if err == nil {
		a.allocationMu.Lock()
		delete(a.allocation, id)
		a.allocationMu.Unlock()
	}
	return err
}

func (a *ADC) childFor(id ids.ReservationId) (*transport.Proxy, bool) {
	a.allocationMu.Lock()
	childId, ok := a.allocation[id]
	a.allocationMu.Unlock()
	if !ok {
		return nil, false
	}

	a.mu.RLock()
	defer a.mu.RUnlock()
	for _, c := range a.children {
		if c.id == childId {
			return c.proxy, true
		}
	}
	return nil, false
}

// GetLoadMetric aggregates children's load metrics over [start, end].
func (a *ADC) GetLoadMetric(ctx context.Context, start, end int64) (transport.LoadMetricResult, error) {
	children := a.orderedChildren()
	var totalLoad, totalCap, totalFrag float64
	n := 0
	for _, c := range children {
		m, err := c.proxy.GetLoadMetric(ctx, start, end)
		if err != nil {
			continue
		}
		totalLoad += m.AvgReservedCapacity
		totalCap += m.PossibleCapacity
		totalFrag += m.Fragmentation
		n++
	}
	if n == 0 {
		return transport.LoadMetricResult{Start: start, End: end}, nil
	}
	result := transport.LoadMetricResult{
		Start: start, End: end,
		AvgReservedCapacity: totalLoad / float64(n),
		PossibleCapacity:    totalCap / float64(n),
		Fragmentation:       totalFrag / float64(n),
	}
	if result.PossibleCapacity > 0 {
		result.Utilization = result.AvgReservedCapacity / result.PossibleCapacity
	}
	return result, nil
}

// GetSatisfaction averages children's satisfaction scores.
func (a *ADC) GetSatisfaction(ctx context.Context) (float64, error) {
	children := a.orderedChildren()
	if len(children) == 0 {
		return 1.0, nil
	}
	var sum float64
	n := 0
	for _, c := range children {
		v, err := c.proxy.GetSatisfaction(ctx)
		if err != nil {
			continue
		}
		sum += v
		n++
	}
	if n == 0 {
		return 1.0, nil
	}
	return sum / float64(n), nil
}

// GetRouterList unions every child's router list.
func (a *ADC) GetRouterList(ctx context.Context) ([]ids.RouterId, error) {
	seen := map[ids.RouterId]bool{}
	var out []ids.RouterId
	for _, c := range a.orderedChildren() {
		list, err := c.proxy.GetRouterList(ctx)
		if err != nil {
			continue
		}
		for _, r := range list {
			if !seen[r] {
				seen[r] = true
				out = append(out, r)
			}
		}
	}
	return out, nil
}

// CanHandle reports whether any child can handle id.
func (a *ADC) CanHandle(ctx context.Context, id ids.ReservationId) (bool, error) {
	for _, c := range a.orderedChildren() {
		ok, err := c.proxy.CanHandle(ctx, id)
		if err == nil && ok {
			return true, nil
		}
	}
	return false, nil
}
