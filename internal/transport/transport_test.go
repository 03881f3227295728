package transport

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/att/vrm/internal/ids"
	"github.com/att/vrm/internal/model"
)

// stubComponent is a hand-rolled Component for exercising the mailbox/proxy
// round-trip without pulling in aci/adc.
type stubComponent struct {
	probeResult ProbeResult
	reserveErr  error
}

func (s *stubComponent) Probe(ctx context.Context, id ids.ReservationId) (ProbeResult, error) {
	return s.probeResult, nil
}
func (s *stubComponent) Reserve(ctx context.Context, id ids.ReservationId) (model.State, error) {
	if s.reserveErr != nil {
		return model.Rejected, s.reserveErr
	}
	return model.ReserveAnswer, nil
}
func (s *stubComponent) Commit(ctx context.Context, id ids.ReservationId) error { return nil }
func (s *stubComponent) Delete(ctx context.Context, id ids.ReservationId) error { return nil }
func (s *stubComponent) GetLoadMetric(ctx context.Context, start, end int64) (LoadMetricResult, error) {
	return LoadMetricResult{Start: start, End: end, Utilization: 0.5}, nil
}
func (s *stubComponent) GetSatisfaction(ctx context.Context) (float64, error) { return 0.75, nil }
func (s *stubComponent) GetRouterList(ctx context.Context) ([]ids.RouterId, error) {
	return []ids.RouterId{"r1"}, nil
}
func (s *stubComponent) CanHandle(ctx context.Context, id ids.ReservationId) (bool, error) {
	return true, nil
}

func newWiredProxy(t *testing.T, c Component) (*Proxy, context.CancelFunc) {
	t.Helper()
	mb := NewMailbox(ids.ComponentIdOf("comp-1"), c, 8)
	ctx, cancel := context.WithCancel(context.Background())
	go mb.Run(ctx)
	return NewProxy(mb.Id, mb.Chan()), cancel
}

func TestProxy_Probe_RoundTrips(t *testing.T) {
	stub := &stubComponent{probeResult: ProbeResult{Feasible: true, AssignedStart: 10, AssignedEnd: 70}}
	proxy, cancel := newWiredProxy(t, stub)
	defer cancel()

	result, err := proxy.Probe(context.Background(), ids.ReservationId("r1"))
	require.NoError(t, err)
	assert.True(t, result.Feasible)
	assert.Equal(t, int64(10), result.AssignedStart)
}

func TestProxy_Reserve_RoundTripsState(t *testing.T) {
	stub := &stubComponent{}
	proxy, cancel := newWiredProxy(t, stub)
	defer cancel()

	state, err := proxy.Reserve(context.Background(), ids.ReservationId("r1"))
	require.NoError(t, err)
	assert.Equal(t, model.ReserveAnswer, state)
}

func TestProxy_GetLoadMetric(t *testing.T) {
	stub := &stubComponent{}
	proxy, cancel := newWiredProxy(t, stub)
	defer cancel()

	m, err := proxy.GetLoadMetric(context.Background(), 0, 100)
	require.NoError(t, err)
	assert.Equal(t, 0.5, m.Utilization)
}

func TestProxy_GetSatisfaction(t *testing.T) {
	stub := &stubComponent{}
	proxy, cancel := newWiredProxy(t, stub)
	defer cancel()

	v, err := proxy.GetSatisfaction(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0.75, v)
}

func TestProxy_GetRouterList(t *testing.T) {
	stub := &stubComponent{}
	proxy, cancel := newWiredProxy(t, stub)
	defer cancel()

	list, err := proxy.GetRouterList(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []ids.RouterId{"r1"}, list)
}

func TestProxy_CanHandle(t *testing.T) {
	stub := &stubComponent{}
	proxy, cancel := newWiredProxy(t, stub)
	defer cancel()

	ok, err := proxy.CanHandle(context.Background(), ids.ReservationId("r1"))
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestProxy_Call_TimesOutOnCancelledContext(t *testing.T) {
	// A mailbox that never runs: the send itself blocks until ctx cancels.
	reqCh := make(chan *Request) // unbuffered, no reader
	proxy := NewProxy(ids.ComponentIdOf("comp-2"), reqCh)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := proxy.Probe(ctx, ids.ReservationId("r1"))
	assert.Error(t, err)
}

func TestRegistry_RegisterLookupDeregister(t *testing.T) {
	stub := &stubComponent{}
	proxy, cancel := newWiredProxy(t, stub)
	defer cancel()

	reg := NewRegistry()
	reg.Register(proxy)

	found, err := reg.Lookup(proxy.Id)
	require.NoError(t, err)
	assert.Same(t, proxy, found)

	reg.Deregister(proxy.Id)
	_, err = reg.Lookup(proxy.Id)
	assert.Error(t, err)
}

func TestRegistry_Lookup_UnknownIdIsError(t *testing.T) {
	reg := NewRegistry()
	_, err := reg.Lookup(ids.ComponentIdOf("missing"))
	assert.Error(t, err)
}
