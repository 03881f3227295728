package system

import (
	"context"
	"fmt"
	"time"

	"github.com/go-logr/logr"
	"golang.org/x/time/rate"

	"github.com/att/vrm/internal/adc"
	"github.com/att/vrm/internal/adc/order"
	"github.com/att/vrm/internal/aci"
	"github.com/att/vrm/internal/clock"
	"github.com/att/vrm/internal/ids"
	"github.com/att/vrm/internal/network"
	"github.com/att/vrm/internal/resource"
	"github.com/att/vrm/internal/rms"
	"github.com/att/vrm/internal/rms/slurm"
	"github.com/att/vrm/internal/schedule"
	"github.com/att/vrm/internal/store"
	"github.com/att/vrm/internal/transport"
	"github.com/att/vrm/internal/vrmerr"
	"github.com/att/vrm/internal/workflow"
)

// System is the built component tree: every ADC/AcI reachable through
// Registry by its ComponentId, running under its own Mailbox goroutine
//, plus the shared Store, clock, and WorkflowScheduler.
type System struct {
	Store    *store.Store
	Registry *transport.Registry
	Clock    clock.Clock
	Log      logr.Logger

	Scheduler *workflow.Scheduler

	// RootIds are the ADC component ids with no configured parent: the
	// entry points external requests (internal/api) submit reservations
	// and workflows against.
	RootIds []ids.ComponentId

	adcs map[string]*adc.ADC
}

// RootProxy resolves a root ADC's Proxy by its configured AdcConfig.Id, for
// internal/api to submit reservations against.
func (s *System) RootProxy(adcId string) (*transport.Proxy, error) {
	a, ok := s.adcs[adcId]
	if !ok {
		return nil, vrmerr.NewConfigError(adcId, "no such adc")
	}
	return s.Registry.Lookup(a.ComponentId)
}

// Build decodes cfg into a running component tree. ctx governs every component's Mailbox goroutine; cancelling ctx
// shuts the whole tree down. bytesPerSec configures the WorkflowScheduler's
// transfer-time estimate.
func Build(ctx context.Context, cfg *Config, st *store.Store, clk clock.Clock, log logr.Logger, bytesPerSec float64) (*System, error) {
	sys := &System{
		Store:    st,
		Registry: transport.NewRegistry(),
		Clock:    clk,
		Log:      log,
		adcs:     map[string]*adc.ADC{},
	}

	for _, ac := range cfg.Adcs {
		orderer, err := orderFor(ac.RequestOrder, cfg.Simulator.EndTime, sys.Registry)
		if err != nil {
			return nil, vrmerr.NewConfigError(ac.Id, err.Error())
		}
		a := adc.New(ids.AdcIdOf(ac.Id), st, log.WithValues("adc", ac.Id), orderer)
		if ac.RejectNewReservationsAt > 0 {
			a.SetAdmissionLimit(rate.Limit(ac.RejectNewReservationsAt), int(ac.RejectNewReservationsAt)+1)
		}
		if _, dup := sys.adcs[ac.Id]; dup {
			return nil, vrmerr.NewConfigError(ac.Id, "duplicate adc id")
		}
		sys.adcs[ac.Id] = a
		sys.registerComponent(ctx, a.ComponentId, a)
	}

	for _, ac := range cfg.Adcs {
		if ac.ParentId == "" {
			sys.RootIds = append(sys.RootIds, sys.adcs[ac.Id].ComponentId)
			continue
		}
		parent, ok := sys.adcs[ac.ParentId]
		if !ok {
			return nil, vrmerr.NewConfigError(ac.Id, "parent adc not found: "+ac.ParentId)
		}
		child := sys.adcs[ac.Id]
		proxy, err := sys.Registry.Lookup(child.ComponentId)
		if err != nil {
			return nil, err
		}
		parent.RegisterChild(child.ComponentId, proxy)
	}

	for _, aciCfg := range cfg.Acis {
		parent, ok := sys.adcs[aciCfg.AdcId]
		if !ok {
			return nil, vrmerr.NewConfigError(aciCfg.Id, "adc not found: "+aciCfg.AdcId)
		}
		built, err := buildAci(aciCfg, st, clk, log)
		if err != nil {
			return nil, err
		}
		for _, a := range built {
			sys.registerComponent(ctx, a.ComponentId, a)
			proxy, err := sys.Registry.Lookup(a.ComponentId)
			if err != nil {
				return nil, err
			}
			parent.RegisterChild(a.ComponentId, proxy)
		}
	}

	root, err := sys.anyRootComponent()
	if err != nil {
		return nil, err
	}
	sys.Scheduler = workflow.New(st, root, bytesPerSec, log.WithValues("component", "workflow-scheduler"))
	for _, a := range sys.adcs {
		a.SetWorkflowScheduler(sys.Scheduler)
	}

	return sys, nil
}

// anyRootComponent picks a Component the WorkflowScheduler can drive
// probe/reserve/commit/delete through: the first root ADC, which reaches
// its own subtree transitively. When the config declares several top-level
// ADCs, the subtrees under the other roots are not reachable through it.
func (s *System) anyRootComponent() (transport.Component, error) {
	if len(s.RootIds) == 0 {
		return nil, vrmerr.NewConfigError("system", "no root adc configured")
	}
	proxy, err := s.Registry.Lookup(s.RootIds[0])
	if err != nil {
		return nil, err
	}
	return proxy, nil
}

func (s *System) registerComponent(ctx context.Context, id ids.ComponentId, handler transport.Component) {
	mailbox := transport.NewMailbox(id, handler, 16)
	go mailbox.Run(ctx)
	s.Registry.Register(transport.NewProxy(id, mailbox.Chan()))
}

// orderFor builds the VrmComponentOrder comparator named by an AdcConfig's
// requestOrder field. Load/Size orders need to query a child's
// current metrics, which only the registry (id -> Proxy) can resolve, so
// their comparator functions close over registry and look the child up at
// sort time rather than at construction time (children aren't registered
// yet when the owning ADC itself is built).
func orderFor(name string, windowEnd int64, registry *transport.Registry) (order.Comparator, error) {
	loadFn := func(id ids.ComponentId) float64 {
		proxy, err := registry.Lookup(id)
		if err != nil {
			return 0
		}
		m, err := proxy.GetLoadMetric(context.Background(), 0, windowEnd)
		if err != nil {
			return 0
		}
		return m.Utilization
	}
	sizeFn := func(id ids.ComponentId) int64 {
		proxy, err := registry.Lookup(id)
		if err != nil {
			return 0
		}
		m, err := proxy.GetLoadMetric(context.Background(), 0, windowEnd)
		if err != nil {
			return 0
		}
		return int64(m.PossibleCapacity)
	}

	switch name {
	case "", "OrderStartFirst":
		return order.StartFirst{}, nil
	case "OrderNext":
		return order.Next{Pos: 0}, nil
	case "OrderLoad":
		return order.Load{Start: 0, End: windowEnd, Utilization: loadFn}, nil
	case "OrderReverseLoad":
		return order.ReverseLoad{Start: 0, End: windowEnd, Utilization: loadFn}, nil
	case "OrderResourceSize":
		return order.Size{Capacity: sizeFn}, nil
	case "OrderResourceSizeReverse":
		return order.SizeReverse{Capacity: sizeFn}, nil
	default:
		return nil, fmt.Errorf("unknown requestOrder %q", name)
	}
}

// buildAci constructs the one or more AcI leaf brokers an AciConfig
// expands to. A SlurmRms config yields exactly one AcI delegating straight
// to the SLURM REST adapter. A DummyRms config's gridNodes/networkLinks
// lists (plural) each get their own SlottedSchedule: one AcI per grid node
// (Kind Node), plus one more AcI fronting a NetworkSchedule over every
// configured link (Kind Link) when networkLinks is non-empty. This is a
// deliberate generalization away from a strict one-AciConfig-to-one-AcI
// reading, needed because a DummyRms document legitimately describes a
// whole local
// cluster (many nodes, many links) behind a single RMS connection; it is
// recorded as such in DESIGN.md rather than left implicit.
func buildAci(cfg AciConfig, st *store.Store, clk clock.Clock, log logr.Logger) ([]*aci.AcI, error) {
	commitTimeout := time.Duration(cfg.CommitTimeout) * time.Second
	if commitTimeout <= 0 {
		commitTimeout = 30 * time.Second
	}

	switch cfg.RmsSystem.Kind {
	case "SlurmRms":
		client := slurm.NewClient(slurm.Config{
			BaseURL:  cfg.RmsSystem.SlurmUrl,
			UserName: cfg.RmsSystem.UserName,
			JwtToken: cfg.RmsSystem.JwtToken,
		}, log.WithValues("aci", cfg.Id))

		// SLURM schedules its own nodes; no local capacity document is
		// given for it in , so this AcI's SlottedSchedule is a
		// nominally unconstrained stand-in purely to satisfy AcI's
		// Probe/Reserve dispatch (Kind Node path) — Commit is what
		// actually matters and goes straight to the SLURM REST adapter.
		schedId := ids.NewShadowScheduleId()
		const unconstrainedSlots, unconstrainedWidth, unconstrainedCapacity = 4096, 3600, 1 << 30
		sc := schedule.New(schedId, st, clk, log, unconstrainedWidth, unconstrainedSlots, 0, unconstrainedCapacity)

		a := aci.New(ids.AciIdOf(cfg.Id), st, client, commitTimeout, log.WithValues("aci", cfg.Id),
			aci.WithNodeSchedule(sc))
		return []*aci.AcI{a}, nil

	case "DummyRms":
		broker := rms.NewNullBroker(log.WithValues("aci", cfg.Id))
		var built []*aci.AcI

		for _, gn := range cfg.RmsSystem.GridNodes {
			schedId := ids.NewShadowScheduleId()
			sc := schedule.New(schedId, st, clk, log, cfg.RmsSystem.SlotWidth, cfg.RmsSystem.NumOfSlots, 0, gn.Cpus)
			routers := make([]ids.RouterId, len(gn.ConnectedToRouter))
			for i, r := range gn.ConnectedToRouter {
				routers[i] = ids.RouterIdOf(r)
			}
			res := resource.NewNodeResource(ids.NodeId(gn.Id), routers, sc)

			aciId := ids.AciIdOf(cfg.Id + "#" + gn.Id)
			a := aci.New(aciId, st, broker, commitTimeout, log.WithValues("aci", aciId),
				aci.WithNodeSchedule(res.Schedule), aci.WithRouters(res.ConnectedToRouter))
			built = append(built, a)
		}

		if len(cfg.RmsSystem.NetworkLinks) > 0 {
			links := make([]*resource.LinkResource, 0, len(cfg.RmsSystem.NetworkLinks))
			for _, nl := range cfg.RmsSystem.NetworkLinks {
				schedId := ids.NewShadowScheduleId()
				sc := schedule.New(schedId, st, clk, log, cfg.RmsSystem.SlotWidth, cfg.RmsSystem.NumOfSlots, 0, nl.Capacity)
				links = append(links, resource.NewLinkResource(
					ids.LinkId(nl.Id), ids.RouterIdOf(nl.StartPoint), ids.RouterIdOf(nl.EndPoint), sc))
			}
			topo := network.NewTopology(links)
			netSched := network.NewSchedule(topo)

			aciId := ids.AciIdOf(cfg.Id + "#net")
			a := aci.New(aciId, st, broker, commitTimeout, log.WithValues("aci", aciId),
				aci.WithNetworkSchedule(netSched))
			built = append(built, a)
		}

		if len(built) == 0 {
			return nil, vrmerr.NewConfigError(cfg.Id, "dummyRms config has neither gridNodes nor networkLinks")
		}
		return built, nil

	default:
		return nil, vrmerr.NewConfigError(cfg.Id, "unrecognized rmsSystem kind")
	}
}
