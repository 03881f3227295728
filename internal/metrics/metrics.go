// Package metrics exports prometheus gauges for the observability surface
// named but not specified in detail elsewhere: per-component utilization,
// schedule fragmentation, and probe-answer counts. Grounded on
// karpenter-core's package-level prometheus.*Vec
// registration (`pkg/controllers/provisioning/provisioner.go`'s
// schedulingDuration histogram, registered in an `init()` against a shared
// registry) and kube-nexus-kubenexus-scheduler's gauge-per-resource-kind
// convention.
package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "vrm"

var (
	// Utilization is a SlottedSchedule's reserved/possible capacity ratio
	// over its current window, one gauge per component.
	Utilization = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "schedule",
		Name:      "utilization_ratio",
		Help:      "Reserved-to-possible capacity ratio over the schedule's current window.",
	}, []string{"component_id", "kind"})

	// Fragmentation is a component's current window fragmentation as
	// reported by GetLoadMetric (for an ADC, the average over its children):
	// how fractured its free-capacity slots are.
	Fragmentation = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "schedule",
		Name:      "fragmentation_delta",
		Help:      "Current window fragmentation of the schedule's free capacity.",
	}, []string{"component_id", "kind"})

	// ProbeAnswers counts feasible candidates a component's last Probe
	// call returned, one sample per Probe.
	ProbeAnswers = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "broker",
		Name:      "probe_answers",
		Help:      "Number of feasible candidates returned by the last Probe call.",
	}, []string{"component_id"})

	// ReservationsByState counts live reservations per terminal/non-terminal
	// state, refreshed by the periodic cron tick (internal/system).
	ReservationsByState = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "store",
		Name:      "reservations",
		Help:      "Number of reservations currently in each state.",
	}, []string{"state"})
)

// Register adds every gauge to reg. Call once from the composition root;
// a second call against the same registry returns the registry's error
// (AlreadyRegisteredError) instead of panicking.
func Register(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{Utilization, Fragmentation, ProbeAnswers, ReservationsByState} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}
