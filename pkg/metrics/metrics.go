// Package metrics exposes orgchart activity as Prometheus metrics: one
// counter per event kind plus a gauge tracking the number of active
// roles. It is a stock orgchart.Hooks implementation.
package metrics

import (
	"github.com/abc-research-at/corgi/pkg/orgchart"
	"github.com/prometheus/client_golang/prometheus"
)

// Recorder registers its metrics on its own Registry so a process can
// run more than one Chart without a duplicate-registration panic.
type Recorder struct {
	Registry *prometheus.Registry

	eventsTotal *prometheus.CounterVec
	activeRoles prometheus.Gauge
}

// New builds a Recorder with its metrics registered.
func New() *Recorder {
	eventsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Help:      "Total orgchart events by kind",
			Name:      "events_total",
			Namespace: "orgchart",
		},
		[]string{"kind"})

	activeRoles := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Help:      "Number of currently active roles",
			Name:      "active_roles",
			Namespace: "orgchart",
		})

	r := &Recorder{
		Registry:    prometheus.NewRegistry(),
		eventsTotal: eventsTotal,
		activeRoles: activeRoles,
	}
	r.Registry.MustRegister(eventsTotal, activeRoles)
	return r
}

// OnEvent satisfies orgchart.Hooks, incrementing the counter for ev's
// kind and adjusting the active-role gauge on RoleAdded/RoleRemoved.
func (r *Recorder) OnEvent(ev orgchart.Event) {
	r.eventsTotal.WithLabelValues(eventKindLabel(ev.Kind)).Inc()

	switch ev.Kind {
	case orgchart.EventRoleAdded:
		r.activeRoles.Inc()
	case orgchart.EventRoleRemoved:
		r.activeRoles.Dec()
	}
}

// SetActiveRoles pins the active-role gauge to n, for a host that seeds
// roles at genesis outside of the normal AddRole pipeline.
func (r *Recorder) SetActiveRoles(n int) {
	r.activeRoles.Set(float64(n))
}

func eventKindLabel(k orgchart.EventKind) string {
	switch k {
	case orgchart.EventRoleGranted:
		return "role_granted"
	case orgchart.EventRoleRevoked:
		return "role_revoked"
	case orgchart.EventRoleAdded:
		return "role_added"
	case orgchart.EventRoleRemoved:
		return "role_removed"
	default:
		return "unknown"
	}
}
