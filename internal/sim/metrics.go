package sim

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics with bounded cardinality: the only label is the configured world.
type Metrics struct {
	tickDuration prometheus.Histogram
	spawned      *prometheus.CounterVec
	despawned    *prometheus.CounterVec
	probes       *prometheus.CounterVec
	hits         *prometheus.CounterVec
	contacts     *prometheus.CounterVec
}

// NewMetrics registers the simulation metrics with reg. A nil reg leaves
// them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		tickDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "flatsim_tick_duration_seconds",
			Help:    "Time spent in a simulation tick",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1},
		}),
		spawned: f.NewCounterVec(prometheus.CounterOpts{
			Name: "flatsim_bodies_spawned_total",
			Help: "Bodies created by async loaders",
		}, []string{"world"}),
		despawned: f.NewCounterVec(prometheus.CounterOpts{
			Name: "flatsim_bodies_despawned_total",
			Help: "Bodies destroyed by the cleanup phase",
		}, []string{"world"}),
		probes: f.NewCounterVec(prometheus.CounterOpts{
			Name: "flatsim_probes_total",
			Help: "Broad-phase probe queries issued",
		}, []string{"world"}),
		hits: f.NewCounterVec(prometheus.CounterOpts{
			Name: "flatsim_probe_hits_total",
			Help: "Entities returned by probe queries",
		}, []string{"world"}),
		contacts: f.NewCounterVec(prometheus.CounterOpts{
			Name: "flatsim_probe_contacts_total",
			Help: "Collision shapes overlapping the probing body",
		}, []string{"world"}),
	}
}
