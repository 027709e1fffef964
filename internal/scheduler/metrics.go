package scheduler

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics are the scheduler's Prometheus instruments. A nil *Metrics
// records nothing.
type Metrics struct {
	jobs       *prometheus.CounterVec
	merges     prometheus.Counter
	invariants prometheus.Counter
	queueDepth prometheus.Gauge
}

// NewMetrics creates the instruments and registers them on reg. A nil reg
// leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		jobs: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "kbound",
			Subsystem: "scheduler",
			Name:      "jobs_total",
			Help:      "Finished jobs by kind and outcome",
		}, []string{"kind", "outcome"}),
		merges: f.NewCounter(prometheus.CounterOpts{
			Namespace: "kbound",
			Subsystem: "scheduler",
			Name:      "merges_total",
			Help:      "Pairs of solved games handed to a merge job",
		}),
		invariants: f.NewCounter(prometheus.CounterOpts{
			Namespace: "kbound",
			Subsystem: "scheduler",
			Name:      "invariants_total",
			Help:      "Automata short-circuited as invariants",
		}),
		queueDepth: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "kbound",
			Subsystem: "scheduler",
			Name:      "queue_depth",
			Help:      "Jobs waiting in the queue",
		}),
	}
}

func (m *Metrics) job(kind JobKind, outcome string) {
	if m == nil {
		return
	}
	m.jobs.WithLabelValues(kind.String(), outcome).Inc()
}

func (m *Metrics) merge() {
	if m == nil {
		return
	}
	m.merges.Inc()
}

func (m *Metrics) invariant() {
	if m == nil {
		return
	}
	m.invariants.Inc()
}

func (m *Metrics) depth(n int) {
	if m == nil {
		return
	}
	m.queueDepth.Set(float64(n))
}
