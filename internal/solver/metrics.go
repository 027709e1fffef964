package solver

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics are the solver's Prometheus instruments. A nil *Metrics records
// nothing.
type Metrics struct {
	solves         *prometheus.CounterVec
	iterations     prometheus.Counter
	criticalInputs prometheus.Counter
	regionSize     prometheus.Histogram
}

// NewMetrics creates the instruments and registers them on reg. A nil reg
// leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		solves: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "kbound",
			Subsystem: "solver",
			Name:      "solves_total",
			Help:      "Completed fixpoint computations by outcome",
		}, []string{"outcome"}),
		iterations: f.NewCounter(prometheus.CounterOpts{
			Namespace: "kbound",
			Subsystem: "solver",
			Name:      "cpre_iterations_total",
			Help:      "CPre rounds run",
		}),
		criticalInputs: f.NewCounter(prometheus.CounterOpts{
			Namespace: "kbound",
			Subsystem: "solver",
			Name:      "critical_inputs_total",
			Help:      "Critical input classes discovered",
		}),
		regionSize: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: "kbound",
			Subsystem: "solver",
			Name:      "antichain_size",
			Help:      "Antichain size after each CPre round",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
		}),
	}
}

func (m *Metrics) observeIteration(size int) {
	if m == nil {
		return
	}
	m.iterations.Inc()
	m.regionSize.Observe(float64(size))
}

func (m *Metrics) observeSolve(winning bool, st Stats) {
	if m == nil {
		return
	}
	outcome := "losing"
	if winning {
		outcome = "winning"
	}
	m.solves.WithLabelValues(outcome).Inc()
	m.criticalInputs.Add(float64(st.CriticalInputs))
}
