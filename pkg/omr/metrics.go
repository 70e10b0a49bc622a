package omr

import "github.com/prometheus/client_golang/prometheus"

// Metrics groups the collectors observed by the process runner. Injected by
// the embedder so the package holds no global state.
type Metrics struct {
	Runs            *prometheus.CounterVec
	DurationSeconds prometheus.Histogram
}

// NewMetrics registers the runner collectors on the provided registry.
func NewMetrics(registerer prometheus.Registerer) *Metrics {
	m := &Metrics{
		Runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "escrivo",
			Subsystem: "omr",
			Name:      "runs_total",
			Help:      "Number of optical-mark analysis invocations by outcome.",
		}, []string{"outcome"}),
		DurationSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "escrivo",
			Subsystem: "omr",
			Name:      "run_duration_seconds",
			Help:      "Duration of optical-mark analysis invocations.",
			Buckets:   prometheus.DefBuckets,
		}),
	}

	if registerer != nil {
		registerer.MustRegister(m.Runs, m.DurationSeconds)
	}

	return m
}

func (m *Metrics) observe(outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.Runs.WithLabelValues(outcome).Inc()
	m.DurationSeconds.Observe(seconds)
}
