package observability

import "github.com/prometheus/client_golang/prometheus"

// Metrics groups the Prometheus collectors used by the grading core. It is
// constructed once and injected, so tests and embedders can use their own
// registry instead of a process-wide singleton.
type Metrics struct {
	GradingsFinalized  *prometheus.CounterVec
	IllegalTransitions prometheus.Counter
	AnnotationsWritten prometheus.Counter
	AnnotationsDropped prometheus.Counter
	DeliveryFailures   prometheus.Counter

	HTTPRequestsTotal  *prometheus.CounterVec
	HTTPLatencySeconds *prometheus.HistogramVec
}

// NewMetrics registers the grading collectors on the provided registry.
// A nil registerer yields collectors that are never scraped, which keeps
// tests free of registration conflicts.
func NewMetrics(registerer prometheus.Registerer) *Metrics {
	m := &Metrics{
		GradingsFinalized: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "escrivo",
			Subsystem: "grading",
			Name:      "finalized_total",
			Help:      "Number of submissions finalized, by kind and mode.",
		}, []string{"kind", "mode"}),
		IllegalTransitions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "escrivo",
			Subsystem: "grading",
			Name:      "illegal_transitions_total",
			Help:      "Number of rejected state machine transitions.",
		}),
		AnnotationsWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "escrivo",
			Subsystem: "annotations",
			Name:      "written_total",
			Help:      "Number of annotations accepted for storage.",
		}),
		AnnotationsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "escrivo",
			Subsystem: "annotations",
			Name:      "dropped_total",
			Help:      "Number of annotation drafts dropped by best-effort bulk replace.",
		}),
		DeliveryFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "escrivo",
			Subsystem: "grading",
			Name:      "delivery_failures_total",
			Help:      "Number of delivery attempts reported as failed.",
		}),
		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "escrivo",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of API requests served.",
		}, []string{"method", "route", "status"}),
		HTTPLatencySeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "escrivo",
			Subsystem: "http",
			Name:      "latency_seconds",
			Help:      "Latency distribution for API requests.",
			Buckets:   []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"}),
	}

	if registerer != nil {
		registerer.MustRegister(
			m.GradingsFinalized,
			m.IllegalTransitions,
			m.AnnotationsWritten,
			m.AnnotationsDropped,
			m.DeliveryFailures,
			m.HTTPRequestsTotal,
			m.HTTPLatencySeconds,
		)
	}

	return m
}
