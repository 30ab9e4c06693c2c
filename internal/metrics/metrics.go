// Package metrics exposes Prometheus collectors for solver activity.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics groups the collectors updated after every solve.
type Metrics struct {
	Solves   *prometheus.CounterVec
	Pivots   prometheus.Histogram
	Duration prometheus.Histogram
	Sessions prometheus.Gauge
}

// New creates the collectors and registers them with reg. A nil reg skips
// registration.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Solves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "simplex",
			Name:      "solves_total",
			Help:      "Solve requests by outcome (optimal, unbounded, error, cancelled).",
		}, []string{"status"}),
		Pivots: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "simplex",
			Name:      "pivots",
			Help:      "Pivots performed per completed solve.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
		}),
		Duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "simplex",
			Name:      "solve_duration_seconds",
			Help:      "Wall time of a solve.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
		}),
		Sessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "simplex",
			Name:      "sessions",
			Help:      "Stored solve sessions available for replay.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.Solves, m.Pivots, m.Duration, m.Sessions)
	}
	return m
}

// ObserveSolve records one completed solve.
func (m *Metrics) ObserveSolve(status string, pivots int, took time.Duration) {
	m.Solves.WithLabelValues(status).Inc()
	m.Pivots.Observe(float64(pivots))
	m.Duration.Observe(took.Seconds())
}

// ObserveError records a solve that failed before producing a result.
func (m *Metrics) ObserveError(took time.Duration) {
	m.Solves.WithLabelValues("error").Inc()
	m.Duration.Observe(took.Seconds())
}

// ObserveCancelled records a solve abandoned because its request context
// ended.
func (m *Metrics) ObserveCancelled(took time.Duration) {
	m.Solves.WithLabelValues("cancelled").Inc()
	m.Duration.Observe(took.Seconds())
}
