// Package observability provides fetch metrics and tracing plumbing
// for the query path. Everything here is injected explicitly; library
// code never reaches into a global registry.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// FetchMetrics counts datasource fetches per backend dialect.
type FetchMetrics struct {
	total    *prometheus.CounterVec
	failures *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewFetchMetrics registers the fetch metrics with reg. Pass
// prometheus.NewRegistry() in tests to keep them isolated.
func NewFetchMetrics(reg prometheus.Registerer) *FetchMetrics {
	factory := promauto.With(reg)

	return &FetchMetrics{
		total: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "geochart_fetch_total",
			Help: "Datasource fetch attempts by backend dialect.",
		}, []string{"backend"}),
		failures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "geochart_fetch_failures_total",
			Help: "Failed datasource fetches by backend dialect.",
		}, []string{"backend"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "geochart_fetch_duration_seconds",
			Help:    "Datasource fetch latency by backend dialect.",
			Buckets: prometheus.DefBuckets,
		}, []string{"backend"}),
	}
}

// Observe records one fetch outcome.
func (m *FetchMetrics) Observe(backend string, elapsed time.Duration, err error) {
	if m == nil {
		return
	}

	m.total.WithLabelValues(backend).Inc()
	m.duration.WithLabelValues(backend).Observe(elapsed.Seconds())

	if err != nil {
		m.failures.WithLabelValues(backend).Inc()
	}
}
