// Package observability exposes invocation metrics in Prometheus format.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the counters for one process on a private registry.
type Metrics struct {
	registry      *prometheus.Registry
	invocations   *prometheus.CounterVec
	duration      *prometheus.HistogramVec
	fragments     *prometheus.CounterVec
	responseBytes *prometheus.CounterVec
}

// NewMetrics registers the pipellm collectors on a fresh registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		invocations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pipellm_invocations_total",
				Help: "Total number of provider invocations by outcome",
			},
			[]string{"provider", "outcome"},
		),
		duration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pipellm_invocation_duration_seconds",
				Help:    "Wall-clock duration of provider invocations",
				Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
			},
			[]string{"provider"},
		),
		fragments: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pipellm_fragments_total",
				Help: "Total number of text fragments streamed",
			},
			[]string{"provider"},
		),
		responseBytes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pipellm_response_bytes_total",
				Help: "Total bytes of streamed response text",
			},
			[]string{"provider"},
		),
	}
}

// RecordFragment counts one streamed fragment of size bytes.
func (m *Metrics) RecordFragment(provider string, size int) {
	m.fragments.WithLabelValues(provider).Inc()
	m.responseBytes.WithLabelValues(provider).Add(float64(size))
}

// RecordInvocation counts a finished invocation.
func (m *Metrics) RecordInvocation(provider, outcome string, duration time.Duration) {
	m.invocations.WithLabelValues(provider, outcome).Inc()
	m.duration.WithLabelValues(provider).Observe(duration.Seconds())
}

// Registry returns the registry holding the collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// WriteTextfile writes the current values to path in the text exposition
// format read by the node_exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}
