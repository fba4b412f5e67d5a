package gateway

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics tracks tool-invocation counters on a private Prometheus registry.
type Metrics struct {
	registry    *prometheus.Registry
	invocations *prometheus.CounterVec
	duration    *prometheus.HistogramVec
}

// NewMetrics creates the metrics set and registers the collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		invocations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "opsgate_tool_invocations_total",
				Help: "Tool invocations by tool name and outcome.",
			},
			[]string{"tool", "outcome"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "opsgate_tool_duration_seconds",
				Help:    "Tool invocation duration in seconds.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"tool"},
		),
	}
	m.registry.MustRegister(m.invocations, m.duration)
	return m
}

// ObserveInvocation records one invocation outcome with its duration.
func (m *Metrics) ObserveInvocation(tool, outcome string, d time.Duration) {
	m.invocations.WithLabelValues(tool, outcome).Inc()
	m.duration.WithLabelValues(tool).Observe(d.Seconds())
}

// Handler serves the registry in Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
