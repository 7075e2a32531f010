// Package metrics collects and exposes Prometheus metrics for the session-trust layer.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector is used by the trust gate and the services.
type MetricsCollector interface {
	RecordGateRejection(code string)
	RecordTransition(transition string, outcome string)
	RecordUpstreamLatency(service string, duration time.Duration)
}

// Collector records metrics into Prometheus collectors.
type Collector struct {
	gateRejections  *prometheus.CounterVec
	transitions     *prometheus.CounterVec
	upstreamLatency *prometheus.HistogramVec
}

// NewCollector creates a Collector and registers its metrics with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		gateRejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "storefront_gate_rejections_total",
			Help: "Requests rejected by the trust gate, by rejection code",
		}, []string{"code"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "storefront_identity_transitions_total",
			Help: "Identity transitions by name and outcome",
		}, []string{"transition", "outcome"}),
		upstreamLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "storefront_upstream_latency_seconds",
			Help:    "Latency of external collaborator calls in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"service"}),
	}

	reg.MustRegister(
		c.gateRejections,
		c.transitions,
		c.upstreamLatency,
	)

	return c
}

// RecordGateRejection counts a trust gate rejection.
func (c *Collector) RecordGateRejection(code string) {
	c.gateRejections.WithLabelValues(code).Inc()
}

// RecordTransition counts an identity transition attempt.
func (c *Collector) RecordTransition(transition string, outcome string) {
	c.transitions.WithLabelValues(transition, outcome).Inc()
}

// RecordUpstreamLatency observes the duration of a collaborator call.
func (c *Collector) RecordUpstreamLatency(service string, duration time.Duration) {
	c.upstreamLatency.WithLabelValues(service).Observe(duration.Seconds())
}

// Nop discards all metrics.
type Nop struct{}

func (Nop) RecordGateRejection(string) {}

func (Nop) RecordTransition(string, string) {}

func (Nop) RecordUpstreamLatency(string, time.Duration) {}

// Handler returns the HTTP handler for Prometheus scrapes.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
