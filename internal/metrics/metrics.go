// Package metrics exposes request-level instrumentation for the client.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts upstream requests and observes their latency, labeled by
// service and outcome.
type Metrics struct {
	requests  *prometheus.CounterVec
	durations *prometheus.HistogramVec
}

// New creates metrics registered against the given registerer. Pass nil to
// create unregistered (test) metrics.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fabric_client",
			Name:      "requests_total",
			Help:      "Upstream HTTP requests by service and outcome.",
		}, []string{"service", "outcome"}),
		durations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "fabric_client",
			Name:      "request_duration_seconds",
			Help:      "Upstream HTTP request latency by service.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"service"}),
	}
	if reg != nil {
		reg.MustRegister(m.requests, m.durations)
	}
	return m
}

// Observe records one completed request.
func (m *Metrics) Observe(service, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(service, outcome).Inc()
	m.durations.WithLabelValues(service).Observe(elapsed.Seconds())
}
