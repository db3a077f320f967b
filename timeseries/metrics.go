package timeseries

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors published by a Client.
type Metrics struct {
	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
}

// NewMetrics creates and registers the client collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "plantseries",
				Subsystem: "client",
				Name:      "requests_total",
				Help:      "Outbound API requests by operation and HTTP status code.",
			},
			[]string{"operation", "code"},
		),
		latency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "plantseries",
				Subsystem: "client",
				Name:      "request_duration_seconds",
				Help:      "Outbound API request latency by operation.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
	reg.MustRegister(m.requests, m.latency)
	return m
}

// observe records one attempt. A status of 0 means the request never
// produced a response.
func (m *Metrics) observe(op string, status int, duration time.Duration) {
	code := "none"
	if status != 0 {
		code = strconv.Itoa(status)
	}
	m.requests.WithLabelValues(op, code).Inc()
	m.latency.WithLabelValues(op).Observe(duration.Seconds())
}
