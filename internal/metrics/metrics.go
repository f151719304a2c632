// Package metrics provides Prometheus instrumentation for the capture pipeline.

package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Stages reported by the capture failure counter.
const (
	StageStore   = "store"
	StagePublish = "publish"
	StageForward = "forward"
)

// Metrics holds all Prometheus collectors. Every instance carries its own
// registry so repeated construction never trips duplicate registration.
type Metrics struct {
	RequestCounter   *prometheus.CounterVec
	LatencyHistogram *prometheus.HistogramVec
	CaptureBytes     prometheus.Histogram
	CaptureFailures  *prometheus.CounterVec
	RateLimitHits    prometheus.Counter
	registry         *prometheus.Registry
}

// NewMetrics initializes a new metrics service.
func NewMetrics(logger *zerolog.Logger) *Metrics {
	logger.Debug().Msg("calling initializer of metrics service")
	registry := prometheus.NewRegistry()

	m := &Metrics{
		RequestCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "catchall_requests_total",
				Help: "Total number of captured HTTP requests",
			},
			[]string{"method", "status"},
		),
		LatencyHistogram: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "catchall_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method"},
		),
		CaptureBytes: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "catchall_capture_bytes",
				Help:    "Size of captured request bodies in bytes",
				Buckets: prometheus.ExponentialBuckets(64, 4, 8),
			},
		),
		CaptureFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "catchall_capture_failures_total",
				Help: "Total number of capture pipeline failures by stage",
			},
			[]string{"stage"},
		),
		RateLimitHits: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "catchall_rate_limit_hits_total",
				Help: "Total number of requests rejected by the rate limiter",
			},
		),
		registry: registry,
	}

	registry.MustRegister(m.RequestCounter)
	registry.MustRegister(m.LatencyHistogram)
	registry.MustRegister(m.CaptureBytes)
	registry.MustRegister(m.CaptureFailures)
	registry.MustRegister(m.RateLimitHits)

	return m
}

// IncrementRequest increments the request counter.
func (m *Metrics) IncrementRequest(method string, status int) {
	m.RequestCounter.WithLabelValues(method, strconv.Itoa(status)).Inc()
}

// RecordLatency records request latency.
func (m *Metrics) RecordLatency(method string, seconds float64) {
	m.LatencyHistogram.WithLabelValues(method).Observe(seconds)
}

// ObserveCaptureBytes records the size of one captured body.
func (m *Metrics) ObserveCaptureBytes(n float64) {
	m.CaptureBytes.Observe(n)
}

// IncrementCaptureFailure increments the failure counter for a pipeline stage.
func (m *Metrics) IncrementCaptureFailure(stage string) {
	m.CaptureFailures.WithLabelValues(stage).Inc()
}

// IncrementRateLimitHit increments the rate limit hit counter.
func (m *Metrics) IncrementRateLimitHit() {
	m.RateLimitHits.Inc()
}

// Handler returns the Prometheus metrics handler backed by the registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
