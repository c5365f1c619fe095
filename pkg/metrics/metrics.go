package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics bundles the Prometheus collectors for the chat service. All
// record methods are safe to call on a nil receiver, so components can
// treat metrics as optional.
type Metrics struct {
	registry *prometheus.Registry

	chatRequests      *prometheus.CounterVec
	chatLatency       prometheus.Histogram
	generatorFailures *prometheus.CounterVec
	documentCount     prometheus.Gauge
}

func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{registry: registry}

	m.chatRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pawsona",
			Subsystem: "chat",
			Name:      "requests_total",
			Help:      "Total number of chat requests by outcome",
		},
		[]string{"outcome"},
	)

	m.chatLatency = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "pawsona",
			Subsystem: "chat",
			Name:      "request_duration_seconds",
			Help:      "Chat request latency in seconds",
			Buckets:   prometheus.DefBuckets,
		},
	)

	m.generatorFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pawsona",
			Subsystem: "llm",
			Name:      "generator_failures_total",
			Help:      "Total number of generation failures by reason",
		},
		[]string{"reason"},
	)

	m.documentCount = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "pawsona",
			Subsystem: "store",
			Name:      "documents",
			Help:      "Number of documents loaded in the vector store",
		},
	)

	registry.MustRegister(
		m.chatRequests,
		m.chatLatency,
		m.generatorFailures,
		m.documentCount,
	)

	return m
}

// Handler exposes the registry for scraping.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordChatRequest records one composed chat request and its latency.
func (m *Metrics) RecordChatRequest(outcome string, latency time.Duration) {
	if m == nil {
		return
	}
	m.chatRequests.WithLabelValues(outcome).Inc()
	m.chatLatency.Observe(latency.Seconds())
}

// RecordGeneratorFailure records one failed generation attempt.
func (m *Metrics) RecordGeneratorFailure(reason string) {
	if m == nil {
		return
	}
	m.generatorFailures.WithLabelValues(reason).Inc()
}

// SetDocumentCount updates the store size gauge.
func (m *Metrics) SetDocumentCount(n int) {
	if m == nil {
		return
	}
	m.documentCount.Set(float64(n))
}
