// Package metrics exposes Prometheus metrics for document generation and the HTTP API.
package metrics

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups the collectors. Use New with a fresh registry in tests.
type Metrics struct {
	documentsGenerated *prometheus.CounterVec
	generationFailures *prometheus.CounterVec
	generationDuration *prometheus.HistogramVec
	apiRequests        *prometheus.CounterVec
	apiDuration        *prometheus.HistogramVec
	gatherer           prometheus.Gatherer
}

// New registers the collectors on reg. When reg is also a Gatherer, Handler serves it.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		documentsGenerated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "agrodocs_documents_generated_total",
			Help: "Documents generated, by document kind and output format",
		}, []string{"kind", "format"}),
		generationFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "agrodocs_generation_failures_total",
			Help: "Failed generations, by document kind and failure reason",
		}, []string{"kind", "reason"}),
		generationDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "agrodocs_generation_duration_seconds",
			Help:    "Time spent generating one document",
			Buckets: prometheus.DefBuckets,
		}, []string{"kind"}),
		apiRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "agrodocs_api_requests_total",
			Help: "Total number of API requests",
		}, []string{"method", "path", "status"}),
		apiDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "agrodocs_api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),
	}
	reg.MustRegister(m.documentsGenerated, m.generationFailures, m.generationDuration, m.apiRequests, m.apiDuration)
	if g, ok := reg.(prometheus.Gatherer); ok {
		m.gatherer = g
	}
	return m
}

// NewWithRuntime registers on a fresh registry that also carries the Go runtime
// and process collectors.
func NewWithRuntime() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return New(reg)
}

// Handler serves the registry the metrics were registered on.
func (m *Metrics) Handler() http.Handler {
	if m.gatherer == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// DocumentGenerated records a successful generation.
func (m *Metrics) DocumentGenerated(kind, format string, d time.Duration) {
	if m == nil {
		return
	}
	m.documentsGenerated.WithLabelValues(kind, format).Inc()
	m.generationDuration.WithLabelValues(kind).Observe(d.Seconds())
}

// GenerationFailed records a failed generation.
func (m *Metrics) GenerationFailed(kind, reason string) {
	if m == nil {
		return
	}
	m.generationFailures.WithLabelValues(kind, reason).Inc()
}

// APIRequest records one HTTP request.
func (m *Metrics) APIRequest(method, path string, status int, d time.Duration) {
	if m == nil {
		return
	}
	statusText := http.StatusText(status)
	if statusText == "" {
		statusText = fmt.Sprintf("%d", status)
	}
	m.apiRequests.WithLabelValues(method, path, statusText).Inc()
	m.apiDuration.WithLabelValues(method, path).Observe(d.Seconds())
}

// GeneratedCounter exposes the success counter of kind and format.
func (m *Metrics) GeneratedCounter(kind, format string) prometheus.Counter {
	return m.documentsGenerated.WithLabelValues(kind, format)
}

// FailureCounter exposes the failure counter of kind and reason.
func (m *Metrics) FailureCounter(kind, reason string) prometheus.Counter {
	return m.generationFailures.WithLabelValues(kind, reason)
}
