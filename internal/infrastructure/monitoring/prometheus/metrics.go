// Package prometheus registers and serves the platform's metrics.
package prometheus

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds every instrument the platform records.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPActiveRequests  prometheus.Gauge

	ValuationsTotal    *prometheus.CounterVec
	ValuationDuration  *prometheus.HistogramVec
	ReconciliationsTotal prometheus.Counter

	CacheHitsTotal   prometheus.Counter
	CacheMissesTotal prometheus.Counter

	EventsPublishedTotal *prometheus.CounterVec
	EventsConsumedTotal  *prometheus.CounterVec
	EventRetriesTotal    *prometheus.CounterVec

	IndexSyncDuration *prometheus.HistogramVec
}

var httpDurationBuckets = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}

// NewMetrics registers all instruments on a fresh registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{registry: registry}

	m.HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total HTTP requests by method, route, and status code.",
	}, []string{"method", "path", "status"})

	m.HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency.",
		Buckets: httpDurationBuckets,
	}, []string{"method", "path"})

	m.HTTPActiveRequests = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "http_active_requests",
		Help: "In-flight HTTP requests.",
	})

	m.ValuationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "valuation_computations_total",
		Help: "Per-comp valuation runs by approach type.",
	}, []string{"approach_type"})

	m.ValuationDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "valuation_computation_duration_seconds",
		Help:    "Duration of a full approach recomputation.",
		Buckets: []float64{.0005, .001, .005, .01, .05, .1, .5},
	}, []string{"approach_type"})

	m.ReconciliationsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "appraisal_reconciliations_total",
		Help: "Cross-approach weighted market value computations.",
	})

	m.CacheHitsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_hits_total",
		Help: "Snapshot cache hits.",
	})

	m.CacheMissesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_misses_total",
		Help: "Snapshot cache misses.",
	})

	m.EventsPublishedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "events_published_total",
		Help: "Events published to Kafka by topic.",
	}, []string{"topic"})

	m.EventsConsumedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "events_consumed_total",
		Help: "Events consumed from Kafka by topic and result.",
	}, []string{"topic", "result"})

	m.EventRetriesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "event_retries_total",
		Help: "Event handler retries by topic.",
	}, []string{"topic"})

	m.IndexSyncDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "index_sync_duration_seconds",
		Help:    "Time to apply one event to the search index.",
		Buckets: httpDurationBuckets,
	}, []string{"topic"})

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPActiveRequests,
		m.ValuationsTotal,
		m.ValuationDuration,
		m.ReconciliationsTotal,
		m.CacheHitsTotal,
		m.CacheMissesTotal,
		m.EventsPublishedTotal,
		m.EventsConsumedTotal,
		m.EventRetriesTotal,
		m.IndexSyncDuration,
	)

	return m
}

// Handler serves the registry for scraping.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveHTTPRequest records one completed request.
func (m *Metrics) ObserveHTTPRequest(method, path, status string, elapsed time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(elapsed.Seconds())
}
