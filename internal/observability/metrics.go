// Package observability exposes Prometheus metrics for the deal pipeline.
package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "coinvest"

// Metrics holds the collectors. Each instance has its own registry so tests
// and multiple servers never collide on registration.
type Metrics struct {
	registry *prometheus.Registry

	SheetFetches      *prometheus.CounterVec
	SheetFetchSeconds prometheus.Histogram
	CacheHits         prometheus.Counter
	Deals             prometheus.Gauge
	SkippedRows       prometheus.Gauge
	RowWarnings       prometheus.Gauge
	LastSuccess       prometheus.Gauge
	HTTPRequests      *prometheus.CounterVec
}

// New creates and registers all collectors, plus the Go runtime and process collectors
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		SheetFetches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "sheet_fetches_total",
				Help:      "Sheet fetch attempts by result (success, stale, snapshot, failure).",
			},
			[]string{"result"},
		),
		SheetFetchSeconds: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "sheet_fetch_duration_seconds",
				Help:      "Duration of successful sheet fetches.",
				Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 15, 30},
			},
		),
		CacheHits: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "deal_cache_hits_total",
				Help:      "Deal requests served from the fresh cache.",
			},
		),
		Deals: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "deals",
				Help:      "Deals in the current batch.",
			},
		),
		SkippedRows: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "deal_rows_skipped",
				Help:      "Sheet rows skipped in the current batch.",
			},
		),
		RowWarnings: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "deal_row_warnings",
				Help:      "Row warnings recorded for the current batch.",
			},
		),
		LastSuccess: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "sheet_last_success_timestamp_seconds",
				Help:      "Unix time of the last successful sheet fetch.",
			},
		),
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "HTTP requests by method and status code.",
			},
			[]string{"method", "code"},
		),
	}

	m.registry.MustRegister(
		m.SheetFetches,
		m.SheetFetchSeconds,
		m.CacheHits,
		m.Deals,
		m.SkippedRows,
		m.RowWarnings,
		m.LastSuccess,
		m.HTTPRequests,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// ObserveFetch records one fetch outcome
func (m *Metrics) ObserveFetch(result string, duration time.Duration) {
	m.SheetFetches.WithLabelValues(result).Inc()
	if duration > 0 {
		m.SheetFetchSeconds.Observe(duration.Seconds())
	}
	if result == "success" {
		m.LastSuccess.SetToCurrentTime()
	}
}

// ObserveBatch records the size of a freshly fetched batch
func (m *Metrics) ObserveBatch(deals, skipped, warnings int) {
	m.Deals.Set(float64(deals))
	m.SkippedRows.Set(float64(skipped))
	m.RowWarnings.Set(float64(warnings))
}

// ObserveCacheHit records a request answered from the fresh cache
func (m *Metrics) ObserveCacheHit() {
	m.CacheHits.Inc()
}

// Registry returns the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// InstrumentHandler counts requests passing through next
func (m *Metrics) InstrumentHandler(next http.Handler) http.Handler {
	return promhttp.InstrumentHandlerCounter(m.HTTPRequests, next)
}
