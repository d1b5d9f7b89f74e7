// Package metrics exposes Prometheus instrumentation for EGX Trends
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bobmcallan/egxtrends/internal/models"
)

const namespace = "egx"

// UsageSource reports the remote-call meter
type UsageSource interface {
	Snapshot() models.UsageSnapshot
}

// Metrics holds the collectors registered on a private registry
type Metrics struct {
	registry         *prometheus.Registry
	chunks           *prometheus.CounterVec
	assemblies       *prometheus.CounterVec
	assemblyDuration prometheus.Histogram
	assembledRows    prometheus.Counter
	catalogRefreshes *prometheus.CounterVec
	httpRequests     *prometheus.CounterVec
	httpDuration     *prometheus.HistogramVec
}

// New creates and registers all collectors. usage may be nil.
func New(usage UsageSource) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		chunks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "history",
			Name:      "chunks_total",
			Help:      "Remote history chunks by outcome.",
		}, []string{"outcome"}),
		assemblies: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "history",
			Name:      "assemblies_total",
			Help:      "History assemblies by data source.",
		}, []string{"source"}),
		assemblyDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "history",
			Name:      "assembly_duration_seconds",
			Help:      "Wall time of one history assembly, including the fallback delay.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}),
		assembledRows: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "history",
			Name:      "rows_total",
			Help:      "Analysis rows produced.",
		}),
		catalogRefreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "catalog",
			Name:      "refreshes_total",
			Help:      "Index catalog refreshes by source.",
		}, []string{"index", "source"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by method and status code.",
		}, []string{"method", "code"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.chunks,
		m.assemblies,
		m.assemblyDuration,
		m.assembledRows,
		m.catalogRefreshes,
		m.httpRequests,
		m.httpDuration,
	)

	if usage != nil {
		m.registry.MustRegister(
			prometheus.NewGaugeFunc(prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "usage",
				Name:      "remote_calls",
				Help:      "Remote generation calls recorded since start or the last daily reset.",
			}, func() float64 { return float64(usage.Snapshot().Count) }),
			prometheus.NewGaugeFunc(prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "usage",
				Name:      "daily_quota",
				Help:      "Advisory daily quota of remote generation calls.",
			}, func() float64 { return float64(usage.Snapshot().DailyQuota) }),
		)
	}

	return m
}

// ObserveChunk counts one remote history chunk
func (m *Metrics) ObserveChunk(ok bool) {
	outcome := "ok"
	if !ok {
		outcome = "failed"
	}
	m.chunks.WithLabelValues(outcome).Inc()
}

// ObserveAssembly records one history assembly
func (m *Metrics) ObserveAssembly(simulated bool, rows int, elapsed time.Duration) {
	source := "retrieved"
	if simulated {
		source = "simulated"
	}
	m.assemblies.WithLabelValues(source).Inc()
	m.assemblyDuration.Observe(elapsed.Seconds())
	m.assembledRows.Add(float64(rows))
}

// ObserveCatalogRefresh records where a catalog listing came from ("remote" or "static")
func (m *Metrics) ObserveCatalogRefresh(index models.MarketIndex, source string) {
	m.catalogRefreshes.WithLabelValues(string(index), source).Inc()
}

// ObserveRequest records one served HTTP request
func (m *Metrics) ObserveRequest(method string, status int, elapsed time.Duration) {
	m.httpRequests.WithLabelValues(method, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method).Observe(elapsed.Seconds())
}

// Registry returns the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
