package service

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Metrics aggregates the Prometheus collectors for the API: HTTP request
// counts and latency plus scheduling-domain gauges and counters.
type Metrics struct {
	registry *prometheus.Registry

	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec

	sessionsOpen     prometheus.Gauge
	mutationsTotal   *prometheus.CounterVec
	conflictsFound   prometheus.Counter
	entriesCopied    prometheus.Counter
	exportsGenerated *prometheus.CounterVec
	cacheRequests    *prometheus.CounterVec
}

// NewMetrics builds and registers all collectors on a fresh registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Metrics{
		registry: registry,
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "timetable_http_requests_total",
			Help: "HTTP requests by method, route, and status code.",
		}, []string{"method", "route", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "timetable_http_request_duration_seconds",
			Help:    "HTTP request latency by method and route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		sessionsOpen: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "timetable_sessions_open",
			Help: "Currently open editing sessions.",
		}),
		mutationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "timetable_mutations_total",
			Help: "Grid mutations by kind, including undo and redo.",
		}, []string{"kind"}),
		conflictsFound: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "timetable_conflicts_detected_total",
			Help: "Conflicts reported by full-grid detection runs.",
		}),
		entriesCopied: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "timetable_entries_copied_total",
			Help: "Entries placed by week replication.",
		}),
		exportsGenerated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "timetable_exports_total",
			Help: "Grid exports by format.",
		}, []string{"format"}),
		cacheRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "timetable_cache_requests_total",
			Help: "Reference cache lookups by key and outcome.",
		}, []string{"key", "outcome"}),
	}

	registry.MustRegister(
		m.requestsTotal,
		m.requestDuration,
		m.sessionsOpen,
		m.mutationsTotal,
		m.conflictsFound,
		m.entriesCopied,
		m.exportsGenerated,
		m.cacheRequests,
	)
	return m
}

// Registry exposes the registry for the /metrics handler.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveRequest records one completed HTTP request.
func (m *Metrics) ObserveRequest(method, route string, status int, duration time.Duration) {
	m.requestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// SessionOpened increments the open-session gauge.
func (m *Metrics) SessionOpened() { m.sessionsOpen.Inc() }

// SessionClosed decrements the open-session gauge.
func (m *Metrics) SessionClosed() { m.sessionsOpen.Dec() }

// MutationApplied records one grid mutation.
func (m *Metrics) MutationApplied(kind string) { m.mutationsTotal.WithLabelValues(kind).Inc() }

// ConflictsDetected records the size of one detection result.
func (m *Metrics) ConflictsDetected(count int) { m.conflictsFound.Add(float64(count)) }

// EntriesCopied records entries placed by one replication run.
func (m *Metrics) EntriesCopied(count int) { m.entriesCopied.Add(float64(count)) }

// ExportGenerated records one grid export.
func (m *Metrics) ExportGenerated(format string) { m.exportsGenerated.WithLabelValues(format).Inc() }

// CacheLookup records one reference cache read as a hit or a miss.
func (m *Metrics) CacheLookup(key string, hit bool) {
	outcome := "miss"
	if hit {
		outcome = "hit"
	}
	m.cacheRequests.WithLabelValues(key, outcome).Inc()
}
