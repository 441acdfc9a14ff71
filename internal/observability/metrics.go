// Package observability wires Prometheus metrics for the ledger service.
package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics collects Prometheus metrics for the application.
type Metrics struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	entriesPosted   prometheus.Counter
	entriesRejected prometheus.Counter
	snapshotBuild   *prometheus.HistogramVec
}

// NewMetrics initialises the registry and base metrics.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pharos_http_requests_total",
		Help: "HTTP requests by route and status code.",
	}, []string{"route", "code"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pharos_http_request_duration_seconds",
		Help:    "HTTP request duration per route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
	posted := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "pharos_journal_entries_posted_total",
		Help: "Journal entries accepted and persisted.",
	})
	rejected := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "pharos_journal_entries_rejected_total",
		Help: "Journal entries rejected at validation or persistence.",
	})
	snapshotBuild := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pharos_snapshot_build_duration_seconds",
		Help:    "Time spent building statement snapshots.",
		Buckets: prometheus.DefBuckets,
	}, []string{"kind"})
	registry.MustRegister(requests, duration, posted, rejected, snapshotBuild)
	return &Metrics{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestsTotal:   requests,
		requestDuration: duration,
		entriesPosted:   posted,
		entriesRejected: rejected,
		snapshotBuild:   snapshotBuild,
	}
}

// Handler returns the http.Handler for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Middleware records metrics for every HTTP request.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(&recorder, r)
		route := routePattern(r)
		m.requestsTotal.WithLabelValues(route, strconv.Itoa(recorder.status)).Inc()
		m.requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// RecordEntryPosted counts an accepted journal entry.
func (m *Metrics) RecordEntryPosted() {
	if m != nil {
		m.entriesPosted.Inc()
	}
}

// RecordEntryRejected counts a rejected journal entry.
func (m *Metrics) RecordEntryRejected() {
	if m != nil {
		m.entriesRejected.Inc()
	}
}

// ObserveSnapshotBuild records how long a statement snapshot took.
func (m *Metrics) ObserveSnapshotBuild(kind string, d time.Duration) {
	if m != nil {
		m.snapshotBuild.WithLabelValues(kind).Observe(d.Seconds())
	}
}

// Registerer exposes the registry for custom metric registration.
func (m *Metrics) Registerer() prometheus.Registerer {
	if m == nil {
		return prometheus.DefaultRegisterer
	}
	return m.registry
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func routePattern(r *http.Request) string {
	if routeCtx := chi.RouteContext(r.Context()); routeCtx != nil {
		if pattern := routeCtx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unknown"
}
