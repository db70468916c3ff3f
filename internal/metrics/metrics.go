// Package metrics exposes Prometheus collectors for analysis runs, the bundle
// cache and HTTP traffic. A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels for insights_analysis_runs_total
const (
	OutcomeSuccess          = "success"
	OutcomePartial          = "partial"
	OutcomeInsufficientData = "insufficient_data"
	OutcomeError            = "error"
	OutcomeCached           = "cached"
)

type Metrics struct {
	registry *prometheus.Registry

	analysisRuns      *prometheus.CounterVec
	analysisDuration  prometheus.Histogram
	analyzerFailures  *prometheus.CounterVec
	cacheHits         prometheus.Counter
	cacheMisses       prometheus.Counter
	httpRequestsTotal *prometheus.CounterVec
	httpDuration      *prometheus.HistogramVec
}

// New creates the collectors and registers them on a fresh registry together
// with the Go runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		analysisRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "insights_analysis_runs_total",
			Help: "Full analysis runs by outcome.",
		}, []string{"outcome"}),
		analysisDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "insights_analysis_duration_seconds",
			Help:    "Wall time of full analysis runs that reached the analyzers.",
			Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		}),
		analyzerFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "insights_analyzer_failures_total",
			Help: "Analyzers whose output was dropped from a bundle.",
		}, []string{"analyzer"}),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "insights_bundle_cache_hits_total",
			Help: "Analysis bundles served from the cache.",
		}),
		cacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "insights_bundle_cache_misses_total",
			Help: "Analysis bundle cache misses.",
		}),
		httpRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "insights_http_requests_total",
			Help: "Total count of HTTP requests processed by route and status.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "insights_http_request_duration_seconds",
			Help:    "Histogram of HTTP request durations by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.analysisRuns,
		m.analysisDuration,
		m.analyzerFailures,
		m.cacheHits,
		m.cacheMisses,
		m.httpRequestsTotal,
		m.httpDuration,
	)

	return m
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// AnalysisRun records one full analysis. duration is only observed for runs
// that executed analyzers.
func (m *Metrics) AnalysisRun(outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.analysisRuns.WithLabelValues(outcome).Inc()
	if outcome == OutcomeSuccess || outcome == OutcomePartial {
		m.analysisDuration.Observe(duration.Seconds())
	}
}

func (m *Metrics) AnalyzerFailure(analyzer string) {
	if m == nil {
		return
	}
	m.analyzerFailures.WithLabelValues(analyzer).Inc()
}

func (m *Metrics) CacheHit() {
	if m == nil {
		return
	}
	m.cacheHits.Inc()
}

func (m *Metrics) CacheMiss() {
	if m == nil {
		return
	}
	m.cacheMisses.Inc()
}

// ObserveHTTP records a finished request. route is the matched route
// template, not the raw path, to keep label cardinality bounded.
func (m *Metrics) ObserveHTTP(method, route string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	m.httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}
