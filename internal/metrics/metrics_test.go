package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_AnalysisRun(t *testing.T) {
	m := New()

	m.AnalysisRun(OutcomeSuccess, 120*time.Millisecond)
	m.AnalysisRun(OutcomePartial, 80*time.Millisecond)
	m.AnalysisRun(OutcomeInsufficientData, 0)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.analysisRuns.WithLabelValues(OutcomeSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.analysisRuns.WithLabelValues(OutcomeInsufficientData)))

	count, err := testutil.GatherAndCount(m.registry, "insights_analysis_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestMetrics_FailuresAndCache(t *testing.T) {
	m := New()

	m.AnalyzerFailure("anomaly")
	m.AnalyzerFailure("anomaly")
	m.CacheHit()
	m.CacheMiss()
	m.CacheMiss()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.analyzerFailures.WithLabelValues("anomaly")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.cacheHits))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.cacheMisses))
}

func TestMetrics_ObserveHTTP(t *testing.T) {
	m := New()

	m.ObserveHTTP(http.MethodGet, "/api/analytics/:user_id/trends", 200, 5*time.Millisecond)
	m.ObserveHTTP(http.MethodGet, "", 404, time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequestsTotal.WithLabelValues("GET", "/api/analytics/:user_id/trends", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequestsTotal.WithLabelValues("GET", "unmatched", "404")))
}

func TestMetrics_HandlerExposesCollectors(t *testing.T) {
	m := New()
	m.AnalysisRun(OutcomeSuccess, time.Second)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `insights_analysis_runs_total{outcome="success"} 1`)
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.AnalysisRun(OutcomeError, time.Second)
		m.AnalyzerFailure("trend")
		m.CacheHit()
		m.CacheMiss()
		m.ObserveHTTP("GET", "/", 200, time.Millisecond)
	})
	assert.Nil(t, m.Registry())
}
