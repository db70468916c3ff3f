package main

import (
	"bytes"
	"testing"

	"github.com/fatih/color"
	"github.com/kylemck03/PANW-take-home/backend/internal/analytics"
	"github.com/kylemck03/PANW-take-home/backend/internal/config"
	"github.com/kylemck03/PANW-take-home/backend/internal/logger"
	"github.com/kylemck03/PANW-take-home/backend/internal/metrics"
	"github.com/kylemck03/PANW-take-home/backend/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestHypothesesFromConfig(t *testing.T) {
	got := hypotheses([]config.PatternConfig{
		{Predictor: models.MetricSleepHours, Outcome: models.MetricDietarySugar, LagDays: 1, Threshold: 6},
		{Predictor: models.MetricStepCount, Outcome: models.MetricSleepHours, LagDays: 1, Threshold: 10000, Comparison: "above", MinEffectPercent: 10},
	})

	assert.Equal(t, []analytics.Hypothesis{
		{Predictor: models.MetricSleepHours, Outcome: models.MetricDietarySugar, LagDays: 1, Threshold: 6, Comparison: models.ComparisonBelow},
		{Predictor: models.MetricStepCount, Outcome: models.MetricSleepHours, LagDays: 1, Threshold: 10000, Comparison: models.ComparisonAbove, MinEffectPercent: 10},
	}, got)

	assert.Empty(t, hypotheses(nil))
}

func TestRouterRegistersLimiterShutdown(t *testing.T) {
	a := &app{
		cfg:     &config.Config{Server: config.ServerConfig{Env: "test", RateLimit: 10, RateBurst: 20}},
		log:     logger.Nop(),
		metrics: metrics.New(),
	}

	newRouter(a)
	assert.Len(t, a.closers, 2)

	a.Close()
	assert.Empty(t, a.closers)
}

func TestPrintBundle(t *testing.T) {
	color.NoColor = true

	b := &models.AnalysisBundle{
		UserID:       "u1",
		WindowDays:   90,
		DaysAnalyzed: 60,
		DataRange:    models.DateRange{Start: "2025-01-01", End: "2025-03-01"},
		Correlations: []models.CorrelationResult{
			{MetricA: "sleep_hours", MetricB: "hrv_sdnn", Coefficient: 0.61, PValue: 0.001, Strength: models.StrengthStrong, Significant: true},
			{MetricA: "step_count", MetricB: "vo2_max", Coefficient: 0.05, PValue: 0.7, Significant: false},
		},
		Trends: []models.TrendResult{
			{Metric: "step_count", Direction: models.TrendIncreasing, PercentChange: 12.5},
		},
		Patterns: []models.PatternResult{
			{Detected: true, Narrative: "Sugar rises after short sleep"},
		},
		Failures: []models.AnalyzerFailure{{Analyzer: "anomaly", Error: "boom"}},
	}

	var buf bytes.Buffer
	printBundle(&buf, b)
	out := buf.String()

	assert.Contains(t, out, "sleep_hours")
	assert.NotContains(t, out, "vo2_max")
	assert.Contains(t, out, "increasing (+12.5%)")
	assert.Contains(t, out, "✓ Sugar rises after short sleep")
	assert.Contains(t, out, "anomaly: boom")
	assert.Contains(t, out, "Anomalies:\n  none")
}
