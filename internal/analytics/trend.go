package analytics

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"

	"github.com/kylemck03/PANW-take-home/backend/internal/logger"
	"github.com/kylemck03/PANW-take-home/backend/internal/models"
)

const (
	// MaxTrendWindow caps the size of each compared half
	MaxTrendWindow = 30

	// Changes smaller than this (in percent) are reported as stable
	StableThresholdPercent = 2.0
)

// TrendAnalyzer compares the early and late averages of every metric
type TrendAnalyzer struct {
	log logger.Logger
}

// NewTrendAnalyzer creates a trend analyzer
func NewTrendAnalyzer(log logger.Logger) *TrendAnalyzer {
	if log == nil {
		log = logger.Default()
	}
	return &TrendAnalyzer{log: log.With(logger.Component("trend"))}
}

// Analyze compares the first N and last N rows of the window, where
// N = min(30, len/2). Rows in between are ignored. A metric is skipped when
// either half has no values or the first average is zero. Results are
// sorted by |percent change| descending, ties by metric name.
func (a *TrendAnalyzer) Analyze(ds models.Dataset) []models.TrendResult {
	results := make([]models.TrendResult, 0)

	n := trendWindow(ds.Len())
	if n == 0 {
		return results
	}

	for _, metric := range ds.Metrics() {
		column := ds.Column(metric)

		first := present(column[:n])
		last := present(column[len(column)-n:])
		if len(first) == 0 || len(last) == 0 {
			a.log.Debug("trend skipped: empty half", logger.String("metric", metric))
			continue
		}

		firstAvg, _ := meanStd(first)
		lastAvg, _ := meanStd(last)
		if firstAvg == 0 {
			a.log.Debug("trend skipped: zero baseline", logger.String("metric", metric))
			continue
		}

		change := (lastAvg - firstAvg) / firstAvg * 100
		if math.IsNaN(change) || math.IsInf(change, 0) {
			continue
		}

		all := present(column)
		overall, std := meanStd(all)

		results = append(results, models.TrendResult{
			Metric:         metric,
			Direction:      classifyTrend(change),
			PercentChange:  change,
			FirstWindowAvg: firstAvg,
			LastWindowAvg:  lastAvg,
			WindowDays:     n,
			OverallAvg:     overall,
			StdDev:         std,
			Min:            floats.Min(all),
			Max:            floats.Max(all),
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return math.Abs(results[i].PercentChange) > math.Abs(results[j].PercentChange)
	})

	return results
}

func trendWindow(rows int) int {
	n := rows / 2
	if n > MaxTrendWindow {
		n = MaxTrendWindow
	}
	return n
}

func classifyTrend(percentChange float64) models.TrendDirection {
	switch {
	case math.Abs(percentChange) < StableThresholdPercent:
		return models.TrendStable
	case percentChange > 0:
		return models.TrendIncreasing
	default:
		return models.TrendDecreasing
	}
}
