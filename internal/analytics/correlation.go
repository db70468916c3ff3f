package analytics

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/kylemck03/PANW-take-home/backend/internal/logger"
	"github.com/kylemck03/PANW-take-home/backend/internal/models"
)

const (
	// Minimum overlapping non-null days for a metric pair to be evaluated
	MinPairSamples = 2

	// Strength buckets on |r|
	StrongCorrelation   = 0.7
	ModerateCorrelation = 0.4

	// A correlation is flagged significant when |r| and p clear these
	SignificantCorrelation = 0.3
	SignificanceLevel      = 0.05

	// Lagged correlations need more pairs before they are reported
	MinLaggedSamples = 10
)

// Default predictor/outcome metrics for lagged correlation scanning
var (
	LaggedPredictors = []string{
		models.MetricSleepHours, models.MetricStepCount, models.MetricRestingHeartRate,
		models.MetricHRVSDNN, models.MetricActiveEnergyBurned, models.MetricExerciseTimeMinutes,
	}
	LaggedOutcomes = []string{
		models.MetricDietarySugar, models.MetricDietaryEnergy, models.MetricStepCount,
		models.MetricExerciseTimeMinutes, models.MetricRestingHeartRate,
		models.MetricHeartRateAvg, models.MetricWalkingSpeed,
	}
)

// CorrelationAnalyzer computes pairwise Pearson correlations across metrics
type CorrelationAnalyzer struct {
	log logger.Logger
}

// NewCorrelationAnalyzer creates a correlation analyzer
func NewCorrelationAnalyzer(log logger.Logger) *CorrelationAnalyzer {
	if log == nil {
		log = logger.Default()
	}
	return &CorrelationAnalyzer{log: log.With(logger.Component("correlation"))}
}

// Analyze evaluates every unordered metric pair using pairwise-complete days.
// Pairs are enumerated in lexicographic metric order and the result is
// stable-sorted by |r| descending, so ties keep that enumeration order.
// Degenerate pairs (too few overlapping days, zero variance) are omitted.
func (a *CorrelationAnalyzer) Analyze(ds models.Dataset) []models.CorrelationResult {
	metrics := ds.Metrics()
	columns := make(map[string][]float64, len(metrics))
	for _, m := range metrics {
		columns[m] = ds.Column(m)
	}

	results := make([]models.CorrelationResult, 0)
	skipped := 0

	for i := 0; i < len(metrics); i++ {
		for j := i + 1; j < len(metrics); j++ {
			metricA, metricB := metrics[i], metrics[j]

			xs, ys := pairwiseComplete(columns[metricA], columns[metricB])
			if len(xs) < MinPairSamples {
				skipped++
				continue
			}

			r, pValue, ok := pearson(xs, ys)
			if !ok {
				skipped++
				continue
			}

			results = append(results, newCorrelationResult(metricA, metricB, r, pValue, len(xs)))
		}
	}

	sortByAbsCoefficient(results)

	a.log.Debug("correlation analysis complete",
		logger.Int("metrics", len(metrics)),
		logger.Int("pairs", len(results)),
		logger.Int("skipped_pairs", skipped),
	)

	return results
}

// AnalyzeLagged correlates predictor[d] with outcome[d+lagDays] for the
// default predictor/outcome lists and keeps significant relationships only.
func (a *CorrelationAnalyzer) AnalyzeLagged(ds models.Dataset, lagDays int) []models.CorrelationResult {
	results := make([]models.CorrelationResult, 0)
	if lagDays < 1 {
		return results
	}

	index := ds.IndexByDate()

	for _, predictor := range LaggedPredictors {
		if !ds.HasMetric(predictor) {
			continue
		}
		for _, outcome := range LaggedOutcomes {
			if predictor == outcome || !ds.HasMetric(outcome) {
				continue
			}

			xs, ys := laggedPairs(ds, index, predictor, outcome, lagDays)
			if len(xs) < MinLaggedSamples {
				continue
			}

			r, pValue, ok := pearson(xs, ys)
			if !ok || math.Abs(r) < SignificantCorrelation || pValue >= SignificanceLevel {
				continue
			}

			res := newCorrelationResult(predictor, outcome, r, pValue, len(xs))
			res.LagDays = lagDays
			res.Interpretation = lagInterpretation(predictor, outcome, r, lagDays)
			results = append(results, res)
		}
	}

	sortByAbsCoefficient(results)
	return results
}

// laggedPairs joins predictor on day d with outcome on day d+lag by calendar date
func laggedPairs(ds models.Dataset, index map[string]int, predictor, outcome string, lag int) ([]float64, []float64) {
	xs := make([]float64, 0, ds.Len())
	ys := make([]float64, 0, ds.Len())

	for _, row := range ds.Rows {
		x, ok := row.Value(predictor)
		if !ok {
			continue
		}
		next, exists := index[row.Date.AddDate(0, 0, lag).Format(models.DateLayout)]
		if !exists {
			continue
		}
		y, ok := ds.Rows[next].Value(outcome)
		if !ok {
			continue
		}
		xs = append(xs, x)
		ys = append(ys, y)
	}
	return xs, ys
}

func newCorrelationResult(metricA, metricB string, r, pValue float64, n int) models.CorrelationResult {
	return models.CorrelationResult{
		MetricA:     metricA,
		MetricB:     metricB,
		Coefficient: r,
		PValue:      pValue,
		SampleSize:  n,
		Strength:    classifyStrength(r),
		Direction:   classifyDirection(r),
		Significant: math.Abs(r) >= SignificantCorrelation && pValue < SignificanceLevel,
	}
}

func classifyStrength(r float64) models.Strength {
	absR := math.Abs(r)
	switch {
	case absR >= StrongCorrelation:
		return models.StrengthStrong
	case absR >= ModerateCorrelation:
		return models.StrengthModerate
	default:
		return models.StrengthWeak
	}
}

func classifyDirection(r float64) models.Direction {
	if r < 0 {
		return models.DirectionNegative
	}
	return models.DirectionPositive
}

func sortByAbsCoefficient(results []models.CorrelationResult) {
	sort.SliceStable(results, func(i, j int) bool {
		return math.Abs(results[i].Coefficient) > math.Abs(results[j].Coefficient)
	})
}

func lagInterpretation(predictor, outcome string, r float64, lag int) string {
	effect := "higher"
	if r < 0 {
		effect = "lower"
	}
	when := "next day"
	if lag > 1 {
		when = fmt.Sprintf("%d days later", lag)
	}
	return fmt.Sprintf("Higher %s → %s %s %s", humanize(predictor), effect, humanize(outcome), when)
}

// humanize turns a metric column name into display text
func humanize(metric string) string {
	return strings.ReplaceAll(metric, "_", " ")
}
