package analytics

import (
	"math"
	"sort"

	"github.com/kylemck03/PANW-take-home/backend/internal/logger"
	"github.com/kylemck03/PANW-take-home/backend/internal/models"
)

const (
	// DefaultContamination is the expected share of anomalous days
	DefaultContamination = 0.08

	// A single metric beyond this |z| flags the day on its own
	ZScoreFlagThreshold = 3.0

	// Primary metric |z| above this makes the anomaly "high" severity
	HighSeverityZScore = 2.5

	// Forest score this far past the cutoff (fraction of |cutoff|) is "high"
	HighSeverityScoreMargin = 0.10

	// Below this |z| no single metric explains the day
	PrimaryMetricZScore = 1.5

	// Related metrics are reported when |z| exceeds this
	RelatedMetricZScore = 1.5
	MaxRelatedMetrics   = 5
)

// Flag sources recorded on each anomaly
const (
	FlaggedByForest = "isolation_forest"
	FlaggedByZScore = "z_score"
)

// DefaultAnomalyFeatures are the key metrics fed to the isolation forest
var DefaultAnomalyFeatures = []string{
	models.MetricSleepHours,
	models.MetricStepCount,
	models.MetricRestingHeartRate,
	models.MetricHRVSDNN,
	models.MetricActiveEnergyBurned,
}

// AnomalyDetector flags unusual days with an isolation forest over the
// standardized feature matrix and with per-metric z-scores.
type AnomalyDetector struct {
	Contamination float64
	Features      []string
	Trees         int
	MaxSamples    int
	Seed          int64
	ZThreshold    float64

	log logger.Logger
}

// NewAnomalyDetector creates a detector with the default forest settings
func NewAnomalyDetector(log logger.Logger) *AnomalyDetector {
	if log == nil {
		log = logger.Default()
	}
	return &AnomalyDetector{
		Contamination: DefaultContamination,
		Trees:         DefaultForestTrees,
		MaxSamples:    DefaultForestSamples,
		Seed:          DefaultSeed,
		ZThreshold:    ZScoreFlagThreshold,
		log:           log.With(logger.Component("anomaly")),
	}
}

// Detect scores every day of the window and returns the flagged days in
// date order together with the per-metric baselines used for z-scores.
//
// Missing feature cells are imputed with the column mean before
// standardization so every day receives a score.
func (d *AnomalyDetector) Detect(ds models.Dataset) (models.AnomalyReport, error) {
	report := models.AnomalyReport{
		Features:  []string{},
		Scores:    []models.DayScore{},
		Baselines: map[string]models.Baseline{},
		Anomalies: []models.AnomalyResult{},
	}

	if err := checkRows(ds.Len(), MinRows); err != nil {
		return report, err
	}

	report.Baselines = Baselines(ds)

	features := d.selectFeatures(ds)
	if len(features) == 0 {
		d.log.Warn("no usable features for anomaly detection", logger.Int("rows", ds.Len()))
		return report, nil
	}
	report.Features = features

	matrix := standardize(ds, features)
	forest := fitIsolationForest(matrix, d.trees(), d.maxSamples(), d.Seed)

	scores := make([]float64, len(matrix))
	for i, row := range matrix {
		scores[i] = forest.score(row)
		report.Scores = append(report.Scores, models.DayScore{
			Date:  ds.Rows[i].DateKey(),
			Score: scores[i],
		})
	}
	if !allFinite(scores) {
		return report, &ComputationError{Analyzer: AnalyzerAnomaly, Err: errNonFinite}
	}

	report.Cutoff = quantile(scores, d.contamination())

	for i, row := range ds.Rows {
		deviations := deviationsFor(row, report.Baselines)

		var flaggedBy []string
		if scores[i] < report.Cutoff {
			flaggedBy = append(flaggedBy, FlaggedByForest)
		}
		if d.exceedsZThreshold(deviations) {
			flaggedBy = append(flaggedBy, FlaggedByZScore)
		}
		if len(flaggedBy) == 0 {
			continue
		}

		report.Anomalies = append(report.Anomalies,
			buildAnomaly(row.DateKey(), scores[i], report.Cutoff, deviations, report.Baselines, flaggedBy))
	}

	d.log.Debug("anomaly detection complete",
		logger.Int("rows", ds.Len()),
		logger.Int("features", len(features)),
		logger.Float64("cutoff", report.Cutoff),
		logger.Int("anomalies", len(report.Anomalies)),
	)

	return report, nil
}

// Baselines returns the mean and sample standard deviation of every metric
// in the window.
func Baselines(ds models.Dataset) map[string]models.Baseline {
	baselines := make(map[string]models.Baseline)
	for _, metric := range ds.Metrics() {
		values := present(ds.Column(metric))
		if len(values) == 0 {
			continue
		}
		mean, std := meanStd(values)
		baselines[metric] = models.Baseline{Mean: mean, StdDev: std, Count: len(values)}
	}
	return baselines
}

func (d *AnomalyDetector) selectFeatures(ds models.Dataset) []string {
	usable := func(candidates []string) []string {
		out := make([]string, 0, len(candidates))
		for _, m := range candidates {
			if len(present(ds.Column(m))) >= 2 {
				out = append(out, m)
			}
		}
		return out
	}

	if len(d.Features) > 0 {
		return usable(d.Features)
	}
	if features := usable(DefaultAnomalyFeatures); len(features) > 0 {
		return features
	}
	return usable(ds.Metrics())
}

// standardize builds the mean-imputed, z-scaled (population std) feature matrix
func standardize(ds models.Dataset, features []string) [][]float64 {
	matrix := make([][]float64, ds.Len())
	for i := range matrix {
		matrix[i] = make([]float64, len(features))
	}

	for f, metric := range features {
		column := ds.Column(metric)
		mean, _ := meanStd(present(column))
		for i, v := range column {
			if math.IsNaN(v) {
				column[i] = mean
			}
		}

		std := populationStd(column)
		for i, v := range column {
			if std == 0 {
				matrix[i][f] = 0
				continue
			}
			matrix[i][f] = (v - mean) / std
		}
	}
	return matrix
}

// deviationsFor computes the z-score of every metric logged on the row,
// ordered by |z| descending.
func deviationsFor(row models.MetricRow, baselines map[string]models.Baseline) []models.MetricDeviation {
	deviations := make([]models.MetricDeviation, 0, len(row.Values))
	for metric, base := range baselines {
		v, ok := row.Value(metric)
		if !ok {
			continue
		}
		z := 0.0
		if base.StdDev > 0 {
			z = (v - base.Mean) / base.StdDev
		}
		pct := 0.0
		if base.Mean != 0 {
			pct = (v - base.Mean) / base.Mean * 100
		}
		deviations = append(deviations, models.MetricDeviation{
			Metric:            metric,
			Value:             v,
			ZScore:            z,
			PercentFromNormal: pct,
		})
	}

	sort.Slice(deviations, func(i, j int) bool {
		ai, aj := math.Abs(deviations[i].ZScore), math.Abs(deviations[j].ZScore)
		if ai != aj {
			return ai > aj
		}
		return deviations[i].Metric < deviations[j].Metric
	})
	return deviations
}

// exceedsZThreshold checks every logged metric, not only the forest features
func (d *AnomalyDetector) exceedsZThreshold(deviations []models.MetricDeviation) bool {
	threshold := d.ZThreshold
	if threshold <= 0 {
		threshold = ZScoreFlagThreshold
	}
	for _, dev := range deviations {
		if math.Abs(dev.ZScore) > threshold {
			return true
		}
	}
	return false
}

// buildAnomaly picks the metric with the largest |z| as the primary metric.
// When even that metric is within PrimaryMetricZScore the day is reported as
// multi-metric, still carrying the largest deviation's numbers.
func buildAnomaly(
	date string,
	score, cutoff float64,
	deviations []models.MetricDeviation,
	baselines map[string]models.Baseline,
	flaggedBy []string,
) models.AnomalyResult {
	result := models.AnomalyResult{
		Date:         date,
		Metric:       models.MultiMetric,
		AnomalyScore: score,
		Severity:     models.SeverityModerate,
		FlaggedBy:    flaggedBy,
	}

	// deviations are sorted by |z| descending
	if len(deviations) > 0 {
		primary := deviations[0]
		base := baselines[primary.Metric]
		result.Value = primary.Value
		result.BaselineMean = base.Mean
		result.BaselineStdDev = base.StdDev
		result.ZScore = primary.ZScore
		if math.Abs(primary.ZScore) >= PrimaryMetricZScore {
			result.Metric = primary.Metric
		}
	}

	if math.Abs(result.ZScore) > HighSeverityZScore ||
		score < cutoff-HighSeverityScoreMargin*math.Abs(cutoff) {
		result.Severity = models.SeverityHigh
	}

	for _, dev := range deviations {
		if len(result.Related) == MaxRelatedMetrics {
			break
		}
		if dev.Metric == result.Metric || math.Abs(dev.ZScore) <= RelatedMetricZScore {
			continue
		}
		result.Related = append(result.Related, dev)
	}

	return result
}

func (d *AnomalyDetector) contamination() float64 {
	if d.Contamination <= 0 || d.Contamination >= 0.5 {
		return DefaultContamination
	}
	return d.Contamination
}

func (d *AnomalyDetector) trees() int {
	if d.Trees <= 0 {
		return DefaultForestTrees
	}
	return d.Trees
}

func (d *AnomalyDetector) maxSamples() int {
	if d.MaxSamples <= 0 {
		return DefaultForestSamples
	}
	return d.MaxSamples
}

