package models

import "time"

// Strength buckets the magnitude of a correlation coefficient
type Strength string

const (
	StrengthWeak     Strength = "weak"
	StrengthModerate Strength = "moderate"
	StrengthStrong   Strength = "strong"
)

// Direction represents the sign of a correlation
type Direction string

const (
	DirectionPositive Direction = "positive"
	DirectionNegative Direction = "negative"
)

// TrendDirection classifies the change between window halves
type TrendDirection string

const (
	TrendIncreasing TrendDirection = "increasing"
	TrendDecreasing TrendDirection = "decreasing"
	TrendStable     TrendDirection = "stable"
)

// Severity labels how unusual a flagged day is
type Severity string

const (
	SeverityModerate Severity = "moderate"
	SeverityHigh     Severity = "high"
)

// Comparison selects which side of the threshold triggers a pattern
type Comparison string

const (
	ComparisonBelow Comparison = "below"
	ComparisonAbove Comparison = "above"
)

// MultiMetric marks an anomaly no single metric explains
const MultiMetric = "multi-metric"

// CorrelationResult holds the Pearson correlation between two metrics
type CorrelationResult struct {
	MetricA        string    `json:"metric_a"`
	MetricB        string    `json:"metric_b"`
	Coefficient    float64   `json:"coefficient"`
	PValue         float64   `json:"p_value"`
	SampleSize     int       `json:"sample_size"`
	Strength       Strength  `json:"strength"`
	Direction      Direction `json:"direction"`
	Significant    bool      `json:"significant"`
	LagDays        int       `json:"lag_days,omitempty"`
	Interpretation string    `json:"interpretation,omitempty"`
}

// Baseline is the window mean/stddev of a metric
type Baseline struct {
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std"`
	Count  int     `json:"count"`
}

// DayScore is the multivariate anomaly score of one day
type DayScore struct {
	Date  string  `json:"date"`
	Score float64 `json:"score"`
}

// MetricDeviation describes how far a metric was from its baseline on a day
type MetricDeviation struct {
	Metric            string  `json:"variable"`
	Value             float64 `json:"value"`
	ZScore            float64 `json:"z_score"`
	PercentFromNormal float64 `json:"percent_from_normal"`
}

// AnomalyResult is one day flagged as anomalous
type AnomalyResult struct {
	Date           string            `json:"date"`
	Metric         string            `json:"metric"`
	Value          float64           `json:"value"`
	BaselineMean   float64           `json:"baseline_mean"`
	BaselineStdDev float64           `json:"baseline_std"`
	ZScore         float64           `json:"z_score"`
	AnomalyScore   float64           `json:"anomaly_score"`
	Severity       Severity          `json:"severity"`
	FlaggedBy      []string          `json:"flagged_by"`
	Related        []MetricDeviation `json:"related_anomalies,omitempty"`
}

// AnomalyReport is the full output of the anomaly detector
type AnomalyReport struct {
	Features  []string            `json:"features"`
	Scores    []DayScore          `json:"scores"`
	Cutoff    float64             `json:"cutoff"`
	Baselines map[string]Baseline `json:"baselines"`
	Anomalies []AnomalyResult     `json:"anomalies"`
}

// TrendResult compares the early and late averages of a metric
type TrendResult struct {
	Metric         string         `json:"metric"`
	Direction      TrendDirection `json:"trend_direction"`
	PercentChange  float64        `json:"percent_change"`
	FirstWindowAvg float64        `json:"first_window_avg"`
	LastWindowAvg  float64        `json:"last_window_avg"`
	WindowDays     int            `json:"window_days"`
	OverallAvg     float64        `json:"current_avg"`
	StdDev         float64        `json:"std_dev"`
	Min            float64        `json:"min"`
	Max            float64        `json:"max"`
}

// PatternResult is the outcome of one lagged hypothesis test
type PatternResult struct {
	Predictor      string     `json:"predictor_metric"`
	Outcome        string     `json:"outcome_metric"`
	LagDays        int        `json:"lag_days"`
	Threshold      float64    `json:"threshold_value"`
	Comparison     Comparison `json:"comparison"`
	PercentChange  float64    `json:"percent_change"`
	PValue         *float64   `json:"p_value"`
	Detected       bool       `json:"pattern_detected"`
	TriggeredDays  int        `json:"triggered_days"`
	ComparisonDays int        `json:"comparison_days"`
	TriggeredMean  *float64   `json:"triggered_mean"`
	ComparisonMean *float64   `json:"comparison_mean"`
	SampleSize     int        `json:"sample_size"`
	Narrative      string     `json:"narrative"`
	Reason         string     `json:"reason,omitempty"`
}

// AnalyzerFailure records an analyzer whose output was dropped
type AnalyzerFailure struct {
	Analyzer string `json:"analyzer"`
	Error    string `json:"error"`
}

// AnalysisBundle aggregates every analyzer's output for one run
type AnalysisBundle struct {
	ID                 string              `json:"id"`
	UserID             string              `json:"user_id"`
	WindowDays         int                 `json:"window_days"`
	DaysAnalyzed       int                 `json:"days_analyzed"`
	DataRange          DateRange           `json:"data_range"`
	GeneratedAt        time.Time           `json:"generated_at"`
	Correlations       []CorrelationResult `json:"correlations"`
	LaggedCorrelations []CorrelationResult `json:"lagged_correlations"`
	Anomalies          AnomalyReport       `json:"anomalies"`
	Trends             []TrendResult       `json:"trends"`
	Patterns           []PatternResult     `json:"patterns"`
	Failures           []AnalyzerFailure   `json:"failures,omitempty"`
	ExecutionTimeMS    int64               `json:"execution_time_ms"`
}

// DetectedPatterns returns the patterns whose hypothesis held
func (b *AnalysisBundle) DetectedPatterns() []PatternResult {
	detected := make([]PatternResult, 0)
	for _, p := range b.Patterns {
		if p.Detected {
			detected = append(detected, p)
		}
	}
	return detected
}
