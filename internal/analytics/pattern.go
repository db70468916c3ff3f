package analytics

import (
	"fmt"
	"math"

	"github.com/kylemck03/PANW-take-home/backend/internal/logger"
	"github.com/kylemck03/PANW-take-home/backend/internal/models"
)

const (
	// PatternAlpha is the significance level of the lagged comparison
	PatternAlpha = 0.05

	// MinGroupSize is the smallest triggered/comparison group that can detect a pattern
	MinGroupSize = 5
)

// Reasons reported when a hypothesis could not be evaluated
const (
	ReasonMissingMetric  = "required metrics not found"
	ReasonTooFewSamples  = "not enough days in one of the groups"
	ReasonNoVariance     = "outcome values do not vary"
	ReasonInvalidLag     = "lag must be at least one day"
	ReasonNotSignificant = "difference is not statistically significant"
	ReasonSmallEffect    = "difference is significant but below the minimum effect size"
)

// Hypothesis describes one lagged two-metric comparison: does the outcome on
// day d+LagDays differ when the predictor on day d is below (or above) the
// threshold?
//
// MinEffectPercent, when positive, additionally requires |percent change| to
// exceed it before a significant difference counts as detected.
type Hypothesis struct {
	Predictor        string            `json:"predictor_metric"`
	Outcome          string            `json:"outcome_metric"`
	LagDays          int               `json:"lag_days"`
	Threshold        float64           `json:"threshold"`
	Comparison       models.Comparison `json:"comparison"`
	MinEffectPercent float64           `json:"min_effect_percent,omitempty"`
}

// DefaultHypotheses are tested on every full analysis
var DefaultHypotheses = []Hypothesis{
	{
		Predictor:  models.MetricSleepHours,
		Outcome:    models.MetricDietarySugar,
		LagDays:    1,
		Threshold:  6.0,
		Comparison: models.ComparisonBelow,
	},
}

// triggered reports whether a predictor value falls on the hypothesis side
func (h Hypothesis) triggered(v float64) bool {
	if h.Comparison == models.ComparisonAbove {
		return v > h.Threshold
	}
	return v < h.Threshold
}

// PatternDetector tests lagged hypotheses with a pooled two-sample t-test
type PatternDetector struct {
	Alpha        float64
	MinGroupSize int

	log logger.Logger
}

// NewPatternDetector creates a detector with the default thresholds
func NewPatternDetector(log logger.Logger) *PatternDetector {
	if log == nil {
		log = logger.Default()
	}
	return &PatternDetector{
		Alpha:        PatternAlpha,
		MinGroupSize: MinGroupSize,
		log:          log.With(logger.Component("pattern")),
	}
}

// DetectLaggedPattern pairs predictor[d] with outcome[d+lag] by calendar date,
// dropping pairs where either side is missing, and compares the outcome of
// triggered days against the rest. The result is never an error: a hypothesis
// that cannot be evaluated comes back undetected with a Reason.
func (p *PatternDetector) DetectLaggedPattern(ds models.Dataset, h Hypothesis) models.PatternResult {
	if h.Comparison == "" {
		h.Comparison = models.ComparisonBelow
	}

	result := models.PatternResult{
		Predictor:  h.Predictor,
		Outcome:    h.Outcome,
		LagDays:    h.LagDays,
		Threshold:  h.Threshold,
		Comparison: h.Comparison,
	}

	if h.LagDays < 1 {
		result.Reason = ReasonInvalidLag
		return result
	}
	if !ds.HasMetric(h.Predictor) || !ds.HasMetric(h.Outcome) {
		result.Reason = ReasonMissingMetric
		return result
	}

	predictors, outcomes := laggedPairs(ds, ds.IndexByDate(), h.Predictor, h.Outcome, h.LagDays)
	result.SampleSize = len(predictors)

	var triggered, comparison []float64
	for i, x := range predictors {
		if h.triggered(x) {
			triggered = append(triggered, outcomes[i])
		} else {
			comparison = append(comparison, outcomes[i])
		}
	}
	result.TriggeredDays = len(triggered)
	result.ComparisonDays = len(comparison)

	if len(triggered) > 0 {
		m, _ := meanStd(triggered)
		result.TriggeredMean = &m
	}
	if len(comparison) > 0 {
		m, _ := meanStd(comparison)
		result.ComparisonMean = &m
	}
	if result.TriggeredMean != nil && result.ComparisonMean != nil && *result.ComparisonMean != 0 {
		result.PercentChange = (*result.TriggeredMean - *result.ComparisonMean) / *result.ComparisonMean * 100
	}
	result.Narrative = patternNarrative(h, result.PercentChange)

	_, pValue, ok := studentTTest(triggered, comparison)
	switch {
	case len(triggered) < 2 || len(comparison) < 2:
		result.Reason = ReasonTooFewSamples
		return result
	case !ok:
		result.Reason = ReasonNoVariance
		return result
	}
	result.PValue = &pValue

	alpha := p.Alpha
	if alpha <= 0 {
		alpha = PatternAlpha
	}
	minGroup := p.MinGroupSize
	if minGroup <= 0 {
		minGroup = MinGroupSize
	}

	switch {
	case len(triggered) < minGroup || len(comparison) < minGroup:
		result.Reason = ReasonTooFewSamples
	case pValue >= alpha:
		result.Reason = ReasonNotSignificant
	case h.MinEffectPercent > 0 && math.Abs(result.PercentChange) <= h.MinEffectPercent:
		result.Reason = ReasonSmallEffect
	default:
		result.Detected = true
	}

	p.log.Debug("lagged pattern evaluated",
		logger.String("predictor", h.Predictor),
		logger.String("outcome", h.Outcome),
		logger.Int("lag_days", h.LagDays),
		logger.Int("pairs", result.SampleSize),
		logger.Float64("p_value", pValue),
		logger.Bool("detected", result.Detected),
	)

	return result
}

// DetectAll evaluates each hypothesis in order
func (p *PatternDetector) DetectAll(ds models.Dataset, hypotheses []Hypothesis) []models.PatternResult {
	results := make([]models.PatternResult, 0, len(hypotheses))
	for _, h := range hypotheses {
		results = append(results, p.DetectLaggedPattern(ds, h))
	}
	return results
}

func patternNarrative(h Hypothesis, percentChange float64) string {
	when := "the next day"
	if h.LagDays > 1 {
		when = fmt.Sprintf("%d days later", h.LagDays)
	}
	if math.IsNaN(percentChange) {
		percentChange = 0
	}
	return fmt.Sprintf("When your %s is %s %.1f, your %s changes by %+.0f%% %s.",
		humanize(h.Predictor), h.Comparison, h.Threshold, humanize(h.Outcome), percentChange, when)
}
