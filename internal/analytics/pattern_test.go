package analytics

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kylemck03/PANW-take-home/backend/internal/models"
)

var sleepSugar = Hypothesis{
	Predictor:  models.MetricSleepHours,
	Outcome:    models.MetricDietarySugar,
	LagDays:    1,
	Threshold:  6,
	Comparison: models.ComparisonBelow,
}

func TestPatternDetector_DetectsLaggedEffect(t *testing.T) {
	ds := sleepSugarDays(90, 17)

	result := NewPatternDetector(quietLogger()).DetectLaggedPattern(ds, sleepSugar)

	require.True(t, result.Detected, "reason: %s", result.Reason)
	require.NotNil(t, result.PValue)
	assert.Less(t, *result.PValue, PatternAlpha)
	assert.Empty(t, result.Reason)

	assert.Equal(t, 89, result.SampleSize)
	assert.GreaterOrEqual(t, result.TriggeredDays, MinGroupSize)
	assert.GreaterOrEqual(t, result.ComparisonDays, MinGroupSize)
	assert.Equal(t, result.SampleSize, result.TriggeredDays+result.ComparisonDays)
	assert.InDelta(t, 50.0, result.PercentChange, 10)
	assert.Contains(t, result.Narrative, "When your sleep hours is below 6.0, your dietary sugar changes by +")
	assert.Contains(t, result.Narrative, "the next day.")
}

func TestPatternDetector_MinEffectPercent(t *testing.T) {
	ds := sleepSugarDays(90, 17)
	detector := NewPatternDetector(quietLogger())

	h := sleepSugar
	h.MinEffectPercent = 10
	result := detector.DetectLaggedPattern(ds, h)
	assert.True(t, result.Detected, "reason: %s", result.Reason)

	// the sugar effect is roughly +50%, so a 75% floor rejects it
	h.MinEffectPercent = 75
	result = detector.DetectLaggedPattern(ds, h)
	assert.False(t, result.Detected)
	assert.Equal(t, ReasonSmallEffect, result.Reason)
	require.NotNil(t, result.PValue)
	assert.Less(t, *result.PValue, PatternAlpha)
}

func TestPatternDetector_RandomOutcomeRarelyDetected(t *testing.T) {
	detected := 0
	const runs = 20

	for seed := int64(1); seed <= runs; seed++ {
		ds := synthetic(90, seed, func(_ int, rng *rand.Rand) map[string]float64 {
			return map[string]float64{
				models.MetricSleepHours:   4 + rng.Float64()*5,
				models.MetricDietarySugar: 40 + rng.NormFloat64()*8,
			}
		})

		result := NewPatternDetector(quietLogger()).DetectLaggedPattern(ds, sleepSugar)
		require.NotNil(t, result.PValue)
		if result.Detected {
			detected++
		}
	}

	assert.LessOrEqual(t, detected, 5, "random data detected %d/%d times", detected, runs)
}

func TestPatternDetector_ToleratesGaps(t *testing.T) {
	ds := sleepSugarDays(90, 23)

	// drop every seventh day entirely and blank some sugar cells
	rows := make([]models.MetricRow, 0, ds.Len())
	for i, r := range ds.Rows {
		if i%7 == 3 {
			continue
		}
		if i%11 == 0 {
			delete(r.Values, models.MetricDietarySugar)
		}
		rows = append(rows, r)
	}
	gappy := models.NewDataset(ds.UserID, rows)

	result := NewPatternDetector(quietLogger()).DetectLaggedPattern(gappy, sleepSugar)
	assert.Less(t, result.SampleSize, 89)
	assert.True(t, result.Detected, "reason: %s", result.Reason)
}

func TestPatternDetector_MinimumGroupSize(t *testing.T) {
	// only four short nights: the effect is huge but the group is too small
	ds := synthetic(40, 5, func(i int, rng *rand.Rand) map[string]float64 {
		sleep := 7.5 + rng.Float64()*0.2
		if i == 5 || i == 15 || i == 25 || i == 35 {
			sleep = 4
		}
		sugar := 40 + rng.Float64()
		if i == 6 || i == 16 || i == 26 || i == 36 {
			sugar = 90 + rng.Float64()
		}
		return map[string]float64{models.MetricSleepHours: sleep, models.MetricDietarySugar: sugar}
	})

	result := NewPatternDetector(quietLogger()).DetectLaggedPattern(ds, sleepSugar)
	assert.False(t, result.Detected)
	assert.Equal(t, 4, result.TriggeredDays)
	assert.Equal(t, ReasonTooFewSamples, result.Reason)
	require.NotNil(t, result.PValue)
	assert.Less(t, *result.PValue, PatternAlpha)
}

func TestPatternDetector_AboveComparisonAndLongerLag(t *testing.T) {
	ds := synthetic(60, 6, func(i int, rng *rand.Rand) map[string]float64 {
		return map[string]float64{
			models.MetricStepCount:        float64(6000 + (i%4)*2000),
			models.MetricRestingHeartRate: 60 + rng.NormFloat64(),
		}
	})
	// high step days (i%4 == 3) lower resting heart rate two days later
	for i, r := range ds.Rows {
		if i >= 2 && (i-2)%4 == 3 {
			r.Values[models.MetricRestingHeartRate] -= 6
		}
	}

	h := Hypothesis{
		Predictor:  models.MetricStepCount,
		Outcome:    models.MetricRestingHeartRate,
		LagDays:    2,
		Threshold:  11000,
		Comparison: models.ComparisonAbove,
	}
	result := NewPatternDetector(quietLogger()).DetectLaggedPattern(ds, h)

	assert.True(t, result.Detected)
	assert.Less(t, result.PercentChange, 0.0)
	assert.Equal(t, 58, result.SampleSize)
	assert.Contains(t, result.Narrative, "is above 11000.0")
	assert.Contains(t, result.Narrative, "2 days later.")
}

func TestPatternDetector_Unevaluable(t *testing.T) {
	ds := healthyDays(40, 1)
	detector := NewPatternDetector(quietLogger())

	tests := []struct {
		name   string
		h      Hypothesis
		reason string
	}{
		{
			name:   "missing outcome",
			h:      sleepSugar,
			reason: ReasonMissingMetric,
		},
		{
			name:   "zero lag",
			h:      Hypothesis{Predictor: models.MetricSleepHours, Outcome: models.MetricStepCount, LagDays: 0, Threshold: 6},
			reason: ReasonInvalidLag,
		},
		{
			name:   "nobody triggers",
			h:      Hypothesis{Predictor: models.MetricSleepHours, Outcome: models.MetricStepCount, LagDays: 1, Threshold: 0},
			reason: ReasonTooFewSamples,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := detector.DetectLaggedPattern(ds, tt.h)
			assert.False(t, result.Detected)
			assert.Equal(t, tt.reason, result.Reason)
			assert.Nil(t, result.PValue)
		})
	}
}

func TestPatternDetector_DefaultComparisonIsBelow(t *testing.T) {
	h := sleepSugar
	h.Comparison = ""

	result := NewPatternDetector(quietLogger()).DetectLaggedPattern(sleepSugarDays(60, 3), h)
	assert.Equal(t, models.ComparisonBelow, result.Comparison)
	assert.True(t, result.Detected)
}
