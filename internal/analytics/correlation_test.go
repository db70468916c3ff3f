package analytics

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kylemck03/PANW-take-home/backend/internal/models"
)

func findCorrelation(results []models.CorrelationResult, a, b string) (models.CorrelationResult, bool) {
	for _, r := range results {
		if (r.MetricA == a && r.MetricB == b) || (r.MetricA == b && r.MetricB == a) {
			return r, true
		}
	}
	return models.CorrelationResult{}, false
}

func TestCorrelationAnalyzer_PerfectLinearPair(t *testing.T) {
	ds := synthetic(40, 1, func(i int, rng *rand.Rand) map[string]float64 {
		a := rng.Float64() * 100
		return map[string]float64{"metric_a": a, "metric_b": 2 * a}
	})

	results := NewCorrelationAnalyzer(quietLogger()).Analyze(ds)
	require.Len(t, results, 1)

	r := results[0]
	assert.InDelta(t, 1.0, r.Coefficient, 1e-9)
	assert.Equal(t, models.StrengthStrong, r.Strength)
	assert.Equal(t, models.DirectionPositive, r.Direction)
	assert.True(t, r.Significant)
	assert.Equal(t, 40, r.SampleSize)
	assert.Less(t, r.PValue, 1e-6)
}

func TestCorrelationAnalyzer_StepsAndEnergy(t *testing.T) {
	ds := healthyDays(90, 7)

	results := NewCorrelationAnalyzer(quietLogger()).Analyze(ds)
	r, ok := findCorrelation(results, models.MetricStepCount, models.MetricActiveEnergyBurned)
	require.True(t, ok, "steps/energy pair missing")

	assert.Greater(t, r.Coefficient, 0.9)
	assert.Equal(t, models.StrengthStrong, r.Strength)
	assert.Equal(t, models.DirectionPositive, r.Direction)
}

func TestCorrelationAnalyzer_CoefficientBounds(t *testing.T) {
	for seed := int64(1); seed <= 5; seed++ {
		ds := synthetic(60, seed, func(_ int, rng *rand.Rand) map[string]float64 {
			return map[string]float64{
				"a": rng.NormFloat64(),
				"b": rng.NormFloat64(),
				"c": rng.ExpFloat64(),
				"d": rng.Float64(),
			}
		})

		for _, r := range NewCorrelationAnalyzer(quietLogger()).Analyze(ds) {
			assert.GreaterOrEqual(t, r.Coefficient, -1.0)
			assert.LessOrEqual(t, r.Coefficient, 1.0)
			assert.GreaterOrEqual(t, r.PValue, 0.0)
			assert.LessOrEqual(t, r.PValue, 1.0)
		}
	}
}

func TestCorrelationAnalyzer_PairOrderDoesNotMatter(t *testing.T) {
	gen := func(first, second string) func(int, *rand.Rand) map[string]float64 {
		return func(_ int, rng *rand.Rand) map[string]float64 {
			x := rng.NormFloat64()
			return map[string]float64{first: x, second: 0.5*x + rng.NormFloat64()}
		}
	}

	forward := NewCorrelationAnalyzer(quietLogger()).Analyze(synthetic(50, 3, gen("alpha", "zeta")))
	// same values, names swapped so the pair is enumerated the other way round
	reverse := NewCorrelationAnalyzer(quietLogger()).Analyze(synthetic(50, 3, gen("zeta", "alpha")))

	require.Len(t, forward, 1)
	require.Len(t, reverse, 1)
	assert.InDelta(t, forward[0].Coefficient, reverse[0].Coefficient, 1e-12)
	assert.InDelta(t, forward[0].PValue, reverse[0].PValue, 1e-12)
}

func TestCorrelationAnalyzer_SkipsDegeneratePairs(t *testing.T) {
	ds := synthetic(40, 2, func(i int, rng *rand.Rand) map[string]float64 {
		row := map[string]float64{
			"varying":  rng.NormFloat64(),
			"other":    rng.NormFloat64(),
			"constant": 5,
		}
		if i == 0 {
			row["rare"] = 1
		}
		return row
	})

	results := NewCorrelationAnalyzer(quietLogger()).Analyze(ds)
	require.Len(t, results, 1)
	assert.ElementsMatch(t, []string{"other", "varying"}, []string{results[0].MetricA, results[0].MetricB})

	for _, r := range results {
		assert.NotEqual(t, "constant", r.MetricA)
		assert.NotEqual(t, "constant", r.MetricB)
		assert.NotEqual(t, "rare", r.MetricA)
		assert.NotEqual(t, "rare", r.MetricB)
	}
}

func TestCorrelationAnalyzer_UsesPairwiseCompleteRows(t *testing.T) {
	ds := synthetic(40, 4, func(i int, rng *rand.Rand) map[string]float64 {
		x := float64(i)
		row := map[string]float64{"x": x, "y": 3*x + 1}
		if i%4 == 0 {
			delete(row, "y")
		}
		if i%5 == 0 {
			row["z"] = rng.Float64()
		}
		return row
	})

	results := NewCorrelationAnalyzer(quietLogger()).Analyze(ds)
	r, ok := findCorrelation(results, "x", "y")
	require.True(t, ok)
	assert.Equal(t, 30, r.SampleSize)
	assert.InDelta(t, 1.0, r.Coefficient, 1e-9)
}

func TestCorrelationAnalyzer_SortedByMagnitude(t *testing.T) {
	ds := synthetic(80, 9, func(_ int, rng *rand.Rand) map[string]float64 {
		x := rng.NormFloat64()
		return map[string]float64{
			"base":   x,
			"strong": -x + rng.NormFloat64()*0.1,
			"medium": x + rng.NormFloat64(),
			"noise":  rng.NormFloat64(),
		}
	})

	results := NewCorrelationAnalyzer(quietLogger()).Analyze(ds)
	require.Len(t, results, 6)
	for i := 1; i < len(results); i++ {
		assert.GreaterOrEqual(t, math.Abs(results[i-1].Coefficient), math.Abs(results[i].Coefficient))
	}
	assert.Equal(t, models.DirectionNegative, results[0].Direction)
}

func TestClassifyStrength(t *testing.T) {
	tests := []struct {
		r    float64
		want models.Strength
	}{
		{0.1, models.StrengthWeak},
		{-0.39, models.StrengthWeak},
		{0.4, models.StrengthModerate},
		{-0.69, models.StrengthModerate},
		{0.7, models.StrengthStrong},
		{-1, models.StrengthStrong},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, classifyStrength(tt.r), "r=%v", tt.r)
	}
}

func TestCorrelationAnalyzer_Lagged(t *testing.T) {
	sleep := make([]float64, 60)
	rng := rand.New(rand.NewSource(11))
	for i := range sleep {
		sleep[i] = 7 + rng.NormFloat64()
	}

	ds := synthetic(60, 12, func(i int, r *rand.Rand) map[string]float64 {
		row := map[string]float64{
			models.MetricSleepHours: sleep[i],
			models.MetricStepCount:  8000 + r.NormFloat64()*500,
		}
		if i > 0 {
			row[models.MetricDietarySugar] = 80 - 5*sleep[i-1] + r.NormFloat64()*0.5
		}
		return row
	})

	results := NewCorrelationAnalyzer(quietLogger()).AnalyzeLagged(ds, 1)
	r, ok := findCorrelation(results, models.MetricSleepHours, models.MetricDietarySugar)
	require.True(t, ok)

	assert.Equal(t, 1, r.LagDays)
	assert.Equal(t, models.MetricSleepHours, r.MetricA)
	assert.Equal(t, models.DirectionNegative, r.Direction)
	assert.Less(t, r.Coefficient, -0.9)
	assert.Equal(t, 59, r.SampleSize)
	assert.Equal(t, "Higher sleep hours → lower dietary sugar next day", r.Interpretation)

	for _, res := range results {
		assert.True(t, res.Significant)
	}

	assert.Empty(t, NewCorrelationAnalyzer(quietLogger()).AnalyzeLagged(ds, 0))
}
