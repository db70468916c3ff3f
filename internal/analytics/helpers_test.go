package analytics

import (
	"context"
	"math/rand"
	"sync/atomic"
	"time"

	"github.com/kylemck03/PANW-take-home/backend/internal/logger"
	"github.com/kylemck03/PANW-take-home/backend/internal/models"
)

var testStart = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

// synthetic builds an n-day dataset whose rows are produced by gen
func synthetic(n int, seed int64, gen func(i int, rng *rand.Rand) map[string]float64) models.Dataset {
	rng := rand.New(rand.NewSource(seed))
	rows := make([]models.MetricRow, 0, n)
	for i := 0; i < n; i++ {
		rows = append(rows, models.MetricRow{
			Date:   testStart.AddDate(0, 0, i),
			Values: gen(i, rng),
		})
	}
	return models.NewDataset("user-1", rows)
}

// healthyDays generates a plausible baseline week-in week-out dataset
func healthyDays(n int, seed int64) models.Dataset {
	return synthetic(n, seed, func(_ int, rng *rand.Rand) map[string]float64 {
		steps := 8000 + rng.NormFloat64()*600
		return map[string]float64{
			models.MetricSleepHours:         7 + rng.NormFloat64()*0.5,
			models.MetricStepCount:          steps,
			models.MetricActiveEnergyBurned: 0.04*steps + rng.NormFloat64()*2,
			models.MetricRestingHeartRate:   60 + rng.NormFloat64()*2,
		}
	})
}

// sleepSugarDays makes dietary_sugar on day d+1 50% higher whenever
// sleep_hours on day d is below 6. Every fifth night is forced short.
func sleepSugarDays(n int, seed int64) models.Dataset {
	rng := rand.New(rand.NewSource(seed))
	sleep := make([]float64, n)
	for i := range sleep {
		sleep[i] = 7.2 + rng.NormFloat64()*0.6
		if i%5 == 0 {
			sleep[i] = 5.0 + rng.Float64()*0.5
		}
	}

	rows := make([]models.MetricRow, 0, n)
	for i := 0; i < n; i++ {
		sugar := 40 + rng.NormFloat64()*3
		if i > 0 && sleep[i-1] < 6 {
			sugar = 60 + rng.NormFloat64()*3
		}
		rows = append(rows, models.MetricRow{
			Date: testStart.AddDate(0, 0, i),
			Values: map[string]float64{
				models.MetricSleepHours:       sleep[i],
				models.MetricStepCount:        8000 + rng.NormFloat64()*700,
				models.MetricRestingHeartRate: 60 + rng.NormFloat64()*2,
				models.MetricDietarySugar:     sugar,
			},
		})
	}
	return models.NewDataset("user-1", rows)
}

type fakeStore struct {
	ds    models.Dataset
	err   error
	calls int32
}

func (s *fakeStore) GetHistory(_ context.Context, userID string, _ int) (models.Dataset, error) {
	atomic.AddInt32(&s.calls, 1)
	if s.err != nil {
		return models.Dataset{}, s.err
	}
	ds := s.ds
	ds.UserID = userID
	return ds, nil
}

type countingCorrelation struct{ calls int32 }

func (c *countingCorrelation) Analyze(models.Dataset) []models.CorrelationResult {
	atomic.AddInt32(&c.calls, 1)
	return []models.CorrelationResult{}
}

func (c *countingCorrelation) AnalyzeLagged(models.Dataset, int) []models.CorrelationResult {
	atomic.AddInt32(&c.calls, 1)
	return []models.CorrelationResult{}
}

type countingAnomaly struct{ calls int32 }

func (c *countingAnomaly) Detect(models.Dataset) (models.AnomalyReport, error) {
	atomic.AddInt32(&c.calls, 1)
	return emptyAnomalyReport(), nil
}

type countingTrend struct{ calls int32 }

func (c *countingTrend) Analyze(models.Dataset) []models.TrendResult {
	atomic.AddInt32(&c.calls, 1)
	return []models.TrendResult{}
}

type countingPattern struct{ calls int32 }

func (c *countingPattern) DetectAll(models.Dataset, []Hypothesis) []models.PatternResult {
	atomic.AddInt32(&c.calls, 1)
	return []models.PatternResult{}
}

type panickingAnomaly struct{}

func (panickingAnomaly) Detect(models.Dataset) (models.AnomalyReport, error) {
	var m map[string]int
	m["boom"]++
	return models.AnomalyReport{}, nil
}

func quietLogger() logger.Logger {
	return logger.Nop()
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
