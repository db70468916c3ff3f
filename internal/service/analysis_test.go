package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/kylemck03/PANW-take-home/backend/internal/analytics"
	"github.com/kylemck03/PANW-take-home/backend/internal/logger"
	"github.com/kylemck03/PANW-take-home/backend/internal/metrics"
	"github.com/kylemck03/PANW-take-home/backend/internal/models"
	"github.com/kylemck03/PANW-take-home/backend/internal/repository"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockHealthDataRepository is an in-memory HealthDataRepository
type mockHealthDataRepository struct {
	mu          sync.Mutex
	rows        map[string][]models.MetricRow
	err         error
	historyCall int
	upserts     []models.HealthDataSync
	deleted     []string
}

func newMockHealthDataRepository() *mockHealthDataRepository {
	return &mockHealthDataRepository{rows: make(map[string][]models.MetricRow)}
}

func (m *mockHealthDataRepository) GetHistory(ctx context.Context, userID string, days int) (models.Dataset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.historyCall++
	if m.err != nil {
		return models.Dataset{}, m.err
	}
	rows := m.rows[userID]
	if len(rows) > days {
		rows = rows[len(rows)-days:]
	}
	return models.NewDataset(userID, rows), nil
}

func (m *mockHealthDataRepository) Upsert(ctx context.Context, userID string, record models.HealthDataSync) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.upserts = append(m.upserts, record)
	return nil
}

func (m *mockHealthDataRepository) BatchUpsert(ctx context.Context, userID string, records []models.HealthDataSync) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return 0, m.err
	}
	m.upserts = append(m.upserts, records...)
	return len(records), nil
}

func (m *mockHealthDataRepository) Delete(ctx context.Context, userID, date string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.deleted = append(m.deleted, date)
	return nil
}

// mockAnalysisRepository records what a full run persisted
type mockAnalysisRepository struct {
	correlations []models.CorrelationResult
	anomalies    []models.AnomalyResult
	patterns     []models.PatternResult
	baselines    map[string]models.Baseline
	logs         []repository.AnalysisLogEntry
	stored       map[string]interface{}
	saveErr      error
}

func (m *mockAnalysisRepository) SaveCorrelations(ctx context.Context, userID string, period models.DateRange, correlations []models.CorrelationResult) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.correlations = correlations
	return nil
}

func (m *mockAnalysisRepository) SaveAnomalies(ctx context.Context, userID string, anomalies []models.AnomalyResult) error {
	m.anomalies = anomalies
	return nil
}

func (m *mockAnalysisRepository) SavePatterns(ctx context.Context, userID string, period models.DateRange, patterns []models.PatternResult) error {
	m.patterns = patterns
	return nil
}

func (m *mockAnalysisRepository) SaveBaselines(ctx context.Context, userID string, baselines map[string]models.Baseline, days int) error {
	m.baselines = baselines
	return nil
}

func (m *mockAnalysisRepository) LogAnalysis(ctx context.Context, entry repository.AnalysisLogEntry) error {
	m.logs = append(m.logs, entry)
	return nil
}

func (m *mockAnalysisRepository) GetLatestBaselines(ctx context.Context, userID string) (map[string]interface{}, error) {
	return m.stored, nil
}

// syntheticRows generates n consecutive days of correlated metrics
func syntheticRows(n int, seed int64) []models.MetricRow {
	rng := rand.New(rand.NewSource(seed))
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	rows := make([]models.MetricRow, n)
	for i := range rows {
		steps := 8000 + rng.NormFloat64()*1500
		sleep := 7 + rng.NormFloat64()*0.7
		sugar := 40 + rng.NormFloat64()*5
		if sleep < 6 {
			sugar += 20
		}
		rows[i] = models.MetricRow{
			Date: start.AddDate(0, 0, i),
			Values: map[string]float64{
				models.MetricStepCount:          steps,
				models.MetricActiveEnergyBurned: 0.04*steps + rng.NormFloat64()*15,
				models.MetricSleepHours:         sleep,
				models.MetricRestingHeartRate:   60 + rng.NormFloat64()*3,
				models.MetricHRVSDNN:            45 + rng.NormFloat64()*8,
				models.MetricDietarySugar:       sugar,
			},
		}
	}
	return rows
}

func newTestAnalysisService(repo *mockHealthDataRepository, results repository.AnalysisRepository, m *metrics.Metrics) AnalysisService {
	orch := analytics.NewOrchestrator(repo, analytics.WithLogger(logger.Nop()))
	return NewAnalysisService(orch, repo, results, AnalysisOptions{Metrics: m, Logger: logger.Nop(), Timeout: 30 * time.Second})
}

func TestAnalysisService_RunFullAnalysisPersists(t *testing.T) {
	repo := newMockHealthDataRepository()
	repo.rows["u1"] = syntheticRows(60, 7)
	results := &mockAnalysisRepository{}
	m := metrics.New()

	svc := newTestAnalysisService(repo, results, m)
	bundle, err := svc.RunFullAnalysis(context.Background(), "u1", 90)
	require.NoError(t, err)

	assert.Equal(t, "u1", bundle.UserID)
	assert.Equal(t, 60, bundle.DaysAnalyzed)
	assert.Empty(t, bundle.Failures)

	assert.LessOrEqual(t, len(results.correlations), MaxStoredCorrelations)
	for _, c := range results.correlations {
		assert.True(t, c.Significant)
	}
	assert.LessOrEqual(t, len(results.anomalies), MaxStoredAnomalies)
	assert.Len(t, results.baselines, len(BaselineMetrics))
	assert.NotContains(t, results.baselines, models.MetricDietarySugar)

	require.Len(t, results.logs, 1)
	assert.Equal(t, AnalysisTypeFull, results.logs[0].AnalysisType)
	assert.Equal(t, "completed", results.logs[0].Status)
	assert.Equal(t, 60, results.logs[0].DaysAnalyzed)

	assertRuns(t, m, "success", 1)
}

func assertRuns(t *testing.T, m *metrics.Metrics, outcome string, n int) {
	t.Helper()
	expected := fmt.Sprintf(`
# HELP insights_analysis_runs_total Full analysis runs by outcome.
# TYPE insights_analysis_runs_total counter
insights_analysis_runs_total{outcome=%q} %d
`, outcome, n)
	assert.NoError(t, testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected), "insights_analysis_runs_total"))
}

func TestAnalysisService_InsufficientData(t *testing.T) {
	repo := newMockHealthDataRepository()
	repo.rows["u1"] = syntheticRows(12, 1)
	results := &mockAnalysisRepository{}
	m := metrics.New()

	svc := newTestAnalysisService(repo, results, m)
	_, err := svc.RunFullAnalysis(context.Background(), "u1", 90)
	require.Error(t, err)
	assert.True(t, errors.Is(err, analytics.ErrInsufficientData))

	var insufficient *analytics.InsufficientDataError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, 12, insufficient.Available)
	assert.Equal(t, analytics.MinRows, insufficient.Required)

	assert.Empty(t, results.logs, "nothing is persisted for a refused run")
	assertRuns(t, m, "insufficient_data", 1)
}

func TestAnalysisService_StoreFailure(t *testing.T) {
	repo := newMockHealthDataRepository()
	repo.err = errors.New("connection refused")
	m := metrics.New()

	svc := newTestAnalysisService(repo, &mockAnalysisRepository{}, m)
	_, err := svc.RunFullAnalysis(context.Background(), "u1", 90)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
	assertRuns(t, m, "error", 1)
}

func TestAnalysisService_PersistenceErrorDoesNotFailRun(t *testing.T) {
	repo := newMockHealthDataRepository()
	repo.rows["u1"] = syntheticRows(45, 3)
	results := &mockAnalysisRepository{saveErr: errors.New("postgrest down")}

	svc := newTestAnalysisService(repo, results, nil)
	bundle, err := svc.RunFullAnalysis(context.Background(), "u1", 90)
	require.NoError(t, err)
	assert.NotNil(t, bundle)
	assert.Empty(t, results.logs)
}

func TestAnalysisService_NilResultsRepository(t *testing.T) {
	repo := newMockHealthDataRepository()
	repo.rows["u1"] = syntheticRows(40, 5)

	svc := newTestAnalysisService(repo, nil, nil)
	_, err := svc.RunFullAnalysis(context.Background(), "u1", 90)
	require.NoError(t, err)

	_, err = svc.GetBaselines(context.Background(), "u1")
	assert.ErrorIs(t, err, ErrBaselinesNotFound)
}

func TestAnalysisService_SingleAnalyzers(t *testing.T) {
	repo := newMockHealthDataRepository()
	repo.rows["u1"] = syntheticRows(60, 11)
	svc := newTestAnalysisService(repo, nil, nil)
	ctx := context.Background()

	correlations, err := svc.GetCorrelations(ctx, "u1", 90)
	require.NoError(t, err)
	assert.NotEmpty(t, correlations)

	report, err := svc.GetAnomalies(ctx, "u1", 90)
	require.NoError(t, err)
	assert.Len(t, report.Scores, 60)

	trends, err := svc.GetTrends(ctx, "u1", 90)
	require.NoError(t, err)
	assert.NotEmpty(t, trends)

	patterns, err := svc.GetPatterns(ctx, "u1", 90)
	require.NoError(t, err)
	require.Len(t, patterns, len(analytics.DefaultHypotheses))

	repo.rows["u2"] = syntheticRows(10, 1)
	_, err = svc.GetTrends(ctx, "u2", 90)
	assert.ErrorIs(t, err, analytics.ErrInsufficientData)
}

func TestAnalysisService_GetHealthSummary(t *testing.T) {
	repo := newMockHealthDataRepository()
	start := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	repo.rows["u1"] = []models.MetricRow{
		{Date: start, Values: map[string]float64{models.MetricSleepHours: 7, models.MetricStepCount: 8000}},
		{Date: start.AddDate(0, 0, 1), Values: map[string]float64{models.MetricSleepHours: 6.44}},
		{Date: start.AddDate(0, 0, 2), Values: map[string]float64{models.MetricSleepHours: 8, models.MetricDietarySugar: 50}},
	}
	svc := newTestAnalysisService(repo, nil, nil)

	summary, err := svc.GetHealthSummary(context.Background(), "u1", 7)
	require.NoError(t, err)

	assert.Equal(t, 3, summary.Days)
	assert.Equal(t, models.DateRange{Start: "2025-03-01", End: "2025-03-03"}, summary.DateRange)
	assert.Equal(t, models.MetricSummary{Average: 7.1, Latest: 8}, summary.Metrics[models.MetricSleepHours])
	assert.Equal(t, models.MetricSummary{Average: 8000, Latest: 8000}, summary.Metrics[models.MetricStepCount])
	assert.NotContains(t, summary.Metrics, models.MetricDietarySugar, "only summary metrics are reported")
	assert.NotContains(t, summary.Metrics, models.MetricHRVSDNN, "metrics never logged are omitted")
}

func TestAnalysisService_GetHealthSummaryEmpty(t *testing.T) {
	svc := newTestAnalysisService(newMockHealthDataRepository(), nil, nil)
	_, err := svc.GetHealthSummary(context.Background(), "nobody", 7)
	assert.ErrorIs(t, err, ErrNoHealthData)
}

func TestAnalysisService_GetBaselines(t *testing.T) {
	results := &mockAnalysisRepository{}
	svc := newTestAnalysisService(newMockHealthDataRepository(), results, nil)

	_, err := svc.GetBaselines(context.Background(), "u1")
	assert.ErrorIs(t, err, ErrBaselinesNotFound)

	results.stored = map[string]interface{}{"sleep_hours_baseline": 7.2}
	got, err := svc.GetBaselines(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 7.2, got["sleep_hours_baseline"])
}

func TestTopSignificant(t *testing.T) {
	in := []models.CorrelationResult{
		{MetricA: "a", Significant: true},
		{MetricA: "b", Significant: false},
		{MetricA: "c", Significant: true},
		{MetricA: "d", Significant: true},
	}
	got := topSignificant(in, 2)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].MetricA)
	assert.Equal(t, "c", got[1].MetricA)

	assert.Empty(t, topSignificant(nil, 15))
}

func TestLastAnomalies(t *testing.T) {
	in := make([]models.AnomalyResult, 12)
	for i := range in {
		in[i].Date = fmt.Sprintf("2025-01-%02d", i+1)
	}
	got := lastAnomalies(in, 10)
	require.Len(t, got, 10)
	assert.Equal(t, "2025-01-03", got[0].Date)
	assert.Equal(t, "2025-01-12", got[9].Date)

	assert.Len(t, lastAnomalies(in[:3], 10), 3)
}

func TestRound1(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{7.14, 7.1},
		{7.15, 7.2},
		{-2.26, -2.3},
		{8000, 8000},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, round1(tt.in))
	}
}
