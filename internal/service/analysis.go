package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/kylemck03/PANW-take-home/backend/internal/analytics"
	"github.com/kylemck03/PANW-take-home/backend/internal/cache"
	"github.com/kylemck03/PANW-take-home/backend/internal/logger"
	"github.com/kylemck03/PANW-take-home/backend/internal/metrics"
	"github.com/kylemck03/PANW-take-home/backend/internal/models"
	"github.com/kylemck03/PANW-take-home/backend/internal/repository"
)

// Persistence limits for a full run
const (
	MaxStoredCorrelations = 15
	MaxStoredAnomalies    = 10
)

// AnalysisTypeFull tags full runs in the ml_analyses audit log
const AnalysisTypeFull = "full"

// BaselineMetrics are stored in user_baselines after every full run
var BaselineMetrics = []string{
	models.MetricSleepHours,
	models.MetricStepCount,
	models.MetricRestingHeartRate,
	models.MetricHRVSDNN,
	models.MetricActiveEnergyBurned,
}

// SummaryMetrics are reported by the recent-days health summary
var SummaryMetrics = []string{
	models.MetricSleepHours,
	models.MetricStepCount,
	models.MetricRestingHeartRate,
	models.MetricHRVSDNN,
	models.MetricActiveEnergyBurned,
	models.MetricExerciseTimeMinutes,
}

// AnalysisOptions carries the optional collaborators of the analysis service
type AnalysisOptions struct {
	Cache   *cache.BundleCache
	Metrics *metrics.Metrics
	Logger  logger.Logger
	// Timeout bounds one full run; zero means no extra deadline
	Timeout time.Duration
}

type analysisService struct {
	orchestrator *analytics.Orchestrator
	healthRepo   repository.HealthDataRepository
	results      repository.AnalysisRepository
	cache        *cache.BundleCache
	metrics      *metrics.Metrics
	log          logger.Logger
	timeout      time.Duration
}

// NewAnalysisService creates a new analysis service. results may be nil, in
// which case nothing is persisted and baselines are never available.
func NewAnalysisService(orchestrator *analytics.Orchestrator, healthRepo repository.HealthDataRepository, results repository.AnalysisRepository, opts AnalysisOptions) AnalysisService {
	log := opts.Logger
	if log == nil {
		log = logger.Default()
	}
	return &analysisService{
		orchestrator: orchestrator,
		healthRepo:   healthRepo,
		results:      results,
		cache:        opts.Cache,
		metrics:      opts.Metrics,
		log:          log.With(logger.Component("analysis_service")),
		timeout:      opts.Timeout,
	}
}

func (s *analysisService) RunFullAnalysis(ctx context.Context, userID string, days int) (*models.AnalysisBundle, error) {
	log := s.log.WithContext(ctx).With(logger.String("user_id", userID), logger.Int("days", days))

	cached, ok, err := s.cache.Get(ctx, userID, days)
	if err != nil {
		log.Warn("bundle cache read failed", logger.Err(err))
	}
	if ok {
		s.metrics.CacheHit()
		s.metrics.AnalysisRun(metrics.OutcomeCached, 0)
		log.Debug("serving cached analysis", logger.String("bundle_id", cached.ID))
		return cached, nil
	}
	if s.cache.Enabled() {
		s.metrics.CacheMiss()
	}

	runCtx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	bundle, err := s.orchestrator.RunFullAnalysis(runCtx, userID, days)
	if err != nil {
		if errors.Is(err, analytics.ErrInsufficientData) {
			s.metrics.AnalysisRun(metrics.OutcomeInsufficientData, 0)
		} else {
			s.metrics.AnalysisRun(metrics.OutcomeError, time.Since(start))
		}
		return nil, err
	}

	outcome := metrics.OutcomeSuccess
	if len(bundle.Failures) > 0 {
		outcome = metrics.OutcomePartial
		for _, f := range bundle.Failures {
			s.metrics.AnalyzerFailure(f.Analyzer)
		}
	}
	s.metrics.AnalysisRun(outcome, time.Since(start))

	// Storage problems never fail the request; the bundle is still returned
	if err := s.persist(ctx, bundle); err != nil {
		log.Error("failed to store analysis results", logger.Err(err))
	}
	if err := s.cache.Set(ctx, bundle); err != nil {
		log.Warn("bundle cache write failed", logger.Err(err))
	}

	return bundle, nil
}

// persist writes a run's results in the order the audit trail expects:
// correlations, anomalies, patterns, baselines, then the log entry.
func (s *analysisService) persist(ctx context.Context, bundle *models.AnalysisBundle) error {
	if s.results == nil {
		return nil
	}
	userID := bundle.UserID

	if err := s.results.SaveCorrelations(ctx, userID, bundle.DataRange, topSignificant(bundle.Correlations, MaxStoredCorrelations)); err != nil {
		return err
	}
	if err := s.results.SaveAnomalies(ctx, userID, lastAnomalies(bundle.Anomalies.Anomalies, MaxStoredAnomalies)); err != nil {
		return err
	}

	detected := bundle.DetectedPatterns()
	if err := s.results.SavePatterns(ctx, userID, bundle.DataRange, detected); err != nil {
		return err
	}

	baselines := make(map[string]models.Baseline)
	for _, metric := range BaselineMetrics {
		if b, ok := bundle.Anomalies.Baselines[metric]; ok {
			baselines[metric] = b
		}
	}
	if err := s.results.SaveBaselines(ctx, userID, baselines, bundle.DaysAnalyzed); err != nil {
		return err
	}

	return s.results.LogAnalysis(ctx, repository.AnalysisLogEntry{
		UserID:          userID,
		AnalysisType:    AnalysisTypeFull,
		DaysAnalyzed:    bundle.DaysAnalyzed,
		ExecutionTimeMS: bundle.ExecutionTimeMS,
		Status:          runStatus(bundle),
		Summary: map[string]interface{}{
			"correlations":      len(bundle.Correlations),
			"anomalies":         len(bundle.Anomalies.Anomalies),
			"trends":            len(bundle.Trends),
			"patterns_detected": len(detected),
			"failures":          len(bundle.Failures),
		},
	})
}

func (s *analysisService) GetCorrelations(ctx context.Context, userID string, days int) ([]models.CorrelationResult, error) {
	return s.orchestrator.RunCorrelationsOnly(ctx, userID, days)
}

func (s *analysisService) GetAnomalies(ctx context.Context, userID string, days int) (models.AnomalyReport, error) {
	return s.orchestrator.RunAnomaliesOnly(ctx, userID, days)
}

func (s *analysisService) GetTrends(ctx context.Context, userID string, days int) ([]models.TrendResult, error) {
	return s.orchestrator.RunTrendsOnly(ctx, userID, days)
}

func (s *analysisService) GetPatterns(ctx context.Context, userID string, days int) ([]models.PatternResult, error) {
	return s.orchestrator.RunPatternsOnly(ctx, userID, days)
}

// GetHealthSummary reports the average and latest logged value of the
// summary metrics over the last days, rounded to one decimal.
func (s *analysisService) GetHealthSummary(ctx context.Context, userID string, days int) (*models.HealthSummary, error) {
	ds, err := s.healthRepo.GetHistory(ctx, userID, days)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch health history: %w", err)
	}
	if ds.Len() == 0 {
		return nil, ErrNoHealthData
	}

	summary := &models.HealthSummary{
		Days: ds.Len(),
		DateRange: models.DateRange{
			Start: ds.Start().Format(models.DateLayout),
			End:   ds.End().Format(models.DateLayout),
		},
		Metrics: make(map[string]models.MetricSummary),
	}

	for _, metric := range SummaryMetrics {
		var sum, latest float64
		n := 0
		for _, row := range ds.Rows {
			if v, ok := row.Value(metric); ok {
				sum += v
				latest = v
				n++
			}
		}
		if n == 0 {
			continue
		}
		summary.Metrics[metric] = models.MetricSummary{
			Average: round1(sum / float64(n)),
			Latest:  round1(latest),
		}
	}

	return summary, nil
}

func (s *analysisService) GetBaselines(ctx context.Context, userID string) (map[string]interface{}, error) {
	if s.results == nil {
		return nil, ErrBaselinesNotFound
	}
	baselines, err := s.results.GetLatestBaselines(ctx, userID)
	if err != nil {
		return nil, err
	}
	if baselines == nil {
		return nil, ErrBaselinesNotFound
	}
	return baselines, nil
}

// topSignificant keeps the first n significant correlations; the input is
// already ordered by |r| descending.
func topSignificant(correlations []models.CorrelationResult, n int) []models.CorrelationResult {
	out := make([]models.CorrelationResult, 0, n)
	for _, c := range correlations {
		if !c.Significant {
			continue
		}
		out = append(out, c)
		if len(out) == n {
			break
		}
	}
	return out
}

// lastAnomalies keeps the n most recent anomalies
func lastAnomalies(anomalies []models.AnomalyResult, n int) []models.AnomalyResult {
	if len(anomalies) <= n {
		return anomalies
	}
	return anomalies[len(anomalies)-n:]
}

func runStatus(bundle *models.AnalysisBundle) string {
	if len(bundle.Failures) > 0 {
		return "partial"
	}
	return "completed"
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
