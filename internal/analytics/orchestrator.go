package analytics

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime/debug"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/kylemck03/PANW-take-home/backend/internal/logger"
	"github.com/kylemck03/PANW-take-home/backend/internal/models"
)

// Analyzer names used in failures, logs and metrics
const (
	AnalyzerCorrelation = "correlation"
	AnalyzerAnomaly     = "anomaly"
	AnalyzerTrend       = "trend"
	AnalyzerPattern     = "pattern"
)

// DefaultLagDays is the lag used for the lagged correlation scan
const DefaultLagDays = 1

// Store provides a user's daily metric history
type Store interface {
	GetHistory(ctx context.Context, userID string, days int) (models.Dataset, error)
}

// CorrelationRunner computes same-day and lagged correlations
type CorrelationRunner interface {
	Analyze(ds models.Dataset) []models.CorrelationResult
	AnalyzeLagged(ds models.Dataset, lagDays int) []models.CorrelationResult
}

// AnomalyRunner scores days and flags anomalies
type AnomalyRunner interface {
	Detect(ds models.Dataset) (models.AnomalyReport, error)
}

// TrendRunner compares early and late window averages
type TrendRunner interface {
	Analyze(ds models.Dataset) []models.TrendResult
}

// PatternRunner evaluates lagged hypotheses
type PatternRunner interface {
	DetectAll(ds models.Dataset, hypotheses []Hypothesis) []models.PatternResult
}

// Orchestrator fetches one user's window and runs every analyzer over it
type Orchestrator struct {
	store       Store
	correlation CorrelationRunner
	anomaly     AnomalyRunner
	trend       TrendRunner
	pattern     PatternRunner
	hypotheses  []Hypothesis
	lagDays     int
	minRows     int
	now         func() time.Time
	log         logger.Logger
}

// Option configures an Orchestrator
type Option func(*Orchestrator)

// WithLogger sets the logger used by the orchestrator
func WithLogger(l logger.Logger) Option {
	return func(o *Orchestrator) {
		if l != nil {
			o.log = l
		}
	}
}

// WithMinRows overrides the minimum window size. Values below MinRows are ignored.
func WithMinRows(n int) Option {
	return func(o *Orchestrator) {
		if n >= MinRows {
			o.minRows = n
		}
	}
}

func WithCorrelationAnalyzer(c CorrelationRunner) Option {
	return func(o *Orchestrator) { o.correlation = c }
}

func WithAnomalyDetector(a AnomalyRunner) Option {
	return func(o *Orchestrator) { o.anomaly = a }
}

func WithTrendAnalyzer(t TrendRunner) Option {
	return func(o *Orchestrator) { o.trend = t }
}

func WithPatternDetector(p PatternRunner) Option {
	return func(o *Orchestrator) { o.pattern = p }
}

// WithHypotheses replaces DefaultHypotheses
func WithHypotheses(h []Hypothesis) Option {
	return func(o *Orchestrator) {
		if len(h) > 0 {
			o.hypotheses = h
		}
	}
}

// WithLagDays sets the lag of the lagged correlation scan
func WithLagDays(days int) Option {
	return func(o *Orchestrator) {
		if days > 0 {
			o.lagDays = days
		}
	}
}

// WithClock overrides time.Now, for tests
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// NewOrchestrator creates an orchestrator reading from store
func NewOrchestrator(store Store, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		store:      store,
		hypotheses: DefaultHypotheses,
		lagDays:    DefaultLagDays,
		minRows:    MinRows,
		now:        time.Now,
		log:        logger.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}

	if o.correlation == nil {
		o.correlation = NewCorrelationAnalyzer(o.log)
	}
	if o.anomaly == nil {
		o.anomaly = NewAnomalyDetector(o.log)
	}
	if o.trend == nil {
		o.trend = NewTrendAnalyzer(o.log)
	}
	if o.pattern == nil {
		o.pattern = NewPatternDetector(o.log)
	}
	o.log = o.log.With(logger.Component("orchestrator"))
	return o
}

// MinRows returns the window size below which analysis is refused
func (o *Orchestrator) MinRows() int {
	return o.minRows
}

// RunFullAnalysis fetches the last days of history for userID and runs all
// analyzers concurrently. A window shorter than MinRows fails with an
// *InsufficientDataError before any analyzer runs. An analyzer that fails
// leaves an empty result and an entry in Failures; the others still report.
func (o *Orchestrator) RunFullAnalysis(ctx context.Context, userID string, days int) (*models.AnalysisBundle, error) {
	ds, err := o.fetch(ctx, userID, days)
	if err != nil {
		return nil, err
	}
	return o.AnalyzeDataset(ctx, ds, days)
}

// AnalyzeDataset runs every analyzer over an already fetched window
func (o *Orchestrator) AnalyzeDataset(ctx context.Context, ds models.Dataset, days int) (*models.AnalysisBundle, error) {
	start := o.now()
	log := o.log.WithContext(ctx).With(logger.String("user_id", ds.UserID), logger.Int("days", days))

	if err := checkRows(ds.Len(), o.minRows); err != nil {
		log.Info("analysis refused", logger.Err(err))
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	bundle := &models.AnalysisBundle{
		ID:                 uuid.NewString(),
		UserID:             ds.UserID,
		WindowDays:         days,
		DaysAnalyzed:       ds.Len(),
		DataRange:          models.DateRange{Start: ds.Start().Format(models.DateLayout), End: ds.End().Format(models.DateLayout)},
		GeneratedAt:        start.UTC(),
		Correlations:       []models.CorrelationResult{},
		LaggedCorrelations: []models.CorrelationResult{},
		Anomalies:          emptyAnomalyReport(),
		Trends:             []models.TrendResult{},
		Patterns:           []models.PatternResult{},
	}

	var (
		mu       sync.Mutex
		failures []models.AnalyzerFailure
		g        errgroup.Group
	)

	// each task writes only its own bundle fields; failures are collected
	// instead of returned so one analyzer cannot cancel the rest
	run := func(name string, task func() error) {
		g.Go(func() error {
			if err := guard(name, task); err != nil {
				log.Warn("analyzer failed", logger.String("analyzer", name), logger.Err(err))
				mu.Lock()
				failures = append(failures, models.AnalyzerFailure{Analyzer: name, Error: err.Error()})
				mu.Unlock()
			}
			return nil
		})
	}

	run(AnalyzerCorrelation, func() error {
		same := o.correlation.Analyze(ds)
		lagged := o.correlation.AnalyzeLagged(ds, o.lagDays)
		if err := checkCorrelations(same); err != nil {
			return err
		}
		if err := checkCorrelations(lagged); err != nil {
			return err
		}
		bundle.Correlations = same
		bundle.LaggedCorrelations = lagged
		return nil
	})

	run(AnalyzerAnomaly, func() error {
		report, err := o.anomaly.Detect(ds)
		if err != nil {
			return err
		}
		bundle.Anomalies = report
		return nil
	})

	run(AnalyzerTrend, func() error {
		trends := o.trend.Analyze(ds)
		for _, t := range trends {
			if math.IsNaN(t.PercentChange) || math.IsInf(t.PercentChange, 0) {
				return errNonFinite
			}
		}
		bundle.Trends = trends
		return nil
	})

	run(AnalyzerPattern, func() error {
		bundle.Patterns = o.pattern.DetectAll(ds, o.hypotheses)
		return nil
	})

	_ = g.Wait()

	sort.Slice(failures, func(i, j int) bool { return failures[i].Analyzer < failures[j].Analyzer })
	bundle.Failures = failures
	bundle.ExecutionTimeMS = o.now().Sub(start).Milliseconds()

	log.Info("analysis complete",
		logger.Int("rows", ds.Len()),
		logger.Int("correlations", len(bundle.Correlations)),
		logger.Int("anomalies", len(bundle.Anomalies.Anomalies)),
		logger.Int("trends", len(bundle.Trends)),
		logger.Int("patterns_detected", len(bundle.DetectedPatterns())),
		logger.Int("failures", len(failures)),
		logger.Int64("execution_time_ms", bundle.ExecutionTimeMS),
	)

	return bundle, nil
}

// RunCorrelationsOnly runs the same-day correlation analyzer alone
func (o *Orchestrator) RunCorrelationsOnly(ctx context.Context, userID string, days int) ([]models.CorrelationResult, error) {
	ds, err := o.fetchChecked(ctx, userID, days)
	if err != nil {
		return nil, err
	}
	var out []models.CorrelationResult
	err = guard(AnalyzerCorrelation, func() error {
		out = o.correlation.Analyze(ds)
		return checkCorrelations(out)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// RunAnomaliesOnly runs the anomaly detector alone
func (o *Orchestrator) RunAnomaliesOnly(ctx context.Context, userID string, days int) (models.AnomalyReport, error) {
	ds, err := o.fetchChecked(ctx, userID, days)
	if err != nil {
		return emptyAnomalyReport(), err
	}
	var report models.AnomalyReport
	err = guard(AnalyzerAnomaly, func() error {
		var detectErr error
		report, detectErr = o.anomaly.Detect(ds)
		return detectErr
	})
	if err != nil {
		return emptyAnomalyReport(), err
	}
	return report, nil
}

// RunTrendsOnly runs the trend analyzer alone
func (o *Orchestrator) RunTrendsOnly(ctx context.Context, userID string, days int) ([]models.TrendResult, error) {
	ds, err := o.fetchChecked(ctx, userID, days)
	if err != nil {
		return nil, err
	}
	var out []models.TrendResult
	err = guard(AnalyzerTrend, func() error {
		out = o.trend.Analyze(ds)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// RunPatternsOnly evaluates the configured hypotheses alone
func (o *Orchestrator) RunPatternsOnly(ctx context.Context, userID string, days int) ([]models.PatternResult, error) {
	ds, err := o.fetchChecked(ctx, userID, days)
	if err != nil {
		return nil, err
	}
	var out []models.PatternResult
	err = guard(AnalyzerPattern, func() error {
		out = o.pattern.DetectAll(ds, o.hypotheses)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (o *Orchestrator) fetch(ctx context.Context, userID string, days int) (models.Dataset, error) {
	if o.store == nil {
		return models.Dataset{}, fmt.Errorf("no metric store configured")
	}
	ds, err := o.store.GetHistory(ctx, userID, days)
	if err != nil {
		return models.Dataset{}, fmt.Errorf("failed to fetch health history: %w", err)
	}
	if ds.UserID == "" {
		ds.UserID = userID
	}
	// the store promises date order; re-sorting keeps the analyzers honest
	return models.NewDataset(ds.UserID, ds.Rows), nil
}

func (o *Orchestrator) fetchChecked(ctx context.Context, userID string, days int) (models.Dataset, error) {
	ds, err := o.fetch(ctx, userID, days)
	if err != nil {
		return ds, err
	}
	if err := checkRows(ds.Len(), o.minRows); err != nil {
		return ds, err
	}
	return ds, nil
}

// guard converts a panic or non-finite output inside task into a ComputationError
func guard(analyzer string, task func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("analyzer panic",
				logger.String("analyzer", analyzer),
				logger.Any("panic", r),
				logger.String("stack", string(debug.Stack())),
			)
			err = &ComputationError{Analyzer: analyzer, Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	if taskErr := task(); taskErr != nil {
		var compErr *ComputationError
		if errors.As(taskErr, &compErr) {
			return taskErr
		}
		return &ComputationError{Analyzer: analyzer, Err: taskErr}
	}
	return nil
}

func checkCorrelations(results []models.CorrelationResult) error {
	for _, r := range results {
		if math.IsNaN(r.Coefficient) || math.IsNaN(r.PValue) {
			return errNonFinite
		}
	}
	return nil
}

func emptyAnomalyReport() models.AnomalyReport {
	return models.AnomalyReport{
		Features:  []string{},
		Scores:    []models.DayScore{},
		Baselines: map[string]models.Baseline{},
		Anomalies: []models.AnomalyResult{},
	}
}
