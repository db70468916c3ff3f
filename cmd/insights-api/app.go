package main

import (
	"context"
	"fmt"
	"os"

	"github.com/kylemck03/PANW-take-home/backend/internal/analytics"
	"github.com/kylemck03/PANW-take-home/backend/internal/cache"
	"github.com/kylemck03/PANW-take-home/backend/internal/config"
	"github.com/kylemck03/PANW-take-home/backend/internal/logger"
	"github.com/kylemck03/PANW-take-home/backend/internal/metrics"
	"github.com/kylemck03/PANW-take-home/backend/internal/models"
	"github.com/kylemck03/PANW-take-home/backend/internal/repository"
	"github.com/kylemck03/PANW-take-home/backend/internal/service"
	"github.com/kylemck03/PANW-take-home/backend/pkg/supabase"
)

// app holds the dependencies shared by every subcommand
type app struct {
	cfg     *config.Config
	log     logger.Logger
	metrics *metrics.Metrics
	cache   *cache.BundleCache

	healthRepo repository.HealthDataRepository
	results    repository.AnalysisRepository

	analysis   service.AnalysisService
	healthData service.HealthDataService

	closers []func()
}

func newLogger(cfg *config.Config) logger.Logger {
	l := logger.NewSlogLogger(logger.Config{
		Level:  logger.ParseLevel(cfg.Logging.Level),
		Format: cfg.Logging.Format,
		Output: os.Stdout,
	})
	logger.SetDefault(l)
	return l
}

// newApp connects the metric store, the optional cache and builds the services
func newApp(ctx context.Context, cfg *config.Config, log logger.Logger) (*app, error) {
	a := &app{
		cfg:     cfg,
		log:     log,
		metrics: metrics.New(),
	}

	var sb *supabase.Client
	if cfg.Supabase.URL != "" && cfg.Supabase.ServiceKey != "" {
		sb = supabase.NewClient(cfg.Supabase.URL, cfg.Supabase.ServiceKey)
		a.results = repository.NewAnalysisRepository(sb)
	}

	switch cfg.Store.Driver {
	case config.DriverPostgres:
		pool, err := repository.NewPostgresPool(ctx, repository.DefaultPostgresPoolConfig(cfg.Store.DSN))
		if err != nil {
			return nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}
		a.closers = append(a.closers, pool.Close)
		a.healthRepo = repository.NewPostgresHealthDataRepository(pool)
		if a.results == nil {
			log.Warn("supabase not configured, analysis results will not be persisted")
		}
	default:
		a.healthRepo = repository.NewHealthDataRepository(sb)
	}

	bundles, err := cache.NewBundleCache(ctx, cfg.Redis.URL, cfg.Redis.CacheTTL(), log)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to configure cache: %w", err)
	}
	a.cache = bundles
	a.closers = append(a.closers, func() { _ = bundles.Close() })

	orchestrator := newOrchestrator(cfg.Analysis, a.healthRepo, log)
	a.analysis = service.NewAnalysisService(orchestrator, a.healthRepo, a.results, service.AnalysisOptions{
		Cache:   a.cache,
		Metrics: a.metrics,
		Logger:  log,
		Timeout: cfg.Analysis.Timeout(),
	})
	a.healthData = service.NewHealthDataService(a.healthRepo, a.cache, log)

	return a, nil
}

// Close releases connections in reverse order of creation
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

func newOrchestrator(cfg config.AnalysisConfig, store analytics.Store, log logger.Logger) *analytics.Orchestrator {
	detector := analytics.NewAnomalyDetector(log)
	detector.Contamination = cfg.Contamination
	if len(cfg.AnomalyFeatures) > 0 {
		detector.Features = cfg.AnomalyFeatures
	}

	return analytics.NewOrchestrator(store,
		analytics.WithLogger(log),
		analytics.WithMinRows(cfg.MinDataPoints),
		analytics.WithAnomalyDetector(detector),
		analytics.WithHypotheses(hypotheses(cfg.Patterns)),
	)
}

// hypotheses converts configured patterns. An empty list keeps the defaults.
func hypotheses(patterns []config.PatternConfig) []analytics.Hypothesis {
	out := make([]analytics.Hypothesis, 0, len(patterns))
	for _, p := range patterns {
		cmp := models.Comparison(p.Comparison)
		if cmp == "" {
			cmp = models.ComparisonBelow
		}
		out = append(out, analytics.Hypothesis{
			Predictor:        p.Predictor,
			Outcome:          p.Outcome,
			LagDays:          p.LagDays,
			Threshold:        p.Threshold,
			Comparison:       cmp,
			MinEffectPercent: p.MinEffectPercent,
		})
	}
	return out
}
