package service

import (
	"context"
	"fmt"
	"time"

	"github.com/kylemck03/PANW-take-home/backend/internal/cache"
	"github.com/kylemck03/PANW-take-home/backend/internal/logger"
	"github.com/kylemck03/PANW-take-home/backend/internal/models"
	"github.com/kylemck03/PANW-take-home/backend/internal/repository"
)

type healthDataService struct {
	repo  repository.HealthDataRepository
	cache *cache.BundleCache
	log   logger.Logger
}

// NewHealthDataService creates a new health data service. Writes invalidate
// the user's cached analysis bundles.
func NewHealthDataService(repo repository.HealthDataRepository, bundles *cache.BundleCache, log logger.Logger) HealthDataService {
	if log == nil {
		log = logger.Default()
	}
	return &healthDataService{
		repo:  repo,
		cache: bundles,
		log:   log.With(logger.Component("health_data_service")),
	}
}

func (s *healthDataService) Sync(ctx context.Context, userID string, record models.HealthDataSync) error {
	if err := validateDate(record.Date); err != nil {
		return err
	}
	if err := s.repo.Upsert(ctx, userID, record); err != nil {
		return err
	}

	s.invalidate(ctx, userID)
	s.log.WithContext(ctx).Info("synced health data",
		logger.String("user_id", userID),
		logger.String("date", record.Date),
		logger.Int("metrics", len(record.Metrics)),
	)
	return nil
}

// BatchSync validates every record before writing any of them
func (s *healthDataService) BatchSync(ctx context.Context, userID string, records []models.HealthDataSync) (int, error) {
	for _, rec := range records {
		if err := validateDate(rec.Date); err != nil {
			return 0, err
		}
	}

	n, err := s.repo.BatchUpsert(ctx, userID, records)
	if n > 0 {
		s.invalidate(ctx, userID)
	}
	if err != nil {
		return n, err
	}

	s.log.WithContext(ctx).Info("batch synced health data",
		logger.String("user_id", userID),
		logger.Int("records", n),
	)
	return n, nil
}

func (s *healthDataService) GetHistory(ctx context.Context, userID string, days int) (models.Dataset, error) {
	return s.repo.GetHistory(ctx, userID, days)
}

func (s *healthDataService) Delete(ctx context.Context, userID, date string) error {
	if err := validateDate(date); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, userID, date); err != nil {
		return err
	}
	s.invalidate(ctx, userID)
	return nil
}

func (s *healthDataService) invalidate(ctx context.Context, userID string) {
	if err := s.cache.Invalidate(ctx, userID); err != nil {
		s.log.WithContext(ctx).Warn("failed to invalidate cached analyses", logger.String("user_id", userID), logger.Err(err))
	}
}

func validateDate(date string) error {
	if _, err := time.Parse(models.DateLayout, date); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidDate, date)
	}
	return nil
}
