package service

import (
	"context"

	"github.com/kylemck03/PANW-take-home/backend/internal/models"
)

// AnalysisService defines the interface for running and reading health analytics
type AnalysisService interface {
	// RunFullAnalysis returns a cached bundle when one exists for the window,
	// otherwise runs every analyzer and persists the results.
	RunFullAnalysis(ctx context.Context, userID string, days int) (*models.AnalysisBundle, error)
	GetCorrelations(ctx context.Context, userID string, days int) ([]models.CorrelationResult, error)
	GetAnomalies(ctx context.Context, userID string, days int) (models.AnomalyReport, error)
	GetTrends(ctx context.Context, userID string, days int) ([]models.TrendResult, error)
	GetPatterns(ctx context.Context, userID string, days int) ([]models.PatternResult, error)
	GetHealthSummary(ctx context.Context, userID string, days int) (*models.HealthSummary, error)
	GetBaselines(ctx context.Context, userID string) (map[string]interface{}, error)
}

// HealthDataService defines the interface for syncing daily health metrics
type HealthDataService interface {
	Sync(ctx context.Context, userID string, record models.HealthDataSync) error
	BatchSync(ctx context.Context, userID string, records []models.HealthDataSync) (int, error)
	GetHistory(ctx context.Context, userID string, days int) (models.Dataset, error)
	Delete(ctx context.Context, userID, date string) error
}
