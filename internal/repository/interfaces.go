package repository

//go:generate mockgen -source=interfaces.go -destination=mocks/mock_repository.go -package=mocks

import (
	"context"

	"github.com/kylemck03/PANW-take-home/backend/internal/models"
)

// HealthDataRepository defines the interface for daily health metric access
type HealthDataRepository interface {
	// GetHistory returns the user's rows for the last days calendar days, oldest first
	GetHistory(ctx context.Context, userID string, days int) (models.Dataset, error)
	Upsert(ctx context.Context, userID string, record models.HealthDataSync) error
	BatchUpsert(ctx context.Context, userID string, records []models.HealthDataSync) (int, error)
	Delete(ctx context.Context, userID, date string) error
}

// AnalysisRepository persists the outputs of a full analysis run
type AnalysisRepository interface {
	SaveCorrelations(ctx context.Context, userID string, period models.DateRange, correlations []models.CorrelationResult) error
	SaveAnomalies(ctx context.Context, userID string, anomalies []models.AnomalyResult) error
	SavePatterns(ctx context.Context, userID string, period models.DateRange, patterns []models.PatternResult) error
	SaveBaselines(ctx context.Context, userID string, baselines map[string]models.Baseline, days int) error
	LogAnalysis(ctx context.Context, entry AnalysisLogEntry) error

	// GetLatestBaselines returns nil, nil when no baselines were stored yet
	GetLatestBaselines(ctx context.Context, userID string) (map[string]interface{}, error)
}

// AnalysisLogEntry is one row of the ml_analyses audit table
type AnalysisLogEntry struct {
	UserID          string
	AnalysisType    string
	DaysAnalyzed    int
	ExecutionTimeMS int64
	Status          string
	Summary         map[string]interface{}
}
