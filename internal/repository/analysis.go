package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/kylemck03/PANW-take-home/backend/internal/models"
	"github.com/kylemck03/PANW-take-home/backend/pkg/supabase"
)

const (
	correlationsTable = "correlations"
	anomaliesTable    = "anomalies"
	patternsTable     = "patterns"
	baselinesTable    = "user_baselines"
	analysesTable     = "ml_analyses"
)

type analysisRepository struct {
	client *supabase.Client
	now    func() time.Time
}

// NewAnalysisRepository creates a new Supabase-backed analysis result repository
func NewAnalysisRepository(client *supabase.Client) AnalysisRepository {
	return &analysisRepository{client: client, now: time.Now}
}

// SaveCorrelations retires the user's active correlations and inserts the new set
func (r *analysisRepository) SaveCorrelations(ctx context.Context, userID string, period models.DateRange, correlations []models.CorrelationResult) error {
	if len(correlations) == 0 {
		return nil
	}
	now := r.now().UTC().Format(time.RFC3339)

	if err := r.deactivate(ctx, correlationsTable, userID); err != nil {
		return err
	}

	data := make([]map[string]interface{}, len(correlations))
	for i, c := range correlations {
		data[i] = map[string]interface{}{
			"user_id":               userID,
			"metric_a":              c.MetricA,
			"metric_b":              c.MetricB,
			"correlation_value":     c.Coefficient,
			"p_value":               c.PValue,
			"strength":              c.Strength,
			"direction":             c.Direction,
			"sample_size":           c.SampleSize,
			"lag_days":              c.LagDays,
			"analysis_period_start": period.Start,
			"analysis_period_end":   period.End,
			"detected_at":           now,
			"is_active":             true,
		}
	}

	if _, err := r.client.Insert(ctx, correlationsTable, data); err != nil {
		return fmt.Errorf("failed to store correlations: %w", err)
	}
	return nil
}

func (r *analysisRepository) SaveAnomalies(ctx context.Context, userID string, anomalies []models.AnomalyResult) error {
	if len(anomalies) == 0 {
		return nil
	}
	now := r.now().UTC().Format(time.RFC3339)

	data := make([]map[string]interface{}, len(anomalies))
	for i, a := range anomalies {
		data[i] = map[string]interface{}{
			"user_id":           userID,
			"date":              a.Date,
			"primary_metric":    a.Metric,
			"metric_value":      a.Value,
			"baseline_value":    a.BaselineMean,
			"z_score":           a.ZScore,
			"anomaly_score":     a.AnomalyScore,
			"severity":          a.Severity,
			"related_anomalies": a.Related,
			"created_at":        now,
		}
	}

	if _, err := r.client.Insert(ctx, anomaliesTable, data); err != nil {
		return fmt.Errorf("failed to store anomalies: %w", err)
	}
	return nil
}

// SavePatterns retires active patterns of the same type and inserts the detected ones
func (r *analysisRepository) SavePatterns(ctx context.Context, userID string, period models.DateRange, patterns []models.PatternResult) error {
	now := r.now().UTC().Format(time.RFC3339)

	for _, p := range patterns {
		patternType := PatternType(p)
		query := map[string]string{
			"user_id":      fmt.Sprintf("eq.%s", userID),
			"pattern_type": fmt.Sprintf("eq.%s", patternType),
			"is_active":    "eq.true",
		}
		if _, err := r.client.UpdateWhere(ctx, patternsTable, query, map[string]interface{}{"is_active": false}); err != nil {
			return fmt.Errorf("failed to retire pattern %s: %w", patternType, err)
		}

		data := map[string]interface{}{
			"user_id":               userID,
			"pattern_type":          patternType,
			"predictor_metric":      p.Predictor,
			"outcome_metric":        p.Outcome,
			"lag_days":              p.LagDays,
			"threshold_value":       p.Threshold,
			"percent_change":        p.PercentChange,
			"p_value":               p.PValue,
			"narrative":             p.Narrative,
			"sample_size":           p.SampleSize,
			"analysis_period_start": period.Start,
			"analysis_period_end":   period.End,
			"detected_at":           now,
			"is_active":             true,
		}
		if _, err := r.client.Insert(ctx, patternsTable, data); err != nil {
			return fmt.Errorf("failed to store pattern %s: %w", patternType, err)
		}
	}
	return nil
}

// SaveBaselines stores one user_baselines row with <metric>_baseline and <metric>_std columns
func (r *analysisRepository) SaveBaselines(ctx context.Context, userID string, baselines map[string]models.Baseline, days int) error {
	if len(baselines) == 0 {
		return nil
	}
	now := r.now().UTC()

	data := map[string]interface{}{
		"user_id":              userID,
		"calculated_from_days": days,
		"calculation_date":     now.Format(models.DateLayout),
		"created_at":           now.Format(time.RFC3339),
	}
	for metric, b := range baselines {
		data[metric+"_baseline"] = b.Mean
		data[metric+"_std"] = b.StdDev
	}

	if _, err := r.client.Insert(ctx, baselinesTable, data); err != nil {
		return fmt.Errorf("failed to store baselines: %w", err)
	}
	return nil
}

func (r *analysisRepository) LogAnalysis(ctx context.Context, entry AnalysisLogEntry) error {
	now := r.now().UTC()
	status := entry.Status
	if status == "" {
		status = "completed"
	}

	data := map[string]interface{}{
		"user_id":              entry.UserID,
		"analysis_type":        entry.AnalysisType,
		"analysis_date":        now.Format(models.DateLayout),
		"days_analyzed":        entry.DaysAnalyzed,
		"data_points_analyzed": entry.DaysAnalyzed,
		"results_summary":      entry.Summary,
		"execution_time_ms":    entry.ExecutionTimeMS,
		"status":               status,
		"created_at":           now.Format(time.RFC3339),
	}

	if _, err := r.client.Insert(ctx, analysesTable, data); err != nil {
		return fmt.Errorf("failed to log analysis: %w", err)
	}
	return nil
}

func (r *analysisRepository) GetLatestBaselines(ctx context.Context, userID string) (map[string]interface{}, error) {
	query := map[string]string{
		"user_id": fmt.Sprintf("eq.%s", userID),
		"select":  "*",
		"order":   "calculation_date.desc,created_at.desc",
		"limit":   "1",
	}

	body, err := r.client.Query(ctx, baselinesTable, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get baselines: %w", err)
	}

	var rows []map[string]interface{}
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r *analysisRepository) deactivate(ctx context.Context, table, userID string) error {
	query := map[string]string{
		"user_id":   fmt.Sprintf("eq.%s", userID),
		"is_active": "eq.true",
	}
	if _, err := r.client.UpdateWhere(ctx, table, query, map[string]interface{}{"is_active": false}); err != nil {
		return fmt.Errorf("failed to retire %s: %w", table, err)
	}
	return nil
}

// PatternType names a hypothesis, e.g. "sleep_hours_below_dietary_sugar_lag1"
func PatternType(p models.PatternResult) string {
	if p.Predictor == models.MetricSleepHours && p.Outcome == models.MetricDietarySugar && p.LagDays == 1 {
		return "sleep_sugar"
	}
	return fmt.Sprintf("%s_%s_%s_lag%d", p.Predictor, p.Comparison, p.Outcome, p.LagDays)
}
