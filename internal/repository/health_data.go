package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/kylemck03/PANW-take-home/backend/internal/models"
	"github.com/kylemck03/PANW-take-home/backend/pkg/supabase"
)

const healthDataTable = "health_data"

// DefaultSource tags rows synced without an explicit source
const DefaultSource = "healthkit"

// bookkeeping columns of health_data that are not metrics
var nonMetricColumns = map[string]bool{
	"id":         true,
	"user_id":    true,
	"date":       true,
	"source":     true,
	"created_at": true,
	"updated_at": true,
}

type healthDataRepository struct {
	client *supabase.Client
	now    func() time.Time
}

// NewHealthDataRepository creates a new Supabase-backed health data repository
func NewHealthDataRepository(client *supabase.Client) HealthDataRepository {
	return &healthDataRepository{client: client, now: time.Now}
}

func (r *healthDataRepository) GetHistory(ctx context.Context, userID string, days int) (models.Dataset, error) {
	end := r.now().UTC()
	start := end.AddDate(0, 0, -days)

	query := map[string]string{
		"user_id": fmt.Sprintf("eq.%s", userID),
		"and":     fmt.Sprintf("(date.gte.%s,date.lte.%s)", start.Format(models.DateLayout), end.Format(models.DateLayout)),
		"select":  "*",
		"order":   "date.asc",
	}

	body, err := r.client.Query(ctx, healthDataTable, query)
	if err != nil {
		return models.Dataset{}, fmt.Errorf("failed to get health data: %w", err)
	}

	rows, err := decodeMetricRows(body)
	if err != nil {
		return models.Dataset{}, err
	}

	return models.NewDataset(userID, rows), nil
}

func (r *healthDataRepository) Upsert(ctx context.Context, userID string, record models.HealthDataSync) error {
	if _, err := r.client.Upsert(ctx, healthDataTable, healthDataPayload(userID, record), "user_id,date"); err != nil {
		return fmt.Errorf("failed to upsert health data for %s: %w", record.Date, err)
	}
	return nil
}

// BatchUpsert writes records in as few requests as possible. PostgREST bulk
// upserts need identical keys on every object, so records are grouped by
// their column set.
func (r *healthDataRepository) BatchUpsert(ctx context.Context, userID string, records []models.HealthDataSync) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	groups := make(map[string][]map[string]interface{})
	var order []string
	for _, rec := range records {
		payload := healthDataPayload(userID, rec)
		key := columnSignature(payload)
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], payload)
	}

	written := 0
	for _, key := range order {
		batch := groups[key]
		if _, err := r.client.Upsert(ctx, healthDataTable, batch, "user_id,date"); err != nil {
			return written, fmt.Errorf("failed to batch upsert health data: %w", err)
		}
		written += len(batch)
	}

	return written, nil
}

func (r *healthDataRepository) Delete(ctx context.Context, userID, date string) error {
	query := map[string]string{
		"user_id": fmt.Sprintf("eq.%s", userID),
		"date":    fmt.Sprintf("eq.%s", date),
	}
	if err := r.client.DeleteWhere(ctx, healthDataTable, query); err != nil {
		return fmt.Errorf("failed to delete health data for %s: %w", date, err)
	}
	return nil
}

func healthDataPayload(userID string, rec models.HealthDataSync) map[string]interface{} {
	source := rec.Source
	if source == "" {
		source = DefaultSource
	}

	data := map[string]interface{}{
		"user_id": userID,
		"date":    rec.Date,
		"source":  source,
	}
	for metric, value := range rec.Metrics {
		if value == nil || nonMetricColumns[metric] {
			continue
		}
		data[metric] = *value
	}
	return data
}

func columnSignature(payload map[string]interface{}) string {
	keys := make([]string, 0, len(payload))
	for k := range payload {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return strings.Join(keys, ",")
}

// decodeMetricRows turns PostgREST rows into MetricRows. Every numeric
// column other than the bookkeeping ones is treated as a metric; nulls and
// non-numeric values are dropped.
func decodeMetricRows(body []byte) ([]models.MetricRow, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var raw []map[string]interface{}
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	rows := make([]models.MetricRow, 0, len(raw))
	for _, item := range raw {
		dateStr, _ := item["date"].(string)
		date, err := parseDate(dateStr)
		if err != nil {
			return nil, err
		}

		values := make(map[string]float64)
		for key, v := range item {
			if nonMetricColumns[key] {
				continue
			}
			n, ok := v.(json.Number)
			if !ok {
				continue
			}
			f, err := n.Float64()
			if err != nil {
				continue
			}
			values[key] = f
		}

		rows = append(rows, models.MetricRow{Date: date, Values: values})
	}
	return rows, nil
}

// parseDate accepts a plain date or a timestamp and keeps the calendar day
func parseDate(s string) (time.Time, error) {
	if len(s) >= len(models.DateLayout) {
		s = s[:len(models.DateLayout)]
	}
	t, err := time.Parse(models.DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q in health data: %w", s, err)
	}
	return t, nil
}
