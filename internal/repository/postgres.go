package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kylemck03/PANW-take-home/backend/internal/models"
)

// PostgresPoolConfig holds connection pool settings for the direct store
type PostgresPoolConfig struct {
	DSN             string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// DefaultPostgresPoolConfig returns pool settings sized for a single API instance
func DefaultPostgresPoolConfig(dsn string) PostgresPoolConfig {
	return PostgresPoolConfig{
		DSN:             dsn,
		MaxConns:        10,
		MinConns:        1,
		MaxConnLifetime: time.Hour,
		MaxConnIdleTime: 30 * time.Minute,
	}
}

// NewPostgresPool opens and pings a pgx connection pool
func NewPostgresPool(ctx context.Context, cfg PostgresPoolConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}

	poolConfig.MaxConns = cfg.MaxConns
	poolConfig.MinConns = cfg.MinConns
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return pool, nil
}

type postgresHealthDataRepository struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

// NewPostgresHealthDataRepository reads and writes health_data directly over pgx
func NewPostgresHealthDataRepository(pool *pgxpool.Pool) HealthDataRepository {
	return &postgresHealthDataRepository{pool: pool, now: time.Now}
}

func (r *postgresHealthDataRepository) GetHistory(ctx context.Context, userID string, days int) (models.Dataset, error) {
	end := r.now().UTC()
	start := end.AddDate(0, 0, -days)

	rows, err := r.pool.Query(ctx,
		`SELECT * FROM health_data WHERE user_id = $1 AND date >= $2 AND date <= $3 ORDER BY date ASC`,
		userID, start.Format(models.DateLayout), end.Format(models.DateLayout),
	)
	if err != nil {
		return models.Dataset{}, fmt.Errorf("failed to get health data: %w", err)
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.Name
	}

	var out []models.MetricRow
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return models.Dataset{}, fmt.Errorf("failed to scan health data: %w", err)
		}

		row := models.MetricRow{Values: make(map[string]float64)}
		for i, v := range values {
			name := names[i]
			if name == "date" {
				date, err := dateValue(v)
				if err != nil {
					return models.Dataset{}, err
				}
				row.Date = date
				continue
			}
			if nonMetricColumns[name] {
				continue
			}
			if f, ok := numericValue(v); ok {
				row.Values[name] = f
			}
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return models.Dataset{}, fmt.Errorf("failed to read health data: %w", err)
	}

	return models.NewDataset(userID, out), nil
}

func (r *postgresHealthDataRepository) Upsert(ctx context.Context, userID string, record models.HealthDataSync) error {
	sql, args, err := upsertStatement(userID, record)
	if err != nil {
		return err
	}
	if _, err := r.pool.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("failed to upsert health data for %s: %w", record.Date, err)
	}
	return nil
}

// BatchUpsert sends all statements in a single round trip inside a transaction
func (r *postgresHealthDataRepository) BatchUpsert(ctx context.Context, userID string, records []models.HealthDataSync) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	batch := &pgx.Batch{}
	for _, rec := range records {
		sql, args, err := upsertStatement(userID, rec)
		if err != nil {
			return 0, err
		}
		batch.Queue(sql, args...)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	br := tx.SendBatch(ctx, batch)
	for i := range records {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return 0, fmt.Errorf("failed to upsert health data for %s: %w", records[i].Date, err)
		}
	}
	if err := br.Close(); err != nil {
		return 0, fmt.Errorf("failed to close batch: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit batch: %w", err)
	}
	return len(records), nil
}

func (r *postgresHealthDataRepository) Delete(ctx context.Context, userID, date string) error {
	day, err := parseDate(date)
	if err != nil {
		return err
	}
	if _, err := r.pool.Exec(ctx, `DELETE FROM health_data WHERE user_id = $1 AND date = $2`, userID, day); err != nil {
		return fmt.Errorf("failed to delete health data for %s: %w", date, err)
	}
	return nil
}

// upsertStatement builds an INSERT ... ON CONFLICT for one day. Metric names
// become quoted identifiers so arbitrary keys cannot escape the column list.
func upsertStatement(userID string, rec models.HealthDataSync) (string, []any, error) {
	day, err := parseDate(rec.Date)
	if err != nil {
		return "", nil, err
	}

	payload := healthDataPayload(userID, rec)
	payload["date"] = day

	columns := make([]string, 0, len(payload))
	for col := range payload {
		columns = append(columns, col)
	}
	sort.Strings(columns)

	quoted := make([]string, len(columns))
	placeholders := make([]string, len(columns))
	args := make([]any, len(columns))
	var updates []string
	for i, col := range columns {
		quoted[i] = pgx.Identifier{col}.Sanitize()
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = payload[col]
		if col != "user_id" && col != "date" {
			updates = append(updates, fmt.Sprintf("%s = EXCLUDED.%s", quoted[i], quoted[i]))
		}
	}
	updates = append(updates, `"updated_at" = now()`)

	sql := fmt.Sprintf(
		`INSERT INTO health_data (%s) VALUES (%s) ON CONFLICT (user_id, date) DO UPDATE SET %s`,
		strings.Join(quoted, ", "),
		strings.Join(placeholders, ", "),
		strings.Join(updates, ", "),
	)
	return sql, args, nil
}

func dateValue(v any) (time.Time, error) {
	switch d := v.(type) {
	case time.Time:
		return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC), nil
	case string:
		return parseDate(d)
	default:
		return time.Time{}, fmt.Errorf("unexpected date value %T in health data", v)
	}
}

// numericValue converts the Go values pgx decodes for numeric columns
func numericValue(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case pgtype.Numeric:
		f, err := n.Float64Value()
		if err != nil || !f.Valid {
			return 0, false
		}
		return f.Float64, true
	default:
		return 0, false
	}
}
