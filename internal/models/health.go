package models

import (
	"math"
	"sort"
	"time"
)

// DateLayout is the calendar-date format used by the health_data table
const DateLayout = "2006-01-02"

// Well-known HealthKit metric columns
const (
	MetricSleepHours          = "sleep_hours"
	MetricStepCount           = "step_count"
	MetricRestingHeartRate    = "resting_heart_rate"
	MetricHeartRateAvg        = "heart_rate_avg"
	MetricHRVSDNN             = "hrv_sdnn"
	MetricActiveEnergyBurned  = "active_energy_burned"
	MetricExerciseTimeMinutes = "exercise_time_minutes"
	MetricDietarySugar        = "dietary_sugar"
	MetricDietaryEnergy       = "dietary_energy_consumed"
	MetricWalkingSpeed        = "walking_speed"
	MetricVO2Max              = "vo2_max"
)

// MetricRow holds one calendar day of metrics for one user.
// A metric missing from Values was not logged that day.
type MetricRow struct {
	Date   time.Time          `json:"date"`
	Values map[string]float64 `json:"metrics"`
}

// Value returns the metric value for the day and whether it was logged
func (r MetricRow) Value(metric string) (float64, bool) {
	v, ok := r.Values[metric]
	if !ok || math.IsNaN(v) {
		return 0, false
	}
	return v, true
}

// DateKey returns the row's date formatted as YYYY-MM-DD
func (r MetricRow) DateKey() string {
	return r.Date.Format(DateLayout)
}

// Dataset is a date-ordered window of metric rows for one user
type Dataset struct {
	UserID string      `json:"user_id"`
	Rows   []MetricRow `json:"rows"`
}

// NewDataset builds a dataset and sorts its rows chronologically
func NewDataset(userID string, rows []MetricRow) Dataset {
	sorted := make([]MetricRow, len(rows))
	copy(sorted, rows)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})
	return Dataset{UserID: userID, Rows: sorted}
}

// Len returns the number of rows (days) in the dataset
func (d Dataset) Len() int {
	return len(d.Rows)
}

// Metrics returns the sorted union of metric names present in any row
func (d Dataset) Metrics() []string {
	seen := make(map[string]bool)
	for _, row := range d.Rows {
		for name, v := range row.Values {
			if !math.IsNaN(v) {
				seen[name] = true
			}
		}
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// HasMetric reports whether any row logged the metric
func (d Dataset) HasMetric(metric string) bool {
	for _, row := range d.Rows {
		if _, ok := row.Value(metric); ok {
			return true
		}
	}
	return false
}

// Column returns the metric's values aligned with Rows; missing cells are NaN
func (d Dataset) Column(metric string) []float64 {
	col := make([]float64, len(d.Rows))
	for i, row := range d.Rows {
		if v, ok := row.Value(metric); ok {
			col[i] = v
		} else {
			col[i] = math.NaN()
		}
	}
	return col
}

// Start returns the first date in the dataset (zero if empty)
func (d Dataset) Start() time.Time {
	if len(d.Rows) == 0 {
		return time.Time{}
	}
	return d.Rows[0].Date
}

// End returns the last date in the dataset (zero if empty)
func (d Dataset) End() time.Time {
	if len(d.Rows) == 0 {
		return time.Time{}
	}
	return d.Rows[len(d.Rows)-1].Date
}

// IndexByDate maps each YYYY-MM-DD date to its row index
func (d Dataset) IndexByDate() map[string]int {
	index := make(map[string]int, len(d.Rows))
	for i, row := range d.Rows {
		index[row.DateKey()] = i
	}
	return index
}

// Slice returns a dataset restricted to rows[from:to]
func (d Dataset) Slice(from, to int) Dataset {
	return Dataset{UserID: d.UserID, Rows: d.Rows[from:to]}
}

// HealthDataSync is the request body for syncing one day of metrics
type HealthDataSync struct {
	Date    string              `json:"date" binding:"required"`
	Metrics map[string]*float64 `json:"metrics" binding:"required"`
	Source  string              `json:"source"`
}

// HealthSummary is a short recap of the most recent days
type HealthSummary struct {
	Days      int                      `json:"days"`
	DateRange DateRange                `json:"date_range"`
	Metrics   map[string]MetricSummary `json:"metrics"`
}

// MetricSummary holds the average and most recent value of one metric
type MetricSummary struct {
	Average float64 `json:"avg"`
	Latest  float64 `json:"latest"`
}

// DateRange is an inclusive span of calendar dates
type DateRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}
