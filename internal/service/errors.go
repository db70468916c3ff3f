package service

import "errors"

var (
	// ErrNoHealthData is returned when a user has no rows in the requested window
	ErrNoHealthData = errors.New("no health data available")

	// ErrBaselinesNotFound is returned before the first full analysis stores baselines
	ErrBaselinesNotFound = errors.New("baselines not yet calculated")

	// ErrInvalidDate wraps dates that are not YYYY-MM-DD
	ErrInvalidDate = errors.New("invalid date")
)
