package analytics

import (
	"errors"
	"fmt"
)

// ErrInsufficientData is matched by every *InsufficientDataError
var ErrInsufficientData = errors.New("insufficient data")

// InsufficientDataError reports a window too short to analyze.
// Callers should ask for more data rather than retry.
type InsufficientDataError struct {
	Required  int
	Available int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient data (need at least %d days, got %d)", e.Required, e.Available)
}

// Is lets errors.Is(err, ErrInsufficientData) match
func (e *InsufficientDataError) Is(target error) bool {
	return target == ErrInsufficientData
}

// ComputationError wraps an arithmetic or runtime failure inside one analyzer.
// The orchestrator drops that analyzer's output and keeps the others.
type ComputationError struct {
	Analyzer string
	Err      error
}

func (e *ComputationError) Error() string {
	return fmt.Sprintf("%s analyzer failed: %v", e.Analyzer, e.Err)
}

func (e *ComputationError) Unwrap() error {
	return e.Err
}

func checkRows(n, required int) error {
	if n < required {
		return &InsufficientDataError{Required: required, Available: n}
	}
	return nil
}

var errNonFinite = errors.New("non-finite value in result")
