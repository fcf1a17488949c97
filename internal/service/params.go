package service

import (
	"errors"
	"time"
)

// ErrValidation marks input the API should answer with 400.
var ErrValidation = errors.New("validation failed")

const (
	// MaxSetPointF caps every target temperature an operator or schedule may ask for.
	MaxSetPointF    = 108.0
	MinSoakDuration = time.Minute
	MaxSoakDuration = 4 * time.Hour

	defaultHistoryLimit = 100
	maxHistoryLimit     = 1000
)

// SoakParams starts a manual soak.
type SoakParams struct {
	TargetF  float64
	Duration time.Duration
}

// LogFilter supports history filtering by time range and type.
type LogFilter struct {
	From time.Time // inclusive; zero means no lower bound
	To   time.Time // inclusive; zero means no upper bound
	Type string    // "", "SOAK_START", "CONTROL", "FAULT", ...
}

// clampLimit maps non-positive limits to the default and caps large ones.
func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return defaultHistoryLimit
	case limit > maxHistoryLimit:
		return maxHistoryLimit
	}
	return limit
}
