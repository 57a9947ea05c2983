// Package errors provides consolidated error definitions for the agriscan
// daemon.
//
// This file provides:
// - Sentinel errors for all error conditions
// - Error category checking functions
// - Error wrapping utilities
package errors

import (
	"errors"
	"fmt"
)

// ============================================================================
// Sentinel errors for common conditions
// ============================================================================

var (
	// Storage errors
	ErrNoSamples          = errors.New("no samples")
	ErrNoCalibration      = errors.New("no calibration")
	ErrDuplicateTimestamp = errors.New("duplicate timestamp")
	ErrStoreClosed        = errors.New("store is closed")
	ErrDatabase           = errors.New("database error")

	// Batcher errors
	ErrBufferFull = errors.New("sample buffer full")

	// Model errors
	ErrModelUnavailable = errors.New("model unavailable")
	ErrModelEval        = errors.New("model evaluation failed")
	ErrModelResult      = errors.New("malformed model result")

	// Sensor errors
	ErrSensorRead = errors.New("sensor read failed")

	// Validation errors
	ErrInvalidConfig   = errors.New("invalid configuration")
	ErrInvalidRange    = errors.New("invalid time range")
	ErrInvalidInterval = errors.New("invalid interval")
	ErrMissingField    = errors.New("missing required field")
)

// ============================================================================
// Helper functions for error checking
// ============================================================================

// Is is a convenience wrapper for errors.Is
var Is = errors.Is

// As is a convenience wrapper for errors.As
var As = errors.As

// New is a convenience wrapper for errors.New
var New = errors.New

// IsModelError returns true if err originated in the computation model layer.
func IsModelError(err error) bool {
	return errors.Is(err, ErrModelUnavailable) ||
		errors.Is(err, ErrModelEval) ||
		errors.Is(err, ErrModelResult)
}

// IsValidation returns true if err is a validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidConfig) ||
		errors.Is(err, ErrInvalidRange) ||
		errors.Is(err, ErrInvalidInterval) ||
		errors.Is(err, ErrMissingField)
}

// IsRetriable returns true if the error is potentially retriable. A failed
// batch commit is retriable on the next tick; a duplicate row is not.
func IsRetriable(err error) bool {
	return errors.Is(err, ErrDatabase) ||
		errors.Is(err, ErrBufferFull)
}

// ============================================================================
// Error wrapping utilities
// ============================================================================

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with formatted context.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// NewValidation creates a validation error with context.
func NewValidation(field, reason string) error {
	return fmt.Errorf("invalid %s: %s: %w", field, reason, ErrInvalidConfig)
}

// NewMissingField creates a missing field error.
func NewMissingField(field string) error {
	return fmt.Errorf("%s: %w", field, ErrMissingField)
}
