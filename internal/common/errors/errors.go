// Package errors provides standardized error handling for the simulation service.
package errors

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeValidationFailed   ErrorCode = "VALIDATION_FAILED"
	ErrCodeSimulationNotFound ErrorCode = "SIMULATION_NOT_FOUND"

	ErrCodeOracleTransient   ErrorCode = "ORACLE_TRANSIENT"
	ErrCodeOracleFatal       ErrorCode = "ORACLE_FATAL"
	ErrCodeRosterFetchFailed ErrorCode = "ROSTER_FETCH_FAILED"

	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// HTTPStatus maps the error code to the status the HTTP layer should return.
func (e *StandardError) HTTPStatus() int {
	switch e.Code {
	case ErrCodeValidationFailed:
		return http.StatusBadRequest
	case ErrCodeSimulationNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// ==========================
// 2. Error Constructors
// ==========================

// NewValidationError creates a non-retryable client input error.
func NewValidationError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeValidationFailed,
		Message:   "Invalid bill input",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewNotFoundError creates an error for an unknown or evicted simulation id.
func NewNotFoundError(id string) *StandardError {
	return &StandardError{
		Code:      ErrCodeSimulationNotFound,
		Message:   "Simulation not found",
		Details:   fmt.Sprintf("no simulation with id %q (it may have expired)", id),
		Retryable: false,
		Metadata:  map[string]interface{}{"simulationId": id},
		Timestamp: time.Now().UTC(),
	}
}

// NewOracleTransientError wraps a prediction failure that may succeed on retry.
func NewOracleTransientError(slug string, cause error) *StandardError {
	return &StandardError{
		Code:      ErrCodeOracleTransient,
		Message:   "Prediction oracle call failed",
		Details:   cause.Error(),
		Retryable: true,
		Metadata:  map[string]interface{}{"slug": slug},
		Timestamp: time.Now().UTC(),
	}
}

// NewOracleFatalError wraps a prediction failure that retrying cannot fix.
func NewOracleFatalError(slug string, cause error) *StandardError {
	return &StandardError{
		Code:      ErrCodeOracleFatal,
		Message:   "Prediction oracle rejected the request",
		Details:   cause.Error(),
		Retryable: false,
		Metadata:  map[string]interface{}{"slug": slug},
		Timestamp: time.Now().UTC(),
	}
}

// NewRosterFetchError wraps a failure to load the active-member roster.
// This fails the whole job since there is nobody to predict for.
func NewRosterFetchError(cause error) *StandardError {
	return &StandardError{
		Code:      ErrCodeRosterFetchFailed,
		Message:   "Failed to fetch active member roster",
		Details:   cause.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewInternalError wraps an unexpected failure.
func NewInternalError(cause error) *StandardError {
	return &StandardError{
		Code:      ErrCodeInternal,
		Message:   "Unexpected error",
		Details:   cause.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 3. Predicates
// ==========================

// AsStandard extracts a *StandardError from err, or wraps it as INTERNAL_ERROR.
func AsStandard(err error) *StandardError {
	var stdErr *StandardError
	if errors.As(err, &stdErr) {
		return stdErr
	}
	return NewInternalError(err)
}

// IsCode reports whether err is a StandardError with the given code.
func IsCode(err error, code ErrorCode) bool {
	var stdErr *StandardError
	if errors.As(err, &stdErr) {
		return stdErr.Code == code
	}
	return false
}

// IsRetryable reports whether err is worth retrying.
func IsRetryable(err error) bool {
	var stdErr *StandardError
	if errors.As(err, &stdErr) {
		return stdErr.Retryable
	}
	return false
}

// IsNotFound reports whether err is a SIMULATION_NOT_FOUND error.
func IsNotFound(err error) bool {
	return IsCode(err, ErrCodeSimulationNotFound)
}

// IsValidation reports whether err is a VALIDATION_FAILED error.
func IsValidation(err error) bool {
	return IsCode(err, ErrCodeValidationFailed)
}
