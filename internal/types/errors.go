package types

import (
	"errors"
	"fmt"
)

// ErrorCode represents a namespaced error code for planner errors.
type ErrorCode string

// Request error codes
const (
	REQUEST_VALIDATION_FAILED ErrorCode = "REQUEST_VALIDATION_FAILED"
)

// Fetch error codes
const (
	FETCH_FAILED       ErrorCode = "FETCH_FAILED"
	FETCH_TIMEOUT      ErrorCode = "FETCH_TIMEOUT"
	FETCH_OFFLINE      ErrorCode = "FETCH_OFFLINE"
	FETCH_RATE_LIMITED ErrorCode = "FETCH_RATE_LIMITED"
)

// Pipeline graph error codes
const (
	GRAPH_CYCLE              ErrorCode = "GRAPH_CYCLE"
	GRAPH_UNKNOWN_DEPENDENCY ErrorCode = "GRAPH_UNKNOWN_DEPENDENCY"
	GRAPH_EMPTY              ErrorCode = "GRAPH_EMPTY"
)

// Stage execution error codes
const (
	STAGE_FAILED       ErrorCode = "STAGE_FAILED"
	STAGE_TIMEOUT      ErrorCode = "STAGE_TIMEOUT"
	PIPELINE_CANCELLED ErrorCode = "PIPELINE_CANCELLED"
)

// Aggregation and planning error codes
const (
	AGGREGATION_FAILED     ErrorCode = "AGGREGATION_FAILED"
	PLAN_INSUFFICIENT_DATA ErrorCode = "PLAN_INSUFFICIENT_DATA"
)

// Configuration error codes
const (
	CONFIG_LOAD_FAILED       ErrorCode = "CONFIG_LOAD_FAILED"
	CONFIG_VALIDATION_FAILED ErrorCode = "CONFIG_VALIDATION_FAILED"
)

// Database error codes
const (
	DB_OPEN_FAILED      ErrorCode = "DB_OPEN_FAILED"
	DB_MIGRATION_FAILED ErrorCode = "DB_MIGRATION_FAILED"
	DB_QUERY_FAILED     ErrorCode = "DB_QUERY_FAILED"
)

// Cache error codes
const (
	CACHE_READ_FAILED  ErrorCode = "CACHE_READ_FAILED"
	CACHE_WRITE_FAILED ErrorCode = "CACHE_WRITE_FAILED"
)

// PlannerError represents a structured error with error code, message, and
// optional cause. It supports error wrapping and retryability hints so the
// fetch layer can distinguish transient source failures from defects.
type PlannerError struct {
	Code      ErrorCode
	Message   string
	Retryable bool
	Cause     error
}

// Error implements the error interface, returning a formatted error message.
// Format: "[CODE] message" or "[CODE] message: cause" if cause exists.
func (e *PlannerError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause error for error unwrapping chains.
func (e *PlannerError) Unwrap() error {
	return e.Cause
}

// Is checks if the target error matches this error by error code.
func (e *PlannerError) Is(target error) bool {
	var plannerErr *PlannerError
	if errors.As(target, &plannerErr) {
		return e.Code == plannerErr.Code
	}
	return false
}

// NewError creates a new non-retryable PlannerError with the given code and message.
func NewError(code ErrorCode, message string) *PlannerError {
	return &PlannerError{
		Code:    code,
		Message: message,
	}
}

// NewRetryableError creates a new retryable PlannerError.
// Use this for transient errors that may succeed on retry (e.g. source timeouts).
func NewRetryableError(code ErrorCode, message string) *PlannerError {
	return &PlannerError{
		Code:      code,
		Message:   message,
		Retryable: true,
	}
}

// WrapError creates a new non-retryable PlannerError that wraps an existing error.
func WrapError(code ErrorCode, message string, cause error) *PlannerError {
	return &PlannerError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// IsRetryable reports whether err is a PlannerError marked retryable.
func IsRetryable(err error) bool {
	var plannerErr *PlannerError
	if errors.As(err, &plannerErr) {
		return plannerErr.Retryable
	}
	return false
}

// CodeOf extracts the ErrorCode from err, or empty string if err is not a
// PlannerError.
func CodeOf(err error) ErrorCode {
	var plannerErr *PlannerError
	if errors.As(err, &plannerErr) {
		return plannerErr.Code
	}
	return ""
}
