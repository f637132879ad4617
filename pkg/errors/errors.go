// Package errors provides structured error types for budgetsolve.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the solver, CLI and API
//   - Machine-readable error codes for programmatic handling
//   - A clear split between rejected input and failed computation
//
// # Error Codes
//
// Error codes follow a hierarchical naming convention:
//   - INVALID_*: Input validation failures, raised before any algorithm runs
//   - *_NOT_FOUND: Resource not found
//   - RESOURCE_EXCEEDED, TIMEOUT: an exact algorithm hit a configured ceiling
//   - INTERNAL_ERROR: Arithmetic overflow or corrupted solver state
//
// An infeasible problem (nothing fits the budget) is not an error. It is
// reported through the selection status.
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidCost, "item %d: cost %v is negative", i, c)
//	if errors.Is(err, errors.ErrCodeInvalidCost) {
//	    // Handle validation error
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeTimeout, ctx.Err(), "dp aborted at row %d", i)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input validation errors
	ErrCodeInvalidInput     Code = "INVALID_INPUT"
	ErrCodeInvalidCost      Code = "INVALID_COST"
	ErrCodeInvalidValue     Code = "INVALID_VALUE"
	ErrCodeInvalidBudget    Code = "INVALID_BUDGET"
	ErrCodeInvalidPrecision Code = "INVALID_PRECISION"
	ErrCodeInvalidAlgorithm Code = "INVALID_ALGORITHM"
	ErrCodeInvalidFormat    Code = "INVALID_FORMAT"
	ErrCodeInvalidConfig    Code = "INVALID_CONFIG"

	// Resource not found errors
	ErrCodeNotFound     Code = "NOT_FOUND"
	ErrCodeRunNotFound  Code = "RUN_NOT_FOUND"
	ErrCodeFileNotFound Code = "FILE_NOT_FOUND"

	// Resource ceilings
	ErrCodeResourceExceeded Code = "RESOURCE_EXCEEDED"
	ErrCodeTimeout          Code = "TIMEOUT"

	// Backend errors
	ErrCodeStorage Code = "STORAGE_ERROR"
	ErrCodeNetwork Code = "NETWORK_ERROR"

	// Internal errors
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error with a matching code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// IsInvalidInput reports whether err was raised while validating a request,
// before any algorithm ran.
func IsInvalidInput(err error) bool {
	switch GetCode(err) {
	case ErrCodeInvalidInput, ErrCodeInvalidCost, ErrCodeInvalidValue,
		ErrCodeInvalidBudget, ErrCodeInvalidPrecision, ErrCodeInvalidAlgorithm,
		ErrCodeInvalidFormat, ErrCodeInvalidConfig:
		return true
	}
	return false
}

// IsResourceLimit reports whether err means an algorithm stopped at a
// configured time or memory ceiling. Callers with a fallback strategy
// should treat these as recoverable.
func IsResourceLimit(err error) bool {
	switch GetCode(err) {
	case ErrCodeResourceExceeded, ErrCodeTimeout:
		return true
	}
	return false
}
