// Package apperror provides structured error handling following RFC 7807 Problem Details.
// All business errors raised by the totals engine and its collaborators use AppError.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes
const (
	// Infrastructure errors (5xx)
	CodeInternal = "INTERNAL_ERROR"
	CodeDatabase = "DATABASE_ERROR"

	// Rejected user input (400). Recovered locally by coercing the field.
	CodeInvalidInput = "INVALID_INPUT"

	// Structural preconditions (400). Fatal to the triggering save/submit.
	CodeValidation = "VALIDATION_ERROR"

	// Business rule violations (422)
	CodeDocumentFrozen           = "DOCUMENT_FROZEN"
	CodeDiscountApprovalRequired = "DISCOUNT_APPROVAL_REQUIRED"

	// Not found (404). Recovered locally by falling back to zero tax / zero rate.
	CodeNotFound = "NOT_FOUND"

	// Internal signal: a suspended recomputation was superseded by newer edits.
	// Logged, never rendered to the user.
	CodeStaleComputation = "STALE_COMPUTATION_DISCARDED"

	// Too many requests (429)
	CodeRateLimited = "RATE_LIMITED"
)

// AppError is the standard error type for the platform.
type AppError struct {
	// Code is a machine-readable error identifier
	Code string `json:"code"`

	// Message is a human-readable error description
	Message string `json:"message"`

	// Details contains additional context (field, line, values)
	Details map[string]any `json:"details,omitempty"`

	// HTTPStatus is the suggested HTTP status code
	HTTPStatus int `json:"-"`

	// Err is the underlying error (not exposed in JSON)
	Err error `json:"-"`
}

// Error implements error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetail adds a key-value pair to error details
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// WithCause sets the underlying error
func (e *AppError) WithCause(err error) *AppError {
	e.Err = err
	return e
}

// --- Factory functions ---

// NewInvalidInput creates an invalid input error (400) for a rejected field value.
func NewInvalidInput(field string, value any, message string) *AppError {
	return &AppError{
		Code:       CodeInvalidInput,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
		Details:    map[string]any{"field": field, "value": value},
	}
}

// NewValidation creates a validation error (400)
func NewValidation(message string) *AppError {
	return &AppError{
		Code:       CodeValidation,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
	}
}

// NewNotFound creates a not found error (404)
func NewNotFound(entity string, id any) *AppError {
	return &AppError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", entity),
		HTTPStatus: http.StatusNotFound,
		Details:    map[string]any{"entity": entity, "id": id},
	}
}

// NewBusinessRule creates a business rule violation error (422)
func NewBusinessRule(code, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: http.StatusUnprocessableEntity,
	}
}

// NewDocumentFrozen is returned when an edit reaches a submitted or cancelled document.
func NewDocumentFrozen(documentID any, status string) *AppError {
	return &AppError{
		Code:       CodeDocumentFrozen,
		Message:    "Document is not a draft; totals are frozen",
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    map[string]any{"document_id": documentID, "status": status},
	}
}

// NewStaleComputation signals that a suspended result was dropped.
func NewStaleComputation(field string, issued, current uint64) *AppError {
	return &AppError{
		Code:       CodeStaleComputation,
		Message:    "computation superseded by a newer edit",
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"field": field, "issued": issued, "current": current},
	}
}

// NewInternal creates an internal server error (hides details from client)
func NewInternal(err error) *AppError {
	return &AppError{
		Code:       CodeInternal,
		Message:    "Internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// NewRateLimited creates a rate limit error (429)
func NewRateLimited() *AppError {
	return &AppError{
		Code:       CodeRateLimited,
		Message:    "Too many requests",
		HTTPStatus: http.StatusTooManyRequests,
	}
}

// --- Helper functions ---

// IsAppError checks if error is AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// AsAppError extracts AppError from error chain
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// GetHTTPStatus returns appropriate HTTP status for any error
func GetHTTPStatus(err error) int {
	if appErr, ok := AsAppError(err); ok {
		return appErr.HTTPStatus
	}
	return http.StatusInternalServerError
}

func hasCode(err error, code string) bool {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code == code
	}
	return false
}

// IsNotFound checks if error is CodeNotFound
func IsNotFound(err error) bool { return hasCode(err, CodeNotFound) }

// IsInvalidInput checks if error is CodeInvalidInput
func IsInvalidInput(err error) bool { return hasCode(err, CodeInvalidInput) }

// IsValidation checks if error is CodeValidation
func IsValidation(err error) bool { return hasCode(err, CodeValidation) }

// IsStaleComputation checks if error is CodeStaleComputation
func IsStaleComputation(err error) bool { return hasCode(err, CodeStaleComputation) }

// IsDocumentFrozen checks if error is CodeDocumentFrozen
func IsDocumentFrozen(err error) bool { return hasCode(err, CodeDocumentFrozen) }
