// FilePath: server/clima/internal/errors/errors.go
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// ErrorType represents the type of error
type ErrorType string

const (
	// Error types
	ErrorTypeValidation       ErrorType = "validation"
	ErrorTypeNotFound         ErrorType = "not_found"
	ErrorTypeInternal         ErrorType = "internal"
	ErrorTypeDecode           ErrorType = "decode"
	ErrorTypeTransport        ErrorType = "transport_disconnected"
	ErrorTypeStoreUnavailable ErrorType = "store_unavailable"
	ErrorTypeNoData           ErrorType = "no_data"
	ErrorTypeAnalysisFailed   ErrorType = "analysis_failed"
)

// APIError represents a structured API error
type APIError struct {
	Type      ErrorType `json:"type"`
	Message   string    `json:"message"`
	Code      int       `json:"code"`
	RequestID string    `json:"request_id,omitempty"`
	Details   any       `json:"details,omitempty"`
	err       error     // Internal error for logging
}

// Error implements the error interface
func (e *APIError) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %s (internal: %v)", e.Type, e.Message, e.err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap exposes the internal error to errors.Is / errors.As
func (e *APIError) Unwrap() error {
	return e.err
}

// WithRequestID adds a request ID to the error
func (e *APIError) WithRequestID(id string) *APIError {
	e.RequestID = id
	return e
}

// WithDetails adds additional details to the error
func (e *APIError) WithDetails(details any) *APIError {
	e.Details = details
	return e
}

func newError(t ErrorType, code int, msg string, err error) *APIError {
	return &APIError{
		Type:    t,
		Message: msg,
		Code:    code,
		err:     err,
	}
}

// NewValidationError creates a new validation error
func NewValidationError(msg string, err error) *APIError {
	return newError(ErrorTypeValidation, http.StatusBadRequest, msg, err)
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(msg string, err error) *APIError {
	return newError(ErrorTypeNotFound, http.StatusNotFound, msg, err)
}

// NewInternalError creates a new internal server error
func NewInternalError(msg string, err error) *APIError {
	return newError(ErrorTypeInternal, http.StatusInternalServerError, msg, err)
}

// NewDecodeError marks a stream payload that could not be parsed. It is
// never surfaced past the subscriber.
func NewDecodeError(msg string, err error) *APIError {
	return newError(ErrorTypeDecode, http.StatusBadRequest, msg, err)
}

// NewTransportError marks a lost broker connection.
func NewTransportError(msg string, err error) *APIError {
	return newError(ErrorTypeTransport, http.StatusServiceUnavailable, msg, err)
}

// NewStoreError creates a new storage error
func NewStoreError(msg string, err error) *APIError {
	return newError(ErrorTypeStoreUnavailable, http.StatusServiceUnavailable, msg, err)
}

// NewNoDataError reports an empty report window.
func NewNoDataError(msg string) *APIError {
	return newError(ErrorTypeNoData, http.StatusInternalServerError, msg, nil)
}

// NewAnalysisError reports a failed, timed out or unparsable analysis.
func NewAnalysisError(msg string, err error) *APIError {
	return newError(ErrorTypeAnalysisFailed, http.StatusInternalServerError, msg, err)
}

// TypeOf returns the ErrorType of the first APIError in err's chain, or ""
func TypeOf(err error) ErrorType {
	var apiErr *APIError
	if stderrors.As(err, &apiErr) {
		return apiErr.Type
	}
	return ""
}

// As returns the first APIError in err's chain
func As(err error) (*APIError, bool) {
	var apiErr *APIError
	ok := stderrors.As(err, &apiErr)
	return apiErr, ok
}

// IsNotFound checks if an error is a NotFound error
func IsNotFound(err error) bool {
	return TypeOf(err) == ErrorTypeNotFound
}

// IsValidation checks if an error is a Validation error
func IsValidation(err error) bool {
	return TypeOf(err) == ErrorTypeValidation
}

func IsStoreUnavailable(err error) bool {
	return TypeOf(err) == ErrorTypeStoreUnavailable
}

func IsNoData(err error) bool {
	return TypeOf(err) == ErrorTypeNoData
}

func IsAnalysisFailed(err error) bool {
	return TypeOf(err) == ErrorTypeAnalysisFailed
}
