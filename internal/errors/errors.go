package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// ErrorType represents different categories of errors
type ErrorType string

const (
	ErrorTypeImageNotFound            ErrorType = "image_not_found"
	ErrorTypeImageDecode              ErrorType = "image_decode"
	ErrorTypeUnsupportedChannelLayout ErrorType = "unsupported_channel_layout"
	ErrorTypeEmptyImage               ErrorType = "empty_image"
	ErrorTypeMetricComputation        ErrorType = "metric_computation"
	ErrorTypeDimensionMismatch        ErrorType = "dimension_mismatch"
	ErrorTypeTimeout                  ErrorType = "timeout"
	ErrorTypeValidation               ErrorType = "validation"
	ErrorTypeNetwork                  ErrorType = "network"
	ErrorTypeInternal                 ErrorType = "internal"
)

// AppError represents a structured application error
type AppError struct {
	Type       ErrorType `json:"type"`
	Message    string    `json:"message"`
	Details    string    `json:"details,omitempty"`
	StatusCode int       `json:"status_code"`
	Cause      error     `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Cause
}

func newError(t ErrorType, status int, message string, cause error) *AppError {
	return &AppError{Type: t, Message: message, StatusCode: status, Cause: cause}
}

// NewImageNotFoundError reports a source that does not exist
func NewImageNotFoundError(message string, cause error) *AppError {
	return newError(ErrorTypeImageNotFound, http.StatusNotFound, message, cause)
}

// NewImageDecodeError reports unreadable or corrupt image data
func NewImageDecodeError(message string, cause error) *AppError {
	return newError(ErrorTypeImageDecode, http.StatusUnprocessableEntity, message, cause)
}

// NewUnsupportedChannelLayoutError reports a channel count the engine cannot use
func NewUnsupportedChannelLayoutError(message string, cause error) *AppError {
	return newError(ErrorTypeUnsupportedChannelLayout, http.StatusUnprocessableEntity, message, cause)
}

// NewEmptyImageError reports a zero-sized image
func NewEmptyImageError(message string, cause error) *AppError {
	return newError(ErrorTypeEmptyImage, http.StatusUnprocessableEntity, message, cause)
}

// NewMetricComputationError reports a failure inside a single metric
func NewMetricComputationError(message string, cause error) *AppError {
	return newError(ErrorTypeMetricComputation, http.StatusUnprocessableEntity, message, cause)
}

// NewDimensionMismatchError reports a reference image of a different size
func NewDimensionMismatchError(message string, cause error) *AppError {
	return newError(ErrorTypeDimensionMismatch, http.StatusBadRequest, message, cause)
}

// NewTimeoutError creates a new timeout error
func NewTimeoutError(message string, cause error) *AppError {
	return newError(ErrorTypeTimeout, http.StatusGatewayTimeout, message, cause)
}

// NewValidationError creates a new validation error
func NewValidationError(message string, cause error) *AppError {
	return newError(ErrorTypeValidation, http.StatusBadRequest, message, cause)
}

// NewNetworkError creates a new network error
func NewNetworkError(message string, cause error) *AppError {
	return newError(ErrorTypeNetwork, http.StatusBadGateway, message, cause)
}

// NewInternalError creates a new internal error
func NewInternalError(message string, cause error) *AppError {
	return newError(ErrorTypeInternal, http.StatusInternalServerError, message, cause)
}

// IsType checks if the error, or any error it wraps, is of a specific type
func IsType(err error, errorType ErrorType) bool {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Type == errorType
	}
	return false
}

// GetStatusCode extracts the HTTP status code from an error
func GetStatusCode(err error) int {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.StatusCode
	}
	return http.StatusInternalServerError
}

// GetType returns the error type, or internal for foreign errors
func GetType(err error) ErrorType {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Type
	}
	return ErrorTypeInternal
}
