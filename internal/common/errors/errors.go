// Package errors provides standardized error handling for the trip planner API.
package errors

import (
	"fmt"
	"net/http"
	"time"
)

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeConfigMissing        ErrorCode = "CONFIG_MISSING"
	ErrCodeValidationFailed     ErrorCode = "VALIDATION_FAILED"
	ErrCodeEmptyResponse        ErrorCode = "EMPTY_RESPONSE"
	ErrCodeMalformedResponse    ErrorCode = "MALFORMED_RESPONSE"
	ErrCodeInvalidResponseShape ErrorCode = "INVALID_RESPONSE_SHAPE"
	ErrCodeGenerationFailed     ErrorCode = "GENERATION_FAILED"
	ErrCodeGenerationTimeout    ErrorCode = "GENERATION_TIMEOUT"
	ErrCodeSearchFailed         ErrorCode = "SEARCH_FAILED"
	ErrCodeSessionNotFound      ErrorCode = "SESSION_NOT_FOUND"
	ErrCodeInvalidStage         ErrorCode = "INVALID_STAGE"
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

// NewConfigMissingError creates a non-retryable configuration error.
func NewConfigMissingError(what string) *StandardError {
	return &StandardError{
		Code:      ErrCodeConfigMissing,
		Message:   "Required configuration is missing",
		Details:   what,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewValidationFailedError creates a non-retryable request validation error.
func NewValidationFailedError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeValidationFailed,
		Message:   "Request validation failed",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewEmptyResponseError creates a non-retryable upstream-empty error.
func NewEmptyResponseError(stage string) *StandardError {
	return &StandardError{
		Code:      ErrCodeEmptyResponse,
		Message:   "Generative model returned an empty response",
		Details:   fmt.Sprintf("stage: %s", stage),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewMalformedResponseError creates a non-retryable upstream-malformed error.
func NewMalformedResponseError(stage string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeMalformedResponse,
		Message:   "Generative model response is not valid JSON",
		Details:   fmt.Sprintf("stage: %s, error: %s", stage, err.Error()),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidResponseShapeError creates a non-retryable shape-mismatch error.
func NewInvalidResponseShapeError(stage, details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidResponseShape,
		Message:   "Generative model response is missing required fields",
		Details:   fmt.Sprintf("stage: %s, %s", stage, details),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewGenerationFailedError creates a retryable upstream call error.
func NewGenerationFailedError(stage string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeGenerationFailed,
		Message:   "Generative model call failed",
		Details:   fmt.Sprintf("stage: %s, error: %s", stage, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewGenerationTimeoutError creates a retryable upstream timeout error.
func NewGenerationTimeoutError(stage string) *StandardError {
	return &StandardError{
		Code:      ErrCodeGenerationTimeout,
		Message:   "Generative model call timed out",
		Details:   fmt.Sprintf("stage: %s", stage),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewSearchFailedError creates a retryable travel-search provider error.
func NewSearchFailedError(kind string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeSearchFailed,
		Message:   "Travel search provider call failed",
		Details:   fmt.Sprintf("kind: %s, error: %s", kind, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewSessionNotFoundError creates a non-retryable session lookup error.
func NewSessionNotFoundError(sessionID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeSessionNotFound,
		Message:   "Session not found or expired",
		Details:   fmt.Sprintf("sessionId: %s", sessionID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidStageError creates a non-retryable stage precondition error.
func NewInvalidStageError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidStage,
		Message:   "Operation is not valid for the current trip stage",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// HTTPStatus maps an error code to the status the API layer should return.
func HTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeValidationFailed, ErrCodeInvalidStage:
		return http.StatusBadRequest
	case ErrCodeSessionNotFound:
		return http.StatusNotFound
	case ErrCodeConfigMissing:
		return http.StatusInternalServerError
	case ErrCodeEmptyResponse, ErrCodeMalformedResponse, ErrCodeInvalidResponseShape,
		ErrCodeGenerationFailed, ErrCodeSearchFailed:
		return http.StatusBadGateway
	case ErrCodeGenerationTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// StatusFor resolves the HTTP status for an arbitrary error value.
func StatusFor(err error) int {
	if stdErr, ok := err.(*StandardError); ok {
		return HTTPStatus(stdErr.Code)
	}
	return http.StatusInternalServerError
}
