// Package domain provides the chat types and error kinds shared by the gateway
// and the chat client.
package domain

import (
	"fmt"
	"net/http"
)

// ErrorType represents the category of an upstream API error.
type ErrorType string

const (
	ErrorTypeInvalidRequest ErrorType = "invalid_request"
	ErrorTypeAuthentication ErrorType = "authentication"
	ErrorTypePermission     ErrorType = "permission"
	ErrorTypeNotFound       ErrorType = "not_found"
	ErrorTypeRateLimit      ErrorType = "rate_limit"
	ErrorTypeOverloaded     ErrorType = "overloaded"
	ErrorTypeServer         ErrorType = "server"
	ErrorTypeContextLength  ErrorType = "context_length"
	ErrorTypeTransport      ErrorType = "transport"
	ErrorTypeMalformed      ErrorType = "malformed_response"
)

// ErrorCode provides additional specificity beyond the error type.
type ErrorCode string

const (
	ErrorCodeContextLengthExceeded ErrorCode = "context_length_exceeded"
	ErrorCodeRateLimitExceeded     ErrorCode = "rate_limit_exceeded"
	ErrorCodeInvalidAPIKey         ErrorCode = "invalid_api_key"
	ErrorCodeModelNotFound         ErrorCode = "model_not_found"
	ErrorCodeInsufficientQuota     ErrorCode = "insufficient_quota"
)

// APIError represents an error reported by the upstream completion API.
type APIError struct {
	Type    ErrorType `json:"type"`
	Code    ErrorCode `json:"code,omitempty"`
	Message string    `json:"message"`
	Param   string    `json:"param,omitempty"`

	// StatusCode is the HTTP status returned upstream.
	StatusCode int `json:"-"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s (%s): %s", e.Type, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// NewAPIError creates a new API error.
func NewAPIError(errType ErrorType, message string) *APIError {
	return &APIError{
		Type:    errType,
		Message: message,
	}
}

// WithCode adds an error code to the error.
func (e *APIError) WithCode(code ErrorCode) *APIError {
	e.Code = code
	return e
}

// WithStatusCode records the upstream HTTP status.
func (e *APIError) WithStatusCode(code int) *APIError {
	e.StatusCode = code
	return e
}

// ProviderError reports that the completion call failed for any reason.
// Every ProviderError is surfaced to the caller as a 500; none are retried.
type ProviderError struct {
	Provider string
	Model    string
	Err      error
}

func (e *ProviderError) Error() string {
	return e.Err.Error()
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// Type classifies the failure for logging. It is never used to pick a status code.
func (e *ProviderError) Type() ErrorType {
	if apiErr, ok := e.Err.(*APIError); ok {
		return apiErr.Type
	}
	return ErrorTypeTransport
}

// HTTPStatusCode is always 500: provider failures are not distinguished at the boundary.
func (e *ProviderError) HTTPStatusCode() int {
	return http.StatusInternalServerError
}

// TraceError reports that a trace submission failed. It is logged and dropped.
type TraceError struct {
	TraceID string
	Err     error
}

func (e *TraceError) Error() string {
	return fmt.Sprintf("trace %s: %v", e.TraceID, e.Err)
}

func (e *TraceError) Unwrap() error {
	return e.Err
}

// ValidationError reports a structurally invalid request body.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// HTTPStatusCode is 422 for schema errors.
func (e *ValidationError) HTTPStatusCode() int {
	return http.StatusUnprocessableEntity
}

// ErrValidation creates a validation error.
func ErrValidation(message string) *ValidationError {
	return &ValidationError{Message: message}
}

// ErrMalformedResponse creates the error used when the provider answered without choices.
func ErrMalformedResponse(message string) *APIError {
	return NewAPIError(ErrorTypeMalformed, message)
}
