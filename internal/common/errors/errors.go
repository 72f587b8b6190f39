// Package errors provides standardized error handling for the HTTP API.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

// Request guard errors
const (
	ErrCodeMissingFields  ErrorCode = "MISSING_REQUIRED_FIELDS"
	ErrCodeInvalidInput   ErrorCode = "INVALID_INPUT_VALUES"
	ErrCodeInvalidPayload ErrorCode = "INVALID_PAYLOAD"
	ErrCodeRateLimited    ErrorCode = "RATE_LIMITED"
)

// Matching errors
const (
	ErrCodeNoMatch ErrorCode = "NO_DETERMINISTIC_MATCH"
)

// Dashboard / persistence errors
const (
	ErrCodeUnauthorized       ErrorCode = "UNAUTHORIZED"
	ErrCodeInvalidSession     ErrorCode = "INVALID_SESSION_PAYLOAD"
	ErrCodeInvalidSessionID   ErrorCode = "INVALID_SESSION_ID"
	ErrCodeSessionStoreFailed ErrorCode = "SESSION_STORE_FAILED"
	ErrCodeMissingEventName   ErrorCode = "MISSING_EVENT_NAME"
	ErrCodeTelemetryFailed    ErrorCode = "TELEMETRY_FAILED"
	ErrCodeUsageFailed        ErrorCode = "USAGE_ANALYTICS_FAILED"
)

// Tool errors
const (
	ErrCodeInvalidToolID       ErrorCode = "INVALID_TOOL_ID"
	ErrCodeToolNotFound        ErrorCode = "TOOL_NOT_FOUND"
	ErrCodeToolUnavailable     ErrorCode = "TOOL_UNAVAILABLE"
	ErrCodeRequestTooLarge     ErrorCode = "REQUEST_TOO_LARGE"
	ErrCodeInvalidJSONBody     ErrorCode = "INVALID_JSON_BODY"
	ErrCodeInvalidToolInput    ErrorCode = "INVALID_TOOL_INPUT"
	ErrCodeMissingToolInputs   ErrorCode = "MISSING_TOOL_INPUTS"
	ErrCodeToolExecutionFailed ErrorCode = "TOOL_EXECUTION_FAILED"
)

// Infrastructure errors. These are recovered locally and never shown verbatim.
const (
	ErrCodeUpstreamFailure ErrorCode = "UPSTREAM_FAILURE"
	ErrCodeInternal        ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
// Message is safe to show to clients; Details is for logs only.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Fields    []string               `json:"fields,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// HTTPStatus returns the status code the API answers with for this error.
func (e *StandardError) HTTPStatus() int {
	return HTTPStatusFor(e.Code)
}

// ==========================
// 2. Error Constructors
// ==========================

// NewMissingFieldsError reports required request fields that were absent or empty.
func NewMissingFieldsError(fields ...string) *StandardError {
	return &StandardError{
		Code:      ErrCodeMissingFields,
		Message:   "Missing required fields.",
		Details:   fmt.Sprintf("missing: %s", strings.Join(fields, ",")),
		Fields:    fields,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidInputError reports well-formed fields whose values are outside the taxonomy.
func NewInvalidInputError(fields ...string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidInput,
		Message:   "Invalid input values.",
		Details:   fmt.Sprintf("invalid: %s", strings.Join(fields, ",")),
		Fields:    fields,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidPayloadError reports a body that could not be decoded at all.
func NewInvalidPayloadError(err error) *StandardError {
	details := ""
	if err != nil {
		details = err.Error()
	}
	return &StandardError{
		Code:      ErrCodeInvalidPayload,
		Message:   "Invalid request payload.",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewRateLimitedError carries the quota and the wait in whole seconds.
func NewRateLimitedError(limit, remaining int, resetTime time.Time, retryAfter time.Duration) *StandardError {
	return &StandardError{
		Code:      ErrCodeRateLimited,
		Message:   "Too many requests.",
		Details:   fmt.Sprintf("limit %d exhausted until %s", limit, resetTime.UTC().Format(time.RFC3339)),
		Retryable: true,
		Metadata: map[string]interface{}{
			"limit":      limit,
			"remaining":  remaining,
			"resetTime":  resetTime.UTC(),
			"retryAfter": int(retryAfter / time.Second),
		},
		Timestamp: time.Now().UTC(),
	}
}

// NewNoMatchError signals input that is valid but outside the supported combination space.
func NewNoMatchError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeNoMatch,
		Message:   "Unable to generate deterministic output.",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewUnauthorizedError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeUnauthorized,
		Message:   "Unauthorized",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewInvalidSessionError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidSession,
		Message:   "Invalid session payload",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewInvalidSessionIDError() *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidSessionID,
		Message:   "Invalid session id",
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewSessionStoreFailedError wraps a persistence failure behind a client safe message.
func NewSessionStoreFailedError(message string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeSessionStoreFailed,
		Message:   message,
		Details:   errString(err),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewMissingEventNameError() *StandardError {
	return &StandardError{
		Code:      ErrCodeMissingEventName,
		Message:   "Missing event name.",
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewTelemetryFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeTelemetryFailed,
		Message:   "Telemetry failed.",
		Details:   errString(err),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewUsageFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeUsageFailed,
		Message:   "Failed to load usage analytics",
		Details:   errString(err),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewInvalidToolIDError(id string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidToolID,
		Message:   "Invalid tool ID format",
		Details:   fmt.Sprintf("id %q", id),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewToolNotFoundError(id string) *StandardError {
	return &StandardError{
		Code:      ErrCodeToolNotFound,
		Message:   "Tool not found",
		Details:   fmt.Sprintf("id %q", id),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewToolUnavailableError(id string) *StandardError {
	return &StandardError{
		Code:      ErrCodeToolUnavailable,
		Message:   "This tool is coming soon and not yet available",
		Details:   fmt.Sprintf("id %q", id),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewRequestTooLargeError(limit int64) *StandardError {
	return &StandardError{
		Code:      ErrCodeRequestTooLarge,
		Message:   "Request too large",
		Details:   fmt.Sprintf("limit %d bytes", limit),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewInvalidJSONBodyError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidJSONBody,
		Message:   "Invalid JSON body",
		Details:   errString(err),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidToolInputError names the first input whose value is neither a string nor a number.
func NewInvalidToolInputError(field string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidToolInput,
		Message:   fmt.Sprintf("Invalid type for input %q. Expected string or number.", field),
		Fields:    []string{field},
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewMissingToolInputsError(fields ...string) *StandardError {
	return &StandardError{
		Code:      ErrCodeMissingToolInputs,
		Message:   "Missing required inputs",
		Details:   fmt.Sprintf("missing: %s", strings.Join(fields, ",")),
		Fields:    fields,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewToolExecutionFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeToolExecutionFailed,
		Message:   "Tool execution failed",
		Details:   errString(err),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewUpstreamFailureError describes a telemetry, cache or store failure.
// Callers log it and carry on; it is never written to a response.
func NewUpstreamFailureError(service string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeUpstreamFailure,
		Message:   fmt.Sprintf("%s unavailable", service),
		Details:   errString(err),
		Retryable: true,
		Metadata:  map[string]interface{}{"service": service},
		Timestamp: time.Now().UTC(),
	}
}

func NewInternalError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeInternal,
		Message:   "Internal server error.",
		Details:   errString(err),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// ==========================
// 3. Mapping Helpers
// ==========================

var httpStatusMapping = map[ErrorCode]int{
	ErrCodeMissingFields:       http.StatusBadRequest,
	ErrCodeInvalidInput:        http.StatusBadRequest,
	ErrCodeInvalidPayload:      http.StatusBadRequest,
	ErrCodeRateLimited:         http.StatusTooManyRequests,
	ErrCodeNoMatch:             http.StatusUnprocessableEntity,
	ErrCodeUnauthorized:        http.StatusUnauthorized,
	ErrCodeInvalidSession:      http.StatusBadRequest,
	ErrCodeInvalidSessionID:    http.StatusBadRequest,
	ErrCodeSessionStoreFailed:  http.StatusInternalServerError,
	ErrCodeMissingEventName:    http.StatusBadRequest,
	ErrCodeTelemetryFailed:     http.StatusInternalServerError,
	ErrCodeUsageFailed:         http.StatusInternalServerError,
	ErrCodeInvalidToolID:       http.StatusBadRequest,
	ErrCodeToolNotFound:        http.StatusNotFound,
	ErrCodeToolUnavailable:     http.StatusBadRequest,
	ErrCodeRequestTooLarge:     http.StatusRequestEntityTooLarge,
	ErrCodeInvalidJSONBody:     http.StatusBadRequest,
	ErrCodeInvalidToolInput:    http.StatusBadRequest,
	ErrCodeMissingToolInputs:   http.StatusBadRequest,
	ErrCodeToolExecutionFailed: http.StatusInternalServerError,
	ErrCodeUpstreamFailure:     http.StatusBadGateway,
	ErrCodeInternal:            http.StatusInternalServerError,
}

// HTTPStatusFor maps an error code to its HTTP status. Unknown codes are 500.
func HTTPStatusFor(code ErrorCode) int {
	if status, ok := httpStatusMapping[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// IsRetryableErrorCode reports whether a client may retry the same request later.
func IsRetryableErrorCode(code ErrorCode) bool {
	switch code {
	case ErrCodeRateLimited, ErrCodeSessionStoreFailed, ErrCodeUpstreamFailure,
		ErrCodeTelemetryFailed, ErrCodeUsageFailed:
		return true
	}
	return false
}

// GetErrorCategory groups codes for logs and metrics labels.
func GetErrorCategory(code ErrorCode) string {
	switch code {
	case ErrCodeMissingFields, ErrCodeInvalidInput, ErrCodeInvalidPayload,
		ErrCodeInvalidSession, ErrCodeInvalidSessionID, ErrCodeMissingEventName,
		ErrCodeInvalidToolID, ErrCodeToolUnavailable, ErrCodeRequestTooLarge, ErrCodeInvalidJSONBody,
		ErrCodeInvalidToolInput, ErrCodeMissingToolInputs:
		return "VALIDATION"
	case ErrCodeToolNotFound:
		return "NOT_FOUND"
	case ErrCodeRateLimited:
		return "RATE_LIMIT"
	case ErrCodeNoMatch:
		return "NO_MATCH"
	case ErrCodeUnauthorized:
		return "AUTH"
	case ErrCodeSessionStoreFailed, ErrCodeUpstreamFailure, ErrCodeTelemetryFailed, ErrCodeUsageFailed:
		return "UPSTREAM"
	default:
		return "INTERNAL"
	}
}

// Normalize ensures we always have a StandardError.
func Normalize(err error) *StandardError {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr
	}
	return NewInternalError(err)
}

// HasCode reports whether err is a StandardError with the given code.
func HasCode(err error, code ErrorCode) bool {
	var stdErr *StandardError
	return stderrors.As(err, &stdErr) && stdErr.Code == code
}
