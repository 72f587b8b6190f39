// internal/common/errors/errors_test.go
package errors

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingLogger struct {
	warns  []string
	errors []string
}

func (l *recordingLogger) Warn(msg string, _ map[string]interface{})  { l.warns = append(l.warns, msg) }
func (l *recordingLogger) Error(msg string, _ map[string]interface{}) { l.errors = append(l.errors, msg) }

func TestHTTPStatusFor(t *testing.T) {
	tests := []struct {
		code   ErrorCode
		status int
	}{
		{ErrCodeMissingFields, http.StatusBadRequest},
		{ErrCodeInvalidInput, http.StatusBadRequest},
		{ErrCodeRateLimited, http.StatusTooManyRequests},
		{ErrCodeNoMatch, http.StatusUnprocessableEntity},
		{ErrCodeUnauthorized, http.StatusUnauthorized},
		{ErrCodeSessionStoreFailed, http.StatusInternalServerError},
		{ErrCodeToolNotFound, http.StatusNotFound},
		{ErrCodeRequestTooLarge, http.StatusRequestEntityTooLarge},
		{ErrCodeMissingToolInputs, http.StatusBadRequest},
		{ErrCodeToolExecutionFailed, http.StatusInternalServerError},
		{ErrorCode("SOMETHING_NEW"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.status, HTTPStatusFor(tt.code))
		})
	}
}

func TestNormalize(t *testing.T) {
	stdErr := NewNoMatchError("reserved industry")
	assert.Same(t, stdErr, Normalize(stdErr))

	wrapped := fmt.Errorf("matching: %w", stdErr)
	assert.Same(t, stdErr, Normalize(wrapped))

	plain := Normalize(fmt.Errorf("boom"))
	assert.Equal(t, ErrCodeInternal, plain.Code)
	assert.Equal(t, "boom", plain.Details)
	assert.True(t, HasCode(wrapped, ErrCodeNoMatch))
	assert.False(t, HasCode(plain, ErrCodeNoMatch))
}

func TestNewRateLimitedError_Metadata(t *testing.T) {
	reset := time.Unix(1700000000, 0)
	err := NewRateLimitedError(10, 0, reset, 42*time.Second)

	assert.Equal(t, "Too many requests.", err.Message)
	assert.Equal(t, 10, err.Metadata["limit"])
	assert.Equal(t, 0, err.Metadata["remaining"])
	assert.Equal(t, reset.UTC(), err.Metadata["resetTime"])
	assert.Equal(t, 42, err.Metadata["retryAfter"])
	assert.True(t, IsRetryableErrorCode(err.Code))
	assert.Equal(t, "RATE_LIMIT", GetErrorCategory(err.Code))
}

func TestErrorHandler_Respond(t *testing.T) {
	log := &recordingLogger{}
	h := NewErrorHandler(log)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/capability", nil)
	h.Respond(rec, req, NewMissingFieldsError("painPoint"))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Missing required fields.", body["error"])
	assert.Equal(t, []interface{}{"painPoint"}, body["fields"])
	assert.Len(t, log.warns, 1)
	assert.Empty(t, log.errors)
}

func TestErrorHandler_DoesNotLeakDetails(t *testing.T) {
	log := &recordingLogger{}
	h := NewErrorHandler(log)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/dashboard/sessions", nil)
	h.RespondDashboard(rec, req, NewSessionStoreFailedError("Failed to load explorer sessions", fmt.Errorf("pq: relation does not exist")))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "pq:")

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Failed to load explorer sessions", body["error"])
	assert.Len(t, log.errors, 1)
}

func TestErrorHandler_RetryAfterOnlyForRetryableCodes(t *testing.T) {
	h := NewErrorHandler(&recordingLogger{})
	req := httptest.NewRequest(http.MethodPost, "/capability", nil)

	rec := httptest.NewRecorder()
	h.Respond(rec, req, NewRateLimitedError(10, 0, time.Now().Add(time.Minute), 17*time.Second))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "17", rec.Header().Get("Retry-After"))

	rec = httptest.NewRecorder()
	h.RespondDashboard(rec, req, NewRateLimitedError(10, 0, time.Now().Add(time.Minute), 3*time.Second))
	assert.Equal(t, "3", rec.Header().Get("Retry-After"))

	notRetryable := NewMissingFieldsError("industry")
	notRetryable.Metadata = map[string]interface{}{"retryAfter": 5}
	rec = httptest.NewRecorder()
	h.Respond(rec, req, notRetryable)
	assert.Empty(t, rec.Header().Get("Retry-After"))
}

func TestErrorHandler_DashboardListsMissingToolInputs(t *testing.T) {
	h := NewErrorHandler(&recordingLogger{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/tools/roi-calculator/execute", nil)
	h.RespondDashboard(rec, req, NewMissingToolInputsError("currentAnnualCost", "implementationCost"))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Missing required inputs", body["error"])
	assert.Equal(t, []interface{}{"currentAnnualCost", "implementationCost"}, body["missingFields"])
}
