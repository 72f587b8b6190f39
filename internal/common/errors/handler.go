// internal/common/errors/handler.go
package errors

import (
	"encoding/json"
	"net/http"
	"strconv"
)

// ErrorHandler turns errors into JSON responses with standardized handling.
type ErrorHandler struct {
	logger Logger
}

type Logger interface {
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

func NewErrorHandler(logger Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// Respond writes {"error": message} with the status for the error code.
// Offending field names are included for validation errors.
func (h *ErrorHandler) Respond(w http.ResponseWriter, r *http.Request, err error) {
	stdErr := Normalize(err)
	h.logError(r, stdErr)

	body := map[string]interface{}{"error": stdErr.Message}
	if len(stdErr.Fields) > 0 {
		body["fields"] = stdErr.Fields
	}
	setRetryAfter(w, stdErr)
	WriteJSON(w, stdErr.HTTPStatus(), body)
}

// RespondDashboard writes the dashboard envelope {"success": false, "error": message}.
// Missing tool inputs are listed under missingFields.
func (h *ErrorHandler) RespondDashboard(w http.ResponseWriter, r *http.Request, err error) {
	stdErr := Normalize(err)
	h.logError(r, stdErr)

	body := map[string]interface{}{
		"success": false,
		"error":   stdErr.Message,
	}
	if stdErr.Code == ErrCodeMissingToolInputs && len(stdErr.Fields) > 0 {
		body["missingFields"] = stdErr.Fields
	}
	setRetryAfter(w, stdErr)
	WriteJSON(w, stdErr.HTTPStatus(), body)
}

// setRetryAfter copies the retryAfter metadata of a retryable error into the Retry-After header.
func setRetryAfter(w http.ResponseWriter, stdErr *StandardError) {
	if !IsRetryableErrorCode(stdErr.Code) {
		return
	}
	if seconds, ok := stdErr.Metadata["retryAfter"].(int); ok {
		w.Header().Set("Retry-After", strconv.Itoa(seconds))
	}
}

func (h *ErrorHandler) logError(r *http.Request, stdErr *StandardError) {
	fields := map[string]interface{}{
		"errorCode":     string(stdErr.Code),
		"message":       stdErr.Message,
		"details":       stdErr.Details,
		"retryable":     stdErr.Retryable,
		"errorCategory": GetErrorCategory(stdErr.Code),
		"status":        stdErr.HTTPStatus(),
	}
	if r != nil {
		fields["method"] = r.Method
		fields["path"] = r.URL.Path
	}
	if stdErr.HTTPStatus() >= http.StatusInternalServerError {
		h.logger.Error("request failed", fields)
		return
	}
	h.logger.Warn("request rejected", fields)
}

// WriteJSON writes v as a JSON response body.
func WriteJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
