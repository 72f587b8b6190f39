// internal/handlers/telemetry/handler.go
package telemetry

import (
	"encoding/json"
	"net/http"
	"regexp"
	"strings"

	"capability-explorer/internal/common/auth"
	"capability-explorer/internal/common/errors"
	"capability-explorer/internal/common/logger"
	"capability-explorer/internal/models"
)

const (
	Route       = "/telemetry"
	EventPrefix = "telemetry_"
	maxNameLen  = 64
)

var unsafeNameChars = regexp.MustCompile(`[^a-z0-9_]+`)

// Event is the client beacon body.
type Event struct {
	Name    string                 `json:"name"`
	TS      interface{}            `json:"ts,omitempty"`
	Path    string                 `json:"path,omitempty"`
	Payload map[string]interface{} `json:"payload,omitempty"`
}

// UsageRecorder accepts usage events without blocking.
type UsageRecorder interface {
	Record(event models.UsageEvent) bool
}

type Handler struct {
	recorder UsageRecorder
	errors   *errors.ErrorHandler
	logger   logger.Logger
}

func NewHandler(recorder UsageRecorder, log logger.Logger) *Handler {
	l := log.WithFields(map[string]interface{}{"handler": "telemetry"})
	return &Handler{recorder: recorder, errors: errors.NewErrorHandler(l), logger: l}
}

func (h *Handler) Post(w http.ResponseWriter, r *http.Request) {
	var evt Event
	if err := json.NewDecoder(r.Body).Decode(&evt); err != nil {
		h.errors.Respond(w, r, errors.NewTelemetryFailedError(err))
		return
	}
	if strings.TrimSpace(evt.Name) == "" {
		h.errors.Respond(w, r, errors.NewMissingEventNameError())
		return
	}

	h.logger.Info("telemetry", map[string]interface{}{
		"name":    evt.Name,
		"ts":      evt.TS,
		"path":    evt.Path,
		"payload": evt.Payload,
	})

	if h.recorder != nil {
		metadata := map[string]interface{}{"name": evt.Name}
		if evt.TS != nil {
			metadata["ts"] = evt.TS
		}
		if len(evt.Payload) > 0 {
			metadata["payload"] = evt.Payload
		}
		h.recorder.Record(models.UsageEvent{
			EventName: EventName(evt.Name),
			Category:  models.CategoryAPI,
			Path:      evt.Path,
			UserID:    auth.UserID(r.Context()),
			Metadata:  metadata,
		})
	}

	errors.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// EventName maps a client event name to a bounded snake_case usage event name.
func EventName(name string) string {
	n := unsafeNameChars.ReplaceAllString(strings.ToLower(strings.TrimSpace(name)), "_")
	n = strings.Trim(n, "_")
	if len(n) > maxNameLen {
		n = n[:maxNameLen]
	}
	if n == "" {
		n = "event"
	}
	return EventPrefix + n
}
