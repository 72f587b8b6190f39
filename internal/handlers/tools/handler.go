// internal/handlers/tools/handler.go
package tools

import (
	"encoding/json"
	stderrors "errors"
	"net/http"
	"regexp"
	"sort"

	"capability-explorer/internal/common/auth"
	"capability-explorer/internal/common/errors"
	"capability-explorer/internal/common/logger"
	"capability-explorer/internal/common/metrics"
	"capability-explorer/internal/common/validation"
	"capability-explorer/internal/models"
	toolkit "capability-explorer/pkg/tools"

	"github.com/gorilla/mux"
)

const (
	ListRoute    = "/tools"
	ItemRoute    = "/tools/{id}"
	ExecuteRoute = "/tools/{id}/execute"
	EventName    = "tool_execute"

	// MaxBodyBytes caps an execute request body.
	MaxBodyBytes = 100000
)

var toolIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,50}$`)

// UsageRecorder accepts usage events without blocking.
type UsageRecorder interface {
	Record(event models.UsageEvent) bool
}

type Handler struct {
	registry *toolkit.Registry
	recorder UsageRecorder
	errors   *errors.ErrorHandler
	logger   logger.Logger
}

func NewHandler(registry *toolkit.Registry, recorder UsageRecorder, log logger.Logger) *Handler {
	l := log.WithFields(map[string]interface{}{"handler": "tools"})
	return &Handler{
		registry: registry,
		recorder: recorder,
		errors:   errors.NewErrorHandler(l),
		logger:   l,
	}
}

// List returns tool summaries, optionally narrowed by ?category= and ?featured=true.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var list []*toolkit.Tool
	if c := q.Get("category"); c != "" {
		list = h.registry.ByCategory(toolkit.Category(c))
	} else {
		list = h.registry.All()
	}
	if q.Get("featured") == "true" {
		featured := list[:0:0]
		for _, t := range list {
			if t.Featured {
				featured = append(featured, t)
			}
		}
		list = featured
	}

	summaries := make([]toolkit.Summary, 0, len(list))
	for _, t := range list {
		summaries = append(summaries, t.Summary())
	}
	errors.WriteJSON(w, http.StatusOK, ListResponse{Success: true, Count: len(summaries), Tools: summaries})
}

// Get returns one tool with its input definitions.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	tool, err := h.lookup(r)
	if err != nil {
		h.errors.RespondDashboard(w, r, err)
		return
	}
	errors.WriteJSON(w, http.StatusOK, ItemResponse{Success: true, Tool: tool})
}

// Execute validates the posted inputs and runs the tool. Rate limiting is
// applied by middleware before this runs.
func (h *Handler) Execute(w http.ResponseWriter, r *http.Request) {
	tool, err := h.lookup(r)
	if err != nil {
		metrics.ToolExecutions.WithLabelValues("unknown", "rejected").Inc()
		h.errors.RespondDashboard(w, r, err)
		return
	}
	if tool.ComingSoon {
		metrics.ToolExecutions.WithLabelValues(tool.ID, "rejected").Inc()
		h.errors.RespondDashboard(w, r, errors.NewToolUnavailableError(tool.ID))
		return
	}

	inputs, err := h.decodeInputs(w, r, tool)
	if err != nil {
		metrics.ToolExecutions.WithLabelValues(tool.ID, "invalid_input").Inc()
		h.errors.RespondDashboard(w, r, err)
		return
	}

	result, err := h.registry.Execute(tool.ID, inputs)
	if err != nil {
		metrics.ToolExecutions.WithLabelValues(tool.ID, "error").Inc()
		h.errors.RespondDashboard(w, r, errors.NewToolExecutionFailedError(err))
		return
	}

	metrics.ToolExecutions.WithLabelValues(tool.ID, "ok").Inc()
	h.logger.Info("tool executed", map[string]interface{}{
		"toolId":     tool.ID,
		"inputCount": len(inputs),
		"confidence": result.Confidence,
	})

	if h.recorder != nil {
		h.recorder.Record(models.UsageEvent{
			EventName: EventName,
			Category:  models.CategoryTools,
			Path:      r.URL.Path,
			ToolID:    tool.ID,
			UserID:    auth.UserID(r.Context()),
			Metadata: map[string]interface{}{
				"inputCount": len(inputs),
				"confidence": result.Confidence,
			},
		})
	}

	errors.WriteJSON(w, http.StatusOK, ExecuteResponse{
		Success:  true,
		ToolID:   tool.ID,
		ToolName: tool.Name,
		Result:   result,
	})
}

func (h *Handler) lookup(r *http.Request) (*toolkit.Tool, error) {
	id := mux.Vars(r)["id"]
	if !toolIDPattern.MatchString(id) {
		return nil, errors.NewInvalidToolIDError(id)
	}
	tool, ok := h.registry.Get(id)
	if !ok {
		return nil, errors.NewToolNotFoundError(id)
	}
	return tool, nil
}

// decodeInputs enforces the body limit, then checks value types before
// required inputs. Keys are checked in sorted order; null values are ignored.
func (h *Handler) decodeInputs(w http.ResponseWriter, r *http.Request, tool *toolkit.Tool) (toolkit.Inputs, error) {
	if r.ContentLength > MaxBodyBytes {
		return nil, errors.NewRequestTooLargeError(MaxBodyBytes)
	}

	var req ExecuteRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxBodyBytes)).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			return nil, errors.NewRequestTooLargeError(MaxBodyBytes)
		}
		return nil, errors.NewInvalidJSONBodyError(err)
	}

	keys := make([]string, 0, len(req.Inputs))
	for k := range req.Inputs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		switch req.Inputs[k].(type) {
		case nil, string, float64:
		default:
			return nil, errors.NewInvalidToolInputError(k)
		}
	}

	result := validation.ValidateInput(req.Inputs, validation.JSONSchema{
		Type:                 "object",
		Required:             tool.RequiredInputs(),
		AdditionalProperties: true,
	})
	if missing := result.MissingFields(); len(missing) > 0 {
		return nil, errors.NewMissingToolInputsError(missing...)
	}
	return toolkit.Inputs(req.Inputs), nil
}
