// internal/handlers/capability/handler.go
package capability

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"

	"capability-explorer/internal/common/auth"
	"capability-explorer/internal/common/errors"
	"capability-explorer/internal/common/logger"
	"capability-explorer/internal/common/metrics"
	"capability-explorer/internal/explorer/confidence"
	"capability-explorer/internal/explorer/guard"
	"capability-explorer/internal/explorer/matcher"
	"capability-explorer/internal/explorer/taxonomy"
	"capability-explorer/internal/models"
)

const (
	Route      = "/capability"
	AliasRoute = "/capability/explorer"
	EventName  = "explorer_match"
)

// UsageRecorder accepts usage events without blocking.
type UsageRecorder interface {
	Record(event models.UsageEvent) bool
}

type Handler struct {
	registry *taxonomy.Registry
	guard    *guard.InputGuard
	engine   *matcher.Engine
	recorder UsageRecorder
	errors   *errors.ErrorHandler
	logger   logger.Logger
}

func NewHandler(registry *taxonomy.Registry, engine *matcher.Engine, recorder UsageRecorder, log logger.Logger) *Handler {
	l := log.WithFields(map[string]interface{}{"handler": "capability"})
	return &Handler{
		registry: registry,
		guard:    guard.NewInputGuard(registry),
		engine:   engine,
		recorder: recorder,
		errors:   errors.NewErrorHandler(l),
		logger:   l,
	}
}

// Taxonomy lists every valid id so clients can build their pickers.
func (h *Handler) Taxonomy(w http.ResponseWriter, r *http.Request) {
	errors.WriteJSON(w, http.StatusOK, TaxonomyResponse{
		Status:              "ok",
		Deterministic:       true,
		ConfidenceThreshold: confidence.Threshold,
		Industries:          taxonomy.IDs(h.registry.ListIndustries()),
		Roles:               taxonomy.IDs(h.registry.ListRoles()),
		PainPoints:          taxonomy.IDs(h.registry.ListPainPoints()),
	})
}

// Match validates the posted triple and returns the engine's recommendation.
// Rate limiting is applied by middleware before this runs.
func (h *Handler) Match(w http.ResponseWriter, r *http.Request) {
	var body map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		metrics.CapabilityRequests.WithLabelValues("invalid_payload").Inc()
		h.errors.Respond(w, r, errors.NewInvalidPayloadError(err))
		return
	}

	input, err := h.guard.Validate(body)
	if err != nil {
		metrics.CapabilityRequests.WithLabelValues("invalid_input").Inc()
		h.errors.Respond(w, r, err)
		return
	}

	result, err := h.engine.Match(input)
	if err != nil {
		if stderrors.Is(err, matcher.ErrNoMatch) {
			metrics.CapabilityRequests.WithLabelValues("no_match").Inc()
			h.errors.Respond(w, r, errors.NewNoMatchError(fmt.Sprintf("%s/%s/%s", input.Industry, input.Role, input.PainPoint)))
			return
		}
		metrics.CapabilityRequests.WithLabelValues("error").Inc()
		h.errors.Respond(w, r, errors.NewInternalError(err))
		return
	}

	metrics.CapabilityRequests.WithLabelValues("ok").Inc()
	metrics.MatchConfidence.WithLabelValues(string(result.Specificity)).Observe(result.Confidence)

	h.logger.Info("explorer match", map[string]interface{}{
		"industry":    input.Industry,
		"role":        input.Role,
		"painPoint":   input.PainPoint,
		"specificity": result.Specificity,
		"confidence":  result.Confidence,
	})

	if h.recorder != nil {
		h.recorder.Record(models.UsageEvent{
			EventName: EventName,
			Category:  models.CategoryExplorer,
			Path:      r.URL.Path,
			UserID:    auth.UserID(r.Context()),
			Metadata: map[string]interface{}{
				"industry":    input.Industry,
				"role":        input.Role,
				"painPoint":   input.PainPoint,
				"confidence":  result.Confidence,
				"specificity": string(result.Specificity),
			},
		})
	}

	errors.WriteJSON(w, http.StatusOK, MatchResponse{
		Status:              "ok",
		ConfidenceThreshold: confidence.Threshold,
		Input:               input,
		Result:              result,
	})
}
