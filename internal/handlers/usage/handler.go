// internal/handlers/usage/handler.go
package usage

import (
	"context"
	"fmt"
	"net/http"

	"capability-explorer/internal/common/auth"
	"capability-explorer/internal/common/errors"
	"capability-explorer/internal/common/logger"
	"capability-explorer/internal/models"
)

const Route = "/dashboard/usage"

// Summarizer builds a user's usage summary.
type Summarizer interface {
	Summary(ctx context.Context, userID string) models.UsageSummary
}

type Response struct {
	Success bool `json:"success"`
	models.UsageSummary
}

type Handler struct {
	service Summarizer
	errors  *errors.ErrorHandler
	logger  logger.Logger
}

func NewHandler(service Summarizer, log logger.Logger) *Handler {
	l := log.WithFields(map[string]interface{}{"handler": "dashboard-usage"})
	return &Handler{service: service, errors: errors.NewErrorHandler(l), logger: l}
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	if userID == "" {
		h.errors.RespondDashboard(w, r, errors.NewUnauthorizedError("no user in context"))
		return
	}

	summary, err := h.summarize(r.Context(), userID)
	if err != nil {
		h.errors.RespondDashboard(w, r, errors.NewUsageFailedError(err))
		return
	}
	errors.WriteJSON(w, http.StatusOK, Response{Success: true, UsageSummary: summary})
}

func (h *Handler) summarize(ctx context.Context, userID string) (summary models.UsageSummary, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("summary panicked: %v", p)
		}
	}()
	return h.service.Summary(ctx, userID), nil
}
