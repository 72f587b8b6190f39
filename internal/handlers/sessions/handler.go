// internal/handlers/sessions/handler.go
package sessions

import (
	"io"
	"net/http"

	"capability-explorer/internal/common/auth"
	"capability-explorer/internal/common/errors"
	"capability-explorer/internal/common/logger"
	"capability-explorer/internal/models"
	explorersessions "capability-explorer/internal/sessions"

	"github.com/gorilla/mux"
)

const (
	Route     = "/dashboard/sessions"
	ItemRoute = "/dashboard/sessions/{id}"
)

type Handler struct {
	service *explorersessions.Service
	errors  *errors.ErrorHandler
	logger  logger.Logger
}

func NewHandler(service *explorersessions.Service, log logger.Logger) *Handler {
	l := log.WithFields(map[string]interface{}{"handler": "dashboard-sessions"})
	return &Handler{service: service, errors: errors.NewErrorHandler(l), logger: l}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	list, err := h.service.List(r.Context(), userID)
	if err != nil {
		h.errors.RespondDashboard(w, r, err)
		return
	}
	if list == nil {
		list = []*models.ExplorerSession{}
	}
	errors.WriteJSON(w, http.StatusOK, map[string]interface{}{"success": true, "sessions": list})
}

func (h *Handler) Save(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		h.errors.RespondDashboard(w, r, errors.NewInvalidSessionError(err.Error()))
		return
	}

	saved, err := h.service.Save(r.Context(), userID, body)
	if err != nil {
		h.errors.RespondDashboard(w, r, err)
		return
	}
	errors.WriteJSON(w, http.StatusOK, map[string]interface{}{"success": true, "session": saved})
}

func (h *Handler) Clear(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	if err := h.service.Clear(r.Context(), userID); err != nil {
		h.errors.RespondDashboard(w, r, err)
		return
	}
	errors.WriteJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	id, err := h.service.Delete(r.Context(), userID, mux.Vars(r)["id"])
	if err != nil {
		h.errors.RespondDashboard(w, r, err)
		return
	}
	errors.WriteJSON(w, http.StatusOK, map[string]interface{}{"success": true, "id": id})
}

func (h *Handler) userID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := auth.UserID(r.Context())
	if id == "" {
		h.errors.RespondDashboard(w, r, errors.NewUnauthorizedError("no user in context"))
		return "", false
	}
	return id, true
}
