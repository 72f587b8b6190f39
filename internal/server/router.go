// internal/server/router.go
package server

import (
	"context"
	"net/http"
	"time"

	"capability-explorer/internal/common/auth"
	"capability-explorer/internal/common/errors"
	"capability-explorer/internal/common/logger"
	"capability-explorer/internal/common/observability"
	"capability-explorer/internal/explorer/guard"
	"capability-explorer/internal/explorer/matcher"
	"capability-explorer/internal/explorer/taxonomy"
	"capability-explorer/internal/handlers/capability"
	sessionshandler "capability-explorer/internal/handlers/sessions"
	"capability-explorer/internal/handlers/telemetry"
	toolshandler "capability-explorer/internal/handlers/tools"
	usagehandler "capability-explorer/internal/handlers/usage"
	"capability-explorer/internal/models"
	"capability-explorer/internal/sessions"
	"capability-explorer/pkg/tools"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// UsageRecorder accepts usage events without blocking.
type UsageRecorder interface {
	Record(event models.UsageEvent) bool
}

// ReadinessCheck reports whether a dependency is reachable.
type ReadinessCheck func(ctx context.Context) error

// Dependencies are the collaborators the router wires into handlers.
// Sessions, Usage and Auth may be nil, in which case the dashboard routes
// are not mounted. Tools may be nil to leave the tool routes out.
type Dependencies struct {
	Logger        logger.Logger
	Observability *observability.Observability
	Registry      *taxonomy.Registry
	Engine        *matcher.Engine
	Recorder      UsageRecorder
	Sessions      *sessions.Service
	Usage         usagehandler.Summarizer
	Auth          *auth.Authenticator
	Tools         *tools.Registry

	CapabilityGuard *guard.RateGuard
	TelemetryGuard  *guard.RateGuard
	SessionsGuard   *guard.RateGuard
	ToolsGuard      *guard.RateGuard

	MaxBodyBytes int64
	Readiness    map[string]ReadinessCheck
}

// NewRouter builds the HTTP surface of the service.
func NewRouter(deps Dependencies) *mux.Router {
	log := deps.Logger
	eh := errors.NewErrorHandler(log)

	r := mux.NewRouter()
	r.Use(RequestIDMiddleware, RecoverMiddleware(log), LoggingMiddleware(log))
	if deps.Observability != nil {
		r.Use(MetricsMiddleware(deps.Observability))
	}

	r.HandleFunc("/health", health).Methods(http.MethodGet)
	r.HandleFunc("/ready", ready(deps.Readiness, log)).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	api := r.NewRoute().Subrouter()
	api.Use(BodyLimitMiddleware(deps.MaxBodyBytes))

	// The user is resolved only after the rate guard admits the request, and
	// only on routes that record who made it.
	capH := capability.NewHandler(deps.Registry, deps.Engine, deps.Recorder, log)
	for _, path := range []string{capability.Route, capability.AliasRoute} {
		api.HandleFunc(path, capH.Taxonomy).Methods(http.MethodGet)
		api.Handle(path, guarded(deps.CapabilityGuard, eh.Respond, attach(deps.Auth, capH.Match))).Methods(http.MethodPost)
	}

	telH := telemetry.NewHandler(deps.Recorder, log)
	api.Handle(telemetry.Route, guarded(deps.TelemetryGuard, eh.Respond, attach(deps.Auth, telH.Post))).Methods(http.MethodPost)

	if deps.Tools != nil {
		th := toolshandler.NewHandler(deps.Tools, deps.Recorder, log)
		api.HandleFunc(toolshandler.ListRoute, th.List).Methods(http.MethodGet)
		api.HandleFunc(toolshandler.ItemRoute, th.Get).Methods(http.MethodGet)
		api.Handle(toolshandler.ExecuteRoute, guarded(deps.ToolsGuard, eh.RespondDashboard, attach(deps.Auth, th.Execute))).Methods(http.MethodPost)
	}

	if deps.Auth == nil {
		return r
	}

	dash := api.PathPrefix("/dashboard").Subrouter()
	dash.Use(deps.Auth.Require(eh.RespondDashboard))

	if deps.Sessions != nil {
		sh := sessionshandler.NewHandler(deps.Sessions, log)
		dash.HandleFunc("/sessions", sh.List).Methods(http.MethodGet)
		dash.Handle("/sessions", guarded(deps.SessionsGuard, eh.RespondDashboard, http.HandlerFunc(sh.Save))).Methods(http.MethodPost)
		dash.Handle("/sessions", guarded(deps.SessionsGuard, eh.RespondDashboard, http.HandlerFunc(sh.Clear))).Methods(http.MethodDelete)
		dash.Handle("/sessions/{id}", guarded(deps.SessionsGuard, eh.RespondDashboard, http.HandlerFunc(sh.Delete))).Methods(http.MethodDelete)
	}
	if deps.Usage != nil {
		uh := usagehandler.NewHandler(deps.Usage, log)
		dash.HandleFunc("/usage", uh.Get).Methods(http.MethodGet)
	}

	return r
}

func attach(a *auth.Authenticator, h http.HandlerFunc) http.Handler {
	if a == nil {
		return h
	}
	return a.Attach(h)
}

func guarded(g *guard.RateGuard, onError func(http.ResponseWriter, *http.Request, error), h http.Handler) http.Handler {
	if g == nil {
		return h
	}
	return g.Middleware(onError)(h)
}

func health(w http.ResponseWriter, _ *http.Request) {
	errors.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
	})
}

func ready(checks map[string]ReadinessCheck, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		results := make(map[string]string, len(checks))
		status := http.StatusOK
		for name, check := range checks {
			if err := check(ctx); err != nil {
				log.Warn("readiness check failed", map[string]interface{}{"dependency": name, "error": err})
				results[name] = "unavailable"
				status = http.StatusServiceUnavailable
				continue
			}
			results[name] = "ok"
		}

		state := "ready"
		if status != http.StatusOK {
			state = "not_ready"
		}
		errors.WriteJSON(w, status, map[string]interface{}{
			"status":       state,
			"dependencies": results,
		})
	}
}
