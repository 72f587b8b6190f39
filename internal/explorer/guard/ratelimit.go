// internal/explorer/guard/ratelimit.go
package guard

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"capability-explorer/internal/common/errors"
	"capability-explorer/internal/common/logger"
	"capability-explorer/internal/common/metrics"
	"capability-explorer/internal/common/ratelimit"
)

// RateGuard applies one rate limit preset to a route.
type RateGuard struct {
	route   string
	backend string
	limiter ratelimit.RateLimiter
	policy  ratelimit.Policy
	logger  logger.Logger
	now     func() time.Time
}

func NewRateGuard(route, backend string, limiter ratelimit.RateLimiter, policy ratelimit.Policy, log logger.Logger) *RateGuard {
	return &RateGuard{
		route:   route,
		backend: backend,
		limiter: limiter,
		policy:  policy,
		logger:  log.WithFields(map[string]interface{}{"route": route}),
		now:     time.Now,
	}
}

// Check counts one request for clientID. A limiter failure lets the request
// through with a full quota reported.
func (g *RateGuard) Check(ctx context.Context, clientID string) ratelimit.Result {
	res, err := g.limiter.Check(ctx, clientID)
	if err != nil {
		metrics.RateLimitErrors.WithLabelValues(g.backend).Inc()
		g.logger.Warn("rate limiter unavailable, allowing request", map[string]interface{}{
			"backend": g.backend,
			"error":   err,
		})
		return ratelimit.Result{
			Allowed:   true,
			Limit:     g.policy.Limit,
			Remaining: g.policy.Limit,
			ResetTime: g.now().Add(g.policy.Window),
		}
	}
	return res
}

// Middleware sets X-RateLimit-* headers on every response and rejects
// callers over quota through onError with a rate limited error.
func (g *RateGuard) Middleware(onError func(http.ResponseWriter, *http.Request, error)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			clientID := ClientID(r)
			res := g.Check(r.Context(), clientID)
			WriteRateLimitHeaders(w, res)

			if !res.Allowed {
				metrics.RateLimitRejections.WithLabelValues(g.route).Inc()
				g.logger.Info("rate limit exceeded", map[string]interface{}{
					"clientId": clientID,
					"limit":    res.Limit,
					"reset":    res.ResetTime.Unix(),
				})
				onError(w, r, errors.NewRateLimitedError(res.Limit, res.Remaining, res.ResetTime, res.RetryAfter(g.now())))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// WriteRateLimitHeaders writes limit, remaining and reset (unix seconds, rounded up).
func WriteRateLimitHeaders(w http.ResponseWriter, res ratelimit.Result) {
	reset := res.ResetTime.Unix()
	if res.ResetTime.Nanosecond() > 0 {
		reset++
	}
	h := w.Header()
	h.Set("X-RateLimit-Limit", strconv.Itoa(res.Limit))
	h.Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
	h.Set("X-RateLimit-Reset", strconv.FormatInt(reset, 10))
}
