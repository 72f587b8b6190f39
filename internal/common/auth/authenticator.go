// internal/common/auth/authenticator.go
package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"
	"time"

	"capability-explorer/internal/common/errors"
	"capability-explorer/internal/common/logger"
)

// TokenCache is the subset of the Redis wrapper used to memoize token lookups.
type TokenCache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
}

// UserResolver resolves a bearer token to a user remotely.
type UserResolver interface {
	GetUser(ctx context.Context, token string) (*User, error)
}

type Authenticator struct {
	cookieName string
	verifier   *JWTVerifier
	resolver   UserResolver
	cache      TokenCache
	cacheTTL   time.Duration
	logger     logger.Logger
}

type Option func(*Authenticator)

// WithJWTVerifier enables local token verification; the resolver is then unused.
func WithJWTVerifier(v *JWTVerifier) Option {
	return func(a *Authenticator) { a.verifier = v }
}

func WithResolver(r UserResolver) Option {
	return func(a *Authenticator) { a.resolver = r }
}

func WithCache(c TokenCache, ttl time.Duration) Option {
	return func(a *Authenticator) {
		a.cache = c
		a.cacheTTL = ttl
	}
}

func NewAuthenticator(cookieName string, log logger.Logger, opts ...Option) *Authenticator {
	a := &Authenticator{cookieName: cookieName, logger: log}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Authenticate returns the user that owns the request's access token.
func (a *Authenticator) Authenticate(r *http.Request) (*User, error) {
	token := a.extractToken(r)
	if token == "" {
		return nil, errors.NewUnauthorizedError("no access token")
	}

	if a.verifier != nil {
		return a.verifier.Verify(token)
	}
	if a.resolver == nil {
		return nil, errors.NewUnauthorizedError("no token resolver configured")
	}

	ctx := r.Context()
	key := cacheKey(token)
	if a.cache != nil {
		if id, err := a.cache.Get(ctx, key); err == nil && id != "" {
			return &User{ID: id}, nil
		}
	}

	user, err := a.resolver.GetUser(ctx, token)
	if err != nil {
		return nil, err
	}

	if a.cache != nil {
		if err := a.cache.Set(ctx, key, user.ID, a.cacheTTL); err != nil {
			a.logger.Warn("failed to cache token lookup", map[string]interface{}{"error": err})
		}
	}
	return user, nil
}

func (a *Authenticator) extractToken(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			return strings.TrimSpace(parts[1])
		}
	}
	if a.cookieName != "" {
		if c, err := r.Cookie(a.cookieName); err == nil {
			return strings.TrimSpace(c.Value)
		}
	}
	return ""
}

func cacheKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return "auth:user:" + hex.EncodeToString(sum[:])
}

type contextKey string

const userContextKey contextKey = "explorer_user"

func WithUser(ctx context.Context, user *User) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

func UserFromContext(ctx context.Context) *User {
	user, _ := ctx.Value(userContextKey).(*User)
	return user
}

// UserID returns the authenticated user id or "".
func UserID(ctx context.Context) string {
	if user := UserFromContext(ctx); user != nil {
		return user.ID
	}
	return ""
}

// Attach resolves the user when a token is present but never rejects.
func (a *Authenticator) Attach(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if UserFromContext(r.Context()) != nil || a.extractToken(r) == "" {
			next.ServeHTTP(w, r)
			return
		}
		if user, err := a.Authenticate(r); err == nil {
			r = r.WithContext(WithUser(r.Context(), user))
		}
		next.ServeHTTP(w, r)
	})
}

// Require rejects requests without a valid token through onError. A user
// already attached upstream is reused without another lookup.
func (a *Authenticator) Require(onError func(http.ResponseWriter, *http.Request, error)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if UserFromContext(r.Context()) != nil {
				next.ServeHTTP(w, r)
				return
			}
			user, err := a.Authenticate(r)
			if err != nil {
				if !errors.HasCode(err, errors.ErrCodeUnauthorized) {
					a.logger.Warn("token resolution failed", map[string]interface{}{"error": err})
				}
				onError(w, r, errors.NewUnauthorizedError(err.Error()))
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}
