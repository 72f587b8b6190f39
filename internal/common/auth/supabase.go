// internal/common/auth/supabase.go
package auth

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"capability-explorer/internal/common/errors"
	commonhttp "capability-explorer/internal/common/http"
)

// User is the authenticated account as reported by Supabase.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
}

// SupabaseClient resolves access tokens through the Supabase auth REST API.
type SupabaseClient struct {
	baseURL    string
	anonKey    string
	httpClient *commonhttp.Client
}

func NewSupabaseClient(baseURL, anonKey string, timeout time.Duration) *SupabaseClient {
	return &SupabaseClient{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		anonKey:    anonKey,
		httpClient: commonhttp.NewClient(timeout),
	}
}

// GetUser returns the user that owns token. A token Supabase rejects yields
// an unauthorized error; transport failures yield an upstream failure.
func (s *SupabaseClient) GetUser(ctx context.Context, token string) (*User, error) {
	var user User
	err := s.httpClient.GetJSON(ctx, s.baseURL+"/auth/v1/user", map[string]string{
		"Authorization": "Bearer " + token,
		"apikey":        s.anonKey,
	}, &user)
	if err != nil {
		var statusErr *commonhttp.StatusError
		if stderrors.As(err, &statusErr) && isRejection(statusErr.StatusCode) {
			return nil, errors.NewUnauthorizedError(fmt.Sprintf("supabase rejected token: %d", statusErr.StatusCode))
		}
		return nil, errors.NewUpstreamFailureError("supabase", err)
	}

	if user.ID == "" {
		return nil, errors.NewUnauthorizedError("supabase returned no user id")
	}
	return &user, nil
}

func isRejection(status int) bool {
	return status == http.StatusUnauthorized || status == http.StatusForbidden || status == http.StatusNotFound
}
