// Package auth provides bearer tokens for requests to the cost backend.
//
// Identity is delegated to an external provider (Keycloak). Callers only
// need two things from it: the current access token, and a best-effort
// refresh when that token is about to expire.
package auth

import (
	"context"
	"log/slog"
	"time"
)

// DefaultMinValidity is how long a token must remain valid before a request
// goes out without refreshing it first.
const DefaultMinValidity = 30 * time.Second

// TokenProvider supplies bearer tokens.
type TokenProvider interface {
	// Token returns the current access token, or "" when there is none.
	Token() string

	// UpdateToken refreshes the token if it expires within minValidity.
	// Returns true when a new token was obtained.
	UpdateToken(ctx context.Context, minValidity time.Duration) (bool, error)
}

// Bearer refreshes the token on a best-effort basis and returns whatever
// token is available afterwards. Refresh failures are logged and otherwise
// ignored: the existing (or absent) token is used instead.
func Bearer(ctx context.Context, provider TokenProvider, logger *slog.Logger) string {
	if provider == nil {
		return ""
	}

	refreshed, err := provider.UpdateToken(ctx, DefaultMinValidity)
	if err != nil {
		if logger != nil {
			logger.Warn("could not update token", "error", err)
		}
	} else if refreshed && logger != nil {
		logger.Debug("token refreshed")
	}

	return provider.Token()
}

// Static is a TokenProvider with a fixed token. An empty token means
// requests are sent unauthenticated.
type Static struct {
	token string
}

// NewStatic returns a Static provider for token.
func NewStatic(token string) *Static {
	return &Static{token: token}
}

func (s *Static) Token() string {
	return s.token
}

// UpdateToken is a no-op for static tokens.
func (s *Static) UpdateToken(_ context.Context, _ time.Duration) (bool, error) {
	return false, nil
}
