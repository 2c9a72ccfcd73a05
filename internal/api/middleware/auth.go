package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/mcoot/farklegame/internal/api/apierr"
	"github.com/mcoot/farklegame/internal/middleware"
	"github.com/mcoot/farklegame/internal/model"
)

type contextKey string

const profileContextKey contextKey = "profile"

// Verifier resolves a bearer credential to a known profile
type Verifier interface {
	Verify(ctx context.Context, token string) (*model.PlayerProfile, error)
}

// Auth creates authentication middleware
func Auth(verifier Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractToken(r)
			if token == "" {
				apierr.WriteError(w, apierr.NewUnauthorizedError())
				return
			}

			profile, err := verifier.Verify(r.Context(), token)
			if errors.Is(err, model.ErrProfileNotFound) {
				apierr.WriteError(w, apierr.NewUnauthorizedError())
				return
			}
			if err != nil {
				apierr.WriteError(w, err)
				return
			}

			middleware.Annotate(r.Context(), slog.String("player_id", string(profile.ID)))
			ctx := context.WithValue(r.Context(), profileContextKey, profile)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// extractToken extracts the bearer token from the request
func extractToken(r *http.Request) string {
	// Check Authorization header first
	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}

	// Browsers cannot set headers on a websocket upgrade
	return r.URL.Query().Get("token")
}

// GetProfile returns the authenticated profile from the request context
func GetProfile(ctx context.Context) *model.PlayerProfile {
	profile, _ := ctx.Value(profileContextKey).(*model.PlayerProfile)
	return profile
}

// MustGetProfile returns the authenticated profile or panics
func MustGetProfile(ctx context.Context) *model.PlayerProfile {
	profile := GetProfile(ctx)
	if profile == nil {
		panic("no profile in context - auth middleware not applied?")
	}
	return profile
}
