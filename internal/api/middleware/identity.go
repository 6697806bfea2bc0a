package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/tallydeck/tallydeck/internal/api/apierr"
	"github.com/tallydeck/tallydeck/internal/model"
	"github.com/tallydeck/tallydeck/internal/services/auth"
)

type contextKey string

const identityContextKey contextKey = "identity"

// GuestIDHeader carries the client-held guest identifier. Guests have
// no server-side account; the id only means anything once it appears on
// a roster entry.
const GuestIDHeader = "X-Guest-ID"

// GuestNameHeader optionally carries a guest's display name
const GuestNameHeader = "X-Guest-Name"

// Identity resolves the caller on every request. A bearer token wins
// over a guest header when both are present. Requests with neither
// proceed with a zero identity; access resolution downstream decides
// what that caller may see.
func Identity(authService *auth.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, err := resolveIdentity(r, authService)
			if err != nil {
				apierr.WriteError(w, err)
				return
			}

			ctx := context.WithValue(r.Context(), identityContextKey, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireUser rejects requests without a registered account
func RequireUser() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !GetIdentity(r.Context()).Registered() {
				apierr.WriteError(w, apierr.NewUnauthorizedError())
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// resolveIdentity maps credentials to an identity. An invalid bearer
// token is an error rather than a silent downgrade to anonymous.
func resolveIdentity(r *http.Request, authService *auth.Service) (model.Identity, error) {
	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		token := strings.TrimPrefix(authHeader, "Bearer ")
		return authService.VerifyToken(r.Context(), token)
	}

	if guestID := r.Header.Get(GuestIDHeader); guestID != "" {
		return model.Identity{
			GuestID:     guestID,
			DisplayName: r.Header.Get(GuestNameHeader),
		}, nil
	}

	return model.Identity{}, nil
}

// GetIdentity returns the resolved identity from the request context.
// The zero identity means the request carried no credentials.
func GetIdentity(ctx context.Context) model.Identity {
	identity, _ := ctx.Value(identityContextKey).(model.Identity)
	return identity
}
