package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/tourbook/tourbook/internal/models"
	pkghttp "github.com/tourbook/tourbook/pkg/http"
)

// contextKey is a custom type for context keys
type contextKey string

const (
	// UserContextKey is the key for storing the resolved user in context
	UserContextKey contextKey = "user"
)

// UserLoader fetches the user a token identifies. Loads go through the
// repository's default filter, so soft-deleted accounts resolve to
// not-found.
type UserLoader interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
}

// Protect rejects any request that does not carry a fresh, valid bearer
// token for an existing user. On success the resolved user is attached to
// the request context for downstream handlers.
func Protect(tm *TokenManager, users UserLoader) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := resolveUser(tm, users, r)
			if !ok {
				pkghttp.WriteUnauthorized(w, "You are not logged in! Please log in to get access.")
				return
			}

			ctx := context.WithValue(r.Context(), UserContextKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalAuth runs the same resolution steps as Protect but never
// rejects: requests that fail any step continue as anonymous. Used for
// routes that render differently for signed-in visitors.
func OptionalAuth(tm *TokenManager, users UserLoader) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if user, ok := resolveUser(tm, users, r); ok {
				ctx := context.WithValue(r.Context(), UserContextKey, user)
				r = r.WithContext(ctx)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// resolveUser runs the shared authentication steps: extract the token,
// verify it, load the user, and check token freshness against the
// password-change time.
func resolveUser(tm *TokenManager, users UserLoader, r *http.Request) (*models.User, bool) {
	tokenString := extractToken(r)
	if tokenString == "" {
		return nil, false
	}

	claims, err := tm.Verify(tokenString)
	if err != nil {
		return nil, false
	}

	user, err := users.GetByID(r.Context(), claims.Subject)
	if err != nil {
		// Account deleted or deactivated since the token was issued.
		return nil, false
	}

	if claims.IssuedAt != nil && user.PasswordChangedAfter(claims.IssuedAt.Time) {
		return nil, false
	}

	return user, true
}

// extractToken pulls the bearer token from the Authorization header,
// falling back to the session cookie.
func extractToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && parts[0] == "Bearer" {
			return parts[1]
		}
		return ""
	}

	if token, err := SessionCookie(r); err == nil && token != loggedOutValue {
		return token
	}

	return ""
}

// RequireRole enforces role-based access for a closed set of roles fixed
// at route registration. Must run after Protect, which resolves the user.
func RequireRole(roles ...string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := CurrentUser(r)
			if user == nil {
				pkghttp.WriteUnauthorized(w, "You are not logged in! Please log in to get access.")
				return
			}

			if !user.HasRole(roles...) {
				pkghttp.WriteForbidden(w, "You do not have permission to perform this action")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// CurrentUser extracts the resolved user from the request context,
// returning nil for anonymous requests.
func CurrentUser(r *http.Request) *models.User {
	user, ok := r.Context().Value(UserContextKey).(*models.User)
	if !ok {
		return nil
	}
	return user
}
