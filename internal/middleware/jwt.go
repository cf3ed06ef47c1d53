// internal/middleware/jwt.go
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"applynest/internal/session"
)

type contextKey string

const userIDKey contextKey = "userID"

// SetUserIDInContext stores the authenticated user ID in the context.
func SetUserIDInContext(ctx context.Context, userID uuid.UUID) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// GetUserIDFromContext returns the authenticated user ID, or uuid.Nil
// for an anonymous request.
func GetUserIDFromContext(ctx context.Context) uuid.UUID {
	if userID, ok := ctx.Value(userIDKey).(uuid.UUID); ok {
		return userID
	}
	return uuid.Nil
}

func bearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return ""
	}
	return strings.TrimPrefix(authHeader, "Bearer ")
}

// RequireAuth wraps a handler that only signed-in users may reach. The
// validated user ID lands in the request context.
func RequireAuth(sessions *session.Provider, handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			http.Error(w, "Authorization header required", http.StatusUnauthorized)
			return
		}
		claims, err := sessions.ValidateToken(token)
		if err != nil {
			http.Error(w, "Invalid token", http.StatusUnauthorized)
			return
		}
		ctx := SetUserIDInContext(r.Context(), claims.UserID)
		handler(w, r.WithContext(ctx))
	}
}

// OptionalAuth wraps a handler that serves both visitors and signed-in
// users. A valid token puts the user ID in the context; a missing or
// bad token leaves the request anonymous rather than rejecting it.
func OptionalAuth(sessions *session.Provider, handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token != "" {
			if claims, err := sessions.ValidateToken(token); err == nil {
				r = r.WithContext(SetUserIDInContext(r.Context(), claims.UserID))
			}
		}
		handler(w, r)
	}
}
