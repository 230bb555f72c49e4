// Package middleware provides the HTTP middleware shared by the API routes.
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/postly-app/backend/internal/models"
)

// TokenVerifier resolves a bearer token to the identity it proves.
type TokenVerifier interface {
	VerifyToken(token string) (*models.User, error)
}

type contextKey string

const userContextKey contextKey = "postly_user"

// Auth validates the Authorization header on every request it wraps and
// attaches the resolved user to the request context. Issuance routes and the
// health check are mounted outside this middleware.
type Auth struct {
	Verifier TokenVerifier
}

func (a *Auth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			respondError(w, http.StatusUnauthorized, "Missing token")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			respondError(w, http.StatusUnauthorized, "Invalid token")
			return
		}

		user, err := a.Verifier.VerifyToken(parts[1])
		if err != nil {
			respondError(w, http.StatusUnauthorized, "Invalid token")
			return
		}

		ctx := context.WithValue(r.Context(), userContextKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// UserFrom returns the authenticated user stored by Auth, or nil outside an
// authenticated request.
func UserFrom(ctx context.Context) *models.User {
	user, ok := ctx.Value(userContextKey).(*models.User)
	if !ok {
		return nil
	}
	return user
}

// WithUser is a test hook for handler tests that bypass the middleware.
func WithUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

func respondError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(`{"error":"` + msg + `"}`))
}
