package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"familycard/internal/security"
	"familycard/internal/service"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const UserContextKey ContextKey = "user"

const ErrMissingBearerToken = "Missing Authorization Bearer token"

// Middleware holds dependencies for middleware functions
type Middleware struct {
	authService *service.AuthService
	limiter     *security.RateLimiter
}

// NewMiddleware creates a new middleware instance
func NewMiddleware(authService *service.AuthService) *Middleware {
	return &Middleware{
		authService: authService,
		limiter:     security.NewRateLimiter(10, time.Minute),
	}
}

// bearerToken extracts the token from an "Authorization: Bearer x"
// header; empty string when the header is absent or malformed.
func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		return ""
	}
	parts := strings.Fields(auth)
	if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
		return parts[1]
	}
	return ""
}

// RequireAuth rejects requests without a resolvable bearer token. The
// resolved account is placed in the request context; nothing below this
// middleware runs for an unauthenticated request.
func (m *Middleware) RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			respondWithError(w, http.StatusUnauthorized, ErrMissingBearerToken)
			return
		}

		user, err := m.authService.ResolveUser(r.Context(), token)
		if err != nil {
			respondWithError(w, http.StatusUnauthorized, err.Error())
			return
		}

		ctx := context.WithValue(r.Context(), UserContextKey, user)
		next(w, r.WithContext(ctx))
	}
}

// RateLimit throttles a handler per client IP
func (m *Middleware) RateLimit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !m.limiter.Allow(security.GetClientIP(r)) {
			respondWithError(w, http.StatusTooManyRequests, "Too many requests, slow down")
			return
		}
		next(w, r)
	}
}

// GetUserFromContext retrieves the authenticated user from the request context
func GetUserFromContext(ctx context.Context) *service.AuthUser {
	user, ok := ctx.Value(UserContextKey).(*service.AuthUser)
	if !ok {
		return nil
	}
	return user
}
