package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
)

// JWTValidator defines the interface for validating session tokens.
type JWTValidator interface {
	ValidateToken(tokenString string) (*JWTClaims, error)
}

// JWTClaims represents the claims the middleware expects from the validator.
type JWTClaims struct {
	Username string
	Role     string
	OrgCode  string
}

type contextKeyUsername struct{}
type contextKeyRole struct{}
type contextKeyOrgCode struct{}

var (
	ContextKeyUsername = contextKeyUsername{}
	ContextKeyRole     = contextKeyRole{}
	ContextKeyOrgCode  = contextKeyOrgCode{}
)

// GetUsername retrieves the authenticated username from the context.
func GetUsername(ctx context.Context) string {
	if username, ok := ctx.Value(ContextKeyUsername).(string); ok {
		return username
	}
	return ""
}

// GetRole retrieves the authenticated role from the context.
func GetRole(ctx context.Context) string {
	if role, ok := ctx.Value(ContextKeyRole).(string); ok {
		return role
	}
	return ""
}

// GetOrgCode retrieves the authenticated caller's org code from the context.
func GetOrgCode(ctx context.Context) string {
	if org, ok := ctx.Value(ContextKeyOrgCode).(string); ok {
		return org
	}
	return ""
}

// RequireAuth validates the bearer token and injects the caller identity into
// the request context. Requests without a valid token get 401.
func RequireAuth(validator JWTValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(authHeader, "Bearer ")
			if !ok {
				unauthorized(w, r, logger, "missing token")
				return
			}
			claims, err := validator.ValidateToken(token)
			if err != nil {
				unauthorized(w, r, logger, "invalid token")
				return
			}
			ctx := r.Context()
			ctx = context.WithValue(ctx, ContextKeyUsername, claims.Username)
			ctx = context.WithValue(ctx, ContextKeyRole, claims.Role)
			ctx = context.WithValue(ctx, ContextKeyOrgCode, claims.OrgCode)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole gates a subtree to callers whose token carries the given role.
// Must be mounted after RequireAuth.
func RequireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if GetRole(r.Context()) != role {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusForbidden)
				_, _ = w.Write([]byte(`{"error":"forbidden"}`))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func unauthorized(w http.ResponseWriter, r *http.Request, logger *slog.Logger, reason string) {
	logger.WarnContext(r.Context(), "unauthorized access",
		"reason", reason,
		"request_id", GetRequestID(r.Context()),
	)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"unauthorized"}`))
}
