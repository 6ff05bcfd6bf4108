package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/BradenHooton/nbatrivia/internal/models"
	pkghttp "github.com/BradenHooton/nbatrivia/pkg/http"
)

// contextKey is a custom type for context keys
type contextKey string

const (
	// UserContextKey is the key for storing user claims in context
	UserContextKey contextKey = "user"
)

// UserRepository is the lookup RequireRole uses to confirm a role is still current.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
}

// AuthMiddleware validates the bearer token and injects its claims into the context.
func AuthMiddleware(tm *TokenManager) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := tm.ValidateToken(pkghttp.BearerToken(r))
			if err != nil {
				pkghttp.WriteUnauthorized(w, "Unauthorized")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

// RequireRole allows the request only when both the token's role claim and the
// user's stored role match role. Must run after AuthMiddleware.
func RequireRole(userRepo UserRepository, role string) func(next http.Handler) http.Handler {
	forbidden := "Forbidden"
	if role == models.RoleAdmin {
		forbidden = "Forbidden: Admins only"
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := GetUserFromContext(r)
			if claims == nil {
				pkghttp.WriteUnauthorized(w, "Unauthorized")
				return
			}

			if !roleMatches(claims.Role, role) {
				pkghttp.WriteForbidden(w, forbidden)
				return
			}

			// The role may have been revoked since the token was issued.
			user, err := userRepo.GetByID(r.Context(), claims.UserID)
			if err != nil {
				if errors.Is(err, models.ErrNotFound) {
					pkghttp.WriteUnauthorized(w, "Unauthorized")
					return
				}
				pkghttp.WriteInternalError(w, "Internal server error")
				return
			}
			if !roleMatches(user.Role, role) {
				pkghttp.WriteForbidden(w, forbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func roleMatches(actual, required string) bool {
	return strings.EqualFold(strings.TrimSpace(actual), required)
}

// WithClaims stores claims in ctx.
func WithClaims(ctx context.Context, claims *models.TokenClaims) context.Context {
	return context.WithValue(ctx, UserContextKey, claims)
}

// GetUserFromContext extracts user claims from request context
func GetUserFromContext(r *http.Request) *models.TokenClaims {
	claims, ok := r.Context().Value(UserContextKey).(*models.TokenClaims)
	if !ok {
		return nil
	}
	return claims
}
