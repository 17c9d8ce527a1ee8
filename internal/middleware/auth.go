package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/evolution-ecosystem/bridge/internal/model"
	"github.com/evolution-ecosystem/bridge/pkg/token"
)

// TokenVerifier defines the interface for identity token validation
type TokenVerifier interface {
	Verify(raw string) (*token.Claims, error)
}

// ClaimsKey is the context key for identity token claims
const ClaimsKey contextKey = "claims"

// Auth returns a middleware that validates identity tokens issued by the
// ecosystem's identity service.
func Auth(verifier TokenVerifier) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				model.NewUnauthorizedError("missing authorization header").WriteJSON(w)
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				model.NewUnauthorizedError("invalid authorization header format").WriteJSON(w)
				return
			}

			claims, err := verifier.Verify(parts[1])
			if err != nil {
				switch {
				case errors.Is(err, token.ErrTokenExpired):
					model.NewUnauthorizedError("token expired").WriteJSON(w)
				case errors.Is(err, token.ErrInvalidSignature):
					model.NewUnauthorizedError("invalid token signature").WriteJSON(w)
				default:
					model.NewUnauthorizedError("invalid token").WriteJSON(w)
				}
				return
			}

			ctx := context.WithValue(r.Context(), UserIDKey, claims.Subject)
			ctx = context.WithValue(ctx, ClaimsKey, claims)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AdminOnly requires the authenticated token to carry the admin role.
// Must run after Auth.
func AdminOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims := GetClaims(r.Context())
		if claims == nil || !claims.IsAdmin() {
			model.NewForbiddenError("admin role required").WriteJSON(w)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// APIKey returns a middleware that checks the X-API-Key header with the
// given verify function. Used for the operator surface and the engine
// callback, which authenticate with shared keys instead of tokens.
func APIKey(verify func(key string) error) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := verify(r.Header.Get("X-API-Key")); err != nil {
				model.NewUnauthorizedError("invalid API key").WriteJSON(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// GetUserID extracts the authenticated user ID from context
func GetUserID(ctx context.Context) string {
	if id, ok := ctx.Value(UserIDKey).(string); ok {
		return id
	}
	return ""
}

// GetClaims extracts the identity token claims from context
func GetClaims(ctx context.Context) *token.Claims {
	if claims, ok := ctx.Value(ClaimsKey).(*token.Claims); ok {
		return claims
	}
	return nil
}
