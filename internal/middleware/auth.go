package middleware

import (
	"net/http"

	"storefront-be/internal/auth"
	"storefront-be/internal/logger"
	"storefront-be/internal/utils"

	"go.uber.org/zap"
)

// TokenParser verifies an access token and returns its claims.
type TokenParser interface {
	Parse(token string) (*auth.Claims, error)
}

// AuthMiddleware attaches the caller's identity when a token is present.
// Requests without a token pass through anonymously; a token that fails
// verification is rejected with 401.
func AuthMiddleware(tokens TokenParser) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr := auth.ExtractAccessToken(r)
			if tokenStr == "" {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := tokens.Parse(tokenStr)
			if err != nil {
				logger.FromCtx(r.Context()).Debug("rejected access token", zap.Error(err))
				utils.WriteJSONError(w, http.StatusUnauthorized, "unauthorized", "invalid or expired token")
				return
			}

			ctx := utils.SetUserContext(r.Context(), claims.UserID, claims.Role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := utils.GetUserIDFromContext(r.Context()); !ok {
			utils.WriteJSONError(w, http.StatusUnauthorized, "unauthorized", "authentication required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireRole answers 401 for anonymous callers and 403 for callers
// without the role.
func RequireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if utils.GetUserRoleFromContext(r.Context()) != role {
				utils.WriteJSONError(w, http.StatusForbidden, "forbidden", "insufficient permissions")
				return
			}
			next.ServeHTTP(w, r)
		}))
	}
}
