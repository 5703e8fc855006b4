package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/angermaster11/eduhub/internal/auth"
	"github.com/angermaster11/eduhub/internal/domain"
	"github.com/angermaster11/eduhub/internal/domain/models"
	"github.com/angermaster11/eduhub/internal/httputil"
)

// RoleResolver looks up the catalog role of a verified user
type RoleResolver interface {
	RoleForUser(ctx context.Context, userID string) (models.Role, error)
}

// AuthMiddleware verifies an optional bearer token. Requests without a
// usable token continue anonymously; routes that need an identity wrap
// themselves with RequireAuth or RequireRole. A token that cannot be
// checked because the signing keys are unavailable answers 502.
func AuthMiddleware(verifier auth.JWTVerifier, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := verifier.VerifyToken(token)
			var storeErr *domain.StoreError
			if errors.As(err, &storeErr) {
				logger.Warn("bearer token could not be checked", "path", r.URL.Path, "error", err)
				httputil.RespondError(w, http.StatusBadGateway, storeErr.Error())
				return
			}
			if err != nil {
				logger.Debug("ignoring invalid bearer token", "path", r.URL.Path, "error", err)
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, httputil.WithAuth(r, claims, token))
		})
	}
}

// RequireAuth rejects anonymous requests with 401
func RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if httputil.GetClaims(r) == nil {
			httputil.RespondError(w, http.StatusUnauthorized, "sign in required")
			return
		}
		next(w, r)
	}
}

// RequireRole rejects anonymous requests with 401 and signed-in users
// without the role with 403. The role is read from the profile on every
// request so a promotion or demotion applies immediately.
func RequireRole(roles RoleResolver, role models.Role, logger *slog.Logger) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return RequireAuth(func(w http.ResponseWriter, r *http.Request) {
			userID := httputil.GetUserID(r)

			got, err := roles.RoleForUser(r.Context(), userID)
			if err != nil {
				var storeErr *domain.StoreError
				if errors.As(err, &storeErr) {
					logger.Warn("role lookup failed", "user_id", userID, "error", err)
					httputil.RespondError(w, http.StatusBadGateway, "could not resolve role")
					return
				}
				logger.Error("role lookup failed", "user_id", userID, "error", err)
				httputil.RespondError(w, http.StatusInternalServerError, "internal server error")
				return
			}

			if got != role {
				logger.Info("role check denied", "user_id", userID, "role", got, "required", role, "path", r.URL.Path)
				httputil.RespondError(w, http.StatusForbidden, "insufficient role")
				return
			}
			next(w, r)
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
