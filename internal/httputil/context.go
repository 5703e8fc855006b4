package httputil

import (
	"context"
	"net/http"

	"github.com/angermaster11/eduhub/internal/domain/models"
)

// Context key type to avoid collisions
type contextKey string

const (
	userIDKey    contextKey = "userID"
	claimsKey    contextKey = "claims"
	tokenKey     contextKey = "accessToken"
	sessionIDKey contextKey = "sessionID"
)

// WithUserID adds userID to the request context
func WithUserID(r *http.Request, userID string) *http.Request {
	ctx := context.WithValue(r.Context(), userIDKey, userID)
	return r.WithContext(ctx)
}

// GetUserID retrieves userID from context, returns empty string if not found
func GetUserID(r *http.Request) string {
	userID, _ := r.Context().Value(userIDKey).(string)
	return userID
}

// WithAuth stores the verified claims and the raw bearer token
func WithAuth(r *http.Request, claims *models.SupabaseClaims, token string) *http.Request {
	ctx := context.WithValue(r.Context(), claimsKey, claims)
	ctx = context.WithValue(ctx, tokenKey, token)
	ctx = context.WithValue(ctx, userIDKey, claims.GetUserID())
	return r.WithContext(ctx)
}

// GetClaims returns the verified claims, or nil for anonymous requests
func GetClaims(r *http.Request) *models.SupabaseClaims {
	claims, _ := r.Context().Value(claimsKey).(*models.SupabaseClaims)
	return claims
}

// GetAccessToken returns the bearer token that produced the claims
func GetAccessToken(r *http.Request) string {
	token, _ := r.Context().Value(tokenKey).(string)
	return token
}

// WithSessionID adds the browsing session id to the request context
func WithSessionID(r *http.Request, sessionID string) *http.Request {
	ctx := context.WithValue(r.Context(), sessionIDKey, sessionID)
	return r.WithContext(ctx)
}

// GetSessionID retrieves the browsing session id
func GetSessionID(r *http.Request) string {
	id, _ := r.Context().Value(sessionIDKey).(string)
	return id
}
