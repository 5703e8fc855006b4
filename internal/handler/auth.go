package handler

import (
	"log/slog"
	"net/http"

	"github.com/angermaster11/eduhub/internal/domain/models"
	"github.com/angermaster11/eduhub/internal/domain/services"
	"github.com/angermaster11/eduhub/internal/httputil"
)

// AuthHandler exposes sign-in, sign-up and session management
type AuthHandler struct {
	identity services.IdentityService
	logger   *slog.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(identity services.IdentityService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		identity: identity,
		logger:   logger,
	}
}

// Login signs in with email and password
// POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req services.SignInRequest
	if !decode(w, r, &req) {
		return
	}

	session, err := h.identity.SignIn(r.Context(), &req)
	if err != nil {
		handleError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, session)
}

// SignUp registers a new account and its profile
// POST /api/auth/signup
func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req services.SignUpRequest
	if !decode(w, r, &req) {
		return
	}

	result, err := h.identity.SignUp(r.Context(), &req)
	if err != nil {
		handleError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusCreated, result)
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// Refresh exchanges a refresh token for a new session
// POST /api/auth/refresh
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if !decode(w, r, &req) {
		return
	}
	if req.RefreshToken == "" {
		httputil.RespondError(w, http.StatusBadRequest, "refresh_token is required")
		return
	}

	session, err := h.identity.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		handleError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, session)
}

// Logout revokes the caller's session
// POST /api/auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.identity.SignOut(r.Context(), httputil.GetAccessToken(r)); err != nil {
		handleError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Me returns the caller with profile and role
// GET /api/auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims := httputil.GetClaims(r)
	if claims == nil {
		httputil.RespondError(w, http.StatusUnauthorized, "sign in required")
		return
	}

	identity, err := h.identity.Me(r.Context(), &models.AuthUser{
		ID:    claims.GetUserID(),
		Email: claims.Email,
		Phone: claims.Phone,
	})
	if err != nil {
		handleError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, identity)
}
