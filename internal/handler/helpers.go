package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/angermaster11/eduhub/internal/domain"
	models "github.com/angermaster11/eduhub/internal/domain/models/catalog"
	"github.com/angermaster11/eduhub/internal/httputil"
)

// handleError converts domain errors to HTTP responses
func handleError(w http.ResponseWriter, err error) {
	var conflictErr *domain.ConflictError
	var storeErr *domain.StoreError

	switch {
	case errors.Is(err, domain.ErrValidation):
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		httputil.RespondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		httputil.RespondError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, domain.ErrForbidden):
		httputil.RespondError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, domain.ErrConfirmationRequired):
		httputil.RespondErrorWithExtras(w, http.StatusPreconditionRequired, err.Error(), map[string]any{
			"confirm_with": "confirm=true",
		})
	case errors.As(err, &conflictErr):
		httputil.RespondError(w, http.StatusConflict, conflictErr.Error())
	case errors.As(err, &storeErr):
		slog.Warn("upstream store error", "op", storeErr.Op, "error", storeErr.Cause)
		httputil.RespondError(w, storeErr.StatusCode(), err.Error())
	default:
		slog.Error("unhandled error", "error", err)
		httputil.RespondError(w, http.StatusInternalServerError, "internal server error")
	}
}

// kindRequest selects or toggles one node
type kindRequest struct {
	Kind string `json:"kind"`
	ID   string `json:"id"`
}

func (req kindRequest) parse() (models.Kind, string, error) {
	kind, err := parseKind(req.Kind)
	if err != nil {
		return "", "", err
	}
	if req.ID == "" {
		return "", "", fmt.Errorf("%w: id is required", domain.ErrValidation)
	}
	return kind, req.ID, nil
}

func parseKind(s string) (models.Kind, error) {
	kind, err := models.ParseKind(s)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	return kind, nil
}

// decode parses the body and answers 400 itself on failure
func decode(w http.ResponseWriter, r *http.Request, dest any) bool {
	if err := httputil.ParseJSON(w, r, dest); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}
