package handler

import (
	"net/http"

	"github.com/angermaster11/eduhub/internal/httputil"
	"github.com/angermaster11/eduhub/internal/service/catalog"
)

// HealthHandler reports liveness and the public catalog state
type HealthHandler struct {
	workspaces *catalog.Workspaces
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(workspaces *catalog.Workspaces) *HealthHandler {
	return &HealthHandler{workspaces: workspaces}
}

// HealthCheck is a liveness probe; a failing catalog fetch does not make
// the process unhealthy.
// GET /health
func (h *HealthHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	viewers, managers := h.workspaces.Counts()
	state := h.workspaces.Public().State()

	httputil.RespondJSON(w, http.StatusOK, map[string]any{
		"status":         "ok",
		"catalog":        state.Status,
		"catalog_error":  state.Error,
		"viewers":        viewers,
		"admin_sessions": managers,
	})
}
