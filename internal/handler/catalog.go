package handler

import (
	"log/slog"
	"net/http"

	"github.com/angermaster11/eduhub/internal/httputil"
	"github.com/angermaster11/eduhub/internal/service/catalog"
)

// CatalogHandler serves the public course browser. Each browsing session
// gets its own viewer over the shared snapshot.
type CatalogHandler struct {
	workspaces *catalog.Workspaces
	logger     *slog.Logger
}

// NewCatalogHandler creates a new catalog handler
func NewCatalogHandler(workspaces *catalog.Workspaces, logger *slog.Logger) *CatalogHandler {
	return &CatalogHandler{
		workspaces: workspaces,
		logger:     logger,
	}
}

// viewer returns the session's viewer, loading the public snapshot on
// first use. A failed load is reported in the returned state.
func (h *CatalogHandler) viewer(r *http.Request) *catalog.Viewer {
	if err := h.workspaces.Public().EnsureLoaded(r.Context()); err != nil {
		h.logger.Warn("public catalog load failed", "error", err)
	}
	return h.workspaces.Viewer(httputil.GetSessionID(r))
}

// ListCourses returns the filtered course list with aggregates
// GET /api/catalog?q=
func (h *CatalogHandler) ListCourses(w http.ResponseWriter, r *http.Request) {
	v := h.viewer(r)
	if query := r.URL.Query(); query.Has("q") {
		v.SetQuery(query.Get("q"))
	}
	httputil.RespondJSON(w, http.StatusOK, v.View())
}

// GetView returns the session's viewer state
// GET /api/catalog/view
func (h *CatalogHandler) GetView(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, h.viewer(r).View())
}

// ToggleExpand expands or collapses a course, batch or chapter
// POST /api/catalog/view/toggle
func (h *CatalogHandler) ToggleExpand(w http.ResponseWriter, r *http.Request) {
	var req kindRequest
	if !decode(w, r, &req) {
		return
	}
	kind, id, err := req.parse()
	if err != nil {
		handleError(w, err)
		return
	}

	v := h.viewer(r)
	if err := v.Toggle(kind, id); err != nil {
		handleError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, v.View())
}

type queryRequest struct {
	Query string `json:"query"`
}

// SetQuery replaces the session's search query
// PUT /api/catalog/view/query
func (h *CatalogHandler) SetQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if !decode(w, r, &req) {
		return
	}

	v := h.viewer(r)
	v.SetQuery(req.Query)
	httputil.RespondJSON(w, http.StatusOK, v.View())
}

// Refresh revalidates the shared snapshot on request
// POST /api/catalog/refresh
func (h *CatalogHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	if err := h.workspaces.Public().Refetch(r.Context()); err != nil {
		handleError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, h.viewer(r).View())
}

// GetCourse returns one course with its batches and chapters
// GET /api/catalog/courses/{id}
func (h *CatalogHandler) GetCourse(w http.ResponseWriter, r *http.Request) {
	courseID := r.PathValue("id")
	if courseID == "" {
		httputil.RespondError(w, http.StatusBadRequest, "Course ID is required")
		return
	}

	detail, err := h.viewer(r).CourseDetail(r.Context(), courseID)
	if err != nil {
		handleError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, detail)
}

type batchToggleRequest struct {
	ID string `json:"id"`
}

// ToggleCourseBatch expands or collapses a batch on the course page
// POST /api/catalog/courses/{id}/toggle
func (h *CatalogHandler) ToggleCourseBatch(w http.ResponseWriter, r *http.Request) {
	var req batchToggleRequest
	if !decode(w, r, &req) {
		return
	}

	detail, err := h.viewer(r).ToggleDetailBatch(r.Context(), r.PathValue("id"), req.ID)
	if err != nil {
		handleError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, detail)
}
