package handler

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/angermaster11/eduhub/internal/domain"
	models "github.com/angermaster11/eduhub/internal/domain/models/catalog"
	"github.com/angermaster11/eduhub/internal/httputil"
	"github.com/angermaster11/eduhub/internal/service/catalog"
)

// AdminHandler serves the catalog manager. Routes are wrapped with
// RequireRole(admin) when registered; each admin works on a private
// manager keyed by user id.
type AdminHandler struct {
	workspaces *catalog.Workspaces
	logger     *slog.Logger
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(workspaces *catalog.Workspaces, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{
		workspaces: workspaces,
		logger:     logger,
	}
}

func (h *AdminHandler) manager(r *http.Request) *catalog.Manager {
	return h.workspaces.Manager(r.Context(), httputil.GetUserID(r))
}

// GetState returns the admin's tree, counts and selection
// GET /api/admin/state
func (h *AdminHandler) GetState(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, h.manager(r).State())
}

// Select moves the selection chain
// POST /api/admin/select
func (h *AdminHandler) Select(w http.ResponseWriter, r *http.Request) {
	var req kindRequest
	if !decode(w, r, &req) {
		return
	}
	kind, id, err := req.parse()
	if err != nil {
		handleError(w, err)
		return
	}

	m := h.manager(r)
	if err := m.Select(kind, id); err != nil {
		handleError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, m.State())
}

// Create adds a node under the selected parent
// POST /api/admin/{kind}
func (h *AdminHandler) Create(w http.ResponseWriter, r *http.Request) {
	kind, err := parseKind(r.PathValue("kind"))
	if err != nil {
		handleError(w, err)
		return
	}

	m := h.manager(r)
	ctx := r.Context()

	switch kind {
	case models.KindCourse:
		var draft catalog.CourseDraft
		if !decode(w, r, &draft) {
			return
		}
		err = m.AddCourse(ctx, &draft)
	case models.KindBatch:
		var draft catalog.BatchDraft
		if !decode(w, r, &draft) {
			return
		}
		err = m.AddBatch(ctx, &draft)
	case models.KindChapter:
		var draft catalog.ChapterDraft
		if !decode(w, r, &draft) {
			return
		}
		err = m.AddChapter(ctx, &draft)
	case models.KindContent:
		draft := catalog.NewContentDraft()
		if !decode(w, r, &draft) {
			return
		}
		err = m.AddContent(ctx, &draft)
	}
	if err != nil {
		handleError(w, err)
		return
	}

	h.logger.Info("catalog node added", "kind", kind, "user_id", httputil.GetUserID(r))
	httputil.RespondJSON(w, http.StatusCreated, m.State())
}

// Update overwrites a node's fields
// PATCH /api/admin/{kind}/{id}
func (h *AdminHandler) Update(w http.ResponseWriter, r *http.Request) {
	kind, err := parseKind(r.PathValue("kind"))
	if err != nil {
		handleError(w, err)
		return
	}
	id := r.PathValue("id")

	m := h.manager(r)
	ctx := r.Context()

	switch kind {
	case models.KindCourse:
		var draft catalog.CourseDraft
		if !decode(w, r, &draft) {
			return
		}
		err = m.UpdateCourse(ctx, id, draft)
	case models.KindBatch:
		var draft catalog.BatchDraft
		if !decode(w, r, &draft) {
			return
		}
		err = m.UpdateBatch(ctx, id, draft)
	case models.KindChapter:
		var draft catalog.ChapterDraft
		if !decode(w, r, &draft) {
			return
		}
		err = m.UpdateChapter(ctx, id, draft)
	case models.KindContent:
		var draft catalog.ContentDraft
		if !decode(w, r, &draft) {
			return
		}
		err = m.UpdateContent(ctx, id, draft)
	}
	if err != nil {
		handleError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, m.State())
}

// Delete removes a node and everything below it. The caller must pass
// confirm=true; otherwise nothing is deleted and 428 is returned.
// DELETE /api/admin/{kind}/{id}?confirm=true
func (h *AdminHandler) Delete(w http.ResponseWriter, r *http.Request) {
	kind, err := parseKind(r.PathValue("kind"))
	if err != nil {
		handleError(w, err)
		return
	}

	confirmed := false
	if raw := r.URL.Query().Get("confirm"); raw != "" {
		confirmed, err = strconv.ParseBool(raw)
		if err != nil {
			handleError(w, fmt.Errorf("%w: confirm must be a boolean", domain.ErrValidation))
			return
		}
	}

	m := h.manager(r)
	if err := m.Delete(r.Context(), kind, r.PathValue("id"), confirmed); err != nil {
		handleError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, m.State())
}

// Refetch reloads the admin's snapshot on request
// POST /api/admin/refetch
func (h *AdminHandler) Refetch(w http.ResponseWriter, r *http.Request) {
	m := h.manager(r)
	if err := m.Refetch(r.Context()); err != nil {
		handleError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, m.State())
}
