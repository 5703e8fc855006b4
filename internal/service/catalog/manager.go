package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/angermaster11/eduhub/internal/domain"
	models "github.com/angermaster11/eduhub/internal/domain/models/catalog"
	catalogRepo "github.com/angermaster11/eduhub/internal/domain/repositories/catalog"
	"github.com/angermaster11/eduhub/internal/events"
)

// Manager is one admin's workspace: a private tree model and a selection
// chain. Every mutation is followed by a full refetch; nothing is patched
// locally. Managers of different admins are not coordinated.
type Manager struct {
	userID    string
	store     catalogRepo.Store
	model     *TreeModel
	selection *Selection
	bus       events.Bus
	logger    *slog.Logger
}

// AdminState is what the manager page renders
type AdminState struct {
	TreeState
	CourseCount int          `json:"course_count"`
	Courses     []CourseView `json:"courses"`
	Active      Active       `json:"active"`
	Selected    Resolved     `json:"selected"`
}

// NewManager creates a manager for userID. Call Load before use.
func NewManager(userID string, store catalogRepo.Store, bus events.Bus, logger *slog.Logger) *Manager {
	logger = logger.With("admin_id", userID)
	return &Manager{
		userID:    userID,
		store:     store,
		model:     NewTreeModel(store, logger),
		selection: NewSelection(),
		bus:       bus,
		logger:    logger,
	}
}

// Load fetches the first snapshot if there is none yet
func (m *Manager) Load(ctx context.Context) error {
	if m.model.Loaded() {
		return nil
	}
	return m.Refetch(ctx)
}

// Refetch reloads the snapshot and drops selections that no longer exist
func (m *Manager) Refetch(ctx context.Context) error {
	if err := m.model.Refetch(ctx); err != nil {
		return err
	}
	if m.selection.Reconcile(m.model.Courses()) {
		m.logger.Debug("selection repaired after refetch", "active", m.selection.Active())
	}
	return nil
}

// State returns the snapshot with aggregates and the resolved selection
func (m *Manager) State() AdminState {
	tree := m.model.State()
	return AdminState{
		TreeState:   tree,
		CourseCount: len(tree.Courses),
		Courses:     NewCourseViews(tree.Courses),
		Active:      m.selection.Active(),
		Selected:    m.selection.Resolve(tree.Courses),
	}
}

// Selection exposes the chain for inspection
func (m *Manager) Selection() Active {
	return m.selection.Active()
}

// Select resolves kind/id in the current snapshot and applies the
// matching select transition.
func (m *Manager) Select(kind models.Kind, id string) error {
	n, err := locate(m.model.Courses(), kind, id)
	if err != nil {
		return err
	}

	switch kind {
	case models.KindCourse:
		return m.selection.SelectCourse(n.course)
	case models.KindBatch:
		return m.selection.SelectBatch(n.batch)
	case models.KindChapter:
		return m.selection.SelectChapter(n.chapter)
	}
	return fmt.Errorf("%w: %s cannot be selected", domain.ErrValidation, kind.Singular())
}

// AddCourse inserts a course. An invalid draft makes no store call and
// is left as it was; a stored draft is reset.
func (m *Manager) AddCourse(ctx context.Context, d *CourseDraft) error {
	if err := validateDraft(d); err != nil {
		return err
	}

	if err := m.store.InsertCourse(ctx, d.fields()); err != nil {
		return fmt.Errorf("add course: %w", err)
	}

	*d = CourseDraft{}
	m.afterMutation(ctx, events.CatalogCreated, models.KindCourse, "")
	return nil
}

// AddBatch inserts a batch under the selected course
func (m *Manager) AddBatch(ctx context.Context, d *BatchDraft) error {
	if err := validateDraft(d); err != nil {
		return err
	}

	courseID := m.selection.Active().CourseID
	if err := m.checkParent(ctx, models.KindCourse, courseID); err != nil {
		return err
	}

	if err := m.store.InsertBatch(ctx, courseID, d.fields()); err != nil {
		return fmt.Errorf("add batch: %w", err)
	}

	*d = BatchDraft{}
	m.afterMutation(ctx, events.CatalogCreated, models.KindBatch, "")
	return nil
}

// AddChapter inserts a chapter under the selected batch
func (m *Manager) AddChapter(ctx context.Context, d *ChapterDraft) error {
	if err := validateDraft(d); err != nil {
		return err
	}

	batchID := m.selection.Active().BatchID
	if err := m.checkParent(ctx, models.KindBatch, batchID); err != nil {
		return err
	}

	if err := m.store.InsertChapter(ctx, batchID, d.fields()); err != nil {
		return fmt.Errorf("add chapter: %w", err)
	}

	*d = ChapterDraft{}
	m.afterMutation(ctx, events.CatalogCreated, models.KindChapter, "")
	return nil
}

// AddContent inserts a content item under the selected chapter
func (m *Manager) AddContent(ctx context.Context, d *ContentDraft) error {
	if err := validateDraft(d); err != nil {
		return err
	}

	chapterID := m.selection.Active().ChapterID
	if err := m.checkParent(ctx, models.KindChapter, chapterID); err != nil {
		return err
	}

	if err := m.store.InsertContent(ctx, chapterID, d.fields()); err != nil {
		return fmt.Errorf("add content: %w", err)
	}

	*d = NewContentDraft()
	m.afterMutation(ctx, events.CatalogCreated, models.KindContent, "")
	return nil
}

// checkParent requires a selected parent that still exists in the store.
// A parent deleted elsewhere triggers a refetch so the view catches up.
func (m *Manager) checkParent(ctx context.Context, kind models.Kind, id string) error {
	if id == "" {
		return fmt.Errorf("%w: select a %s first", domain.ErrValidation, kind.Singular())
	}

	exists, err := m.store.Exists(ctx, kind, id)
	if err != nil {
		return fmt.Errorf("check %s: %w", kind.Singular(), err)
	}
	if !exists {
		m.logger.Info("selected parent no longer exists", "kind", kind, "id", id)
		if err := m.Refetch(ctx); err != nil {
			m.logger.Warn("refetch after stale parent failed", "error", err)
		}
		return fmt.Errorf("%s %s: %w", kind.Singular(), id, domain.ErrNotFound)
	}
	return nil
}

// UpdateCourse overwrites a course's fields
func (m *Manager) UpdateCourse(ctx context.Context, id string, d CourseDraft) error {
	if err := validateDraft(d); err != nil {
		return err
	}
	if err := m.store.UpdateCourse(ctx, id, d.fields()); err != nil {
		return fmt.Errorf("update course: %w", err)
	}
	m.afterMutation(ctx, events.CatalogUpdated, models.KindCourse, id)
	return nil
}

// UpdateBatch overwrites a batch's fields; its course never changes
func (m *Manager) UpdateBatch(ctx context.Context, id string, d BatchDraft) error {
	if err := validateDraft(d); err != nil {
		return err
	}
	if err := m.store.UpdateBatch(ctx, id, d.fields()); err != nil {
		return fmt.Errorf("update batch: %w", err)
	}
	m.afterMutation(ctx, events.CatalogUpdated, models.KindBatch, id)
	return nil
}

// UpdateChapter overwrites a chapter's fields; its batch never changes
func (m *Manager) UpdateChapter(ctx context.Context, id string, d ChapterDraft) error {
	if err := validateDraft(d); err != nil {
		return err
	}
	if err := m.store.UpdateChapter(ctx, id, d.fields()); err != nil {
		return fmt.Errorf("update chapter: %w", err)
	}
	m.afterMutation(ctx, events.CatalogUpdated, models.KindChapter, id)
	return nil
}

// UpdateContent overwrites a content item's fields
func (m *Manager) UpdateContent(ctx context.Context, id string, d ContentDraft) error {
	if err := validateDraft(d); err != nil {
		return err
	}
	if err := m.store.UpdateContent(ctx, id, d.fields()); err != nil {
		return fmt.Errorf("update content: %w", err)
	}
	m.afterMutation(ctx, events.CatalogUpdated, models.KindContent, id)
	return nil
}

// Delete removes a node and its descendants. Without confirmation no
// store call is made. A failed delete leaves snapshot and selection as
// they were.
func (m *Manager) Delete(ctx context.Context, kind models.Kind, id string, confirmed bool) error {
	if kind.Depth() < 0 {
		return fmt.Errorf("%w: unknown catalog kind %q", domain.ErrValidation, kind)
	}
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("%w: id is required", domain.ErrValidation)
	}
	if !confirmed {
		return fmt.Errorf("delete %s %s: %w", kind.Singular(), id, domain.ErrConfirmationRequired)
	}

	if err := m.store.Delete(ctx, kind, id); err != nil {
		return fmt.Errorf("delete %s: %w", kind.Singular(), err)
	}

	m.logger.Info("catalog node deleted", "kind", kind, "id", id)

	// The row is gone whether or not the refetch succeeds
	m.selection.DeleteCascade(kind, id)
	m.afterMutation(ctx, events.CatalogDeleted, kind, id)
	return nil
}

// afterMutation refetches and notifies other surfaces. A failed refetch
// is reported through the model state, not to the caller, because the
// write itself succeeded.
func (m *Manager) afterMutation(ctx context.Context, eventType string, kind models.Kind, id string) {
	if err := m.Refetch(ctx); err != nil {
		m.logger.Warn("refetch after mutation failed", "kind", kind, "error", err)
	}

	err := m.bus.Publish(ctx, events.Event{
		Topic:  events.TopicCatalog,
		Type:   eventType,
		Kind:   string(kind),
		ID:     id,
		UserID: m.userID,
	})
	if err != nil {
		m.logger.Warn("failed to publish catalog event", "error", err)
	}
}
