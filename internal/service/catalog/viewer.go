package catalog

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/angermaster11/eduhub/internal/domain"
	models "github.com/angermaster11/eduhub/internal/domain/models/catalog"
	catalogRepo "github.com/angermaster11/eduhub/internal/domain/repositories/catalog"
)

// Viewer is one browsing session over the shared public model: an
// expand/collapse chain and a search query. Filtering never changes what
// is expanded.
type Viewer struct {
	model    *TreeModel
	store    catalogRepo.Store
	expanded *Selection

	// detail is the expanded batch on the course page
	detail *Selection

	mu    sync.RWMutex
	query string
}

// ViewerState is what the home page renders
type ViewerState struct {
	TreeState
	Query    string       `json:"query"`
	Total    int          `json:"total"`
	Courses  []CourseView `json:"courses"`
	Expanded Active       `json:"expanded"`
}

// CourseDetail is what the course page renders
type CourseDetail struct {
	Course        CourseView `json:"course"`
	ExpandedBatch string     `json:"expanded_batch_id,omitempty"`
}

// NewViewer creates a session viewer over a shared model
func NewViewer(model *TreeModel, store catalogRepo.Store) *Viewer {
	return &Viewer{
		model:    model,
		store:    store,
		expanded: NewSelection(),
		detail:   NewSelection(),
	}
}

// Toggle expands or collapses a course, batch or chapter
func (v *Viewer) Toggle(kind models.Kind, id string) error {
	courses := v.model.Courses()
	v.expanded.Reconcile(courses)
	return v.expanded.Toggle(courses, kind, id)
}

// SetQuery replaces the search query
func (v *Viewer) SetQuery(query string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.query = query
}

// Query returns the current search query
func (v *Viewer) Query() string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.query
}

// View returns the filtered courses and the expansion chain. Expanded
// nodes deleted since the last view are collapsed first.
func (v *Viewer) View() ViewerState {
	tree := v.model.State()
	v.expanded.Reconcile(tree.Courses)

	query := v.Query()
	filtered := Filter(tree.Courses, query)

	return ViewerState{
		TreeState: tree,
		Query:     query,
		Total:     len(tree.Courses),
		Courses:   NewCourseViews(filtered),
		Expanded:  v.expanded.Active(),
	}
}

// CourseDetail fetches one course. Opening a different course collapses
// the batch expanded on the previous one.
func (v *Viewer) CourseDetail(ctx context.Context, courseID string) (*CourseDetail, error) {
	course, err := v.store.FetchCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}

	if v.detail.Active().CourseID != course.ID {
		if err := v.detail.SelectCourse(course); err != nil {
			return nil, err
		}
	}
	v.detail.Reconcile([]models.Course{*course})

	return &CourseDetail{
		Course:        NewCourseView(course),
		ExpandedBatch: v.detail.Active().BatchID,
	}, nil
}

// ToggleDetailBatch expands or collapses a batch on the course page
func (v *Viewer) ToggleDetailBatch(ctx context.Context, courseID, batchID string) (*CourseDetail, error) {
	if strings.TrimSpace(batchID) == "" {
		return nil, fmt.Errorf("%w: batch id is required", domain.ErrValidation)
	}

	course, err := v.store.FetchCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}

	if v.detail.Active().CourseID != course.ID {
		if err := v.detail.SelectCourse(course); err != nil {
			return nil, err
		}
	}

	snapshot := []models.Course{*course}
	if err := v.detail.Toggle(snapshot, models.KindBatch, batchID); err != nil {
		return nil, err
	}

	return &CourseDetail{
		Course:        NewCourseView(course),
		ExpandedBatch: v.detail.Active().BatchID,
	}, nil
}
