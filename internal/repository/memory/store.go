// Package memory keeps the catalog and profiles in process. It backs the
// dev environment (STORE=memory) and the service tests.
package memory

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/angermaster11/eduhub/internal/domain"
	models "github.com/angermaster11/eduhub/internal/domain/models/catalog"
	catalogRepo "github.com/angermaster11/eduhub/internal/domain/repositories/catalog"
)

// Store implements the catalog Store with flat row slices, mirroring the
// four hosted tables. Rows are kept in insertion order.
type Store struct {
	mu       sync.RWMutex
	courses  []models.Course
	batches  []models.Batch
	chapters []models.Chapter
	contents []models.Content
	now      func() time.Time
	logger   *slog.Logger
}

// NewStore creates an empty in-memory catalog store
func NewStore(logger *slog.Logger) *Store {
	return &Store{
		now:    time.Now,
		logger: logger,
	}
}

// FetchAllCourses returns the nested catalog, newest course first
func (s *Store) FetchAllCourses(ctx context.Context) ([]models.Course, error) {
	if err := ctx.Err(); err != nil {
		return nil, &domain.StoreError{Op: "fetch courses", Cause: err}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	courses := make([]models.Course, 0, len(s.courses))
	for i := len(s.courses) - 1; i >= 0; i-- {
		courses = append(courses, s.courses[i])
	}

	tree, _ := models.BuildTree(courses,
		append([]models.Batch(nil), s.batches...),
		append([]models.Chapter(nil), s.chapters...),
		append([]models.Content(nil), s.contents...),
	)
	return tree, nil
}

// FetchCourse returns one course fully nested
func (s *Store) FetchCourse(ctx context.Context, id string) (*models.Course, error) {
	tree, err := s.FetchAllCourses(ctx)
	if err != nil {
		return nil, err
	}
	course := models.FindCourse(tree, id)
	if course == nil {
		return nil, fmt.Errorf("course %s: %w", id, domain.ErrNotFound)
	}
	return course, nil
}

// InsertCourse appends a course row
func (s *Store) InsertCourse(ctx context.Context, fields catalogRepo.CourseFields) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.courses = append(s.courses, models.Course{
		ID:          uuid.NewString(),
		Title:       fields.Title,
		Description: fields.Description,
		Tag:         fields.Tag,
		Image:       fields.Image,
		CreatedAt:   s.now(),
	})
	return nil
}

// InsertBatch appends a batch row under an existing course
func (s *Store) InsertBatch(ctx context.Context, courseID string, fields catalogRepo.BatchFields) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.indexOf(models.KindCourse, courseID) < 0 {
		return fmt.Errorf("course %s: %w", courseID, domain.ErrNotFound)
	}
	s.batches = append(s.batches, models.Batch{
		ID:          uuid.NewString(),
		CourseID:    courseID,
		Title:       fields.Title,
		Description: fields.Description,
		CreatedAt:   s.now(),
	})
	return nil
}

// InsertChapter appends a chapter row under an existing batch
func (s *Store) InsertChapter(ctx context.Context, batchID string, fields catalogRepo.ChapterFields) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.indexOf(models.KindBatch, batchID) < 0 {
		return fmt.Errorf("batch %s: %w", batchID, domain.ErrNotFound)
	}
	s.chapters = append(s.chapters, models.Chapter{
		ID:          uuid.NewString(),
		BatchID:     batchID,
		Title:       fields.Title,
		Description: fields.Description,
		CreatedAt:   s.now(),
	})
	return nil
}

// InsertContent appends a content row under an existing chapter
func (s *Store) InsertContent(ctx context.Context, chapterID string, fields catalogRepo.ContentFields) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.indexOf(models.KindChapter, chapterID) < 0 {
		return fmt.Errorf("chapter %s: %w", chapterID, domain.ErrNotFound)
	}
	s.contents = append(s.contents, models.Content{
		ID:        uuid.NewString(),
		ChapterID: chapterID,
		Title:     fields.Title,
		Type:      fields.Type,
		FileURL:   fields.FileURL,
		CreatedAt: s.now(),
	})
	return nil
}

// UpdateCourse overwrites a course's writable fields
func (s *Store) UpdateCourse(ctx context.Context, id string, fields catalogRepo.CourseFields) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(models.KindCourse, id)
	if i < 0 {
		return fmt.Errorf("course %s: %w", id, domain.ErrNotFound)
	}
	c := &s.courses[i]
	c.Title, c.Description, c.Tag, c.Image = fields.Title, fields.Description, fields.Tag, fields.Image
	return nil
}

// UpdateBatch overwrites a batch's writable fields
func (s *Store) UpdateBatch(ctx context.Context, id string, fields catalogRepo.BatchFields) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(models.KindBatch, id)
	if i < 0 {
		return fmt.Errorf("batch %s: %w", id, domain.ErrNotFound)
	}
	s.batches[i].Title = fields.Title
	s.batches[i].Description = fields.Description
	return nil
}

// UpdateChapter overwrites a chapter's writable fields
func (s *Store) UpdateChapter(ctx context.Context, id string, fields catalogRepo.ChapterFields) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(models.KindChapter, id)
	if i < 0 {
		return fmt.Errorf("chapter %s: %w", id, domain.ErrNotFound)
	}
	s.chapters[i].Title = fields.Title
	s.chapters[i].Description = fields.Description
	return nil
}

// UpdateContent overwrites a content row's writable fields
func (s *Store) UpdateContent(ctx context.Context, id string, fields catalogRepo.ContentFields) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(models.KindContent, id)
	if i < 0 {
		return fmt.Errorf("content %s: %w", id, domain.ErrNotFound)
	}
	item := &s.contents[i]
	item.Title, item.Type, item.FileURL = fields.Title, fields.Type, fields.FileURL
	return nil
}

// Exists reports whether a row of the given kind is present
func (s *Store) Exists(ctx context.Context, kind models.Kind, id string) (bool, error) {
	if kind.Depth() < 0 {
		return false, fmt.Errorf("%w: unknown catalog kind %q", domain.ErrValidation, kind)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.indexOf(kind, id) >= 0, nil
}

// Delete removes the row and every descendant
func (s *Store) Delete(ctx context.Context, kind models.Kind, id string) error {
	if kind.Depth() < 0 {
		return fmt.Errorf("%w: unknown catalog kind %q", domain.ErrValidation, kind)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.indexOf(kind, id) < 0 {
		return fmt.Errorf("%s %s: %w", kind.Singular(), id, domain.ErrNotFound)
	}

	// Collect ids level by level, then filter each table once
	doomed := map[models.Kind]map[string]bool{kind: {id: true}}
	for d := kind.Depth() + 1; d < len(models.Kinds); d++ {
		child := models.Kinds[d]
		parents := doomed[models.Kinds[d-1]]
		ids := make(map[string]bool)
		for _, childID := range s.childIDs(child, parents) {
			ids[childID] = true
		}
		doomed[child] = ids
	}

	s.courses = removeRows(s.courses, func(c models.Course) bool { return doomed[models.KindCourse][c.ID] })
	s.batches = removeRows(s.batches, func(b models.Batch) bool { return doomed[models.KindBatch][b.ID] })
	s.chapters = removeRows(s.chapters, func(ch models.Chapter) bool { return doomed[models.KindChapter][ch.ID] })
	s.contents = removeRows(s.contents, func(item models.Content) bool { return doomed[models.KindContent][item.ID] })

	if s.logger != nil {
		s.logger.Debug("catalog row deleted", "kind", kind, "id", id)
	}
	return nil
}

// childIDs lists rows of kind whose parent id is in parents
func (s *Store) childIDs(kind models.Kind, parents map[string]bool) []string {
	var ids []string
	switch kind {
	case models.KindBatch:
		for _, b := range s.batches {
			if parents[b.CourseID] {
				ids = append(ids, b.ID)
			}
		}
	case models.KindChapter:
		for _, ch := range s.chapters {
			if parents[ch.BatchID] {
				ids = append(ids, ch.ID)
			}
		}
	case models.KindContent:
		for _, item := range s.contents {
			if parents[item.ChapterID] {
				ids = append(ids, item.ID)
			}
		}
	}
	return ids
}

func (s *Store) indexOf(kind models.Kind, id string) int {
	switch kind {
	case models.KindCourse:
		for i := range s.courses {
			if s.courses[i].ID == id {
				return i
			}
		}
	case models.KindBatch:
		for i := range s.batches {
			if s.batches[i].ID == id {
				return i
			}
		}
	case models.KindChapter:
		for i := range s.chapters {
			if s.chapters[i].ID == id {
				return i
			}
		}
	case models.KindContent:
		for i := range s.contents {
			if s.contents[i].ID == id {
				return i
			}
		}
	}
	return -1
}

// RowCount reports the number of rows of a kind, descendants included.
func (s *Store) RowCount(kind models.Kind) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	switch kind {
	case models.KindCourse:
		return len(s.courses)
	case models.KindBatch:
		return len(s.batches)
	case models.KindChapter:
		return len(s.chapters)
	case models.KindContent:
		return len(s.contents)
	}
	return 0
}

func removeRows[T any](rows []T, drop func(T) bool) []T {
	kept := rows[:0]
	for _, row := range rows {
		if !drop(row) {
			kept = append(kept, row)
		}
	}
	return kept
}

var _ catalogRepo.Store = (*Store)(nil)
