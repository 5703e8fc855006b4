package catalog

import (
	"fmt"
	"sync"

	"github.com/angermaster11/eduhub/internal/domain"
	models "github.com/angermaster11/eduhub/internal/domain/models/catalog"
)

// Active holds the ids of the selected node at each level. Content has no
// selection state.
type Active struct {
	CourseID  string `json:"course_id,omitempty"`
	BatchID   string `json:"batch_id,omitempty"`
	ChapterID string `json:"chapter_id,omitempty"`
}

// Selection is the course, batch, chapter chain. A batch is only ever
// active under the active course, and a chapter under the active batch.
// Failed transitions leave the chain unchanged.
type Selection struct {
	mu     sync.RWMutex
	active Active
}

// NewSelection creates an empty selection
func NewSelection() *Selection {
	return &Selection{}
}

// Active returns a copy of the chain
func (s *Selection) Active() Active {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

// SelectCourse sets the course and clears every deeper level
func (s *Selection) SelectCourse(c *models.Course) error {
	if c == nil || c.ID == "" {
		return fmt.Errorf("%w: no course given", domain.ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = Active{CourseID: c.ID}
	return nil
}

// SelectBatch sets the batch of the active course and clears the chapter
func (s *Selection) SelectBatch(b *models.Batch) error {
	if b == nil || b.ID == "" {
		return fmt.Errorf("%w: no batch given", domain.ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkBatch(b); err != nil {
		return err
	}
	s.active.BatchID = b.ID
	s.active.ChapterID = ""
	return nil
}

// SelectChapter sets the chapter of the active batch
func (s *Selection) SelectChapter(ch *models.Chapter) error {
	if ch == nil || ch.ID == "" {
		return fmt.Errorf("%w: no chapter given", domain.ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkChapter(ch); err != nil {
		return err
	}
	s.active.ChapterID = ch.ID
	return nil
}

// Toggle is the expand/collapse form of the select transitions. Toggling
// the active node collapses its level and everything below; toggling
// another node at the same level replaces it as Select* would.
func (s *Selection) Toggle(courses []models.Course, kind models.Kind, id string) error {
	node, err := locate(courses, kind, id)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	switch kind {
	case models.KindCourse:
		if s.active.CourseID == id {
			s.active = Active{}
			return nil
		}
		s.active = Active{CourseID: id}

	case models.KindBatch:
		if err := s.checkBatch(node.batch); err != nil {
			return err
		}
		if s.active.BatchID == id {
			s.active.BatchID = ""
		} else {
			s.active.BatchID = id
		}
		s.active.ChapterID = ""

	case models.KindChapter:
		if err := s.checkChapter(node.chapter); err != nil {
			return err
		}
		if s.active.ChapterID == id {
			s.active.ChapterID = ""
		} else {
			s.active.ChapterID = id
		}

	default:
		return fmt.Errorf("%w: %s cannot be expanded", domain.ErrValidation, kind.Singular())
	}
	return nil
}

// DeleteCascade clears the level holding id, and every level below it,
// when id is the active node there. Call it after the delete succeeded.
func (s *Selection) DeleteCascade(kind models.Kind, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch kind {
	case models.KindCourse:
		if s.active.CourseID == id {
			s.active = Active{}
		}
	case models.KindBatch:
		if s.active.BatchID == id {
			s.active.BatchID = ""
			s.active.ChapterID = ""
		}
	case models.KindChapter:
		if s.active.ChapterID == id {
			s.active.ChapterID = ""
		}
	}
}

// Reconcile clears levels whose node is missing from courses, such as
// rows deleted by another session. It reports whether anything changed.
func (s *Selection) Reconcile(courses []models.Course) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	before := s.active

	// Parent links are immutable, so presence alone keeps a level valid
	switch {
	case s.active.CourseID != "" && !models.Contains(courses, models.KindCourse, s.active.CourseID):
		s.active = Active{}
	case s.active.BatchID != "" && !models.Contains(courses, models.KindBatch, s.active.BatchID):
		s.active.BatchID = ""
		s.active.ChapterID = ""
	case s.active.ChapterID != "" && !models.Contains(courses, models.KindChapter, s.active.ChapterID):
		s.active.ChapterID = ""
	}
	return s.active != before
}

// Resolve looks the active ids up in courses
func (s *Selection) Resolve(courses []models.Course) Resolved {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return resolve(courses, s.active)
}

// caller holds s.mu
func (s *Selection) checkBatch(b *models.Batch) error {
	if s.active.CourseID == "" {
		return fmt.Errorf("%w: select a course first", domain.ErrValidation)
	}
	if b.CourseID != s.active.CourseID {
		return fmt.Errorf("%w: batch %s does not belong to the selected course", domain.ErrValidation, b.ID)
	}
	return nil
}

// caller holds s.mu
func (s *Selection) checkChapter(ch *models.Chapter) error {
	if s.active.BatchID == "" {
		return fmt.Errorf("%w: select a batch first", domain.ErrValidation)
	}
	if ch.BatchID != s.active.BatchID {
		return fmt.Errorf("%w: chapter %s does not belong to the selected batch", domain.ErrValidation, ch.ID)
	}
	return nil
}

// Resolved is the selection chain as nodes of a snapshot
type Resolved struct {
	Course  *models.Course  `json:"course,omitempty"`
	Batch   *models.Batch   `json:"batch,omitempty"`
	Chapter *models.Chapter `json:"chapter,omitempty"`
}

// resolve follows the chain; a level resolves only if its parent did
func resolve(courses []models.Course, active Active) Resolved {
	var r Resolved
	if active.CourseID == "" {
		return r
	}
	if r.Course = models.FindCourse(courses, active.CourseID); r.Course == nil {
		return r
	}
	if active.BatchID == "" {
		return r
	}
	if r.Batch = r.Course.FindBatch(active.BatchID); r.Batch == nil {
		return r
	}
	if active.ChapterID != "" {
		r.Chapter = r.Batch.FindChapter(active.ChapterID)
	}
	return r
}

type node struct {
	course  *models.Course
	batch   *models.Batch
	chapter *models.Chapter
	content *models.Content
}

// locate finds a node of kind anywhere in the snapshot
func locate(courses []models.Course, kind models.Kind, id string) (node, error) {
	for i := range courses {
		c := &courses[i]
		if kind == models.KindCourse && c.ID == id {
			return node{course: c}, nil
		}
		for j := range c.Batches {
			b := &c.Batches[j]
			if kind == models.KindBatch && b.ID == id {
				return node{course: c, batch: b}, nil
			}
			for k := range b.Chapters {
				ch := &b.Chapters[k]
				if kind == models.KindChapter && ch.ID == id {
					return node{course: c, batch: b, chapter: ch}, nil
				}
				for l := range ch.Contents {
					if kind == models.KindContent && ch.Contents[l].ID == id {
						return node{course: c, batch: b, chapter: ch, content: &ch.Contents[l]}, nil
					}
				}
			}
		}
	}

	if kind.Depth() < 0 {
		return node{}, fmt.Errorf("%w: unknown catalog kind %q", domain.ErrValidation, kind)
	}
	return node{}, fmt.Errorf("%s %s: %w", kind.Singular(), id, domain.ErrNotFound)
}
