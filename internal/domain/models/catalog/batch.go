package catalog

import (
	"time"
)

type Batch struct {
	ID          string    `json:"id" db:"id"`
	CourseID    string    `json:"course_id" db:"course_id"`
	Title       string    `json:"title" db:"title"`
	Description string    `json:"description" db:"description"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	Chapters    []Chapter `json:"chapters" db:"-"`
}

// ChapterCount is the number of chapters owned by the batch.
func (b *Batch) ChapterCount() int {
	return len(b.Chapters)
}

// FindChapter returns the chapter with the given id, or nil.
func (b *Batch) FindChapter(id string) *Chapter {
	for i := range b.Chapters {
		if b.Chapters[i].ID == id {
			return &b.Chapters[i]
		}
	}
	return nil
}
