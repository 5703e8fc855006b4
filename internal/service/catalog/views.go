package catalog

import (
	models "github.com/angermaster11/eduhub/internal/domain/models/catalog"
)

// CourseView adds the derived counts to a course for presentation.
// Counts are computed when the view is built, never stored.
type CourseView struct {
	models.Course
	DisplayImage  string      `json:"display_image"`
	BatchCount    int         `json:"batch_count"`
	TotalChapters int         `json:"total_chapters"`
	Batches       []BatchView `json:"batches"`
}

// BatchView adds the chapter count to a batch
type BatchView struct {
	models.Batch
	ChapterCount int           `json:"chapter_count"`
	Chapters     []ChapterView `json:"chapters"`
}

// ChapterView adds the content count to a chapter
type ChapterView struct {
	models.Chapter
	ContentCount int `json:"content_count"`
}

// NewCourseView builds the view for one course
func NewCourseView(c *models.Course) CourseView {
	view := CourseView{
		Course:        *c,
		DisplayImage:  c.DisplayImage(),
		BatchCount:    c.BatchCount(),
		TotalChapters: c.TotalChapters(),
		Batches:       make([]BatchView, 0, len(c.Batches)),
	}
	for i := range c.Batches {
		b := &c.Batches[i]
		bv := BatchView{
			Batch:        *b,
			ChapterCount: b.ChapterCount(),
			Chapters:     make([]ChapterView, 0, len(b.Chapters)),
		}
		for j := range b.Chapters {
			ch := &b.Chapters[j]
			bv.Chapters = append(bv.Chapters, ChapterView{Chapter: *ch, ContentCount: ch.ContentCount()})
		}
		view.Batches = append(view.Batches, bv)
	}
	return view
}

// NewCourseViews builds views in snapshot order
func NewCourseViews(courses []models.Course) []CourseView {
	views := make([]CourseView, 0, len(courses))
	for i := range courses {
		views = append(views, NewCourseView(&courses[i]))
	}
	return views
}
