package catalog

import (
	"context"

	"github.com/angermaster11/eduhub/internal/domain/models/catalog"
)

// CourseFields are the writable columns of a course row
type CourseFields struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Tag         string `json:"tag"`
	Image       string `json:"image"`
}

// BatchFields are the writable columns of a batch row
type BatchFields struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// ChapterFields are the writable columns of a chapter row
type ChapterFields struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// ContentFields are the writable columns of a chapter_contents row
type ContentFields struct {
	Title   string              `json:"title"`
	Type    catalog.ContentType `json:"type"`
	FileURL string              `json:"file_url"`
}

// Fetcher is the read side used by the tree model.
type Fetcher interface {
	// FetchAllCourses returns every course with batches, chapters and
	// contents nested, ordered by created_at descending.
	FetchAllCourses(ctx context.Context) ([]catalog.Course, error)
}

// Store is the catalog storage collaborator.
//
// Every write touches exactly one row scoped to the given parent and
// returns nothing: callers refetch the tree afterwards.
type Store interface {
	Fetcher

	// FetchCourse returns one course fully nested.
	// Returns domain.ErrNotFound when the id is unknown.
	FetchCourse(ctx context.Context, id string) (*catalog.Course, error)

	InsertCourse(ctx context.Context, fields CourseFields) error
	InsertBatch(ctx context.Context, courseID string, fields BatchFields) error
	InsertChapter(ctx context.Context, batchID string, fields ChapterFields) error
	InsertContent(ctx context.Context, chapterID string, fields ContentFields) error

	// Update methods overwrite the writable columns; parent links never change.
	UpdateCourse(ctx context.Context, id string, fields CourseFields) error
	UpdateBatch(ctx context.Context, id string, fields BatchFields) error
	UpdateChapter(ctx context.Context, id string, fields ChapterFields) error
	UpdateContent(ctx context.Context, id string, fields ContentFields) error

	// Exists reports whether a row of the given kind is present.
	// Used to check a parent before inserting a child.
	Exists(ctx context.Context, kind catalog.Kind, id string) (bool, error)

	// Delete removes one row by id together with all of its descendants.
	// Returns domain.ErrNotFound when the id is unknown.
	Delete(ctx context.Context, kind catalog.Kind, id string) error
}
