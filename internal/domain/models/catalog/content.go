package catalog

import (
	"time"
)

// ContentType enumerates the kinds of linked material.
type ContentType string

const (
	ContentVideo    ContentType = "video"
	ContentPDF      ContentType = "pdf"
	ContentAudio    ContentType = "audio"
	ContentDocument ContentType = "document"

	// DefaultContentType is preselected on new content drafts
	DefaultContentType = ContentVideo
)

// ContentTypes lists the accepted values in display order.
var ContentTypes = []ContentType{ContentVideo, ContentPDF, ContentAudio, ContentDocument}

// Valid reports whether t is one of ContentTypes.
func (t ContentType) Valid() bool {
	for _, known := range ContentTypes {
		if t == known {
			return true
		}
	}
	return false
}

type Content struct {
	ID        string      `json:"id" db:"id"`
	ChapterID string      `json:"chapter_id" db:"chapter_id"`
	Title     string      `json:"title" db:"title"`
	Type      ContentType `json:"type" db:"type"`
	FileURL   string      `json:"file_url" db:"file_url"` // externally hosted, never fetched
	CreatedAt time.Time   `json:"created_at" db:"created_at"`
}
