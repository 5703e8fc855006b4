package catalog

import (
	"time"
)

type Chapter struct {
	ID          string    `json:"id" db:"id"`
	BatchID     string    `json:"batch_id" db:"batch_id"`
	Title       string    `json:"title" db:"title"`
	Description string    `json:"description" db:"description"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	Contents    []Content `json:"chapter_contents" db:"-"`
}

// ContentCount is the number of content items in the chapter.
func (ch *Chapter) ContentCount() int {
	return len(ch.Contents)
}
