package catalog

import (
	"time"
)

// PlaceholderImage is shown for courses without an image link.
const PlaceholderImage = "https://source.unsplash.com/600x300/?education,learning"

type Course struct {
	ID          string    `json:"id" db:"id"`
	Title       string    `json:"title" db:"title"`
	Description string    `json:"description" db:"description"`
	Tag         string    `json:"tag" db:"tag"`
	Image       string    `json:"image" db:"image"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	Batches     []Batch   `json:"batches" db:"-"`
}

// DisplayImage returns the image link or the placeholder.
func (c *Course) DisplayImage() string {
	if c.Image == "" {
		return PlaceholderImage
	}
	return c.Image
}

// BatchCount is the number of batches owned by the course.
func (c *Course) BatchCount() int {
	return len(c.Batches)
}

// TotalChapters sums the chapter counts of every batch. Derived, never stored.
func (c *Course) TotalChapters() int {
	total := 0
	for i := range c.Batches {
		total += c.Batches[i].ChapterCount()
	}
	return total
}

// FindBatch returns the batch with the given id, or nil.
func (c *Course) FindBatch(id string) *Batch {
	for i := range c.Batches {
		if c.Batches[i].ID == id {
			return &c.Batches[i]
		}
	}
	return nil
}
