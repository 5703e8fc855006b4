package config

const (
	// MaxTitleLength is the maximum length for course, batch, chapter and
	// content titles. Limited to 255 to fit in PostgreSQL VARCHAR(255).
	MaxTitleLength = 255

	// MaxDescriptionLength bounds free-text descriptions on every level.
	MaxDescriptionLength = 2000

	// MaxTagLength is the maximum length for a course category label.
	MaxTagLength = 64

	// MaxURLLength bounds image and file links. Links are opaque, only
	// their size is checked.
	MaxURLLength = 2048

	// MinPasswordLength matches the GoTrue default minimum.
	MinPasswordLength = 6
)
