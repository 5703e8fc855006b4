package catalog

import (
	"errors"
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"github.com/angermaster11/eduhub/internal/config"
	"github.com/angermaster11/eduhub/internal/domain"
	models "github.com/angermaster11/eduhub/internal/domain/models/catalog"
	catalogRepo "github.com/angermaster11/eduhub/internal/domain/repositories/catalog"
)

// CourseDraft holds the add-course form fields
type CourseDraft struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Tag         string `json:"tag"`
	Image       string `json:"image"`
}

// BatchDraft holds the add-batch form fields
type BatchDraft struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// ChapterDraft holds the add-chapter form fields
type ChapterDraft struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// ContentDraft holds the add-content form fields
type ContentDraft struct {
	Title   string             `json:"title"`
	Type    models.ContentType `json:"type"`
	FileURL string             `json:"file_url"`
}

// NewContentDraft returns an empty draft with the default type selected
func NewContentDraft() ContentDraft {
	return ContentDraft{Type: models.DefaultContentType}
}

// notBlank rejects strings made only of whitespace
var notBlank = validation.By(func(value interface{}) error {
	s, _ := value.(string)
	if strings.TrimSpace(s) == "" {
		return errors.New("cannot be blank")
	}
	return nil
})

func titleRules() []validation.Rule {
	return []validation.Rule{
		validation.Required,
		notBlank,
		validation.RuneLength(1, config.MaxTitleLength),
	}
}

func descriptionRules() []validation.Rule {
	return []validation.Rule{validation.RuneLength(0, config.MaxDescriptionLength)}
}

// Validate implements validation.Validatable
func (d CourseDraft) Validate() error {
	return validation.ValidateStruct(&d,
		validation.Field(&d.Title, titleRules()...),
		validation.Field(&d.Description, descriptionRules()...),
		validation.Field(&d.Tag, validation.RuneLength(0, config.MaxTagLength)),
		validation.Field(&d.Image, validation.Length(0, config.MaxURLLength), is.URL),
	)
}

// Validate implements validation.Validatable
func (d BatchDraft) Validate() error {
	return validation.ValidateStruct(&d,
		validation.Field(&d.Title, titleRules()...),
		validation.Field(&d.Description, descriptionRules()...),
	)
}

// Validate implements validation.Validatable
func (d ChapterDraft) Validate() error {
	return validation.ValidateStruct(&d,
		validation.Field(&d.Title, titleRules()...),
		validation.Field(&d.Description, descriptionRules()...),
	)
}

// Validate implements validation.Validatable. An empty type means the
// default and passes.
func (d ContentDraft) Validate() error {
	return validation.ValidateStruct(&d,
		validation.Field(&d.Title, titleRules()...),
		validation.Field(&d.FileURL, validation.Required, notBlank, validation.Length(1, config.MaxURLLength)),
		validation.Field(&d.Type, validation.By(func(value interface{}) error {
			t, _ := value.(models.ContentType)
			if t == "" || t.Valid() {
				return nil
			}
			return fmt.Errorf("must be one of %v", models.ContentTypes)
		})),
	)
}

func (d CourseDraft) fields() catalogRepo.CourseFields {
	return catalogRepo.CourseFields{
		Title:       strings.TrimSpace(d.Title),
		Description: d.Description,
		Tag:         strings.TrimSpace(d.Tag),
		Image:       strings.TrimSpace(d.Image),
	}
}

func (d BatchDraft) fields() catalogRepo.BatchFields {
	return catalogRepo.BatchFields{Title: strings.TrimSpace(d.Title), Description: d.Description}
}

func (d ChapterDraft) fields() catalogRepo.ChapterFields {
	return catalogRepo.ChapterFields{Title: strings.TrimSpace(d.Title), Description: d.Description}
}

func (d ContentDraft) fields() catalogRepo.ContentFields {
	t := d.Type
	if t == "" {
		t = models.DefaultContentType
	}
	return catalogRepo.ContentFields{
		Title:   strings.TrimSpace(d.Title),
		Type:    t,
		FileURL: strings.TrimSpace(d.FileURL),
	}
}

// validateDraft wraps ozzo errors as domain validation errors
func validateDraft(d validation.Validatable) error {
	if err := d.Validate(); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	return nil
}
