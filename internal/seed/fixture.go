// Package seed loads the demo catalog and prepares the database schema.
package seed

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"log/slog"

	"gopkg.in/yaml.v3"

	models "github.com/angermaster11/eduhub/internal/domain/models/catalog"
	catalogRepo "github.com/angermaster11/eduhub/internal/domain/repositories/catalog"
)

//go:embed catalog.yaml
var demoCatalog []byte

// Fixture is a catalog described top-down
type Fixture struct {
	Courses []CourseFixture `yaml:"courses"`
}

type CourseFixture struct {
	Title       string         `yaml:"title"`
	Description string         `yaml:"description"`
	Tag         string         `yaml:"tag"`
	Image       string         `yaml:"image"`
	Batches     []BatchFixture `yaml:"batches"`
}

type BatchFixture struct {
	Title       string           `yaml:"title"`
	Description string           `yaml:"description"`
	Chapters    []ChapterFixture `yaml:"chapters"`
}

type ChapterFixture struct {
	Title       string           `yaml:"title"`
	Description string           `yaml:"description"`
	Contents    []ContentFixture `yaml:"contents"`
}

type ContentFixture struct {
	Title   string             `yaml:"title"`
	Type    models.ContentType `yaml:"type"`
	FileURL string             `yaml:"file_url"`
}

// Counts tallies the rows a fixture produces, per level
type Counts struct {
	Courses, Batches, Chapters, Contents int
}

// DemoFixture parses the embedded demo catalog
func DemoFixture() (*Fixture, error) {
	return ParseFixture(demoCatalog)
}

// ParseFixture decodes a YAML catalog. Unknown keys are rejected.
func ParseFixture(data []byte) (*Fixture, error) {
	var f Fixture
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("parse catalog fixture: %w", err)
	}
	for _, c := range f.Courses {
		for _, b := range c.Batches {
			for _, ch := range b.Chapters {
				for _, ct := range ch.Contents {
					if ct.Type != "" && !ct.Type.Valid() {
						return nil, fmt.Errorf("content %q: unknown type %q", ct.Title, ct.Type)
					}
				}
			}
		}
	}
	return &f, nil
}

// Counts returns how many rows Apply will insert
func (f *Fixture) Counts() Counts {
	var n Counts
	for _, c := range f.Courses {
		n.Courses++
		for _, b := range c.Batches {
			n.Batches++
			for _, ch := range b.Chapters {
				n.Chapters++
				n.Contents += len(ch.Contents)
			}
		}
	}
	return n
}

// Apply inserts the fixture through the store. Inserts do not return ids,
// so each new row is found by diffing the tree before and after.
func Apply(ctx context.Context, store catalogRepo.Store, f *Fixture, logger *slog.Logger) error {
	for _, cf := range f.Courses {
		before, err := store.FetchAllCourses(ctx)
		if err != nil {
			return err
		}
		err = store.InsertCourse(ctx, catalogRepo.CourseFields{
			Title: cf.Title, Description: cf.Description, Tag: cf.Tag, Image: cf.Image,
		})
		if err != nil {
			return fmt.Errorf("course %q: %w", cf.Title, err)
		}
		after, err := store.FetchAllCourses(ctx)
		if err != nil {
			return err
		}
		courseID, err := newID(courseIDs(before), courseIDs(after))
		if err != nil {
			return fmt.Errorf("course %q: %w", cf.Title, err)
		}

		for _, bf := range cf.Batches {
			if err := applyBatch(ctx, store, courseID, bf); err != nil {
				return fmt.Errorf("course %q: %w", cf.Title, err)
			}
		}
		logger.Info("seeded course", "title", cf.Title, "batches", len(cf.Batches))
	}
	return nil
}

func applyBatch(ctx context.Context, store catalogRepo.Store, courseID string, bf BatchFixture) error {
	batchID, err := insertChild(ctx, store, courseID, batchIDs, func() error {
		return store.InsertBatch(ctx, courseID, catalogRepo.BatchFields{Title: bf.Title, Description: bf.Description})
	})
	if err != nil {
		return fmt.Errorf("batch %q: %w", bf.Title, err)
	}

	for _, chf := range bf.Chapters {
		chapterID, err := insertChild(ctx, store, courseID, chapterIDs, func() error {
			return store.InsertChapter(ctx, batchID, catalogRepo.ChapterFields{Title: chf.Title, Description: chf.Description})
		})
		if err != nil {
			return fmt.Errorf("chapter %q: %w", chf.Title, err)
		}

		for _, ctf := range chf.Contents {
			contentType := ctf.Type
			if contentType == "" {
				contentType = models.DefaultContentType
			}
			err := store.InsertContent(ctx, chapterID, catalogRepo.ContentFields{
				Title: ctf.Title, Type: contentType, FileURL: ctf.FileURL,
			})
			if err != nil {
				return fmt.Errorf("content %q: %w", ctf.Title, err)
			}
		}
	}
	return nil
}

// insertChild runs insert and returns the id it added under courseID
func insertChild(ctx context.Context, store catalogRepo.Store, courseID string, ids func(*models.Course) map[string]bool, insert func() error) (string, error) {
	before, err := store.FetchCourse(ctx, courseID)
	if err != nil {
		return "", err
	}
	if err := insert(); err != nil {
		return "", err
	}
	after, err := store.FetchCourse(ctx, courseID)
	if err != nil {
		return "", err
	}
	return newID(ids(before), ids(after))
}

func newID(before, after map[string]bool) (string, error) {
	for id := range after {
		if !before[id] {
			return id, nil
		}
	}
	return "", fmt.Errorf("inserted row not visible after refetch")
}

func courseIDs(courses []models.Course) map[string]bool {
	ids := make(map[string]bool, len(courses))
	for _, c := range courses {
		ids[c.ID] = true
	}
	return ids
}

func batchIDs(c *models.Course) map[string]bool {
	ids := make(map[string]bool)
	for _, b := range c.Batches {
		ids[b.ID] = true
	}
	return ids
}

func chapterIDs(c *models.Course) map[string]bool {
	ids := make(map[string]bool)
	for _, b := range c.Batches {
		for _, ch := range b.Chapters {
			ids[ch.ID] = true
		}
	}
	return ids
}
