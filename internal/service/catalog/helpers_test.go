package catalog

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/angermaster11/eduhub/internal/domain"
	models "github.com/angermaster11/eduhub/internal/domain/models/catalog"
	catalogRepo "github.com/angermaster11/eduhub/internal/domain/repositories/catalog"
	"github.com/angermaster11/eduhub/internal/events"
	"github.com/angermaster11/eduhub/internal/repository/memory"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var errStoreDown = &domain.StoreError{Op: "fetch courses", Cause: errors.New("connection refused")}

// spyStore counts calls and can be told to fail
type spyStore struct {
	*memory.Store

	mu        sync.Mutex
	calls     map[string]int
	failFetch bool
	failWrite bool
}

func newSpyStore() *spyStore {
	return &spyStore{Store: memory.NewStore(nil), calls: make(map[string]int)}
}

func (s *spyStore) record(op string) {
	s.mu.Lock()
	s.calls[op]++
	s.mu.Unlock()
}

func (s *spyStore) count(op string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[op]
}

func (s *spyStore) writes() int {
	return s.count("insert") + s.count("update") + s.count("delete")
}

func (s *spyStore) setFail(fetch, write bool) {
	s.mu.Lock()
	s.failFetch, s.failWrite = fetch, write
	s.mu.Unlock()
}

func (s *spyStore) writeErr() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWrite {
		return &domain.StoreError{Op: "write", Cause: errors.New("connection refused")}
	}
	return nil
}

func (s *spyStore) FetchAllCourses(ctx context.Context) ([]models.Course, error) {
	s.record("fetch")
	s.mu.Lock()
	fail := s.failFetch
	s.mu.Unlock()
	if fail {
		return nil, errStoreDown
	}
	return s.Store.FetchAllCourses(ctx)
}

func (s *spyStore) InsertCourse(ctx context.Context, f catalogRepo.CourseFields) error {
	s.record("insert")
	if err := s.writeErr(); err != nil {
		return err
	}
	return s.Store.InsertCourse(ctx, f)
}

func (s *spyStore) InsertBatch(ctx context.Context, id string, f catalogRepo.BatchFields) error {
	s.record("insert")
	if err := s.writeErr(); err != nil {
		return err
	}
	return s.Store.InsertBatch(ctx, id, f)
}

func (s *spyStore) InsertChapter(ctx context.Context, id string, f catalogRepo.ChapterFields) error {
	s.record("insert")
	if err := s.writeErr(); err != nil {
		return err
	}
	return s.Store.InsertChapter(ctx, id, f)
}

func (s *spyStore) InsertContent(ctx context.Context, id string, f catalogRepo.ContentFields) error {
	s.record("insert")
	if err := s.writeErr(); err != nil {
		return err
	}
	return s.Store.InsertContent(ctx, id, f)
}

func (s *spyStore) UpdateCourse(ctx context.Context, id string, f catalogRepo.CourseFields) error {
	s.record("update")
	if err := s.writeErr(); err != nil {
		return err
	}
	return s.Store.UpdateCourse(ctx, id, f)
}

func (s *spyStore) Delete(ctx context.Context, kind models.Kind, id string) error {
	s.record("delete")
	if err := s.writeErr(); err != nil {
		return err
	}
	return s.Store.Delete(ctx, kind, id)
}

// seedCatalog writes one course "Go" with batches "A" (chapters a1, a2,
// a3) and "B" (chapter b1), plus a second course "Rust". Writes go to the
// embedded store so they are not counted.
func seedCatalog(t *testing.T, s *spyStore) {
	t.Helper()
	ctx := context.Background()
	mem := s.Store

	require.NoError(t, mem.InsertCourse(ctx, catalogRepo.CourseFields{Title: "Go", Description: "Concurrency in practice", Tag: "backend"}))
	require.NoError(t, mem.InsertCourse(ctx, catalogRepo.CourseFields{Title: "Rust", Tag: "systems"}))

	tree, err := mem.FetchAllCourses(ctx)
	require.NoError(t, err)
	goCourse := models.FindCourse(tree, courseIDByTitle(t, tree, "Go"))

	require.NoError(t, mem.InsertBatch(ctx, goCourse.ID, catalogRepo.BatchFields{Title: "A"}))
	require.NoError(t, mem.InsertBatch(ctx, goCourse.ID, catalogRepo.BatchFields{Title: "B"}))

	course, err := mem.FetchCourse(ctx, goCourse.ID)
	require.NoError(t, err)
	for _, title := range []string{"a1", "a2", "a3"} {
		require.NoError(t, mem.InsertChapter(ctx, course.Batches[0].ID, catalogRepo.ChapterFields{Title: title}))
	}
	require.NoError(t, mem.InsertChapter(ctx, course.Batches[1].ID, catalogRepo.ChapterFields{Title: "b1"}))

	course, err = mem.FetchCourse(ctx, goCourse.ID)
	require.NoError(t, err)
	require.NoError(t, mem.InsertContent(ctx, course.Batches[0].Chapters[0].ID, catalogRepo.ContentFields{
		Title: "Intro", Type: models.ContentVideo, FileURL: "https://cdn.example.com/intro.mp4",
	}))
}

func courseIDByTitle(t *testing.T, courses []models.Course, title string) string {
	t.Helper()
	for _, c := range courses {
		if c.Title == title {
			return c.ID
		}
	}
	t.Fatalf("course %q not in snapshot", title)
	return ""
}

// goTree returns the seeded Go course from a snapshot
func goTree(t *testing.T, courses []models.Course) *models.Course {
	t.Helper()
	return models.FindCourse(courses, courseIDByTitle(t, courses, "Go"))
}

func newTestManager(t *testing.T) (*Manager, *spyStore, *events.LocalBus) {
	t.Helper()
	store := newSpyStore()
	seedCatalog(t, store)
	bus := events.NewLocalBus(nil)

	m := NewManager("admin-1", store, bus, testLogger())
	require.NoError(t, m.Load(context.Background()))
	return m, store, bus
}
