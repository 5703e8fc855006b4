package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angermaster11/eduhub/internal/domain"
	models "github.com/angermaster11/eduhub/internal/domain/models/catalog"
	"github.com/angermaster11/eduhub/internal/events"
)

func selectPath(t *testing.T, m *Manager, batchIndex, chapterIndex int) *models.Course {
	t.Helper()
	course := goTree(t, m.State().TreeState.Courses)
	require.NoError(t, m.Select(models.KindCourse, course.ID))
	if batchIndex >= 0 {
		require.NoError(t, m.Select(models.KindBatch, course.Batches[batchIndex].ID))
	}
	if chapterIndex >= 0 {
		require.NoError(t, m.Select(models.KindChapter, course.Batches[batchIndex].Chapters[chapterIndex].ID))
	}
	return course
}

func TestManager_StateAggregates(t *testing.T) {
	m, _, _ := newTestManager(t)

	state := m.State()
	assert.Equal(t, StatusReady, state.Status)
	assert.Equal(t, 2, state.CourseCount)

	var goView CourseView
	for _, c := range state.Courses {
		if c.Title == "Go" {
			goView = c
		}
	}
	assert.Equal(t, 2, goView.BatchCount)
	assert.Equal(t, 4, goView.TotalChapters)
	assert.Equal(t, 3, goView.Batches[0].ChapterCount)
	assert.Equal(t, 1, goView.Batches[0].Chapters[0].ContentCount)
	assert.Equal(t, models.PlaceholderImage, goView.DisplayImage)
}

func TestManager_AddBatchWithEmptyTitleIsNoop(t *testing.T) {
	m, store, _ := newTestManager(t)
	selectPath(t, m, -1, -1)
	fetches := store.count("fetch")

	draft := &BatchDraft{Title: "", Description: "keep me"}
	err := m.AddBatch(context.Background(), draft)

	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Equal(t, 0, store.writes(), "no store call")
	assert.Equal(t, fetches, store.count("fetch"))
	assert.Equal(t, BatchDraft{Title: "", Description: "keep me"}, *draft, "fields unchanged")
}

func TestManager_AddContentRequiresFileURL(t *testing.T) {
	m, store, _ := newTestManager(t)
	selectPath(t, m, 0, 0)

	draft := &ContentDraft{Title: "Slides", Type: models.ContentPDF}
	assert.ErrorIs(t, m.AddContent(context.Background(), draft), domain.ErrValidation)
	assert.Equal(t, 0, store.writes())
	assert.Equal(t, "Slides", draft.Title)
}

func TestManager_AddScopedToSelection(t *testing.T) {
	m, store, bus := newTestManager(t)
	ctx := context.Background()

	var published []events.Event
	bus.Subscribe(events.TopicCatalog, func(_ context.Context, e events.Event) { published = append(published, e) })

	// No course selected yet
	err := m.AddBatch(ctx, &BatchDraft{Title: "Weekend"})
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Equal(t, 0, store.writes())

	course := selectPath(t, m, 1, 0)
	draft := &ContentDraft{Title: "Quiz", Type: models.ContentDocument, FileURL: "https://cdn.example.com/q.pdf"}
	require.NoError(t, m.AddContent(ctx, draft))

	assert.Equal(t, NewContentDraft(), *draft, "draft reset with default type")

	updated := goTree(t, m.State().TreeState.Courses)
	assert.Equal(t, course.ID, updated.ID)
	chapter := updated.Batches[1].Chapters[0]
	require.Len(t, chapter.Contents, 1)
	assert.Equal(t, "Quiz", chapter.Contents[0].Title)
	assert.Equal(t, models.ContentDocument, chapter.Contents[0].Type)

	require.Len(t, published, 1)
	assert.Equal(t, events.CatalogCreated, published[0].Type)
	assert.Equal(t, "admin-1", published[0].UserID)
}

func TestManager_AddCourseDefaultsAndReset(t *testing.T) {
	m, _, _ := newTestManager(t)

	draft := &CourseDraft{Title: "  Kotlin  ", Tag: "mobile"}
	require.NoError(t, m.AddCourse(context.Background(), draft))

	assert.Equal(t, CourseDraft{}, *draft)
	state := m.State()
	assert.Equal(t, 3, state.CourseCount)
	assert.Equal(t, "Kotlin", state.Courses[0].Title, "newest first")
}

func TestManager_AddUnderParentDeletedElsewhere(t *testing.T) {
	m, store, _ := newTestManager(t)
	ctx := context.Background()
	course := selectPath(t, m, 0, -1)

	// Another admin removes the batch
	require.NoError(t, store.Store.Delete(ctx, models.KindBatch, course.Batches[0].ID))

	err := m.AddChapter(ctx, &ChapterDraft{Title: "Generics"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, 0, store.count("insert"))
	assert.Equal(t, Active{CourseID: course.ID}, m.Selection(), "stale batch dropped after refetch")
}

func TestManager_DeleteRequiresConfirmation(t *testing.T) {
	m, store, _ := newTestManager(t)
	course := selectPath(t, m, 0, 0)

	err := m.Delete(context.Background(), models.KindBatch, course.Batches[0].ID, false)
	assert.ErrorIs(t, err, domain.ErrConfirmationRequired)
	assert.Equal(t, 0, store.count("delete"))
	assert.Equal(t, course.Batches[0].Chapters[0].ID, m.Selection().ChapterID)
}

func TestManager_DeleteActiveBatchClearsChapter(t *testing.T) {
	m, store, _ := newTestManager(t)
	course := selectPath(t, m, 0, 1)

	require.NoError(t, m.Delete(context.Background(), models.KindBatch, course.Batches[0].ID, true))

	assert.Equal(t, Active{CourseID: course.ID}, m.Selection())
	assert.Equal(t, 0, store.RowCount(models.KindContent), "descendants removed")

	updated := goTree(t, m.State().TreeState.Courses)
	assert.Equal(t, 1, updated.BatchCount())
	assert.Equal(t, 1, updated.TotalChapters())
}

func TestManager_DeleteActiveCourseClearsAll(t *testing.T) {
	m, _, _ := newTestManager(t)
	course := selectPath(t, m, 1, 0)

	require.NoError(t, m.Delete(context.Background(), models.KindCourse, course.ID, true))

	assert.Equal(t, Active{}, m.Selection())
	assert.Equal(t, 1, m.State().CourseCount)
}

func TestManager_FailedDeleteLeavesStateUntouched(t *testing.T) {
	m, store, _ := newTestManager(t)
	course := selectPath(t, m, 0, 0)
	before := m.State()

	store.setFail(false, true)
	err := m.Delete(context.Background(), models.KindBatch, course.Batches[0].ID, true)

	var storeErr *domain.StoreError
	require.ErrorAs(t, err, &storeErr)
	after := m.State()
	assert.Equal(t, before.Active, after.Active)
	assert.Equal(t, before.Courses, after.Courses)
	assert.Equal(t, StatusReady, after.Status)
}

func TestManager_DeleteSucceedsWhenRefetchFails(t *testing.T) {
	m, store, _ := newTestManager(t)
	course := selectPath(t, m, 0, 0)

	store.setFail(true, false)
	require.NoError(t, m.Delete(context.Background(), models.KindBatch, course.Batches[0].ID, true))

	state := m.State()
	assert.Equal(t, StatusError, state.Status, "refetch failure is reported on the model")
	assert.Equal(t, Active{CourseID: course.ID}, state.Active, "cascade still applied")
}

func TestManager_UpdateCannotBlankTitle(t *testing.T) {
	m, store, _ := newTestManager(t)
	course := goTree(t, m.State().TreeState.Courses)

	err := m.UpdateCourse(context.Background(), course.ID, CourseDraft{Title: "   "})
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Equal(t, 0, store.count("update"))

	require.NoError(t, m.UpdateCourse(context.Background(), course.ID, CourseDraft{Title: "Go, revised", Tag: "backend"}))
	assert.Equal(t, "Go, revised", goTreeByID(t, m, course.ID).Title)
}

func TestManager_SelectUnknown(t *testing.T) {
	m, _, _ := newTestManager(t)
	assert.ErrorIs(t, m.Select(models.KindCourse, "missing"), domain.ErrNotFound)
	assert.ErrorIs(t, m.Select(models.KindContent, "missing"), domain.ErrNotFound)
}

func goTreeByID(t *testing.T, m *Manager, id string) *models.Course {
	t.Helper()
	c := models.FindCourse(m.State().TreeState.Courses, id)
	require.NotNil(t, c)
	return c
}

func TestManager_StateViewsMirrorSnapshot(t *testing.T) {
	m, _, _ := newTestManager(t)

	state := m.State()
	require.Len(t, state.Courses, len(state.TreeState.Courses))
	for i, view := range state.Courses {
		raw := state.TreeState.Courses[i]
		assert.Equal(t, raw.ID, view.ID)
		assert.Equal(t, raw.BatchCount(), view.BatchCount)
		assert.Equal(t, raw.TotalChapters(), view.TotalChapters)
	}
}
