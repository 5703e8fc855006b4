package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angermaster11/eduhub/internal/domain/models"
	catalogModels "github.com/angermaster11/eduhub/internal/domain/models/catalog"
	catalogRepo "github.com/angermaster11/eduhub/internal/domain/repositories/catalog"
	"github.com/angermaster11/eduhub/internal/events"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func newTestWorkspaces(t *testing.T) (*Workspaces, *spyStore, *events.LocalBus, *fakeClock) {
	t.Helper()
	store := newSpyStore()
	seedCatalog(t, store)
	bus := events.NewLocalBus(nil)
	public := NewTreeModel(store, testLogger())
	require.NoError(t, public.Refetch(context.Background()))

	clock := &fakeClock{t: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	w := NewWorkspaces(store, public, bus, testLogger())
	w.now = clock.now
	return w, store, bus, clock
}

func TestWorkspaces_ViewerPerSession(t *testing.T) {
	w, _, _, _ := newTestWorkspaces(t)

	a := w.Viewer("session-a")
	assert.Same(t, a, w.Viewer("session-a"))
	assert.NotSame(t, a, w.Viewer("session-b"))

	a.SetQuery("go")
	assert.Empty(t, w.Viewer("session-b").Query(), "sessions do not share queries")

	viewers, managers := w.Counts()
	assert.Equal(t, 2, viewers)
	assert.Equal(t, 0, managers)
}

func TestWorkspaces_ManagerLoadsOnce(t *testing.T) {
	w, store, _, _ := newTestWorkspaces(t)
	fetches := store.count("fetch")

	m := w.Manager(context.Background(), "admin-1")
	assert.Equal(t, StatusReady, m.State().Status)
	assert.Same(t, m, w.Manager(context.Background(), "admin-1"))
	assert.Equal(t, fetches+1, store.count("fetch"))
}

func TestWorkspaces_ManagerFailedLoadStillReturned(t *testing.T) {
	w, store, _, _ := newTestWorkspaces(t)
	store.setFail(true, false)

	m := w.Manager(context.Background(), "admin-1")
	require.NotNil(t, m)
	assert.Equal(t, StatusError, m.State().Status)

	store.setFail(false, false)
	m = w.Manager(context.Background(), "admin-1")
	assert.Equal(t, StatusReady, m.State().Status, "next access retries")
}

func TestWorkspaces_Prune(t *testing.T) {
	w, _, _, clock := newTestWorkspaces(t)
	ctx := context.Background()

	w.Viewer("old")
	w.Manager(ctx, "admin-old")

	clock.t = clock.t.Add(45 * time.Minute)
	w.Viewer("fresh")
	w.Manager(ctx, "admin-fresh")

	clock.t = clock.t.Add(10 * time.Minute)
	viewers, managers := w.Prune(30 * time.Minute)
	assert.Equal(t, 1, viewers)
	assert.Equal(t, 1, managers)

	viewers, managers = w.Counts()
	assert.Equal(t, 1, viewers)
	assert.Equal(t, 1, managers)
}

func TestWorkspaces_WatchRefreshesPublicAndDropsOnSignOut(t *testing.T) {
	w, store, bus, _ := newTestWorkspaces(t)
	ctx := context.Background()

	var authHandler func(models.AuthEvent)
	unsubscribed := false
	stop := w.Watch(func(fn func(models.AuthEvent)) func() {
		authHandler = fn
		return func() { unsubscribed = true }
	})
	require.NotNil(t, authHandler)

	m := w.Manager(ctx, "admin-1")
	require.NoError(t, m.AddCourse(ctx, &CourseDraft{Title: "Haskell"}))

	assert.Len(t, w.Public().Courses(), 3, "public model refreshed by the catalog event")

	authHandler(models.AuthEvent{Type: models.AuthTokenRefreshed, UserID: "admin-1"})
	_, managers := w.Counts()
	assert.Equal(t, 1, managers)

	authHandler(models.AuthEvent{Type: models.AuthSignedOut, UserID: "admin-1"})
	_, managers = w.Counts()
	assert.Equal(t, 0, managers)

	stop()
	assert.True(t, unsubscribed)

	fetches := store.count("fetch")
	require.NoError(t, bus.Publish(ctx, events.Event{Topic: events.TopicCatalog, Type: events.CatalogDeleted}))
	assert.Equal(t, fetches, store.count("fetch"), "no refresh after stop")
}

func TestScheduler(t *testing.T) {
	w, store, _, clock := newTestWorkspaces(t)

	_, err := NewScheduler(w, "every sometimes", time.Hour, testLogger())
	assert.Error(t, err)

	s, err := NewScheduler(w, "@every 5m", 30*time.Minute, testLogger())
	require.NoError(t, err)

	require.NoError(t, store.Store.InsertCourse(context.Background(), catalogRepo.CourseFields{Title: "Zig"}))
	s.RefreshPublic()
	assert.Len(t, w.Public().Courses(), 3)

	w.Viewer("idle")
	clock.t = clock.t.Add(time.Hour)
	s.PruneIdle()
	viewers, _ := w.Counts()
	assert.Equal(t, 0, viewers)

	s.Start()
	s.Stop()
}

func TestScheduler_RefreshFailureKeepsSnapshot(t *testing.T) {
	w, store, _, _ := newTestWorkspaces(t)
	s, err := NewScheduler(w, "@hourly", time.Hour, testLogger())
	require.NoError(t, err)

	store.setFail(true, false)
	s.RefreshPublic()

	state := w.Public().State()
	assert.Equal(t, StatusError, state.Status)
	assert.Len(t, state.Courses, 2)
	assert.Equal(t, catalogModels.PlaceholderImage, NewCourseViews(state.Courses)[0].DisplayImage)
}
