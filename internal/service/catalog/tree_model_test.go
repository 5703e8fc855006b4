package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	models "github.com/angermaster11/eduhub/internal/domain/models/catalog"
	catalogRepo "github.com/angermaster11/eduhub/internal/domain/repositories/catalog"
)

// gatedFetcher blocks inside FetchAllCourses until released
type gatedFetcher struct {
	entered chan struct{}
	release chan struct{}
	courses []models.Course
}

func (g *gatedFetcher) FetchAllCourses(ctx context.Context) ([]models.Course, error) {
	g.entered <- struct{}{}
	<-g.release
	return g.courses, nil
}

func TestTreeModel_FirstLoad(t *testing.T) {
	store := newSpyStore()
	seedCatalog(t, store)
	m := NewTreeModel(store, testLogger())

	state := m.State()
	assert.Equal(t, StatusLoading, state.Status)
	assert.Nil(t, state.Courses)
	assert.False(t, m.Loaded())

	require.NoError(t, m.Refetch(context.Background()))

	state = m.State()
	assert.Equal(t, StatusReady, state.Status)
	assert.Len(t, state.Courses, 2)
	assert.NotNil(t, state.FetchedAt)
	assert.Equal(t, 4, goTree(t, state.Courses).TotalChapters())
}

func TestTreeModel_ErrorKeepsStaleSnapshot(t *testing.T) {
	store := newSpyStore()
	seedCatalog(t, store)
	m := NewTreeModel(store, testLogger())
	require.NoError(t, m.Refetch(context.Background()))
	before := m.Courses()

	store.setFail(true, false)
	err := m.Refetch(context.Background())
	require.Error(t, err)

	state := m.State()
	assert.Equal(t, StatusError, state.Status)
	assert.Contains(t, state.Error, "connection refused")
	assert.Equal(t, before, state.Courses, "previous snapshot stays visible")

	store.setFail(false, false)
	require.NoError(t, m.Refetch(context.Background()))
	state = m.State()
	assert.Equal(t, StatusReady, state.Status)
	assert.Empty(t, state.Error)
}

func TestTreeModel_FirstLoadErrorHasNoData(t *testing.T) {
	store := newSpyStore()
	store.setFail(true, false)
	m := NewTreeModel(store, testLogger())

	require.Error(t, m.Refetch(context.Background()))
	state := m.State()
	assert.Equal(t, StatusError, state.Status)
	assert.Nil(t, state.Courses)
	assert.Nil(t, state.FetchedAt)
}

func TestTreeModel_StaleWhileRevalidate(t *testing.T) {
	gate := &gatedFetcher{
		entered: make(chan struct{}),
		release: make(chan struct{}),
		courses: []models.Course{{ID: "old"}},
	}
	m := NewTreeModel(gate, testLogger())

	done := make(chan error)
	go func() { done <- m.Refetch(context.Background()) }()
	<-gate.entered

	state := m.State()
	assert.Equal(t, StatusLoading, state.Status, "first load has no data to show")
	assert.False(t, state.Refreshing)

	close(gate.release)
	require.NoError(t, <-done)

	// Second fetch: the old snapshot stays visible while in flight
	gate.release = make(chan struct{})
	gate.courses = []models.Course{{ID: "new"}}
	go func() { done <- m.Refetch(context.Background()) }()
	<-gate.entered

	state = m.State()
	assert.Equal(t, StatusReady, state.Status)
	assert.True(t, state.Refreshing)
	require.Len(t, state.Courses, 1)
	assert.Equal(t, "old", state.Courses[0].ID)

	close(gate.release)
	require.NoError(t, <-done)

	state = m.State()
	assert.False(t, state.Refreshing)
	assert.Equal(t, "new", state.Courses[0].ID)
}

func TestTreeModel_EnsureLoadedFetchesOnce(t *testing.T) {
	store := newSpyStore()
	m := NewTreeModel(store, testLogger())

	require.NoError(t, m.EnsureLoaded(context.Background()))
	require.NoError(t, m.EnsureLoaded(context.Background()))
	assert.Equal(t, 1, store.count("fetch"))
	assert.NotNil(t, m.Courses(), "empty catalog is an empty snapshot, not nil")
}

var _ catalogRepo.Fetcher = (*gatedFetcher)(nil)
