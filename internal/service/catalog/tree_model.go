// Package catalog holds the catalog state shared by the public viewer and
// the admin manager: the fetched tree, the selection chain over it and the
// search projection.
package catalog

import (
	"context"
	"log/slog"
	"sync"
	"time"

	models "github.com/angermaster11/eduhub/internal/domain/models/catalog"
	catalogRepo "github.com/angermaster11/eduhub/internal/domain/repositories/catalog"
)

// Status is the load state of a TreeModel
type Status string

const (
	StatusLoading Status = "loading"
	StatusError   Status = "error"
	StatusReady   Status = "ready"
)

// TreeModel holds the latest snapshot of every course. A snapshot is
// replaced wholesale and never mutated, so readers may keep the slice
// returned by Courses without copying.
type TreeModel struct {
	mu         sync.RWMutex
	fetcher    catalogRepo.Fetcher
	courses    []models.Course
	loaded     bool
	status     Status
	lastErr    error
	refreshing int
	fetchedAt  time.Time
	logger     *slog.Logger
}

// TreeState is a read-only view of the model for presentation
type TreeState struct {
	Status     Status          `json:"status"`
	Error      string          `json:"error,omitempty"`
	Refreshing bool            `json:"refreshing"`
	FetchedAt  *time.Time      `json:"fetched_at,omitempty"`
	Courses    []models.Course `json:"-"`
}

// NewTreeModel creates a model in the loading state
func NewTreeModel(fetcher catalogRepo.Fetcher, logger *slog.Logger) *TreeModel {
	return &TreeModel{
		fetcher: fetcher,
		status:  StatusLoading,
		logger:  logger,
	}
}

// Refetch re-runs the full fetch. On success the snapshot is replaced; on
// failure the previous snapshot stays visible and the status becomes
// error. Concurrent refetches are not ordered: the last to finish wins.
func (m *TreeModel) Refetch(ctx context.Context) error {
	m.mu.Lock()
	m.refreshing++
	m.mu.Unlock()

	courses, err := m.fetcher.FetchAllCourses(ctx)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.refreshing--

	if err != nil {
		m.status = StatusError
		m.lastErr = err
		m.logger.Warn("catalog fetch failed", "error", err, "stale_snapshot", m.loaded)
		return err
	}

	if courses == nil {
		courses = []models.Course{}
	}
	m.courses = courses
	m.loaded = true
	m.status = StatusReady
	m.lastErr = nil
	m.fetchedAt = time.Now()

	m.logger.Debug("catalog snapshot replaced", "courses", len(courses))
	return nil
}

// EnsureLoaded fetches only if no snapshot has ever been loaded
func (m *TreeModel) EnsureLoaded(ctx context.Context) error {
	if m.Loaded() {
		return nil
	}
	return m.Refetch(ctx)
}

// Loaded reports whether any fetch has succeeded
func (m *TreeModel) Loaded() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.loaded
}

// Courses returns the current snapshot, nil before the first load
func (m *TreeModel) Courses() []models.Course {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.courses
}

// State returns status, error and snapshot in one consistent read.
// Until the first load the status stays loading, even while refreshing.
func (m *TreeModel) State() TreeState {
	m.mu.RLock()
	defer m.mu.RUnlock()

	state := TreeState{
		Status:     m.status,
		Refreshing: m.refreshing > 0 && m.loaded,
		Courses:    m.courses,
	}
	if m.lastErr != nil {
		state.Error = m.lastErr.Error()
	}
	if m.loaded {
		fetchedAt := m.fetchedAt
		state.FetchedAt = &fetchedAt
	}
	if !m.loaded && m.refreshing > 0 {
		state.Status = StatusLoading
	}
	return state
}
