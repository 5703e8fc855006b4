package catalog

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/angermaster11/eduhub/internal/domain/models"
	catalogRepo "github.com/angermaster11/eduhub/internal/domain/repositories/catalog"
	"github.com/angermaster11/eduhub/internal/events"
)

// Workspaces hands out per-session viewers and per-admin managers,
// creating them on first use.
type Workspaces struct {
	store  catalogRepo.Store
	public *TreeModel
	bus    events.Bus
	logger *slog.Logger
	now    func() time.Time

	mu       sync.Mutex
	viewers  map[string]*viewerEntry
	managers map[string]*managerEntry
}

type viewerEntry struct {
	viewer   *Viewer
	lastSeen time.Time
}

type managerEntry struct {
	manager  *Manager
	lastSeen time.Time
}

// NewWorkspaces creates an empty registry around the shared public model
func NewWorkspaces(store catalogRepo.Store, public *TreeModel, bus events.Bus, logger *slog.Logger) *Workspaces {
	return &Workspaces{
		store:    store,
		public:   public,
		bus:      bus,
		logger:   logger,
		now:      time.Now,
		viewers:  make(map[string]*viewerEntry),
		managers: make(map[string]*managerEntry),
	}
}

// Public returns the shared public model
func (w *Workspaces) Public() *TreeModel {
	return w.public
}

// Viewer returns the viewer for a browsing session
func (w *Workspaces) Viewer(sessionID string) *Viewer {
	w.mu.Lock()
	defer w.mu.Unlock()

	entry, ok := w.viewers[sessionID]
	if !ok {
		entry = &viewerEntry{viewer: NewViewer(w.public, w.store)}
		w.viewers[sessionID] = entry
		w.logger.Debug("viewer created", "session_id", sessionID)
	}
	entry.lastSeen = w.now()
	return entry.viewer
}

// Manager returns the admin's manager, loading its first snapshot. A
// failed first load still returns the manager so its error state can be
// shown with a retry.
func (w *Workspaces) Manager(ctx context.Context, userID string) *Manager {
	w.mu.Lock()
	entry, ok := w.managers[userID]
	if !ok {
		entry = &managerEntry{manager: NewManager(userID, w.store, w.bus, w.logger)}
		w.managers[userID] = entry
		w.logger.Info("admin workspace created", "user_id", userID)
	}
	entry.lastSeen = w.now()
	w.mu.Unlock()

	if err := entry.manager.Load(ctx); err != nil {
		w.logger.Warn("admin workspace load failed", "user_id", userID, "error", err)
	}
	return entry.manager
}

// DropManager discards an admin's workspace
func (w *Workspaces) DropManager(userID string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, ok := w.managers[userID]; !ok {
		return false
	}
	delete(w.managers, userID)
	w.logger.Info("admin workspace dropped", "user_id", userID)
	return true
}

// Prune drops workspaces unused for longer than idle
func (w *Workspaces) Prune(idle time.Duration) (viewers, managers int) {
	cutoff := w.now().Add(-idle)

	w.mu.Lock()
	defer w.mu.Unlock()

	for id, entry := range w.viewers {
		if entry.lastSeen.Before(cutoff) {
			delete(w.viewers, id)
			viewers++
		}
	}
	for id, entry := range w.managers {
		if entry.lastSeen.Before(cutoff) {
			delete(w.managers, id)
			managers++
		}
	}
	return viewers, managers
}

// Counts reports the live workspaces
func (w *Workspaces) Counts() (viewers, managers int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.viewers), len(w.managers)
}

// Watch wires the registry to the bus: catalog mutations refresh the
// public model, and a sign-out discards the user's admin workspace.
func (w *Workspaces) Watch(onAuthStateChange func(func(models.AuthEvent)) func()) (stop func()) {
	stopCatalog := w.bus.Subscribe(events.TopicCatalog, func(ctx context.Context, e events.Event) {
		// Detached from the publisher's request so its cancellation does
		// not abort the refresh
		refreshCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
		defer cancel()

		if err := w.public.Refetch(refreshCtx); err != nil {
			w.logger.Warn("public catalog refresh failed", "trigger", e.Type, "error", err)
		}
	})

	stopAuth := onAuthStateChange(func(e models.AuthEvent) {
		if e.Type == models.AuthSignedOut {
			w.DropManager(e.UserID)
		}
	})

	return func() {
		stopCatalog()
		stopAuth()
	}
}
