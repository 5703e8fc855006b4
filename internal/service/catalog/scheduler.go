package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// PruneSchedule is how often idle workspaces are dropped
const PruneSchedule = "@every 10m"

// Scheduler runs the periodic jobs: revalidating the public snapshot and
// pruning idle workspaces.
type Scheduler struct {
	cron       *cron.Cron
	workspaces *Workspaces
	idleTTL    time.Duration
	logger     *slog.Logger
}

// NewScheduler registers the jobs; nothing runs until Start
func NewScheduler(workspaces *Workspaces, refreshSchedule string, idleTTL time.Duration, logger *slog.Logger) (*Scheduler, error) {
	c := cron.New(cron.WithChain(
		cron.Recover(cron.DefaultLogger),
		cron.SkipIfStillRunning(cron.DefaultLogger),
	))

	s := &Scheduler{
		cron:       c,
		workspaces: workspaces,
		idleTTL:    idleTTL,
		logger:     logger,
	}

	if _, err := c.AddFunc(refreshSchedule, s.RefreshPublic); err != nil {
		return nil, fmt.Errorf("schedule catalog refresh %q: %w", refreshSchedule, err)
	}
	if _, err := c.AddFunc(PruneSchedule, s.PruneIdle); err != nil {
		return nil, fmt.Errorf("schedule workspace pruning: %w", err)
	}

	return s, nil
}

// Start runs the scheduler in its own goroutine
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("scheduler started", "jobs", len(s.cron.Entries()))
}

// Stop waits for running jobs to finish
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("scheduler stopped")
}

// RefreshPublic revalidates the shared public snapshot
func (s *Scheduler) RefreshPublic() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	start := time.Now()
	if err := s.workspaces.Public().Refetch(ctx); err != nil {
		s.logger.Warn("scheduled catalog refresh failed", "error", err)
		return
	}
	s.logger.Debug("scheduled catalog refresh done", "duration", time.Since(start))
}

// PruneIdle drops workspaces idle for longer than the configured TTL
func (s *Scheduler) PruneIdle() {
	viewers, managers := s.workspaces.Prune(s.idleTTL)
	if viewers > 0 || managers > 0 {
		s.logger.Info("idle workspaces pruned", "viewers", viewers, "managers", managers)
	}
}
