// Package scheduler drives recurring scraping sessions on a cron spec.
package scheduler

import (
	"context"
	"log/slog"

	"github.com/robfig/cron/v3"

	"github.com/futureforge/jobengine/internal/scrape"
)

// Scheduler wraps robfig/cron around the orchestrator. One session runs
// immediately on startup so a fresh deployment does not wait a full day
// for its first data.
type Scheduler struct {
	cron   *cron.Cron
	orch   *scrape.Orchestrator
	roles  []string
	spec   string
	logger *slog.Logger
}

// New creates a scheduler that fires ScrapeRoles on the given cron spec.
func New(orch *scrape.Orchestrator, roles []string, spec string, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		cron:   cron.New(),
		orch:   orch,
		roles:  roles,
		spec:   spec,
		logger: logger,
	}
}

// Run registers the job, runs one immediate session, then blocks until ctx
// is cancelled. Returns nil on graceful shutdown; an in-flight session is
// allowed to finish before Run returns.
func (s *Scheduler) Run(ctx context.Context) error {
	_, err := s.cron.AddFunc(s.spec, func() {
		s.runSession(ctx)
	})
	if err != nil {
		return err
	}

	s.logger.Info("starting scheduler", "spec", s.spec, "roles", len(s.roles))

	s.runSession(ctx)
	s.cron.Start()

	<-ctx.Done()
	s.logger.Info("shutting down scheduler")

	// Stop returns a context that is done once running jobs have finished.
	<-s.cron.Stop().Done()
	return nil
}

func (s *Scheduler) runSession(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	session := s.orch.ScrapeRoles(ctx, s.roles)
	s.logger.Info("scheduled session finished",
		"saved", session.TotalJobsSaved,
		"roles", session.RolesProcessed,
		"duration", session.Duration,
	)
}
