// Package sweep deletes persisted jobs older than a retention threshold.
// It runs as a maintenance operation independent of scraping sessions.
package sweep

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/futureforge/jobengine/internal/model"
)

// Sweeper removes jobs whose scraped_date has aged past the threshold.
// It borrows the store from its caller; releasing the storage connection
// on exit is the caller's responsibility.
type Sweeper struct {
	store  model.RetentionStore
	logger *slog.Logger
}

func New(store model.RetentionStore, logger *slog.Logger) *Sweeper {
	return &Sweeper{store: store, logger: logger}
}

// Sweep deletes jobs scraped more than maxAgeDays ago. In dry-run mode it
// reports how many records would be deleted without mutating anything.
func (s *Sweeper) Sweep(maxAgeDays int, dryRun bool) (model.SweepResult, error) {
	result := model.SweepResult{DaysThreshold: maxAgeDays, DryRun: dryRun}

	totalBefore, err := s.store.CountJobs()
	if err != nil {
		return result, fmt.Errorf("counting jobs before sweep: %w", err)
	}
	result.TotalBefore = totalBefore
	result.TotalAfter = totalBefore

	cutoff := time.Now().UTC().AddDate(0, 0, -maxAgeDays)
	s.logger.Info("checking for old jobs", "max_age_days", maxAgeDays, "cutoff", cutoff)

	oldCount, err := s.store.CountOlderThan(cutoff)
	if err != nil {
		return result, fmt.Errorf("counting old jobs: %w", err)
	}

	if oldCount == 0 {
		s.logger.Info("no jobs past retention threshold", "max_age_days", maxAgeDays)
		return result, nil
	}

	if dryRun {
		result.WouldDeleteCount = oldCount
		s.logger.Info("dry run: old jobs found, nothing deleted",
			"would_delete", oldCount,
			"total", totalBefore,
			"would_remain", totalBefore-oldCount,
		)
		return result, nil
	}

	s.logger.Info("deleting old jobs", "count", oldCount)
	deleted, err := s.store.DeleteOlderThan(cutoff)
	if err != nil {
		return result, fmt.Errorf("deleting old jobs: %w", err)
	}
	result.DeletedCount = deleted

	totalAfter, err := s.store.CountJobs()
	if err != nil {
		return result, fmt.Errorf("counting jobs after sweep: %w", err)
	}
	result.TotalAfter = totalAfter

	s.logger.Info("sweep completed",
		"deleted", deleted,
		"total_before", totalBefore,
		"total_after", totalAfter,
	)
	return result, nil
}
