// Package scrape owns the full ingestion pipeline for a scraping session:
// search → normalize → upsert, one role at a time, with mandatory pacing
// between roles.
package scrape

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/futureforge/jobengine/internal/model"
	"github.com/futureforge/jobengine/internal/normalize"
	"github.com/futureforge/jobengine/internal/pacing"
	"github.com/futureforge/jobengine/internal/search"
)

// Error marker recorded on a role whose search failed after all retries.
const apiFailureMarker = "API_FAILURE"

// Orchestrator wires the search client, normalizer, and dedup store for a
// session. Roles are processed strictly sequentially; the provider enforces
// a global rate limit that concurrent requests would violate.
type Orchestrator struct {
	searcher     model.Searcher
	normalizer   *normalize.Normalizer
	store        model.JobStore
	locations    []string
	locationMode string
	maxPerRole   int
	pacer        *pacing.Pacer
	logger       *slog.Logger
}

// NewOrchestrator creates an orchestrator wired with all its dependencies.
// The store is owned by the caller, which is responsible for closing it.
func NewOrchestrator(
	searcher model.Searcher,
	normalizer *normalize.Normalizer,
	jobStore model.JobStore,
	locations []string,
	locationMode string,
	maxPerRole int,
	pacer *pacing.Pacer,
	logger *slog.Logger,
) *Orchestrator {
	return &Orchestrator{
		searcher:     searcher,
		normalizer:   normalizer,
		store:        jobStore,
		locations:    locations,
		locationMode: locationMode,
		maxPerRole:   maxPerRole,
		pacer:        pacer,
		logger:       logger,
	}
}

// ScrapeRole runs the pipeline for one role: a single search, then
// normalize → upsert per result. A failed search yields a zero-count
// result with an error marker; an empty search yields a normal zero-count
// result.
func (o *Orchestrator) ScrapeRole(ctx context.Context, role string) model.RoleResult {
	result := model.RoleResult{Role: role}

	query := search.BuildQuery(role, o.locations)
	var primary string
	if len(o.locations) > 0 {
		primary = o.locations[0]
	}

	raw, err := o.searcher.Search(ctx, query, primary)
	if err != nil {
		o.logger.Error("search failed for role, skipping", "role", role, "error", err)
		result.Err = markerFor(err)
		return result
	}

	result.JobsFound = len(raw)
	if len(raw) == 0 {
		o.logger.Warn("no jobs found for role", "role", role)
		return result
	}

	if len(raw) > o.maxPerRole {
		raw = raw[:o.maxPerRole]
	}

	for _, r := range raw {
		job, err := o.normalizer.Normalize(r)
		if err != nil {
			result.NoLinks++
			continue
		}
		result.JobsProcessed++

		switch job.LinkType {
		case model.LinkDirect:
			result.DirectLinks++
		case model.LinkGoogle:
			result.GoogleLinks++
		default:
			result.NoLinks++
		}

		if err := o.store.Upsert(job); err != nil {
			o.logger.Error("upsert failed, skipping record",
				"role", role, "identity", job.Identity, "error", err)
			continue
		}
		result.JobsSaved++
	}

	o.logger.Info("role scraped",
		"role", role,
		"found", result.JobsFound,
		"processed", result.JobsProcessed,
		"saved", result.JobsSaved,
		"direct", result.DirectLinks,
		"google", result.GoogleLinks,
		"none", result.NoLinks,
	)
	return result
}

// ScrapeRoles runs a full session over the given roles. One role's failure
// (or panic) is converted into an error-marked RoleResult and never aborts
// the remaining roles; cancellation stops the session between roles.
func (o *Orchestrator) ScrapeRoles(ctx context.Context, roles []string) model.SessionResult {
	o.logger.Info("starting scraping session",
		"roles", len(roles), "location_mode", o.locationMode)

	session := model.SessionResult{
		SessionStart: time.Now().UTC(),
		LocationMode: o.locationMode,
	}

	for i, role := range roles {
		if ctx.Err() != nil {
			o.logger.Warn("session cancelled", "completed_roles", len(session.Results))
			break
		}

		// Mandatory gap between consecutive role searches. The first call
		// of a session passes through immediately.
		if err := o.pacer.Wait(ctx); err != nil {
			o.logger.Warn("session cancelled during pacing", "completed_roles", len(session.Results))
			break
		}

		o.logger.Info("processing role", "index", i+1, "total", len(roles), "role", role)
		result := o.scrapeRoleSafe(ctx, role)

		session.Results = append(session.Results, result)
		session.TotalAPICalls++ // one search per role
		session.TotalJobsSaved += result.JobsSaved
		session.TotalDirectLinks += result.DirectLinks
		session.TotalGoogleLinks += result.GoogleLinks
		session.TotalNoLinks += result.NoLinks
	}

	session.RolesProcessed = len(session.Results)
	session.SessionEnd = time.Now().UTC()
	session.Duration = session.SessionEnd.Sub(session.SessionStart)

	o.logger.Info("scraping session completed",
		"roles", session.RolesProcessed,
		"saved", session.TotalJobsSaved,
		"direct", session.TotalDirectLinks,
		"google", session.TotalGoogleLinks,
		"none", session.TotalNoLinks,
		"api_calls", session.TotalAPICalls,
		"duration", session.Duration,
	)
	return session
}

// scrapeRoleSafe converts a panicking role into an error-marked result so
// a single bad role cannot take down the session.
func (o *Orchestrator) scrapeRoleSafe(ctx context.Context, role string) (result model.RoleResult) {
	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("role scrape panicked", "role", role, "panic", r)
			result = model.RoleResult{Role: role, Err: fmt.Sprintf("panic: %v", r)}
		}
	}()
	return o.ScrapeRole(ctx, role)
}

// markerFor maps a search error to the marker recorded on the RoleResult.
func markerFor(err error) string {
	if errors.Is(err, model.ErrAPIFailure) {
		return apiFailureMarker
	}
	return err.Error()
}
