package model

import (
	"context"
	"time"
)

// LinkType records which category of link a job's JobLink came from.
type LinkType string

const (
	LinkDirect LinkType = "direct" // employer / job-board / ATS posting
	LinkGoogle LinkType = "google" // Google Jobs search fallback
	LinkNone   LinkType = "none"   // no usable link found
)

// Job is the canonical record persisted by the dedup store.
type Job struct {
	Identity    string    // content-derived hash of (company, title, location)
	CompanyName string    // required
	JobTitle    string    // required
	Location    string    // required
	JobLink     string    // resolved final URL, required
	DirectLink  string    // provenance, may be empty
	GoogleLink  string    // provenance, may be empty
	LinkType    LinkType  // which category JobLink came from
	ScrapedDate time.Time // UTC, refreshed on every re-observation
	Description string    // optional, truncated at normalization time
	Salary      string    // optional
	JobType     string    // optional
	PostedAt    string    // optional, raw string from the provider
}

// LinkOption is one entry of a raw result's apply_options or related_links.
type LinkOption struct {
	Title string `json:"title"`
	Link  string `json:"link"`
}

// RawResult mirrors one heterogeneous job object from the search provider.
// The same concept appears under alternate field names (job_title vs title,
// link vs job_link vs url); the resolver and normalizer consult them in a
// fixed priority order.
type RawResult struct {
	CompanyName  string       `json:"company_name"`
	JobTitle     string       `json:"job_title"`
	Title        string       `json:"title"`
	Location     string       `json:"location"`
	Link         string       `json:"link"`
	JobLink      string       `json:"job_link"`
	URL          string       `json:"url"`
	JobID        string       `json:"job_id"`
	Description  string       `json:"description"`
	Salary       string       `json:"salary"`
	JobType      string       `json:"job_type"`
	PostedAt     string       `json:"posted_at"`
	ApplyOptions []LinkOption `json:"apply_options"`
	RelatedLinks []LinkOption `json:"related_links"`
}

// RoleResult summarizes the outcome of scraping a single role.
// Err is empty when the role completed normally; a role with zero results
// and an empty Err means the provider returned no jobs, not that it failed.
type RoleResult struct {
	Role          string
	JobsFound     int
	JobsProcessed int
	JobsSaved     int
	DirectLinks   int
	GoogleLinks   int
	NoLinks       int
	Err           string
}

// SessionResult aggregates one full orchestration run. In-memory only;
// handed to reporting collaborators, never persisted.
type SessionResult struct {
	SessionStart     time.Time
	SessionEnd       time.Time
	Duration         time.Duration
	LocationMode     string
	RolesProcessed   int
	TotalAPICalls    int
	TotalJobsSaved   int
	TotalDirectLinks int
	TotalGoogleLinks int
	TotalNoLinks     int
	Results          []RoleResult
}

// SweepResult reports one retention sweep against the store.
type SweepResult struct {
	DeletedCount     int64
	WouldDeleteCount int64
	TotalBefore      int64
	TotalAfter       int64
	DaysThreshold    int
	DryRun           bool
}

// Searcher issues one query against the external job-search API.
// A nil error with an empty slice means the provider answered with zero
// results; an error means the provider could not be reached at all.
type Searcher interface {
	Search(ctx context.Context, query, location string) ([]RawResult, error)
}

// JobStore is the write path the orchestrator needs from the dedup store.
type JobStore interface {
	Exists(identity string) (bool, error)
	Upsert(job Job) error
}

// RetentionStore is the slice of the store the retention sweeper needs.
type RetentionStore interface {
	CountJobs() (int64, error)
	CountOlderThan(cutoff time.Time) (int64, error)
	DeleteOlderThan(cutoff time.Time) (int64, error)
}
