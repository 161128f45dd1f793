// Package store persists canonical jobs in SQLite, keyed by a
// content-derived identity with a storage-level uniqueness constraint.
package store

import (
	"crypto/md5"
	"database/sql"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/futureforge/jobengine/internal/model"
)

// Ensure SQLiteStore satisfies the interfaces its consumers depend on.
var (
	_ model.JobStore       = (*SQLiteStore)(nil)
	_ model.RetentionStore = (*SQLiteStore)(nil)
)

// BatchStats counts the outcome of a batch upsert.
type BatchStats struct {
	Inserted int
	Updated  int
	Skipped  int
}

// LocationCount is one row of the top-locations aggregation.
type LocationCount struct {
	Location string
	Count    int64
}

// Stats is the aggregate health/reporting view of the store.
type Stats struct {
	TotalJobs    int64
	RecentJobs7d int64
	TopLocations []LocationCount
	LastUpdated  time.Time
}

// SQLiteStore is the dedup store. It owns a long-lived *sql.DB that callers
// acquire once at startup and must Close on every exit path.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteStore opens (or creates) the database at dbPath and ensures the
// jobs table and its indexes exist. A connection failure here is fatal for
// the caller: nothing in the pipeline can proceed without storage.
func NewSQLiteStore(dbPath string, logger *slog.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// Verify the connection is alive.
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging sqlite db: %w", err)
	}

	schema := `CREATE TABLE IF NOT EXISTS jobs (
		identity     TEXT PRIMARY KEY,
		company_name TEXT NOT NULL,
		job_title    TEXT NOT NULL,
		location     TEXT NOT NULL,
		job_link     TEXT NOT NULL,
		direct_link  TEXT NOT NULL DEFAULT '',
		google_link  TEXT NOT NULL DEFAULT '',
		link_type    TEXT NOT NULL DEFAULT 'none',
		scraped_date DATETIME NOT NULL,
		description  TEXT NOT NULL DEFAULT '',
		salary       TEXT NOT NULL DEFAULT '',
		job_type     TEXT NOT NULL DEFAULT '',
		posted_at    TEXT NOT NULL DEFAULT ''
	);
	CREATE INDEX IF NOT EXISTS jobs_location_idx ON jobs(location);
	CREATE INDEX IF NOT EXISTS jobs_scraped_date_idx ON jobs(scraped_date DESC);`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating jobs table: %w", err)
	}

	return &SQLiteStore{db: db, logger: logger}, nil
}

// IdentityOf derives the dedup key for a job: md5 of the lower-cased,
// trimmed (company, title, location) tuple, first 16 hex characters.
// Deterministic across process restarts; the link is deliberately not part
// of the key, so re-postings of the same role collapse into one record.
func IdentityOf(company, title, location string) string {
	content := canon(company) + "_" + canon(title) + "_" + canon(location)
	sum := md5.Sum([]byte(content))
	return hex.EncodeToString(sum[:])[:16]
}

func canon(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Exists reports whether a job with the given identity is already stored.
func (s *SQLiteStore) Exists(identity string) (bool, error) {
	var one int
	err := s.db.QueryRow("SELECT 1 FROM jobs WHERE identity = ?", identity).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking existence of %s: %w", identity, err)
	}
	return true, nil
}

// Upsert inserts the job, or — when the identity already exists — refreshes
// scraped_date and any supplied optional fields. The ON CONFLICT clause
// rides on the identity primary key, so concurrent upserts of the same
// identity are resolved by the storage layer, not application logic.
func (s *SQLiteStore) Upsert(job model.Job) error {
	if err := validateJob(job); err != nil {
		return err
	}

	_, err := s.db.Exec(`INSERT INTO jobs
		(identity, company_name, job_title, location, job_link, direct_link,
		 google_link, link_type, scraped_date, description, salary, job_type, posted_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(identity) DO UPDATE SET
			scraped_date = excluded.scraped_date,
			description  = CASE WHEN excluded.description != '' THEN excluded.description ELSE jobs.description END,
			salary       = CASE WHEN excluded.salary != '' THEN excluded.salary ELSE jobs.salary END,
			job_type     = CASE WHEN excluded.job_type != '' THEN excluded.job_type ELSE jobs.job_type END,
			posted_at    = CASE WHEN excluded.posted_at != '' THEN excluded.posted_at ELSE jobs.posted_at END`,
		job.Identity, job.CompanyName, job.JobTitle, job.Location, job.JobLink,
		job.DirectLink, job.GoogleLink, string(job.LinkType), job.ScrapedDate.UTC(),
		job.Description, job.Salary, job.JobType, job.PostedAt)
	if err != nil {
		return fmt.Errorf("upserting job %s: %w", job.Identity, err)
	}
	return nil
}

// validateJob rejects records that must never reach storage.
func validateJob(job model.Job) error {
	switch {
	case job.Identity == "":
		return &model.ValidationError{Reason: "missing identity"}
	case strings.TrimSpace(job.CompanyName) == "":
		return &model.ValidationError{Reason: "missing company_name"}
	case strings.TrimSpace(job.JobTitle) == "":
		return &model.ValidationError{Reason: "missing job_title"}
	case strings.TrimSpace(job.Location) == "":
		return &model.ValidationError{Reason: "missing location"}
	case job.JobLink == "":
		return &model.ValidationError{Reason: "missing job_link"}
	case job.ScrapedDate.IsZero():
		return &model.ValidationError{Reason: "missing scraped_date"}
	}
	return nil
}

// UpsertBatch upserts each job independently. Skipped covers records that
// fail validation or whose write fails; one bad record never aborts the
// batch.
func (s *SQLiteStore) UpsertBatch(jobs []model.Job) BatchStats {
	var stats BatchStats
	for _, job := range jobs {
		existed, err := s.Exists(job.Identity)
		if err != nil {
			s.logger.Error("batch existence check failed", "identity", job.Identity, "error", err)
			stats.Skipped++
			continue
		}
		if err := s.Upsert(job); err != nil {
			s.logger.Error("batch upsert failed", "identity", job.Identity, "error", err)
			stats.Skipped++
			continue
		}
		if existed {
			stats.Updated++
		} else {
			stats.Inserted++
		}
	}
	return stats
}

// JobsByLocation returns jobs whose location contains the given substring,
// newest first. SQLite's LIKE is case-insensitive for ASCII.
func (s *SQLiteStore) JobsByLocation(location string, limit int) ([]model.Job, error) {
	rows, err := s.db.Query(`SELECT identity, company_name, job_title, location,
		job_link, direct_link, google_link, link_type, scraped_date,
		description, salary, job_type, posted_at
		FROM jobs WHERE location LIKE '%' || ? || '%'
		ORDER BY scraped_date DESC LIMIT ?`, location, limit)
	if err != nil {
		return nil, fmt.Errorf("querying jobs by location %q: %w", location, err)
	}
	defer rows.Close()
	return scanJobs(rows)
}

// RecentJobs returns jobs scraped within the last `days` days, newest first.
func (s *SQLiteStore) RecentJobs(days, limit int) ([]model.Job, error) {
	cutoff := time.Now().UTC().AddDate(0, 0, -days)
	rows, err := s.db.Query(`SELECT identity, company_name, job_title, location,
		job_link, direct_link, google_link, link_type, scraped_date,
		description, salary, job_type, posted_at
		FROM jobs WHERE scraped_date >= ?
		ORDER BY scraped_date DESC LIMIT ?`, cutoff, limit)
	if err != nil {
		return nil, fmt.Errorf("querying recent jobs: %w", err)
	}
	defer rows.Close()
	return scanJobs(rows)
}

func scanJobs(rows *sql.Rows) ([]model.Job, error) {
	var jobs []model.Job
	for rows.Next() {
		var j model.Job
		var linkType string
		if err := rows.Scan(&j.Identity, &j.CompanyName, &j.JobTitle, &j.Location,
			&j.JobLink, &j.DirectLink, &j.GoogleLink, &linkType, &j.ScrapedDate,
			&j.Description, &j.Salary, &j.JobType, &j.PostedAt); err != nil {
			return nil, fmt.Errorf("scanning job row: %w", err)
		}
		j.LinkType = model.LinkType(linkType)
		jobs = append(jobs, j)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating job rows: %w", err)
	}
	return jobs, nil
}

// GetStats returns the aggregate reporting view: total count, count of jobs
// scraped within 7 days, and the ten most common locations.
func (s *SQLiteStore) GetStats() (Stats, error) {
	stats := Stats{LastUpdated: time.Now().UTC()}

	if err := s.db.QueryRow("SELECT COUNT(*) FROM jobs").Scan(&stats.TotalJobs); err != nil {
		return Stats{}, fmt.Errorf("counting jobs: %w", err)
	}

	recentCutoff := time.Now().UTC().AddDate(0, 0, -7)
	if err := s.db.QueryRow("SELECT COUNT(*) FROM jobs WHERE scraped_date >= ?", recentCutoff).Scan(&stats.RecentJobs7d); err != nil {
		return Stats{}, fmt.Errorf("counting recent jobs: %w", err)
	}

	rows, err := s.db.Query(`SELECT location, COUNT(*) AS n FROM jobs
		GROUP BY location ORDER BY n DESC LIMIT 10`)
	if err != nil {
		return Stats{}, fmt.Errorf("aggregating locations: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var lc LocationCount
		if err := rows.Scan(&lc.Location, &lc.Count); err != nil {
			return Stats{}, fmt.Errorf("scanning location row: %w", err)
		}
		stats.TopLocations = append(stats.TopLocations, lc)
	}
	if err := rows.Err(); err != nil {
		return Stats{}, fmt.Errorf("iterating location rows: %w", err)
	}

	return stats, nil
}

// CountJobs returns the total number of stored jobs.
func (s *SQLiteStore) CountJobs() (int64, error) {
	var count int64
	if err := s.db.QueryRow("SELECT COUNT(*) FROM jobs").Scan(&count); err != nil {
		return 0, fmt.Errorf("counting jobs: %w", err)
	}
	return count, nil
}

// CountOlderThan counts jobs whose scraped_date is before cutoff, without
// mutating anything. Used by the sweeper's dry-run mode.
func (s *SQLiteStore) CountOlderThan(cutoff time.Time) (int64, error) {
	var count int64
	err := s.db.QueryRow("SELECT COUNT(*) FROM jobs WHERE scraped_date < ?", cutoff.UTC()).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting jobs older than %v: %w", cutoff, err)
	}
	return count, nil
}

// DeleteOlderThan removes jobs whose scraped_date is before cutoff and
// returns the number of rows deleted.
func (s *SQLiteStore) DeleteOlderThan(cutoff time.Time) (int64, error) {
	res, err := s.db.Exec("DELETE FROM jobs WHERE scraped_date < ?", cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("deleting jobs older than %v: %w", cutoff, err)
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("reading deleted row count: %w", err)
	}
	return deleted, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
