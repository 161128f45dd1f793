// Package normalize validates raw search results and reshapes them into
// canonical Job records ready for the dedup store.
package normalize

import (
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/futureforge/jobengine/internal/links"
	"github.com/futureforge/jobengine/internal/model"
	"github.com/futureforge/jobengine/internal/store"
)

// Job descriptions are capped to keep storage bounded.
const maxDescriptionLen = 500

// Normalizer turns raw results into canonical jobs. It never writes to
// storage; rejects are logged and returned as *model.ValidationError.
type Normalizer struct {
	logger *slog.Logger
}

func New(logger *slog.Logger) *Normalizer {
	return &Normalizer{logger: logger}
}

// Normalize validates required fields, resolves links, and builds a Job
// with its content-derived identity and a UTC scrape timestamp.
func (n *Normalizer) Normalize(raw model.RawResult) (model.Job, error) {
	company := strings.TrimSpace(raw.CompanyName)
	title := strings.TrimSpace(raw.JobTitle)
	if title == "" {
		title = strings.TrimSpace(raw.Title)
	}
	location := strings.TrimSpace(raw.Location)

	if company == "" || title == "" || location == "" {
		n.logger.Warn("dropping result with missing required fields",
			"company", company, "title", title, "location", location)
		return model.Job{}, &model.ValidationError{Reason: "missing required field"}
	}

	res := links.Resolve(raw)
	if res.FinalLink == "" {
		n.logger.Warn("dropping result with no usable link",
			"company", company, "title", title)
		return model.Job{}, &model.ValidationError{Reason: "no usable link"}
	}

	job := model.Job{
		Identity:    store.IdentityOf(company, title, location),
		CompanyName: company,
		JobTitle:    title,
		Location:    location,
		JobLink:     res.FinalLink,
		DirectLink:  res.DirectLink,
		GoogleLink:  res.GoogleLink,
		LinkType:    res.LinkType,
		ScrapedDate: time.Now().UTC(),
		Salary:      raw.Salary,
		JobType:     raw.JobType,
		PostedAt:    raw.PostedAt,
	}

	// Truncation counts characters, not bytes, so multibyte text is never
	// cut mid-rune.
	job.Description = raw.Description
	if utf8.RuneCountInString(job.Description) > maxDescriptionLen {
		runes := []rune(job.Description)
		job.Description = string(runes[:maxDescriptionLen])
	}

	n.logger.Debug("normalized job",
		"company", company, "title", title, "link_type", job.LinkType)
	return job, nil
}
