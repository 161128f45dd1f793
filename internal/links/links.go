// Package links extracts the best available URL from a raw search result,
// preferring a direct employer or job-board link over the search engine's
// own aggregator link.
package links

import (
	"net/url"
	"strings"

	"github.com/futureforge/jobengine/internal/model"
)

// Resolution is the outcome of resolving a raw result's links.
type Resolution struct {
	DirectLink string
	GoogleLink string
	FinalLink  string
	LinkType   model.LinkType
}

// Hosts that are never acceptable as a direct link: the search engine and
// the search API provider themselves.
var aggregatorDomains = []string{
	"google.com",
	"google.co.in",
	"googlejobs",
	"serpapi.com",
	"bing.com",
}

// Job boards and ATS vendors whose links are accepted immediately.
// "careers." and "jobs." match company career-page subdomains.
var preferredDomains = []string{
	"linkedin.com",
	"indeed.com",
	"naukri.com",
	"monster.com",
	"glassdoor.com",
	"careers.",
	"jobs.",
	"workday.com",
	"lever.co",
	"greenhouse.io",
	"smartrecruiters.com",
	"jobvite.com",
}

// Google country domains accepted as a fallback link.
var googleDomains = []string{
	"google.com",
	"google.co.in",
	"google.co.uk",
	"google.ca",
	"google.com.au",
}

var jobKeywords = []string{"job", "career", "position", "vacancy", "opening", "role"}

var trackingHints = []string{"track", "redirect", "click", "ref"}

// Resolve extracts direct and Google links from a raw result and picks the
// final one: direct wins, Google is the fallback, otherwise nothing.
// Pure function, no side effects.
func Resolve(raw model.RawResult) Resolution {
	res := Resolution{LinkType: model.LinkNone}

	if direct := extractDirectLink(raw); direct != "" {
		res.DirectLink = direct
		res.LinkType = model.LinkDirect
	}

	if google := extractGoogleLink(raw); google != "" {
		res.GoogleLink = google
		if res.DirectLink == "" {
			res.LinkType = model.LinkGoogle
		}
	}

	if res.DirectLink != "" {
		res.FinalLink = res.DirectLink
	} else {
		res.FinalLink = res.GoogleLink
	}

	return res
}

// extractDirectLink walks the candidate sources in priority order and
// returns the first link that passes the direct-link validity test.
func extractDirectLink(raw model.RawResult) string {
	for _, opt := range raw.ApplyOptions {
		if isValidDirectLink(opt.Link) {
			return opt.Link
		}
	}
	for _, opt := range raw.RelatedLinks {
		if isValidDirectLink(opt.Link) {
			return opt.Link
		}
	}
	if isValidDirectLink(raw.Link) {
		return raw.Link
	}
	return ""
}

// extractGoogleLink returns a Google Jobs link from the flat link fields,
// or constructs a search URL from the provider's job_id as a last resort.
func extractGoogleLink(raw model.RawResult) string {
	for _, link := range []string{raw.Link, raw.JobLink, raw.URL} {
		if isValidGoogleLink(link) {
			return link
		}
	}
	if raw.JobID != "" {
		return "https://www.google.com/search?q=" + url.QueryEscape(raw.JobID) + "&ibp=htl;jobs"
	}
	return ""
}

// isValidDirectLink reports whether link points at an original job posting
// rather than an aggregator or tracking redirect.
func isValidDirectLink(link string) bool {
	if !isHTTP(link) {
		return false
	}

	lower := strings.ToLower(link)
	for _, domain := range aggregatorDomains {
		if strings.Contains(lower, domain) {
			return false
		}
	}

	for _, domain := range preferredDomains {
		if strings.Contains(lower, domain) {
			return true
		}
	}

	// Unknown host: accept only if the URL structure looks like a job
	// posting and the host does not look like a tracking redirect.
	parsed, err := url.Parse(link)
	if err != nil {
		return false
	}

	host := strings.ToLower(parsed.Hostname())
	for _, hint := range trackingHints {
		if strings.Contains(host, hint) {
			return false
		}
	}

	path := strings.ToLower(parsed.Path)
	for _, kw := range jobKeywords {
		if strings.Contains(path, kw) {
			return true
		}
	}

	for name := range parsed.Query() {
		nameLower := strings.ToLower(name)
		for _, kw := range jobKeywords {
			if strings.Contains(nameLower, kw) {
				return true
			}
		}
	}

	return false
}

// isValidGoogleLink reports whether link is a Google-hosted jobs link.
func isValidGoogleLink(link string) bool {
	if !isHTTP(link) {
		return false
	}
	lower := strings.ToLower(link)
	for _, domain := range googleDomains {
		if strings.Contains(lower, domain) {
			return true
		}
	}
	return false
}

func isHTTP(link string) bool {
	return strings.HasPrefix(link, "http://") || strings.HasPrefix(link, "https://")
}
