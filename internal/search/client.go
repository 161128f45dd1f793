// Package search talks to the external job-search API (SerpAPI-style
// google_jobs endpoint). Every Search call is a fresh network round trip;
// retry behavior is layered on by the retry package.
package search

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/futureforge/jobengine/internal/model"
)

const defaultBaseURL = "https://serpapi.com/search"

// Options configures the search client.
type Options struct {
	APIKey     string
	BaseURL    string // defaults to the provider endpoint
	MaxResults int    // per-query result cap, passed to the provider
}

// Client issues paginated, rate-limited queries against the provider.
// The shared rate.Limiter keeps overlapping runs (manual plus scheduled)
// under the provider's global rate limit.
type Client struct {
	apiKey     string
	baseURL    string
	maxResults int
	limiter    *rate.Limiter
	client     *http.Client
	logger     *slog.Logger
}

var _ model.Searcher = (*Client)(nil)

// NewClient builds a search client. limiter may be nil to disable
// request-level throttling (tests).
func NewClient(opts Options, limiter *rate.Limiter, httpClient *http.Client, logger *slog.Logger) *Client {
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		apiKey:     opts.APIKey,
		baseURL:    baseURL,
		maxResults: opts.MaxResults,
		limiter:    limiter,
		client:     httpClient,
		logger:     logger,
	}
}

// BuildQuery combines a role with all configured locations into one
// OR-joined query string, so each role costs a single API call.
func BuildQuery(role string, locations []string) string {
	return fmt.Sprintf("%s jobs in (%s)", role, strings.Join(locations, " OR "))
}

// searchResponse is the provider's top-level payload.
type searchResponse struct {
	JobsResults []model.RawResult `json:"jobs_results"`
}

// Search runs one query against the provider. A nil error with zero
// results means the provider answered and found nothing; HTTP 429/5xx and
// transport failures come back as errors for the retry layer to classify.
func (c *Client) Search(ctx context.Context, query, location string) ([]model.RawResult, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("waiting for rate limiter: %w", err)
		}
	}

	params := url.Values{}
	params.Set("engine", "google_jobs")
	params.Set("q", query)
	params.Set("location", location)
	params.Set("api_key", c.apiKey)
	params.Set("num", strconv.Itoa(c.maxResults))
	params.Set("sort_by", "date")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("building search request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &model.HTTPError{
			StatusCode: resp.StatusCode,
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
		}
	}

	var payload searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decoding search response: %w", err)
	}

	c.logger.Debug("search completed", "query", query, "results", len(payload.JobsResults))
	return payload.JobsResults, nil
}

// parseRetryAfter parses the Retry-After header value into a duration.
// Supports seconds format (e.g. "120"). Returns zero if absent or unparseable.
func parseRetryAfter(value string) time.Duration {
	if value == "" {
		return 0
	}
	seconds, err := strconv.Atoi(value)
	if err != nil {
		return 0
	}
	return time.Duration(seconds) * time.Second
}
