package search

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/futureforge/jobengine/internal/model"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestClient(baseURL string) *Client {
	return NewClient(Options{
		APIKey:     "test-key",
		BaseURL:    baseURL,
		MaxResults: 20,
	}, nil, &http.Client{Timeout: 5 * time.Second}, discardLogger())
}

func TestBuildQuery(t *testing.T) {
	got := BuildQuery("Backend Developer", []string{"India", "Australia", "Remote"})
	want := "Backend Developer jobs in (India OR Australia OR Remote)"
	if got != want {
		t.Errorf("BuildQuery = %q, want %q", got, want)
	}
}

func TestSearch_Success(t *testing.T) {
	payload := `{
		"jobs_results": [
			{
				"company_name": "Acme",
				"job_title": "Engineer",
				"location": "Remote",
				"description": "Build things",
				"apply_options": [{"title": "Apply", "link": "https://acme.com/careers/eng"}]
			},
			{
				"company_name": "Beta",
				"title": "Analyst",
				"location": "Sydney",
				"link": "https://www.google.com/search?q=beta&ibp=htl;jobs",
				"job_id": "xyz"
			}
		]
	}`
	var gotQuery map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		gotQuery = map[string]string{
			"engine":   q.Get("engine"),
			"q":        q.Get("q"),
			"location": q.Get("location"),
			"api_key":  q.Get("api_key"),
			"num":      q.Get("num"),
			"sort_by":  q.Get("sort_by"),
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(payload))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	results, err := c.Search(context.Background(), "engineer jobs in (Remote)", "Remote")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}

	if results[0].CompanyName != "Acme" || results[0].JobTitle != "Engineer" {
		t.Errorf("first result = %+v", results[0])
	}
	if len(results[0].ApplyOptions) != 1 || results[0].ApplyOptions[0].Link != "https://acme.com/careers/eng" {
		t.Errorf("apply_options = %+v", results[0].ApplyOptions)
	}
	if results[1].Title != "Analyst" || results[1].JobID != "xyz" {
		t.Errorf("second result = %+v", results[1])
	}

	want := map[string]string{
		"engine":   "google_jobs",
		"q":        "engineer jobs in (Remote)",
		"location": "Remote",
		"api_key":  "test-key",
		"num":      "20",
		"sort_by":  "date",
	}
	for k, v := range want {
		if gotQuery[k] != v {
			t.Errorf("query param %s = %q, want %q", k, gotQuery[k], v)
		}
	}
}

func TestSearch_ZeroResultsIsNotAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"jobs_results": []}`))
	}))
	defer srv.Close()

	results, err := newTestClient(srv.URL).Search(context.Background(), "q", "Remote")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("got %d results, want 0", len(results))
	}
}

func TestSearch_RateLimitedWithRetryAfter(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "7")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Search(context.Background(), "q", "Remote")
	if err == nil {
		t.Fatal("expected error")
	}

	var httpErr *model.HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("error type = %T, want *model.HTTPError", err)
	}
	if httpErr.StatusCode != http.StatusTooManyRequests {
		t.Errorf("StatusCode = %d, want 429", httpErr.StatusCode)
	}
	if httpErr.RetryAfter != 7*time.Second {
		t.Errorf("RetryAfter = %v, want 7s", httpErr.RetryAfter)
	}
}

func TestSearch_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Search(context.Background(), "q", "Remote")
	var httpErr *model.HTTPError
	if !errors.As(err, &httpErr) || httpErr.StatusCode != http.StatusBadGateway {
		t.Fatalf("err = %v, want HTTPError 502", err)
	}
}

func TestSearch_MalformedJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"jobs_results": [`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Search(context.Background(), "q", "Remote")
	if err == nil {
		t.Fatal("expected decode error")
	}
}
