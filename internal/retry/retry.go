// Package retry provides one reusable backoff policy applied to every call
// that can hit the provider's rate limit.
package retry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/futureforge/jobengine/internal/model"
)

// Policy retries transient failures with exponential backoff and jitter.
// MaxAttempts counts every call including the first; BaseDelay is the wait
// before the first retry, doubled on each subsequent one.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
}

// DefaultPolicy matches the provider's documented throttling behavior.
var DefaultPolicy = Policy{MaxAttempts: 3, BaseDelay: 1 * time.Second}

// Do runs fn until it succeeds, returns a non-retryable error, or the
// attempt budget is exhausted. Backoff sleeps are cancellable via ctx.
func (p Policy) Do(ctx context.Context, logger *slog.Logger, fn func() error) error {
	var lastErr error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		if !isRetryable(err) {
			return err
		}
		lastErr = err

		if attempt == p.MaxAttempts {
			break
		}

		delay := p.backoffDelay(attempt, err)
		logger.Warn("retrying after transient error",
			"attempt", attempt,
			"max_attempts", p.MaxAttempts,
			"delay", delay,
			"error", err,
		)

		select {
		case <-ctx.Done():
			return fmt.Errorf("retry cancelled: %w", ctx.Err())
		case <-time.After(delay):
		}
	}
	return lastErr
}

// backoffDelay computes the delay after a given attempt with ±30% jitter.
// If the error carries a Retry-After duration (HTTP 429), that takes
// precedence.
func (p Policy) backoffDelay(attempt int, err error) time.Duration {
	var httpErr *model.HTTPError
	if errors.As(err, &httpErr) && httpErr.RetryAfter > 0 {
		return httpErr.RetryAfter
	}

	// Exponential: BaseDelay * 2^(attempt-1)
	delay := p.BaseDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
	}

	jitter := float64(delay) * 0.3
	return time.Duration(float64(delay) + (rand.Float64()*2-1)*jitter)
}

// isRetryable returns true if the error represents a transient failure worth retrying.
func isRetryable(err error) bool {
	if err == nil {
		return false
	}

	// Context cancellation — never retry.
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var httpErr *model.HTTPError
	if errors.As(err, &httpErr) {
		// 429 Too Many Requests — retryable.
		if httpErr.StatusCode == 429 {
			return true
		}
		// 5xx — retryable.
		if httpErr.StatusCode >= 500 {
			return true
		}
		// 4xx (not 429) — not retryable.
		return false
	}

	// Non-HTTP errors (network, DNS, etc.) — retryable.
	return true
}

// Searcher decorates a model.Searcher with the retry policy. Once the
// budget is exhausted (or the error is terminal) the failure is wrapped in
// model.ErrAPIFailure so the orchestrator can tell it apart from an empty
// but successful response.
type Searcher struct {
	inner  model.Searcher
	policy Policy
	logger *slog.Logger
}

var _ model.Searcher = (*Searcher)(nil)

// NewSearcher wraps inner with the given retry policy.
func NewSearcher(inner model.Searcher, policy Policy, logger *slog.Logger) *Searcher {
	return &Searcher{inner: inner, policy: policy, logger: logger}
}

// Search delegates to the wrapped searcher under the retry policy.
func (s *Searcher) Search(ctx context.Context, query, location string) ([]model.RawResult, error) {
	var results []model.RawResult
	err := s.policy.Do(ctx, s.logger, func() error {
		r, err := s.inner.Search(ctx, query, location)
		if err != nil {
			return err
		}
		results = r
		return nil
	})
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", model.ErrAPIFailure, err)
	}
	return results, nil
}
