package model

import (
	"errors"
	"fmt"
	"time"
)

// ErrAPIFailure marks a search that failed after all retry attempts.
// The orchestrator uses it to tell "provider is down for this role" apart
// from "provider answered with zero results".
var ErrAPIFailure = errors.New("search API failure")

// HTTPError wraps an HTTP status code so retry logic can inspect it.
type HTTPError struct {
	StatusCode int
	RetryAfter time.Duration // from Retry-After header, zero if absent
	Err        error
}

func (e *HTTPError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("HTTP %d: %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("HTTP %d", e.StatusCode)
}

func (e *HTTPError) Unwrap() error {
	return e.Err
}

// ValidationError marks a raw result the normalizer dropped. Never fatal;
// dropped results are counted as skipped.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "invalid result: " + e.Reason
}
