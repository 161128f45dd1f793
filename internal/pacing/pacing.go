// Package pacing enforces the mandatory delay between consecutive role
// searches. The external API applies a global rate limit, so roles are
// deliberately processed one at a time with a gap in between.
package pacing

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Pacer blocks until the configured delay has passed since the previous
// call. Safe for use from overlapping runs sharing one instance.
type Pacer struct {
	mu       sync.Mutex
	lastCall time.Time
	delay    time.Duration
}

// NewPacer creates a pacer enforcing delay between consecutive Wait calls.
func NewPacer(delay time.Duration) *Pacer {
	return &Pacer{delay: delay}
}

// Wait blocks until enough time has passed since the last call.
// Returns an error if the context is cancelled while waiting.
func (p *Pacer) Wait(ctx context.Context) error {
	p.mu.Lock()
	last := p.lastCall
	now := time.Now()

	if last.IsZero() || now.Sub(last) >= p.delay {
		// First call, or enough time has passed — proceed immediately.
		p.lastCall = now
		p.mu.Unlock()
		return nil
	}

	remaining := p.delay - now.Sub(last)
	p.mu.Unlock()

	select {
	case <-ctx.Done():
		return fmt.Errorf("pacing wait: %w", ctx.Err())
	case <-time.After(remaining):
	}

	// Record the actual time after waiting.
	p.mu.Lock()
	p.lastCall = time.Now()
	p.mu.Unlock()

	return nil
}
