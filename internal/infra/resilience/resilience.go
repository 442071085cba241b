// Package resilience wraps the outbound vendor calls (Firestore, Stripe,
// Perplexity) with retry, circuit-breaker and bulkhead protection.
package resilience

import (
	"context"
	"math/rand"
	"time"

	"github.com/sony/gobreaker"
)

// Config tunes retries and concurrency for one vendor client.
type Config struct {
	MaxRetries     int
	InitialBackoff time.Duration
	MaxConcurrency int
}

const defaultInitialBackoff = 100 * time.Millisecond

// RetryWithBackoff runs fn up to MaxRetries+1 times with exponential backoff
// and jitter between attempts. Context cancellation aborts both the attempt
// loop and any in-progress wait.
func RetryWithBackoff(ctx context.Context, cfg Config, fn func() error) error {
	base := cfg.InitialBackoff
	if base <= 0 {
		base = defaultInitialBackoff
	}

	var lastErr error
	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = fn()
		if lastErr == nil {
			return nil
		}

		if attempt == cfg.MaxRetries {
			break
		}
		backoff := base << uint(attempt)
		wait := backoff + time.Duration(rand.Int63n(int64(backoff/2)+1))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
	return lastErr
}

// NewCircuitBreaker builds the breaker shared by a vendor client's
// operations. It trips once 60% of at least 5 requests in a 30s window have
// failed, and probes with 3 requests after 10s open.
func NewCircuitBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 3,
		Interval:    30 * time.Second,
		Timeout:     10 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 5 && ratio >= 0.6
		},
	})
}

// Bulkhead caps in-flight requests against a single backend so one slow
// vendor cannot absorb every handler goroutine.
type Bulkhead struct {
	sem chan struct{}
}

func NewBulkhead(maxConcurrency int) *Bulkhead {
	return &Bulkhead{sem: make(chan struct{}, maxConcurrency)}
}

// Acquire blocks until a slot frees up or the context is cancelled.
func (b *Bulkhead) Acquire(ctx context.Context) error {
	select {
	case b.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (b *Bulkhead) Release() {
	<-b.sem
}
