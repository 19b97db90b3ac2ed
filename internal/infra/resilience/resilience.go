// Package resilience wraps calls to the document store with retry,
// circuit-breaking and concurrency limits.
package resilience

import (
	"context"
	"math/rand"
	"time"

	"github.com/sony/gobreaker"
)

// Config tunes the retry and bulkhead behavior.
type Config struct {
	MaxRetries     int
	InitialBackoff time.Duration
	MaxConcurrency int
}

// RetryWithBackoff runs fn up to MaxRetries+1 times, doubling the wait
// between attempts and adding up to 50% jitter. A cancelled context
// aborts both the call loop and any in-progress wait.
func RetryWithBackoff(ctx context.Context, cfg Config, fn func() error) error {
	wait := cfg.InitialBackoff
	var lastErr error

	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		if lastErr = fn(); lastErr == nil {
			return nil
		}
		if attempt == cfg.MaxRetries {
			return lastErr
		}

		sleep := wait + time.Duration(rand.Int63n(int64(wait/2)))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(sleep):
		}
		wait *= 2
	}
}

// NewCircuitBreaker builds a breaker for one upstream. It trips once at
// least 5 requests in the window have run and 60% of them failed, and
// probes with 3 requests after 10s open.
func NewCircuitBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 3,
		Interval:    30 * time.Second,
		Timeout:     10 * time.Second,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			if c.Requests < 5 {
				return false
			}
			return float64(c.TotalFailures)/float64(c.Requests) >= 0.6
		},
	})
}

// Bulkhead caps how many callers touch a resource at once.
type Bulkhead struct {
	slots chan struct{}
}

// NewBulkhead creates a bulkhead admitting maxConcurrency callers.
func NewBulkhead(maxConcurrency int) *Bulkhead {
	return &Bulkhead{slots: make(chan struct{}, maxConcurrency)}
}

// Acquire takes a slot, blocking until one frees up or ctx is done.
func (b *Bulkhead) Acquire(ctx context.Context) error {
	select {
	case b.slots <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release returns a slot taken by Acquire.
func (b *Bulkhead) Release() {
	<-b.slots
}
