// Package cache holds the process-local TTL cache and the throttle
// built on top of it. State is per-replica; nothing here is shared
// across instances.
package cache

import (
	"sync"
	"time"
)

type item[T any] struct {
	value    T
	deadline time.Time
}

// InMemory is a concurrency-safe map with a fixed TTL per entry.
type InMemory[T any] struct {
	mu    sync.RWMutex
	items map[string]item[T]
	ttl   time.Duration
}

// New creates a cache whose entries live for ttl. A background sweep
// evicts expired entries once per TTL period.
func New[T any](ttl time.Duration) *InMemory[T] {
	c := &InMemory[T]{
		items: make(map[string]item[T]),
		ttl:   ttl,
	}
	go c.sweep()
	return c
}

// Get returns the live value for key, or false when the key is absent
// or its TTL has lapsed.
func (c *InMemory[T]) Get(key string) (T, bool) {
	c.mu.RLock()
	it, ok := c.items[key]
	c.mu.RUnlock()

	if !ok || time.Now().After(it.deadline) {
		var zero T
		return zero, false
	}
	return it.value, true
}

// Set stores value under key, restarting its TTL.
func (c *InMemory[T]) Set(key string, value T) {
	c.mu.Lock()
	c.items[key] = item[T]{value: value, deadline: time.Now().Add(c.ttl)}
	c.mu.Unlock()
}

// Delete drops key immediately.
func (c *InMemory[T]) Delete(key string) {
	c.mu.Lock()
	delete(c.items, key)
	c.mu.Unlock()
}

func (c *InMemory[T]) sweep() {
	ticker := time.NewTicker(c.ttl)
	defer ticker.Stop()

	for now := range ticker.C {
		c.mu.Lock()
		for k, it := range c.items {
			if now.After(it.deadline) {
				delete(c.items, k)
			}
		}
		c.mu.Unlock()
	}
}

// Throttle is a TTL-based rate limiter: one acquisition per key per TTL
// window. Each process holds its own throttle state, so independent
// replicas each get their own window (the regeneration endpoint relies
// on store-level dedup, not on this, for correctness).
type Throttle struct {
	stamps *InMemory[time.Time]
	ttl    time.Duration
}

// NewThrottle creates a throttle with the given window.
func NewThrottle(window time.Duration) *Throttle {
	return &Throttle{stamps: New[time.Time](window), ttl: window}
}

// TryAcquire reports whether the key is outside its cool-down window,
// and if so starts a new window. Returns the remaining wait otherwise.
func (t *Throttle) TryAcquire(key string) (bool, time.Duration) {
	if last, ok := t.stamps.Get(key); ok {
		remaining := t.ttl - time.Since(last)
		if remaining < 0 {
			remaining = 0
		}
		return false, remaining
	}
	t.stamps.Set(key, time.Now())
	return true, 0
}

// Reset clears the window for a key (used by force-refresh paths).
func (t *Throttle) Reset(key string) {
	t.stamps.Delete(key)
}
