package services

import (
	"context"
	"sync"
	"time"
)

// Cached wraps a loader with TTL-based caching of a single value.
// The variable catalog is read on every generation; batch runs would otherwise
// reload it once per document.
type Cached[V any] struct {
	load      func(context.Context) (V, error)
	ttl       time.Duration
	now       func() time.Time
	mu        sync.RWMutex
	value     V
	expiresAt time.Time
	valid     bool
	gen       uint64
}

// NewCached wraps load. A zero ttl disables caching.
func NewCached[V any](load func(context.Context) (V, error), ttl time.Duration) *Cached[V] {
	return &Cached[V]{load: load, ttl: ttl, now: time.Now}
}

// Get returns the cached value, loading it when missing or expired.
func (c *Cached[V]) Get(ctx context.Context) (V, error) {
	c.mu.RLock()
	if c.valid && c.now().Before(c.expiresAt) {
		v := c.value
		c.mu.RUnlock()
		return v, nil
	}
	gen := c.gen
	c.mu.RUnlock()

	v, err := c.load(ctx)
	if err != nil {
		var zero V
		return zero, err
	}
	if c.ttl > 0 {
		c.mu.Lock()
		// an Invalidate during the load wins
		if c.gen == gen {
			c.value, c.expiresAt, c.valid = v, c.now().Add(c.ttl), true
		}
		c.mu.Unlock()
	}
	return v, nil
}

// Invalidate drops the cached value. Call it after every catalog change.
func (c *Cached[V]) Invalidate() {
	c.mu.Lock()
	c.valid = false
	c.gen++
	var zero V
	c.value = zero
	c.mu.Unlock()
}
