// Package memory provides in-process implementations of ports: the
// config cache used in production and stores used by tests.
package memory

import (
	"sync"
	"time"

	"github.com/artpar/zacre/ports"
)

type ttlEntry[V any] struct {
	value      V
	insertedAt time.Time
}

// TTLCache is a mutex-guarded map whose entries expire ttl after they
// were written. Expiry is checked on read; there is no size bound and
// no background sweeper.
type TTLCache[V any] struct {
	mu      sync.RWMutex
	entries map[string]ttlEntry[V]
	ttl     time.Duration
	clock   ports.Clock
}

// NewTTLCache creates a cache. A ttl of zero or less disables expiry.
func NewTTLCache[V any](ttl time.Duration, clock ports.Clock) *TTLCache[V] {
	return &TTLCache[V]{
		entries: make(map[string]ttlEntry[V]),
		ttl:     ttl,
		clock:   clock,
	}
}

// Get returns the value if present and not expired.
func (c *TTLCache[V]) Get(key string) (V, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	ttl := c.ttl
	c.mu.RUnlock()

	var zero V
	if !ok {
		return zero, false
	}
	if ttl > 0 && c.clock.Now().Sub(e.insertedAt) >= ttl {
		c.mu.Lock()
		if cur, still := c.entries[key]; still && cur.insertedAt.Equal(e.insertedAt) {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		return zero, false
	}
	return e.value, true
}

// Set stores value under key, resetting its age.
func (c *TTLCache[V]) Set(key string, value V) {
	c.mu.Lock()
	c.entries[key] = ttlEntry[V]{value: value, insertedAt: c.clock.Now()}
	c.mu.Unlock()
}

// Delete removes key.
func (c *TTLCache[V]) Delete(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// Clear removes every entry.
func (c *TTLCache[V]) Clear() {
	c.mu.Lock()
	c.entries = make(map[string]ttlEntry[V])
	c.mu.Unlock()
}

// Len returns the number of stored entries, expired or not.
func (c *TTLCache[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// SetTTL changes the expiry applied to existing and future entries.
func (c *TTLCache[V]) SetTTL(ttl time.Duration) {
	c.mu.Lock()
	c.ttl = ttl
	c.mu.Unlock()
}
