package memory

import (
	"context"
	"time"

	"github.com/artpar/zacre/ports"
)

// ConfigCache implements ports.ConfigCache on a process-local TTLCache.
type ConfigCache struct {
	cache *TTLCache[string]
}

// NewConfigCache creates a config cache with the given expiry.
func NewConfigCache(ttl time.Duration, clock ports.Clock) *ConfigCache {
	return &ConfigCache{cache: NewTTLCache[string](ttl, clock)}
}

// Get returns a fresh cached value.
func (c *ConfigCache) Get(_ context.Context, key string) (string, bool, error) {
	v, ok := c.cache.Get(key)
	return v, ok, nil
}

// Set caches a value.
func (c *ConfigCache) Set(_ context.Context, key, value string) error {
	c.cache.Set(key, value)
	return nil
}

// Delete evicts one key.
func (c *ConfigCache) Delete(_ context.Context, key string) error {
	c.cache.Delete(key)
	return nil
}

// Clear evicts everything.
func (c *ConfigCache) Clear(_ context.Context) error {
	c.cache.Clear()
	return nil
}

// SetTTL changes the expiry, used on config reload.
func (c *ConfigCache) SetTTL(ttl time.Duration) {
	c.cache.SetTTL(ttl)
}

// Ensure interface compliance.
var _ ports.ConfigCache = (*ConfigCache)(nil)
