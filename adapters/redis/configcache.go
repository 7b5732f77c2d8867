// Package redis provides a Redis-backed config cache so several
// processes share invalidation.
package redis

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/artpar/zacre/ports"
	goredis "github.com/redis/go-redis/v9"
)

// DefaultPrefix namespaces cached config keys.
const DefaultPrefix = "zacre:config:"

// Options configures the client.
type Options struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
	TTL      time.Duration
}

// NewClient connects to Redis and verifies the connection with PING.
func NewClient(ctx context.Context, opts Options) (*goredis.Client, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", opts.Addr, err)
	}
	return client, nil
}

// ConfigCache implements ports.ConfigCache with native key expiry.
type ConfigCache struct {
	client goredis.UniversalClient
	prefix string
	ttl    atomic.Int64 // nanoseconds
}

// NewConfigCache wraps a connected client.
func NewConfigCache(client goredis.UniversalClient, prefix string, ttl time.Duration) *ConfigCache {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	c := &ConfigCache{client: client, prefix: prefix}
	c.ttl.Store(int64(ttl))
	return c
}

// Get returns the cached value. A missing key is a miss, not an error.
func (c *ConfigCache) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := c.client.Get(ctx, c.prefix+key).Result()
	if errors.Is(err, goredis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return v, true, nil
}

// Set caches a value with the configured expiry.
func (c *ConfigCache) Set(ctx context.Context, key, value string) error {
	ttl := time.Duration(c.ttl.Load())
	if ttl < 0 {
		ttl = 0
	}
	if err := c.client.Set(ctx, c.prefix+key, value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Delete evicts one key.
func (c *ConfigCache) Delete(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, c.prefix+key).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	return nil
}

// Clear evicts every key under the prefix.
func (c *ConfigCache) Clear(ctx context.Context) error {
	iter := c.client.Scan(ctx, 0, c.prefix+"*", 100).Iterator()
	var batch []string
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == 100 {
			if err := c.client.Del(ctx, batch...).Err(); err != nil {
				return fmt.Errorf("redis clear: %w", err)
			}
			batch = batch[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("redis scan: %w", err)
	}
	if len(batch) > 0 {
		if err := c.client.Del(ctx, batch...).Err(); err != nil {
			return fmt.Errorf("redis clear: %w", err)
		}
	}
	return nil
}

// SetTTL changes the expiry of future writes.
func (c *ConfigCache) SetTTL(ttl time.Duration) {
	c.ttl.Store(int64(ttl))
}

// Ensure interface compliance.
var _ ports.ConfigCache = (*ConfigCache)(nil)
