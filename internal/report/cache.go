package report

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
)

// Cache keeps computed reports in Redis. A nil *Cache is a disabled cache.
type Cache struct {
	redis *redis.Client
	ttl   time.Duration
}

// NewCache returns nil when caching is not configured.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	if client == nil || ttl <= 0 {
		return nil
	}
	return &Cache{redis: client, ttl: ttl}
}

const keyPrefix = "vrlounge:"

func cacheKey(kind string, p Period, version string) string {
	return fmt.Sprintf("%s%s:%s:%s", keyPrefix, kind, p.Key(), version)
}

func (c *Cache) read(ctx context.Context, key string, out any) bool {
	if c == nil {
		return false
	}
	val, err := c.redis.Get(ctx, key).Bytes()
	if err != nil {
		return false
	}
	if err := json.Unmarshal(val, out); err != nil {
		return false
	}
	return true
}

func (c *Cache) write(ctx context.Context, key string, val any) {
	if c == nil {
		return
	}
	data, err := json.Marshal(val)
	if err != nil {
		return
	}
	_ = c.redis.Set(ctx, key, data, c.ttl).Err()
}

// purge drops every cached report and returns how many keys were removed.
func (c *Cache) purge(ctx context.Context) (int, error) {
	if c == nil {
		return 0, nil
	}
	var keys []string
	iter := c.redis.Scan(ctx, 0, keyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return 0, fmt.Errorf("scan cache: %w", err)
	}
	if len(keys) == 0 {
		return 0, nil
	}
	if err := c.redis.Del(ctx, keys...).Err(); err != nil {
		return 0, fmt.Errorf("purge cache: %w", err)
	}
	return len(keys), nil
}

// Ping checks the Redis connection.
func (c *Cache) Ping(ctx context.Context) error {
	if c == nil {
		return nil
	}
	return c.redis.Ping(ctx).Err()
}
