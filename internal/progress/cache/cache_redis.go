// Package cache keeps the admin dashboard counts in Redis between refreshes.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"vetting/internal/progress/models"
)

// StatsKey holds the JSON-encoded dashboard counts.
const StatsKey = "stats:dashboard"

type RedisStatsCache struct {
	client *redis.Client
	key    string
}

type Option func(*RedisStatsCache)

// WithKey overrides the cache key, mainly for tests sharing one server.
func WithKey(key string) Option {
	return func(c *RedisStatsCache) {
		c.key = key
	}
}

func NewRedis(client *redis.Client, opts ...Option) *RedisStatsCache {
	c := &RedisStatsCache{client: client, key: StatsKey}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// Get returns the cached stats. A missing key is reported as ok=false.
func (c *RedisStatsCache) Get(ctx context.Context) (*models.Stats, bool, error) {
	raw, err := c.client.Get(ctx, c.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get cached stats: %w", err)
	}
	var stats models.Stats
	if err := json.Unmarshal(raw, &stats); err != nil {
		return nil, false, fmt.Errorf("decode cached stats: %w", err)
	}
	return &stats, true, nil
}

func (c *RedisStatsCache) Set(ctx context.Context, stats *models.Stats, ttl time.Duration) error {
	raw, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("encode stats: %w", err)
	}
	return c.client.Set(ctx, c.key, raw, ttl).Err()
}

func (c *RedisStatsCache) Invalidate(ctx context.Context) error {
	return c.client.Del(ctx, c.key).Err()
}
