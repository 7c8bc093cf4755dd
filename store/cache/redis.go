// Package cache memoizes donation statistics in Redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"bloodzy/backend/services/stats"
)

var _ stats.Cache = (*StatsCache)(nil)

// DefaultTTL bounds how long an unused entry lingers. Entries never go stale
// because the key changes with the record set.
const DefaultTTL = 24 * time.Hour

// Connect builds a client from a redis:// URL or a bare host:port and pings
// it.
func Connect(ctx context.Context, redisURL string) (*redis.Client, error) {
	var client *redis.Client
	if strings.HasPrefix(redisURL, "redis://") || strings.HasPrefix(redisURL, "rediss://") {
		opt, err := redis.ParseURL(redisURL)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		client = redis.NewClient(opt)
	} else {
		client = redis.NewClient(&redis.Options{Addr: redisURL})
	}
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// StatsCache stores statistics as JSON under stats.Key strings.
type StatsCache struct {
	client redis.Cmdable
	ttl    time.Duration
	prefix string
}

// NewStatsCache wraps client. A non-positive ttl uses DefaultTTL.
func NewStatsCache(client redis.Cmdable, ttl time.Duration) *StatsCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &StatsCache{client: client, ttl: ttl, prefix: "bloodzy:"}
}

func (c *StatsCache) Get(ctx context.Context, key stats.Key) (stats.Statistics, bool, error) {
	raw, err := c.client.Get(ctx, c.prefix+key.String()).Bytes()
	if errors.Is(err, redis.Nil) {
		return stats.Statistics{}, false, nil
	}
	if err != nil {
		return stats.Statistics{}, false, err
	}
	var s stats.Statistics
	if err := json.Unmarshal(raw, &s); err != nil {
		return stats.Statistics{}, false, fmt.Errorf("decode cached stats: %w", err)
	}
	return s, true, nil
}

func (c *StatsCache) Set(ctx context.Context, key stats.Key, s stats.Statistics) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.prefix+key.String(), raw, c.ttl).Err()
}
