package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisCache is a RateCache backed by Redis, sharing entries across
// instances.
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache wraps an existing Redis client.
func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

// Get returns the cached rate for key, or (nil, nil) on a miss. Redis handles
// expiry itself via the TTL set in Put.
func (c *RedisCache) Get(ctx context.Context, key string) (*Rate, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var rate Rate
	if err := json.Unmarshal(data, &rate); err != nil {
		return nil, err
	}
	return &rate, nil
}

// Put stores a rate under key for ttl.
func (c *RedisCache) Put(ctx context.Context, key string, rate *Rate, ttl time.Duration) error {
	data, err := json.Marshal(rate)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, data, ttl).Err()
}
