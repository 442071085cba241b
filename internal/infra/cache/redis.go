package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Redis is a cache backed by a Redis server, used instead of the in-memory
// cache when REDIS_ADDR is configured. Values are stored as JSON.
type Redis[T any] struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedis connects to Redis and returns a cache, or an error if the server
// is unreachable.
func NewRedis[T any](addr string, ttl time.Duration, logger *zap.Logger) (*Redis[T], error) {
	client := redis.NewClient(&redis.Options{Addr: addr})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &Redis[T]{client: client, ttl: ttl, logger: logger}, nil
}

// Get retrieves a value. Returns false on miss, expiry or decode failure.
func (c *Redis[T]) Get(key string) (T, bool) {
	var zero T

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("redis: get failed", zap.String("key", key), zap.Error(err))
		}
		return zero, false
	}

	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		c.logger.Warn("redis: decode failed", zap.String("key", key), zap.Error(err))
		return zero, false
	}
	return v, true
}

// Set stores a value with the configured TTL. Failures are logged, not
// surfaced — the cache is an optimization, never a source of truth.
func (c *Redis[T]) Set(key string, value T) {
	raw, err := json.Marshal(value)
	if err != nil {
		c.logger.Warn("redis: encode failed", zap.String("key", key), zap.Error(err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		c.logger.Warn("redis: set failed", zap.String("key", key), zap.Error(err))
	}
}

// Delete removes a value.
func (c *Redis[T]) Delete(key string) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := c.client.Del(ctx, key).Err(); err != nil {
		c.logger.Warn("redis: delete failed", zap.String("key", key), zap.Error(err))
	}
}
