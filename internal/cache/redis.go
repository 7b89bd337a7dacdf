// internal/cache/redis.go
// Package cache provides the redis-backed payload cache used by the outputs API.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mwiater/gridcast/internal/logging"
	"github.com/redis/go-redis/v9"
)

// Options configures a RedisCache.
type Options struct {
	Addr        string
	DB          int
	DialTimeout time.Duration
}

// RedisCache stores raw payloads in redis.
type RedisCache struct {
	client *redis.Client
}

// NewRedis connects to redis and verifies the connection with a ping.
func NewRedis(ctx context.Context, opts Options) (*RedisCache, error) {
	if opts.Addr == "" {
		return nil, errors.New("redis address is empty")
	}
	if opts.DialTimeout <= 0 {
		opts.DialTimeout = 5 * time.Second
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:        opts.Addr,
		DB:          opts.DB,
		DialTimeout: opts.DialTimeout,
	})

	pingCtx, cancel := context.WithTimeout(ctx, opts.DialTimeout)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", opts.Addr, err)
	}

	logging.WithComponent("cache").WithField("addr", opts.Addr).Info("connected to redis")
	return &RedisCache{client: rdb}, nil
}

// Get returns the value for key. A missing key is reported as (nil, false, nil).
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return val, true, nil
}

// Set stores value under key for ttl. A zero ttl keeps the key without expiry.
func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := c.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Ping checks the connection.
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the underlying client.
func (c *RedisCache) Close() error {
	return c.client.Close()
}
