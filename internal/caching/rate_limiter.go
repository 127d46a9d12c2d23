package caching

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const keyPrefix = "leasegen:"

// RateLimiter counts events per key in fixed windows.
type RateLimiter interface {
	// Allow records one event for key and reports whether it is within limit for the window.
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
	Ping(ctx context.Context) error
}

type redisRateLimiter struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisClient accepts host:port or a redis:// / rediss:// URL.
func NewRedisClient(addr, password string, db int) (*redis.Client, error) {
	if strings.HasPrefix(addr, "redis://") || strings.HasPrefix(addr, "rediss://") {
		opts, err := redis.ParseURL(addr)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		if password != "" {
			opts.Password = password
		}
		return redis.NewClient(opts), nil
	}
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	}), nil
}

func NewRedisRateLimiter(client *redis.Client, logger *zap.Logger) RateLimiter {
	return &redisRateLimiter{client: client, logger: logger}
}

func (r *redisRateLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	if limit <= 0 {
		return true, nil
	}
	cacheKey := keyPrefix + "ratelimit:" + key
	count, err := r.client.Incr(ctx, cacheKey).Result()
	if err != nil {
		return false, fmt.Errorf("increment %s: %w", cacheKey, err)
	}

	// The first hit opens the window. A key left without expiry by a failed
	// Expire is repaired on the next hit.
	if count == 1 {
		if err := r.client.Expire(ctx, cacheKey, window).Err(); err != nil {
			return false, fmt.Errorf("expire %s: %w", cacheKey, err)
		}
	} else if ttl, err := r.client.TTL(ctx, cacheKey).Result(); err == nil && ttl < 0 {
		r.logger.Warn("rate limit key had no expiry", zap.String("key", cacheKey))
		if err := r.client.Expire(ctx, cacheKey, window).Err(); err != nil {
			r.logger.Error("failed to repair rate limit expiry", zap.String("key", cacheKey), zap.Error(err))
		}
	}

	return count <= int64(limit), nil
}

func (r *redisRateLimiter) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
