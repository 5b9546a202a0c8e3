package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"gitlab.com/timkado/api/openim-client/internal/domain"
)

// TokenCacheAdapter implements domain.TokenCache on a shared Redis instance.
// Expiry is delegated to Redis (SET with EX), so expired keys are never returned.
type TokenCacheAdapter struct {
	redisClient redis.UniversalClient
	logger      domain.Logger
}

// NewTokenCacheAdapter creates a new instance of TokenCacheAdapter.
// A nil client is a wiring error and is reported at construction.
func NewTokenCacheAdapter(redisClient redis.UniversalClient, logger domain.Logger) (*TokenCacheAdapter, error) {
	if redisClient == nil {
		return nil, errors.New("redis client is required for the redis token cache")
	}
	if logger == nil {
		return nil, errors.New("logger is required for the redis token cache")
	}
	return &TokenCacheAdapter{
		redisClient: redisClient,
		logger:      logger,
	}, nil
}

// Get returns the cached value. A missing key and a Redis failure both read
// as a miss: the caller falls back to acquiring a fresh token.
func (a *TokenCacheAdapter) Get(ctx context.Context, key string) ([]byte, bool) {
	val, err := a.redisClient.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		a.logger.Debug(ctx, "Token cache miss", "key", key)
		return nil, false
	}
	if err != nil {
		a.logger.Error(ctx, "Failed to get token from Redis cache, treating as miss", "key", key, "error", err.Error())
		return nil, false
	}
	a.logger.Debug(ctx, "Token cache hit", "key", key)
	return val, true
}

// Put stores value with a Redis-side TTL.
func (a *TokenCacheAdapter) Put(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return fmt.Errorf("redis SET for key '%s': ttl must be positive, got %s", key, ttl)
	}
	if err := a.redisClient.Set(ctx, key, value, ttl).Err(); err != nil {
		a.logger.Error(ctx, "Failed to set token in Redis cache", "key", key, "error", err.Error())
		return fmt.Errorf("redis SET for key '%s' failed: %w", key, err)
	}
	a.logger.Debug(ctx, "Successfully cached token", "key", key, "ttl", ttl.String())
	return nil
}

// Delete removes key. DEL on a missing key is a no-op in Redis.
func (a *TokenCacheAdapter) Delete(ctx context.Context, key string) error {
	if err := a.redisClient.Del(ctx, key).Err(); err != nil {
		a.logger.Error(ctx, "Failed to delete token from Redis cache", "key", key, "error", err.Error())
		return fmt.Errorf("redis DEL for key '%s' failed: %w", key, err)
	}
	a.logger.Debug(ctx, "Deleted cached token", "key", key)
	return nil
}

// Ping reports whether Redis is reachable.
func (a *TokenCacheAdapter) Ping(ctx context.Context) error {
	return a.redisClient.Ping(ctx).Err()
}
