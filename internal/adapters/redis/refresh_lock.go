package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"gitlab.com/timkado/api/openim-client/internal/domain"
)

// releaseScript deletes the lock only when it still carries the caller's owner value.
const releaseScript = `
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("del", KEYS[1])
	else
		return 0
	end
`

// RefreshLockAdapter implements domain.RefreshLocker with SETNX locks so that
// processes sharing one Redis cache do not all acquire the same token at once.
type RefreshLockAdapter struct {
	redisClient redis.UniversalClient
	logger      domain.Logger
	release     *redis.Script
}

// NewRefreshLockAdapter creates a new instance of RefreshLockAdapter.
func NewRefreshLockAdapter(redisClient redis.UniversalClient, logger domain.Logger) (*RefreshLockAdapter, error) {
	if redisClient == nil {
		return nil, errors.New("redis client is required for the refresh lock")
	}
	if logger == nil {
		return nil, errors.New("logger is required for the refresh lock")
	}
	return &RefreshLockAdapter{
		redisClient: redisClient,
		logger:      logger,
		release:     redis.NewScript(releaseScript),
	}, nil
}

// AcquireLock attempts to acquire the lock (SETNX) for key with owner and ttl.
func (a *RefreshLockAdapter) AcquireLock(ctx context.Context, key, owner string, ttl time.Duration) (bool, error) {
	acquired, err := a.redisClient.SetNX(ctx, key, owner, ttl).Result()
	if err != nil {
		a.logger.Error(ctx, "Redis SETNX failed", "key", key, "error", err.Error())
		return false, fmt.Errorf("redis SETNX for key '%s' failed: %w", key, err)
	}
	a.logger.Debug(ctx, "Redis SETNX result", "key", key, "owner", owner, "ttl", ttl.String(), "acquired", acquired)
	return acquired, nil
}

// ReleaseLock releases key only if owner still holds it.
func (a *RefreshLockAdapter) ReleaseLock(ctx context.Context, key, owner string) (bool, error) {
	result, err := a.release.Run(ctx, a.redisClient, []string{key}, owner).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		a.logger.Error(ctx, "Redis release script failed", "key", key, "owner", owner, "error", err.Error())
		return false, fmt.Errorf("redis release for key '%s' failed: %w", key, err)
	}
	released := result == 1
	a.logger.Debug(ctx, "Redis ReleaseLock result", "key", key, "owner", owner, "released", released)
	return released, nil
}
