package application

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"gitlab.com/timkado/api/openim-client/internal/adapters/config"
	"gitlab.com/timkado/api/openim-client/internal/adapters/metrics"
	"gitlab.com/timkado/api/openim-client/internal/domain"
	"gitlab.com/timkado/api/openim-client/pkg/cachekeys"
	"gitlab.com/timkado/api/openim-client/pkg/contextkeys"
	"gitlab.com/timkado/api/openim-client/pkg/endpoints"
)

const (
	maxRefreshLockRetries    = 3
	initialRefreshRetryDelay = 50 * time.Millisecond
	maxRefreshRetryDelay     = 500 * time.Millisecond
	defaultRefreshLockTTL    = 10 * time.Second
	adminTokenFailureMessage = "failed to obtain admin token"
	userTokenFailureMessage  = "failed to obtain user token"
)

// TokenService returns cached tokens and acquires missing ones from the
// remote service. At most one acquisition per cache key runs in a process at
// a time; with a RefreshLocker the same holds across processes sharing the
// cache, as long as the lock holder finishes within its TTL.
type TokenService struct {
	manager    *TokenManager
	sender     domain.RequestSender
	locker     domain.RefreshLocker
	config     config.Provider
	logger     domain.Logger
	group      singleflight.Group
	lockTTL    time.Duration
	retryDelay time.Duration
	now        func() time.Time
}

// NewTokenService wires a TokenService. locker may be nil.
func NewTokenService(manager *TokenManager, sender domain.RequestSender, locker domain.RefreshLocker, cfgProvider config.Provider, logger domain.Logger) (*TokenService, error) {
	if manager == nil {
		return nil, errors.New("token manager is required")
	}
	if sender == nil {
		return nil, errors.New("request sender is required")
	}
	if cfgProvider == nil || cfgProvider.Get() == nil {
		return nil, errors.New("config is required for the token service")
	}
	if logger == nil {
		return nil, errors.New("logger is required for the token service")
	}

	cfg := cfgProvider.Get()
	lockTTL := time.Duration(cfg.Cache.RefreshLockTTLSeconds) * time.Second
	if lockTTL <= 0 {
		lockTTL = defaultRefreshLockTTL
	}
	retryDelay := time.Duration(cfg.Cache.RefreshLockRetryDelayMs) * time.Millisecond
	if retryDelay <= 0 {
		retryDelay = initialRefreshRetryDelay
	}

	return &TokenService{
		manager:    manager,
		sender:     sender,
		locker:     locker,
		config:     cfgProvider,
		logger:     logger,
		lockTTL:    lockTTL,
		retryDelay: retryDelay,
		now:        time.Now,
	}, nil
}

// Manager exposes the underlying TokenManager.
func (s *TokenService) Manager() *TokenManager {
	return s.manager
}

// AdminUserID is the configured privileged identity.
func (s *TokenService) AdminUserID() string {
	if id := s.config.Get().OpenIM.AdminUserID; id != "" {
		return id
	}
	return domain.DefaultAdminUserID
}

// AdminToken returns a cached admin token for userID or acquires one with
// the configured secret. An empty userID selects AdminUserID. Failure is
// always a KindAuthUnavailable *domain.RequestError.
func (s *TokenService) AdminToken(ctx context.Context, userID string) (string, error) {
	if userID == "" {
		userID = s.AdminUserID()
	}
	return s.obtain(ctx, domain.TokenKindAdmin, userID, func(ctx context.Context) (string, time.Duration, error) {
		return s.fetchAdminToken(ctx, userID)
	})
}

// UserToken returns a cached user token for userID or acquires one with an
// admin token. A non-positive platformID selects the configured default.
// When no admin token can be obtained no request for the user token is made
// and the admin failure is returned.
func (s *TokenService) UserToken(ctx context.Context, userID string, platformID int) (string, error) {
	if platformID <= 0 {
		platformID = s.defaultPlatformID()
	}
	return s.obtain(ctx, domain.TokenKindUser, userID, func(ctx context.Context) (string, time.Duration, error) {
		return s.fetchUserToken(ctx, userID, platformID)
	})
}

type acquired struct {
	token string
}

func (s *TokenService) obtain(ctx context.Context, kind domain.TokenKind, userID string, fetch func(context.Context) (string, time.Duration, error)) (string, error) {
	ctx = context.WithValue(ctx, contextkeys.TokenKindKey, string(kind))
	ctx = context.WithValue(ctx, contextkeys.UserIDKey, userID)

	if token, ok := s.manager.Get(ctx, kind, userID); ok {
		return token, nil
	}

	key := cachekeys.TokenKey(userID, kind == domain.TokenKindAdmin)
	// The flight outlives any single caller; each caller still honours its own ctx.
	flightCtx := context.WithoutCancel(ctx)
	ch := s.group.DoChan(key, func() (any, error) {
		token, err := s.acquire(flightCtx, kind, userID, key, fetch)
		if err != nil {
			return nil, err
		}
		return acquired{token: token}, nil
	})

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		if res.Shared {
			metrics.IncrementTokenBootstrapShared(string(kind))
		}
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(acquired).token, nil
	}
}

func (s *TokenService) acquire(ctx context.Context, kind domain.TokenKind, userID, key string, fetch func(context.Context) (string, time.Duration, error)) (string, error) {
	// Another flight may have filled the cache between our miss and now.
	if token, ok := s.manager.Get(ctx, kind, userID); ok {
		return token, nil
	}

	if s.locker != nil {
		lockKey := cachekeys.RefreshLockKey(key)
		owner := uuid.NewString()
		held, err := s.locker.AcquireLock(ctx, lockKey, owner, s.lockTTL)
		switch {
		case err != nil:
			s.logger.Warn(ctx, "Token refresh lock unavailable, acquiring without it", "lock_key", lockKey, "error", err.Error())
		case held:
			defer func() {
				if _, err := s.locker.ReleaseLock(ctx, lockKey, owner); err != nil {
					s.logger.Warn(ctx, "Failed to release token refresh lock", "lock_key", lockKey, "error", err.Error())
				}
			}()
		default:
			if token, ok := s.waitForPeer(ctx, kind, userID, lockKey); ok {
				return token, nil
			}
		}
	}

	token, ttl, err := fetch(ctx)
	if err != nil {
		metrics.IncrementTokenBootstrap(string(kind), "failure")
		return "", err
	}
	metrics.IncrementTokenBootstrap(string(kind), "success")

	if err := s.manager.Save(ctx, kind, userID, token, ttl); err != nil {
		s.logger.Error(ctx, "Failed to cache acquired token; it will be re-acquired on next use", "key", key, "error", err.Error())
	}
	return token, nil
}

// waitForPeer polls the cache with backoff while another process holds the
// refresh lock. It reports a token only when one appeared in the cache.
func (s *TokenService) waitForPeer(ctx context.Context, kind domain.TokenKind, userID, lockKey string) (string, bool) {
	s.logger.Debug(ctx, "Token refresh in progress elsewhere, waiting", "lock_key", lockKey)
	delay := s.retryDelay
	for i := 0; i < maxRefreshLockRetries; i++ {
		select {
		case <-ctx.Done():
			return "", false
		case <-time.After(delay):
		}
		if token, ok := s.manager.Get(ctx, kind, userID); ok {
			metrics.IncrementTokenBootstrapShared(string(kind))
			return token, true
		}
		delay *= 2
		if delay > maxRefreshRetryDelay {
			delay = maxRefreshRetryDelay
		}
	}
	s.logger.Warn(ctx, "Token refresh lock holder did not publish a token in time, acquiring directly", "lock_key", lockKey)
	return "", false
}

func (s *TokenService) fetchAdminToken(ctx context.Context, userID string) (string, time.Duration, error) {
	payload := map[string]any{
		"userID": userID,
		"secret": s.config.Get().OpenIM.Secret,
	}
	res, err := s.sender.Send(ctx, endpoints.GetAdminToken, payload, adminTokenFailureMessage, "")
	return s.tokenFromResult(ctx, domain.TokenKindAdmin, res, err)
}

func (s *TokenService) fetchUserToken(ctx context.Context, userID string, platformID int) (string, time.Duration, error) {
	adminToken, err := s.AdminToken(ctx, "")
	if err != nil {
		return "", 0, err
	}
	payload := map[string]any{
		"userID":     userID,
		"platformID": platformID,
	}
	res, err := s.sender.Send(ctx, endpoints.GetUserToken, payload, userTokenFailureMessage, adminToken)
	return s.tokenFromResult(ctx, domain.TokenKindUser, res, err)
}

func (s *TokenService) tokenFromResult(ctx context.Context, kind domain.TokenKind, res domain.Result, err error) (string, time.Duration, error) {
	if err != nil {
		s.logger.Warn(ctx, "Token acquisition request failed", "error", err.Error())
		return "", 0, domain.NewAuthUnavailableError(kind)
	}
	token, expireSeconds, ok := res.TokenData()
	if !ok {
		code, _ := res.ErrCode()
		s.logger.Warn(ctx, "Token acquisition rejected by remote service", "err_code", code, "err_msg", res.ErrMsg())
		return "", 0, domain.NewAuthUnavailableError(kind)
	}
	return token, s.tokenTTL(token, expireSeconds), nil
}

// tokenTTL prefers the server's expireTimeSeconds, then the token's own exp
// claim. Zero means the manager default.
func (s *TokenService) tokenTTL(token string, expireSeconds int64) time.Duration {
	if expireSeconds > 0 {
		return time.Duration(expireSeconds) * time.Second
	}
	if left, ok := remainingLifetime(token, s.now()); ok {
		return left
	}
	return 0
}

func (s *TokenService) defaultPlatformID() int {
	if id := s.config.Get().OpenIM.PlatformID; id > 0 {
		return id
	}
	return domain.DefaultPlatformID
}
