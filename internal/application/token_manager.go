package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"gitlab.com/timkado/api/openim-client/internal/adapters/metrics"
	"gitlab.com/timkado/api/openim-client/internal/domain"
	"gitlab.com/timkado/api/openim-client/pkg/cachekeys"
)

// TokenManager stores and retrieves admin and user tokens in a TokenCache.
// It never talks to the network; acquisition on a miss is TokenService's job.
type TokenManager struct {
	cache      domain.TokenCache
	logger     domain.Logger
	defaultTTL atomic.Int64
}

// NewTokenManager creates a TokenManager. A non-positive defaultTTL selects
// domain.DefaultTokenTTL.
func NewTokenManager(cache domain.TokenCache, logger domain.Logger, defaultTTL time.Duration) (*TokenManager, error) {
	if cache == nil {
		return nil, errors.New("token cache is required")
	}
	if logger == nil {
		return nil, errors.New("logger is required for the token manager")
	}
	m := &TokenManager{cache: cache, logger: logger}
	m.SetDefaultTokenTTL(defaultTTL)
	return m, nil
}

// SetDefaultTokenTTL changes the TTL used when a save carries none.
func (m *TokenManager) SetDefaultTokenTTL(ttl time.Duration) {
	if ttl <= 0 {
		ttl = domain.DefaultTokenTTL
	}
	m.defaultTTL.Store(int64(ttl))
}

// DefaultTokenTTL returns the TTL used when a save carries none.
func (m *TokenManager) DefaultTokenTTL() time.Duration {
	return time.Duration(m.defaultTTL.Load())
}

// GetAdminToken returns the cached admin token for userID.
func (m *TokenManager) GetAdminToken(ctx context.Context, userID string) (string, bool) {
	return m.get(ctx, domain.TokenKindAdmin, userID)
}

// SaveAdminToken caches token for userID. A non-positive ttl uses the default.
func (m *TokenManager) SaveAdminToken(ctx context.Context, userID, token string, ttl time.Duration) error {
	return m.save(ctx, domain.TokenKindAdmin, userID, token, ttl)
}

// GetUserToken returns the cached user token for userID.
func (m *TokenManager) GetUserToken(ctx context.Context, userID string) (string, bool) {
	return m.get(ctx, domain.TokenKindUser, userID)
}

// SaveUserToken caches token for userID. A non-positive ttl uses the default.
func (m *TokenManager) SaveUserToken(ctx context.Context, userID, token string, ttl time.Duration) error {
	return m.save(ctx, domain.TokenKindUser, userID, token, ttl)
}

// ClearToken removes exactly one entry: the admin or the user token of userID.
func (m *TokenManager) ClearToken(ctx context.Context, userID string, isAdmin bool) error {
	key := cachekeys.TokenKey(userID, isAdmin)
	if err := m.cache.Delete(ctx, key); err != nil {
		return fmt.Errorf("clearing token %s: %w", key, err)
	}
	m.logger.Info(ctx, "Cleared cached token", "key", key)
	return nil
}

// Get returns the token of kind for userID.
func (m *TokenManager) Get(ctx context.Context, kind domain.TokenKind, userID string) (string, bool) {
	return m.get(ctx, kind, userID)
}

// Save caches a token of kind for userID.
func (m *TokenManager) Save(ctx context.Context, kind domain.TokenKind, userID, token string, ttl time.Duration) error {
	return m.save(ctx, kind, userID, token, ttl)
}

func (m *TokenManager) get(ctx context.Context, kind domain.TokenKind, userID string) (string, bool) {
	key := cachekeys.TokenKey(userID, kind == domain.TokenKindAdmin)
	raw, ok := m.cache.Get(ctx, key)
	if !ok {
		metrics.IncrementTokenCache(string(kind), "miss")
		return "", false
	}

	var record domain.Token
	if err := json.Unmarshal(raw, &record); err != nil || record.Value == "" {
		m.logger.Warn(ctx, "Discarding unreadable cached token", "key", key)
		metrics.IncrementTokenCache(string(kind), "miss")
		return "", false
	}
	metrics.IncrementTokenCache(string(kind), "hit")
	return record.Value, true
}

func (m *TokenManager) save(ctx context.Context, kind domain.TokenKind, userID, token string, ttl time.Duration) error {
	if token == "" {
		return fmt.Errorf("refusing to cache an empty %s token for %s", kind, userID)
	}
	if ttl <= 0 {
		ttl = m.DefaultTokenTTL()
	}
	key := cachekeys.TokenKey(userID, kind == domain.TokenKindAdmin)
	record, err := json.Marshal(domain.Token{Value: token, ExpiresInSeconds: int64(ttl / time.Second)})
	if err != nil {
		return fmt.Errorf("encoding token record %s: %w", key, err)
	}
	if err := m.cache.Put(ctx, key, record, ttl); err != nil {
		return fmt.Errorf("caching token %s: %w", key, err)
	}
	return nil
}
