package application

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/golang-jwt/jwt/v5"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.com/timkado/api/openim-client/internal/adapters/logger"
	"gitlab.com/timkado/api/openim-client/internal/adapters/redis"
	"gitlab.com/timkado/api/openim-client/internal/domain"
	"gitlab.com/timkado/api/openim-client/pkg/cachekeys"
	"gitlab.com/timkado/api/openim-client/pkg/endpoints"
)

func TestAdminToken_BootstrapsAndCaches(t *testing.T) {
	h := newHarness(t, nil)
	h.server.reply(endpoints.GetAdminToken, adminTokenOK)
	ctx := context.Background()

	token, err := h.tokens.AdminToken(ctx, "imAdmin")
	require.NoError(t, err)
	assert.Equal(t, "T1", token)

	require.Equal(t, 1, h.server.calls(endpoints.GetAdminToken))
	req := h.server.last(endpoints.GetAdminToken)
	assert.Equal(t, map[string]any{"userID": "imAdmin", "secret": "s1"}, req.Body)
	assert.Empty(t, req.Token)
	assert.NotEmpty(t, req.OperationID)

	raw, ok := h.cache.Get(ctx, cachekeys.AdminTokenKey("imAdmin"))
	require.True(t, ok)
	assert.JSONEq(t, `{"token":"T1","expireTimeSeconds":100}`, string(raw))

	h.clock.Advance(99 * time.Second)
	_, ok = h.cache.Get(ctx, cachekeys.AdminTokenKey("imAdmin"))
	assert.True(t, ok, "entry lives for the server supplied 100s")
	h.clock.Advance(2 * time.Second)
	_, ok = h.cache.Get(ctx, cachekeys.AdminTokenKey("imAdmin"))
	assert.False(t, ok)
}

func TestAdminToken_CacheHitMakesNoCall(t *testing.T) {
	h := newHarness(t, nil)
	h.server.reply(endpoints.GetAdminToken, adminTokenOK)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		token, err := h.tokens.AdminToken(ctx, "")
		require.NoError(t, err)
		assert.Equal(t, "T1", token)
	}
	assert.Equal(t, 1, h.server.calls(endpoints.GetAdminToken))
}

func TestAdminToken_ConcurrentMissesShareOneAcquisition(t *testing.T) {
	h := newHarness(t, nil)
	h.server.delay = 50 * time.Millisecond
	h.server.reply(endpoints.GetAdminToken, adminTokenOK)

	const callers = 10
	var wg sync.WaitGroup
	tokens := make([]string, callers)
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tokens[i], errs[i] = h.tokens.AdminToken(context.Background(), "imAdmin")
		}(i)
	}
	wg.Wait()

	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, "T1", tokens[i])
	}
	assert.Equal(t, 1, h.server.calls(endpoints.GetAdminToken))
}

func TestAdminToken_IndependentBootstrapsBothSucceed(t *testing.T) {
	h := newHarness(t, nil)
	var issued atomic.Int32
	bothArrived := make(chan struct{})
	var arrived atomic.Int32
	h.server.on(endpoints.GetAdminToken, func(fakeRequest) (int, string) {
		if arrived.Add(1) == 2 {
			close(bothArrived)
		}
		select {
		case <-bothArrived:
		case <-time.After(time.Second):
		}
		n := issued.Add(1)
		return http.StatusOK, fmt.Sprintf(`{"errCode":0,"data":{"token":"T%d","expireTimeSeconds":100}}`, n)
	})

	// A second service over the same cache has its own in-process guard, so
	// both miss and both acquire.
	other, err := NewTokenService(h.manager, h.sender, nil, h.cfg, logger.NewNop())
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([]string, 2)
	for i, svc := range []*TokenService{h.tokens, other} {
		wg.Add(1)
		go func(i int, svc *TokenService) {
			defer wg.Done()
			token, err := svc.AdminToken(context.Background(), "imAdmin")
			assert.NoError(t, err)
			results[i] = token
		}(i, svc)
	}
	wg.Wait()

	assert.Equal(t, 2, h.server.calls(endpoints.GetAdminToken))
	cached, ok := h.manager.GetAdminToken(context.Background(), "imAdmin")
	require.True(t, ok)
	assert.Contains(t, []string{"T1", "T2"}, cached)
	assert.Contains(t, results, cached)
}

func TestAdminToken_FailuresAreAuthUnavailable(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{name: "remote error code", status: http.StatusOK, body: `{"errCode":1001,"errMsg":"bad secret"}`},
		{name: "missing token", status: http.StatusOK, body: `{"errCode":0,"data":{}}`},
		{name: "missing data", status: http.StatusOK, body: `{"errCode":0}`},
		{name: "transport", status: http.StatusInternalServerError, body: `oops`},
		{name: "not json", status: http.StatusOK, body: `<html>`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, nil)
			h.server.on(endpoints.GetAdminToken, func(fakeRequest) (int, string) { return tt.status, tt.body })

			token, err := h.tokens.AdminToken(context.Background(), "")
			assert.Empty(t, token)
			var reqErr *domain.RequestError
			require.ErrorAs(t, err, &reqErr)
			assert.Equal(t, domain.KindAuthUnavailable, reqErr.Kind)
			assert.Equal(t, 500, reqErr.Code)
			assert.Equal(t, "failed to obtain admin token", reqErr.Message)
			assert.ErrorIs(t, err, domain.ErrTokenUnavailable)

			_, ok := h.manager.GetAdminToken(context.Background(), "imAdmin")
			assert.False(t, ok, "failures are never cached")
		})
	}
}

func TestUserToken_UsesAdminToken(t *testing.T) {
	h := newHarness(t, nil)
	h.server.reply(endpoints.GetAdminToken, adminTokenOK)
	h.server.reply(endpoints.GetUserToken, userTokenOK)
	ctx := context.Background()

	token, err := h.tokens.UserToken(ctx, "u1", 0)
	require.NoError(t, err)
	assert.Equal(t, "U1", token)

	req := h.server.last(endpoints.GetUserToken)
	assert.Equal(t, "T1", req.Token)
	assert.Equal(t, "u1", req.Body["userID"])
	assert.EqualValues(t, 1, req.Body["platformID"])

	cached, ok := h.manager.GetUserToken(ctx, "u1")
	require.True(t, ok)
	assert.Equal(t, "U1", cached)
}

func TestUserToken_NoAdminTokenMeansNoUserRequest(t *testing.T) {
	h := newHarness(t, nil)
	h.server.reply(endpoints.GetAdminToken, `{"errCode":1001,"errMsg":"bad secret"}`)
	h.server.reply(endpoints.GetUserToken, userTokenOK)

	_, err := h.tokens.UserToken(context.Background(), "u1", 1)
	var reqErr *domain.RequestError
	require.ErrorAs(t, err, &reqErr)
	assert.Equal(t, 500, reqErr.Code)
	assert.Equal(t, "failed to obtain admin token", reqErr.Message)
	assert.Equal(t, 0, h.server.calls(endpoints.GetUserToken))
}

func TestTokenTTL_FallsBackToJWTExpiry(t *testing.T) {
	h := newHarness(t, nil)
	jwtToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"UserID": "imAdmin",
		"exp":    h.clock.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("server-key"))
	require.NoError(t, err)
	h.server.reply(endpoints.GetAdminToken, fmt.Sprintf(`{"errCode":0,"data":{"token":%q}}`, jwtToken))

	_, err = h.tokens.AdminToken(context.Background(), "")
	require.NoError(t, err)

	raw, ok := h.cache.Get(context.Background(), cachekeys.AdminTokenKey("imAdmin"))
	require.True(t, ok)
	var record domain.Token
	require.NoError(t, json.Unmarshal(raw, &record))
	assert.EqualValues(t, 3600, record.ExpiresInSeconds)
}

func TestTokenTTL_FallsBackToDefault(t *testing.T) {
	h := newHarness(t, nil)
	h.server.reply(endpoints.GetAdminToken, `{"errCode":0,"data":{"token":"opaque","expireTimeSeconds":0}}`)

	_, err := h.tokens.AdminToken(context.Background(), "")
	require.NoError(t, err)

	raw, ok := h.cache.Get(context.Background(), cachekeys.AdminTokenKey("imAdmin"))
	require.True(t, ok)
	var record domain.Token
	require.NoError(t, json.Unmarshal(raw, &record))
	assert.EqualValues(t, 86400, record.ExpiresInSeconds)
}

func TestObtain_CallerContextCancellation(t *testing.T) {
	h := newHarness(t, nil)
	h.server.delay = 200 * time.Millisecond
	h.server.reply(endpoints.GetAdminToken, adminTokenOK)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := h.tokens.AdminToken(ctx, "")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	// The acquisition still completes for later callers.
	assert.Eventually(t, func() bool {
		_, ok := h.manager.GetAdminToken(context.Background(), "imAdmin")
		return ok
	}, time.Second, 10*time.Millisecond)
}

func newRedisLocker(t *testing.T) (*redis.RefreshLockAdapter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	locker, err := redis.NewRefreshLockAdapter(client, logger.NewNop())
	require.NoError(t, err)
	return locker, mr
}

func TestRefreshLock_WaitsForHolderToPublish(t *testing.T) {
	locker, mr := newRedisLocker(t)
	h := newHarness(t, locker)
	h.server.reply(endpoints.GetAdminToken, adminTokenOK)

	lockKey := cachekeys.RefreshLockKey(cachekeys.AdminTokenKey("imAdmin"))
	require.NoError(t, mr.Set(lockKey, "other-process"))

	go func() {
		time.Sleep(15 * time.Millisecond)
		_ = h.manager.SaveAdminToken(context.Background(), "imAdmin", "FROM-PEER", time.Minute)
	}()

	token, err := h.tokens.AdminToken(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "FROM-PEER", token)
	assert.Equal(t, 0, h.server.calls(endpoints.GetAdminToken))
}

func TestRefreshLock_HolderNeverPublishes(t *testing.T) {
	locker, mr := newRedisLocker(t)
	h := newHarness(t, locker)
	h.server.reply(endpoints.GetAdminToken, adminTokenOK)

	lockKey := cachekeys.RefreshLockKey(cachekeys.AdminTokenKey("imAdmin"))
	require.NoError(t, mr.Set(lockKey, "stuck-process"))

	token, err := h.tokens.AdminToken(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "T1", token)
	assert.Equal(t, 1, h.server.calls(endpoints.GetAdminToken))
}

func TestRefreshLock_ReleasedAfterAcquisition(t *testing.T) {
	locker, mr := newRedisLocker(t)
	h := newHarness(t, locker)
	h.server.reply(endpoints.GetAdminToken, adminTokenOK)

	_, err := h.tokens.AdminToken(context.Background(), "")
	require.NoError(t, err)

	lockKey := cachekeys.RefreshLockKey(cachekeys.AdminTokenKey("imAdmin"))
	assert.False(t, mr.Exists(lockKey))
}

func TestRefreshLock_RedisDownIsSoft(t *testing.T) {
	locker, mr := newRedisLocker(t)
	h := newHarness(t, locker)
	h.server.reply(endpoints.GetAdminToken, adminTokenOK)
	mr.Close()

	token, err := h.tokens.AdminToken(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "T1", token)
}
