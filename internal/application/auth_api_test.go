package application

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.com/timkado/api/openim-client/pkg/endpoints"
)

func TestAuthAPI_GetAdminTokenIsUncached(t *testing.T) {
	h := newHarness(t, nil)
	h.server.reply(endpoints.GetAdminToken, adminTokenOK)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		res := h.client.Auth().GetAdminToken(ctx, "")
		token, _, ok := res.TokenData()
		require.True(t, ok)
		assert.Equal(t, "T1", token)
	}
	assert.Equal(t, 2, h.server.calls(endpoints.GetAdminToken))
	_, ok := h.manager.GetAdminToken(ctx, "imAdmin")
	assert.False(t, ok)
}

func TestAuthAPI_GetUserToken(t *testing.T) {
	h := newHarness(t, nil)
	h.server.reply(endpoints.GetAdminToken, adminTokenOK)
	h.server.reply(endpoints.GetUserToken, userTokenOK)

	res := h.client.Auth().GetUserToken(context.Background(), "u1", 2)
	assert.True(t, res.OK())

	req := h.server.last(endpoints.GetUserToken)
	assert.Equal(t, "T1", req.Token)
	assert.EqualValues(t, 2, req.Body["platformID"])
}

func TestAuthAPI_MissingAdminToken(t *testing.T) {
	h := newHarness(t, nil)
	h.server.reply(endpoints.GetAdminToken, `{"errCode":1001,"errMsg":"bad secret"}`)
	ctx := context.Background()

	for name, res := range map[string]map[string]any{
		"GetUserToken": h.client.Auth().GetUserToken(ctx, "u1", 1),
		"ForceLogout":  h.client.Auth().ForceLogout(ctx, "u1", 1),
		"UserToken":    h.client.Auth().UserToken(ctx, "u1"),
	} {
		assert.Equal(t, 500, res["errCode"], name)
		assert.Equal(t, "failed to obtain admin token", res["errMsg"], name)
	}
	assert.Equal(t, 0, h.server.calls(endpoints.GetUserToken))
	assert.Equal(t, 0, h.server.calls(endpoints.ForceLogout))
	assert.Equal(t, 0, h.server.calls(endpoints.UserToken))
}

func TestAuthAPI_ForceLogoutClearsCachedUserToken(t *testing.T) {
	h := newHarness(t, nil)
	h.server.reply(endpoints.GetAdminToken, adminTokenOK)
	h.server.reply(endpoints.ForceLogout, `{"errCode":0,"errMsg":""}`)
	ctx := context.Background()

	require.NoError(t, h.manager.SaveUserToken(ctx, "u1", "U-OLD", time.Hour))

	res := h.client.Auth().ForceLogout(ctx, "u1", 0)
	assert.True(t, res.OK())

	_, ok := h.manager.GetUserToken(ctx, "u1")
	assert.False(t, ok)
	req := h.server.last(endpoints.ForceLogout)
	assert.Equal(t, "T1", req.Token)
	assert.Equal(t, map[string]any{"userID": "u1", "platformID": float64(1)}, req.Body)
}

func TestAuthAPI_ParseTokenSendsCallerToken(t *testing.T) {
	h := newHarness(t, nil)
	h.server.reply(endpoints.ParseToken, `{"errCode":0,"data":{"userID":"u1","platformID":1,"expireTimeSeconds":50}}`)

	res := h.client.Auth().ParseToken(context.Background(), "USER-TOKEN")
	assert.True(t, res.OK())
	assert.Equal(t, "u1", res.Data()["userID"])
	assert.Equal(t, "USER-TOKEN", h.server.last(endpoints.ParseToken).Token)
}

func TestAuthAPI_UserTokenLegacy(t *testing.T) {
	h := newHarness(t, nil)
	h.server.reply(endpoints.GetAdminToken, adminTokenOK)
	h.server.reply(endpoints.UserToken, userTokenOK)

	res := h.client.Auth().UserToken(context.Background(), "u1")
	assert.True(t, res.OK())
	assert.Equal(t, map[string]any{"userID": "u1"}, h.server.last(endpoints.UserToken).Body)
}

func TestAuthAPI_RemoteErrorPassesThrough(t *testing.T) {
	h := newHarness(t, nil)
	h.server.reply(endpoints.ParseToken, `{"errCode":1501,"errMsg":"token expired","errDlt":"detail"}`)

	res := h.client.Auth().ParseToken(context.Background(), "bad")
	code, ok := res.ErrCode()
	require.True(t, ok)
	assert.Equal(t, 1501, code)
	assert.Equal(t, "detail", res["errDlt"])
}
