package application

import (
	"context"
	"errors"

	"gitlab.com/timkado/api/openim-client/internal/domain"
	"gitlab.com/timkado/api/openim-client/pkg/endpoints"
)

// AuthAPI is the façade over the remote service's auth endpoints. Every
// method returns the uniform result envelope; failures never escape as errors.
type AuthAPI struct {
	tokens *TokenService
	sender domain.RequestSender
	logger domain.Logger
}

// NewAuthAPI creates the auth façade.
func NewAuthAPI(tokens *TokenService, sender domain.RequestSender, logger domain.Logger) (*AuthAPI, error) {
	if tokens == nil || sender == nil || logger == nil {
		return nil, errors.New("token service, sender and logger are required for the auth api")
	}
	return &AuthAPI{tokens: tokens, sender: sender, logger: logger}, nil
}

// GetAdminToken asks the server for a fresh admin token. The cache is
// neither read nor written. An empty userID selects the configured admin.
func (a *AuthAPI) GetAdminToken(ctx context.Context, userID string) domain.Result {
	if userID == "" {
		userID = a.tokens.AdminUserID()
	}
	payload := map[string]any{
		"userID": userID,
		"secret": a.tokens.config.Get().OpenIM.Secret,
	}
	return domain.AsResult(a.sender.Send(ctx, endpoints.GetAdminToken, payload, "get admin token failed", ""))
}

// GetUserToken asks the server for a fresh user token, authenticated with
// the cached admin token. The user token itself is not cached.
func (a *AuthAPI) GetUserToken(ctx context.Context, userID string, platformID int) domain.Result {
	adminToken, err := a.tokens.AdminToken(ctx, "")
	if err != nil {
		return domain.AsResult(nil, err)
	}
	if platformID <= 0 {
		platformID = a.tokens.defaultPlatformID()
	}
	payload := map[string]any{"userID": userID, "platformID": platformID}
	return domain.AsResult(a.sender.Send(ctx, endpoints.GetUserToken, payload, "get user token failed", adminToken))
}

// ForceLogout kicks userID off platformID and drops the locally cached user
// token so the next UserToken call acquires a new one.
func (a *AuthAPI) ForceLogout(ctx context.Context, userID string, platformID int) domain.Result {
	adminToken, err := a.tokens.AdminToken(ctx, "")
	if err != nil {
		return domain.AsResult(nil, err)
	}
	if err := a.tokens.Manager().ClearToken(ctx, userID, false); err != nil {
		a.logger.Warn(ctx, "Failed to clear cached user token before logout", "user_id", userID, "error", err.Error())
	}
	if platformID <= 0 {
		platformID = a.tokens.defaultPlatformID()
	}
	payload := map[string]any{"userID": userID, "platformID": platformID}
	return domain.AsResult(a.sender.Send(ctx, endpoints.ForceLogout, payload, "force logout failed", adminToken))
}

// ParseToken asks the server to introspect token.
func (a *AuthAPI) ParseToken(ctx context.Context, token string) domain.Result {
	return domain.AsResult(a.sender.Send(ctx, endpoints.ParseToken, map[string]any{}, "parse token failed", token))
}

// UserToken calls the legacy login endpoint. Prefer GetUserToken.
func (a *AuthAPI) UserToken(ctx context.Context, userID string) domain.Result {
	adminToken, err := a.tokens.AdminToken(ctx, "")
	if err != nil {
		return domain.AsResult(nil, err)
	}
	return domain.AsResult(a.sender.Send(ctx, endpoints.UserToken, map[string]any{"userID": userID}, "user login failed", adminToken))
}
