package application

import (
	"context"
	"errors"

	"gitlab.com/timkado/api/openim-client/internal/adapters/config"
	"gitlab.com/timkado/api/openim-client/internal/domain"
)

// Client owns everything one OpenIM connection needs: configuration, the
// token cache and its manager, the dispatcher, and the façades built on
// them. Nothing is process-global; two Clients never share state unless
// they share a cache backend.
type Client struct {
	config config.Provider
	cache  domain.TokenCache
	sender domain.RequestSender
	tokens *TokenService
	auth   *AuthAPI
	logger domain.Logger
}

// NewClient assembles a Client from its parts.
func NewClient(cfgProvider config.Provider, cache domain.TokenCache, sender domain.RequestSender, tokens *TokenService, logger domain.Logger) (*Client, error) {
	if cfgProvider == nil || cache == nil || sender == nil || tokens == nil || logger == nil {
		return nil, errors.New("config, cache, sender, token service and logger are required for the client")
	}
	auth, err := NewAuthAPI(tokens, sender, logger)
	if err != nil {
		return nil, err
	}
	return &Client{
		config: cfgProvider,
		cache:  cache,
		sender: sender,
		tokens: tokens,
		auth:   auth,
		logger: logger,
	}, nil
}

func (c *Client) Config() *config.Config   { return c.config.Get() }
func (c *Client) Cache() domain.TokenCache { return c.cache }
func (c *Client) Tokens() *TokenService    { return c.tokens }
func (c *Client) Manager() *TokenManager   { return c.tokens.Manager() }
func (c *Client) Auth() *AuthAPI           { return c.auth }
func (c *Client) Logger() domain.Logger    { return c.logger }

// Call sends payload to path with the given token (empty for none) and
// returns the uniform result envelope.
func (c *Client) Call(ctx context.Context, path string, payload map[string]any, errMsg, token string) domain.Result {
	return domain.AsResult(c.sender.Send(ctx, path, payload, errMsg, token))
}

// CallAsAdmin is Call authenticated with the cached admin token.
func (c *Client) CallAsAdmin(ctx context.Context, path string, payload map[string]any, errMsg string) domain.Result {
	token, err := c.tokens.AdminToken(ctx, "")
	if err != nil {
		return domain.AsResult(nil, err)
	}
	return c.Call(ctx, path, payload, errMsg, token)
}

// CallAsUser is Call authenticated with userID's cached token.
func (c *Client) CallAsUser(ctx context.Context, userID string, path string, payload map[string]any, errMsg string) domain.Result {
	token, err := c.tokens.UserToken(ctx, userID, 0)
	if err != nil {
		return domain.AsResult(nil, err)
	}
	return c.Call(ctx, path, payload, errMsg, token)
}

// Close releases background resources held by the cache backend. A shared
// Redis client is left open; it belongs to the caller.
func (c *Client) Close() {
	if closer, ok := c.cache.(interface{ Close() }); ok {
		closer.Close()
	}
}
