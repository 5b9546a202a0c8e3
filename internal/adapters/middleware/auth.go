package middleware

import (
	"crypto/subtle"
	"net/http"

	"gitlab.com/timkado/api/openim-client/internal/adapters/config"
	"gitlab.com/timkado/api/openim-client/internal/domain"
)

const (
	apiKeyHeaderName = "X-API-Key"
	apiKeyQueryParam = "x-api-key"
)

// APIKeyAuthMiddleware guards the token broker. The key is read from the
// X-API-Key header, falling back to the x-api-key query parameter, and must
// equal broker.api_key.
func APIKeyAuthMiddleware(cfgProvider config.Provider, logger domain.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			apiKey := r.Header.Get(apiKeyHeaderName)
			if apiKey == "" {
				apiKey = r.URL.Query().Get(apiKeyQueryParam)
			}

			cfg := cfgProvider.Get()
			if cfg == nil || cfg.Broker.APIKey == "" {
				logger.Error(r.Context(), "API key authentication failed: broker.api_key not configured", "path", r.URL.Path)
				domain.ErrorResult(http.StatusInternalServerError, "Server configuration error", "API authentication cannot be performed.").WriteJSON(w, http.StatusInternalServerError)
				return
			}

			if apiKey == "" {
				logger.Warn(r.Context(), "API key authentication failed: Key missing", "path", r.URL.Path)
				domain.ErrorResult(http.StatusUnauthorized, "API key is required", "Provide API key in X-API-Key header or x-api-key query parameter.").WriteJSON(w, http.StatusUnauthorized)
				return
			}

			if subtle.ConstantTimeCompare([]byte(apiKey), []byte(cfg.Broker.APIKey)) != 1 {
				logger.Warn(r.Context(), "API key authentication failed: Invalid key", "path", r.URL.Path)
				domain.ErrorResult(http.StatusUnauthorized, "Invalid API key", "The provided API key is not valid.").WriteJSON(w, http.StatusUnauthorized)
				return
			}

			logger.Debug(r.Context(), "API key authentication successful", "path", r.URL.Path)
			next.ServeHTTP(w, r)
		})
	}
}
