package benchmarks

import (
	"testing"
	"time"

	"gitlab.com/timkado/api/openim-client/benchmarks/mocks"
	"gitlab.com/timkado/api/openim-client/internal/adapters/openim"
	"gitlab.com/timkado/api/openim-client/internal/application"
	"gitlab.com/timkado/api/openim-client/internal/domain"
)

// benchEnv is a full client wired against an in-process remote.
type benchEnv struct {
	remote *mocks.MockOpenIM
	cache  *mocks.MockTokenCache
	logger *mocks.MockLogger
	client *application.Client
}

func setupClient(b *testing.B, locker domain.RefreshLocker) *benchEnv {
	b.Helper()

	remote := mocks.NewMockOpenIM()
	b.Cleanup(remote.Close)

	cfg := mocks.NewMockConfigProvider(remote.URL())
	logger := mocks.NewMockLogger()
	cache := mocks.NewMockTokenCache()

	dispatcher, err := openim.NewDispatcher(cfg, logger)
	if err != nil {
		b.Fatalf("Failed to create dispatcher: %v", err)
	}
	manager, err := application.NewTokenManager(cache, logger, 24*time.Hour)
	if err != nil {
		b.Fatalf("Failed to create token manager: %v", err)
	}
	tokens, err := application.NewTokenService(manager, dispatcher, locker, cfg, logger)
	if err != nil {
		b.Fatalf("Failed to create token service: %v", err)
	}
	client, err := application.NewClient(cfg, cache, dispatcher, tokens, logger)
	if err != nil {
		b.Fatalf("Failed to create client: %v", err)
	}

	return &benchEnv{remote: remote, cache: cache, logger: logger, client: client}
}
