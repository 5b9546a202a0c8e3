package mocks

import (
	"gitlab.com/timkado/api/openim-client/internal/adapters/config"
)

// MockConfigProvider implements config.Provider for benchmarking
type MockConfigProvider struct {
	config *config.Config
}

// NewMockConfigProvider creates a config pointing at host with benchmark settings
func NewMockConfigProvider(host string) *MockConfigProvider {
	return &MockConfigProvider{
		config: &config.Config{
			OpenIM: config.OpenIMConfig{
				Host:        host,
				Secret:      "benchmark-secret",
				AdminUserID: "imAdmin",
				PlatformID:  1,
			},
			Cache: config.CacheConfig{
				Backend:                 config.CacheBackendMemory,
				DefaultTokenTTLSeconds:  86400,
				RefreshLockTTLSeconds:   5,
				RefreshLockRetryDelayMs: 5,
			},
			HTTP: config.HTTPConfig{
				TimeoutSeconds: 5,
			},
			Log: config.LogConfig{
				Level: "error", // Minimize I/O overhead during benchmarks
			},
			App: config.AppConfig{
				ServiceName:            "openim-client-benchmark",
				Version:                "test",
				ShutdownTimeoutSeconds: 1,
			},
		},
	}
}

// Get implements config.Provider
func (m *MockConfigProvider) Get() *config.Config {
	return m.config
}
