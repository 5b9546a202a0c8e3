package config

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const envPrefix = "OPENIM_CLIENT"

// Cache backend selectors.
const (
	CacheBackendFile   = "file"
	CacheBackendRedis  = "redis"
	CacheBackendMemory = "memory"
)

// OpenIMConfig holds the remote service address and the shared secret used
// to mint admin tokens.
// Note: Fields should be exported (start with uppercase) to be unmarshalled by Viper.
type OpenIMConfig struct {
	Host        string `mapstructure:"host"`
	Secret      string `mapstructure:"secret"` // Should primarily come from ENV
	AdminUserID string `mapstructure:"admin_user_id"`
	PlatformID  int    `mapstructure:"platform_id"`
}

// CacheConfig selects and tunes the token cache backend.
type CacheConfig struct {
	Backend                 string `mapstructure:"backend"` // file | redis | memory
	Dir                     string `mapstructure:"dir"`     // file backend only
	DefaultTokenTTLSeconds  int    `mapstructure:"default_token_ttl_seconds"`
	RefreshLockTTLSeconds   int    `mapstructure:"refresh_lock_ttl_seconds"`    // redis backend only
	RefreshLockRetryDelayMs int    `mapstructure:"refresh_lock_retry_delay_ms"` // redis backend only
}

// RedisConfig holds Redis-related configurations.
type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"` // Optional
	DB       int    `mapstructure:"db"`       // Optional
}

// HTTPConfig tunes the outgoing HTTP client. TimeoutMs, when set, takes
// precedence over TimeoutSeconds.
type HTTPConfig struct {
	TimeoutSeconds int `mapstructure:"timeout_seconds"`
	TimeoutMs      int `mapstructure:"timeout_ms"`
}

// RequestTimeout is the per-request deadline, or 0 when neither field is set.
func (c HTTPConfig) RequestTimeout() time.Duration {
	if c.TimeoutMs > 0 {
		return time.Duration(c.TimeoutMs) * time.Millisecond
	}
	if c.TimeoutSeconds > 0 {
		return time.Duration(c.TimeoutSeconds) * time.Second
	}
	return 0
}

// LogConfig holds logging-related configurations.
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// ServerConfig holds the token broker's listener settings.
type ServerConfig struct {
	HTTPPort int `mapstructure:"http_port"`
}

// BrokerConfig holds the token broker's own credentials.
type BrokerConfig struct {
	APIKey string `mapstructure:"api_key"` // Should primarily come from ENV
}

// AppConfig holds application-specific configurations.
type AppConfig struct {
	ServiceName            string `mapstructure:"service_name"`
	Version                string `mapstructure:"version"`
	ShutdownTimeoutSeconds int    `mapstructure:"shutdown_timeout_seconds"`
}

// Config holds all configuration for the client and its broker.
type Config struct {
	OpenIM OpenIMConfig `mapstructure:"openim"`
	Cache  CacheConfig  `mapstructure:"cache"`
	Redis  RedisConfig  `mapstructure:"redis"`
	HTTP   HTTPConfig   `mapstructure:"http"`
	Log    LogConfig    `mapstructure:"log"`
	Server ServerConfig `mapstructure:"server"`
	Broker BrokerConfig `mapstructure:"broker"`
	App    AppConfig    `mapstructure:"app"`
}

// Validate checks the remote service settings.
func (c *OpenIMConfig) Validate() error {
	if c.Host == "" {
		return errors.New("openim.host is required")
	}
	u, err := url.Parse(c.Host)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("openim.host %q is not an absolute URL", c.Host)
	}
	if c.Secret == "" {
		return errors.New("openim.secret is required")
	}
	return nil
}

// Validate rejects configurations the client cannot start with.
func (c *Config) Validate() error {
	if err := c.OpenIM.Validate(); err != nil {
		return err
	}
	switch c.Cache.Backend {
	case CacheBackendFile, CacheBackendMemory:
	case CacheBackendRedis:
		if c.Redis.Address == "" {
			return errors.New("redis.address is required when cache.backend is redis")
		}
	default:
		return fmt.Errorf("unknown cache.backend %q", c.Cache.Backend)
	}
	return nil
}

// Provider defines an interface for accessing application configuration.
// This allows for easy mocking in tests and decouples the app from Viper.
type Provider interface {
	Get() *Config
}

// DefaultCacheDir is where the file backend keeps tokens when no directory is configured.
func DefaultCacheDir() string {
	return filepath.Join(os.TempDir(), "openimsdk_cache")
}

// SetDefaults registers every default on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("openim.host", "http://127.0.0.1:10002")
	v.SetDefault("openim.secret", "")
	v.SetDefault("openim.admin_user_id", "imAdmin")
	v.SetDefault("openim.platform_id", 1)
	v.SetDefault("cache.backend", CacheBackendFile)
	v.SetDefault("cache.dir", DefaultCacheDir())
	v.SetDefault("cache.default_token_ttl_seconds", 86400)
	v.SetDefault("cache.refresh_lock_ttl_seconds", 10)
	v.SetDefault("cache.refresh_lock_retry_delay_ms", 50)
	v.SetDefault("redis.address", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("http.timeout_seconds", 10)
	v.SetDefault("http.timeout_ms", 0)
	v.SetDefault("log.level", "info")
	v.SetDefault("server.http_port", 8088)
	v.SetDefault("broker.api_key", "")
	v.SetDefault("app.service_name", "openim-client")
	v.SetDefault("app.version", "dev")
	v.SetDefault("app.shutdown_timeout_seconds", 15)
}

// staticProvider serves a fixed Config.
type staticProvider struct {
	config *Config
}

// NewStaticProvider wraps an already-built Config, for library callers and tests.
func NewStaticProvider(cfg *Config) Provider {
	return &staticProvider{config: cfg}
}

func (p *staticProvider) Get() *Config {
	return p.config
}

// viperProvider implements the Provider interface using Viper.
type viperProvider struct {
	config *Config
	logger *zap.Logger // Using zap.Logger directly for config internal logging, not domain.Logger to avoid circular deps
}

// NewViperProvider creates and initializes a new configuration provider using Viper.
// It loads configuration from file and environment variables. The loaded config
// is immutable: the remote host and secret are read by in-flight requests, so a
// changed file is reported and takes effect only after a restart.
func NewViperProvider(appCtx context.Context, logger *zap.Logger) (Provider, error) {
	v := newViper()

	// Attempt to read the configuration file
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			logger.Warn("Config file not found; relying on defaults and environment variables", zap.Error(err))
		} else {
			logger.Error("Failed to read config file", zap.Error(err))
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		logger.Error("Failed to unmarshal config", zap.Error(err))
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		logger.Error("Invalid configuration", zap.Error(err))
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	p := &viperProvider{
		config: cfg,
		logger: logger,
	}

	if v.ConfigFileUsed() != "" {
		v.OnConfigChange(func(e fsnotify.Event) {
			defer func() {
				if r := recover(); r != nil {
					p.logger.Error("Panic recovered in OnConfigChange callback",
						zap.String("event_name", e.Name),
						zap.Any("panic_info", r),
						zap.String("stacktrace", string(debug.Stack())),
					)
				}
			}()
			if appCtx.Err() != nil {
				return
			}
			p.logger.Warn("Config file changed; restart required for changes to take effect",
				zap.String("name", e.Name), zap.String("op", e.Op.String()))
		})
		v.WatchConfig()
	}

	p.logger.Info("Configuration loaded successfully",
		zap.String("config_file_used", v.ConfigFileUsed()),
		zap.String("openim_host", cfg.OpenIM.Host),
		zap.String("cache_backend", cfg.Cache.Backend))

	return p, nil
}

// Get returns the loaded configuration.
func (p *viperProvider) Get() *Config {
	return p.config
}

func newViper() *viper.Viper {
	v := viper.New()
	SetDefaults(v)

	v.SetConfigName(getEnv("VIPER_CONFIG_NAME", "config"))
	v.SetConfigType("yaml")
	if path := os.Getenv("VIPER_CONFIG_PATH"); path != "" {
		v.AddConfigPath(path)
	}
	v.AddConfigPath(".")

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_")) // e.g., openim.host becomes OPENIM_CLIENT_OPENIM_HOST
	v.AutomaticEnv()
	return v
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}
