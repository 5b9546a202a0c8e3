// Package openim is the entry point for programs that talk to an OpenIM
// server: it owns admin and user tokens, caches them in a pluggable backend,
// and sends validated requests.
//
//	client, err := openim.New(openim.Config{Host: "http://127.0.0.1:10002", Secret: "openIM123"},
//		openim.WithCacheDir("/var/cache/openim"))
//	if err != nil {
//		return err
//	}
//	defer client.Close()
//	res := client.CallAsAdmin(ctx, endpoints.GetUsers, payload, "get users failed")
package openim

import (
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"gitlab.com/timkado/api/openim-client/internal/adapters/config"
	"gitlab.com/timkado/api/openim-client/internal/adapters/filecache"
	"gitlab.com/timkado/api/openim-client/internal/adapters/logger"
	"gitlab.com/timkado/api/openim-client/internal/adapters/memcache"
	imhttp "gitlab.com/timkado/api/openim-client/internal/adapters/openim"
	appredis "gitlab.com/timkado/api/openim-client/internal/adapters/redis"
	"gitlab.com/timkado/api/openim-client/internal/application"
	"gitlab.com/timkado/api/openim-client/internal/domain"
)

type (
	Client       = application.Client
	AuthAPI      = application.AuthAPI
	TokenManager = application.TokenManager
	TokenService = application.TokenService
	TokenClaims  = application.TokenClaims
	TokenCache   = domain.TokenCache
	Result       = domain.Result
	RequestError = domain.RequestError
	ErrorKind    = domain.ErrorKind
)

const (
	KindValidation      = domain.KindValidation
	KindTransport       = domain.KindTransport
	KindDecode          = domain.KindDecode
	KindAuthUnavailable = domain.KindAuthUnavailable
)

// ErrTokenUnavailable is wrapped by every KindAuthUnavailable error.
var ErrTokenUnavailable = domain.ErrTokenUnavailable

// DefaultHost is used when Config.Host is empty.
const DefaultHost = "http://127.0.0.1:10002"

// Config is the connection configuration. Host and Secret are the only
// required settings; everything else has a default.
type Config struct {
	Host            string
	Secret          string
	AdminUserID     string        // default imAdmin
	PlatformID      int           // default 1
	DefaultTokenTTL time.Duration // default 24h
	Timeout         time.Duration // default 10s
}

type options struct {
	redisClient redis.UniversalClient
	cacheDir    string
	memory      bool
	cache       domain.TokenCache
	logger      *zap.Logger
	httpClient  *http.Client
}

// Option customises New.
type Option func(*options)

// WithRedis stores tokens in Redis, shared by every process using the same
// instance, and coordinates acquisition between them.
func WithRedis(client redis.UniversalClient) Option {
	return func(o *options) { o.redisClient = client }
}

// WithCacheDir stores tokens as files under dir. This is the default, with
// dir under the system temp directory.
func WithCacheDir(dir string) Option {
	return func(o *options) { o.cacheDir = dir }
}

// WithMemoryCache keeps tokens in process memory only.
func WithMemoryCache() Option {
	return func(o *options) { o.memory = true }
}

// WithCache uses a caller-supplied backend.
func WithCache(cache TokenCache) Option {
	return func(o *options) { o.cache = cache }
}

// WithLogger routes client logs to l. Without it the client is silent.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithHTTPClient replaces the HTTP client used for every request.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.httpClient = c }
}

// New validates cfg, opens the selected cache backend and returns a ready
// Client. An unusable cache directory is reported here, not on first use.
func New(cfg Config, opts ...Option) (*Client, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	full := toConfig(cfg, o)
	if err := full.OpenIM.Validate(); err != nil {
		return nil, err
	}
	provider := config.NewStaticProvider(full)

	log := logger.NewNop()
	if o.logger != nil {
		log = logger.NewFromZap(o.logger)
	}

	cache, locker, err := openCache(full, o, log)
	if err != nil {
		return nil, err
	}

	var dispatcherOpts []imhttp.Option
	if o.httpClient != nil {
		dispatcherOpts = append(dispatcherOpts, imhttp.WithHTTPClient(o.httpClient))
	}
	sender, err := imhttp.NewDispatcher(provider, log, dispatcherOpts...)
	if err != nil {
		return nil, err
	}

	manager, err := application.NewTokenManager(cache, log, time.Duration(full.Cache.DefaultTokenTTLSeconds)*time.Second)
	if err != nil {
		return nil, err
	}
	tokens, err := application.NewTokenService(manager, sender, locker, provider, log)
	if err != nil {
		return nil, err
	}
	return application.NewClient(provider, cache, sender, tokens, log)
}

// InspectToken decodes a token's claims locally without verifying it.
func InspectToken(token string) (*TokenClaims, error) {
	return application.InspectToken(token)
}

func toConfig(cfg Config, o *options) *config.Config {
	full := &config.Config{
		OpenIM: config.OpenIMConfig{
			Host:        cfg.Host,
			Secret:      cfg.Secret,
			AdminUserID: cfg.AdminUserID,
			PlatformID:  cfg.PlatformID,
		},
		Cache: config.CacheConfig{
			Backend:                 config.CacheBackendFile,
			Dir:                     o.cacheDir,
			DefaultTokenTTLSeconds:  int(cfg.DefaultTokenTTL / time.Second),
			RefreshLockTTLSeconds:   10,
			RefreshLockRetryDelayMs: 50,
		},
		HTTP: config.HTTPConfig{TimeoutMs: timeoutMillis(cfg.Timeout)},
	}
	if full.OpenIM.Host == "" {
		full.OpenIM.Host = DefaultHost
	}
	if full.OpenIM.AdminUserID == "" {
		full.OpenIM.AdminUserID = domain.DefaultAdminUserID
	}
	if full.OpenIM.PlatformID <= 0 {
		full.OpenIM.PlatformID = domain.DefaultPlatformID
	}
	if full.Cache.DefaultTokenTTLSeconds <= 0 {
		full.Cache.DefaultTokenTTLSeconds = int(domain.DefaultTokenTTL / time.Second)
	}
	if full.HTTP.TimeoutMs <= 0 {
		full.HTTP.TimeoutSeconds = 10
	}
	if full.Cache.Dir == "" {
		full.Cache.Dir = config.DefaultCacheDir()
	}
	switch {
	case o.redisClient != nil:
		full.Cache.Backend = config.CacheBackendRedis
	case o.memory || o.cache != nil:
		full.Cache.Backend = config.CacheBackendMemory
	}
	return full
}

// timeoutMillis rounds d up to whole milliseconds so a positive timeout is
// never lost.
func timeoutMillis(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int((d + time.Millisecond - 1) / time.Millisecond)
}

func openCache(cfg *config.Config, o *options, log domain.Logger) (domain.TokenCache, domain.RefreshLocker, error) {
	switch {
	case o.cache != nil:
		return o.cache, nil, nil
	case o.redisClient != nil:
		cache, err := appredis.NewTokenCacheAdapter(o.redisClient, log)
		if err != nil {
			return nil, nil, err
		}
		locker, err := appredis.NewRefreshLockAdapter(o.redisClient, log)
		if err != nil {
			return nil, nil, err
		}
		return cache, locker, nil
	case o.memory:
		return memcache.New(log), nil, nil
	}
	cache, err := filecache.New(cfg.Cache.Dir, log)
	if err != nil {
		return nil, nil, err
	}
	return cache, nil, nil
}
