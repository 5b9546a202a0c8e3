package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/google/wire"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"gitlab.com/timkado/api/openim-client/internal/adapters/config"
	"gitlab.com/timkado/api/openim-client/internal/adapters/filecache"
	apphttp "gitlab.com/timkado/api/openim-client/internal/adapters/http"
	"gitlab.com/timkado/api/openim-client/internal/adapters/logger"
	"gitlab.com/timkado/api/openim-client/internal/adapters/memcache"
	"gitlab.com/timkado/api/openim-client/internal/adapters/middleware"
	"gitlab.com/timkado/api/openim-client/internal/adapters/openim"
	appredis "gitlab.com/timkado/api/openim-client/internal/adapters/redis"
	"gitlab.com/timkado/api/openim-client/internal/application"
	"gitlab.com/timkado/api/openim-client/internal/domain"
)

// BrokerAuthMiddleware guards the token broker routes.
type BrokerAuthMiddleware func(http.Handler) http.Handler

// InitialZapLoggerProvider provides a basic *zap.Logger, used while the
// configuration is being loaded.
func InitialZapLoggerProvider() (*zap.Logger, func(), error) {
	logger, err := zap.NewProduction()
	if err != nil {
		logger, err = zap.NewDevelopment()
		if err != nil {
			logger = zap.NewExample()
			fmt.Fprintf(os.Stderr, "Failed to create initial zap logger (production and development failed, falling back to example): %v\n", err)
		}
	}

	cleanup := func() {
		if syncErr := logger.Sync(); syncErr != nil {
			fmt.Fprintf(os.Stderr, "Failed to sync initial zap logger: %v\n", syncErr)
		}
	}
	return logger, cleanup, nil
}

// App is the token broker process.
type App struct {
	configProvider config.Provider
	logger         domain.Logger
	httpServeMux   *http.ServeMux
	httpServer     *http.Server
	client         *application.Client
	tokenHandlers  *apphttp.TokenHandlers
	brokerAuth     BrokerAuthMiddleware
	redisClient    redis.UniversalClient // nil unless cache.backend is redis
}

// NewApp is the constructor for App, for Wire.
func NewApp(
	cfgProvider config.Provider,
	appLogger domain.Logger,
	mux *http.ServeMux,
	server *http.Server,
	client *application.Client,
	tokenHandlers *apphttp.TokenHandlers,
	brokerAuth BrokerAuthMiddleware,
	redisClient redis.UniversalClient,
) (*App, func(), error) {
	app := &App{
		configProvider: cfgProvider,
		logger:         appLogger,
		httpServeMux:   mux,
		httpServer:     server,
		client:         client,
		tokenHandlers:  tokenHandlers,
		brokerAuth:     brokerAuth,
		redisClient:    redisClient,
	}
	cleanup := func() {
		app.logger.Info(context.Background(), "Running app cleanup...")
	}
	return app, cleanup, nil
}

// Client returns the OpenIM client the broker serves from.
func (a *App) Client() *application.Client {
	return a.client
}

// ConfigProvider provides the application configuration.
func ConfigProvider(appCtx context.Context, logger *zap.Logger) (config.Provider, error) {
	return config.NewViperProvider(appCtx, logger)
}

// LoggerProvider provides the application logger.
func LoggerProvider(cfgProvider config.Provider) (domain.Logger, error) {
	return logger.NewZapAdapter(cfgProvider, cfgProvider.Get().App.ServiceName)
}

// HTTPServeMuxProvider provides the main HTTP multiplexer.
func HTTPServeMuxProvider() *http.ServeMux {
	return http.NewServeMux()
}

// HTTPGracefulServerProvider provides the broker's HTTP server. The write
// timeout leaves room for one upstream token acquisition.
func HTTPGracefulServerProvider(cfgProvider config.Provider, mux *http.ServeMux) *http.Server {
	appCfg := cfgProvider.Get()

	readTimeout := 10 * time.Second
	idleTimeout := 60 * time.Second
	writeTimeout := 2*appCfg.HTTP.RequestTimeout() + 5*time.Second

	return &http.Server{
		Addr:         fmt.Sprintf(":%d", appCfg.Server.HTTPPort),
		Handler:      mux,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  idleTimeout,
	}
}

// RedisClientProvider connects to Redis when the redis cache backend is
// selected. For any other backend it returns a nil client.
func RedisClientProvider(cfgProvider config.Provider, appLogger domain.Logger) (redis.UniversalClient, func(), error) {
	appCfg := cfgProvider.Get()
	if appCfg.Cache.Backend != config.CacheBackendRedis {
		return nil, func() {}, nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     appCfg.Redis.Address,
		Password: appCfg.Redis.Password,
		DB:       appCfg.Redis.DB,
	})
	if _, err := client.Ping(context.Background()).Result(); err != nil {
		appLogger.Error(context.Background(), "Failed to connect to Redis", "error", err.Error(), "address", appCfg.Redis.Address)
		client.Close()
		return nil, nil, fmt.Errorf("failed to connect to Redis at %s: %w", appCfg.Redis.Address, err)
	}
	cleanup := func() {
		client.Close()
		appLogger.Info(context.Background(), "Redis connection closed")
	}
	appLogger.Info(context.Background(), "Successfully connected to Redis", "address", appCfg.Redis.Address)
	return client, cleanup, nil
}

// TokenCacheProvider builds the configured cache backend. An unusable
// directory or a missing Redis client is a startup error.
func TokenCacheProvider(cfgProvider config.Provider, redisClient redis.UniversalClient, appLogger domain.Logger) (domain.TokenCache, func(), error) {
	appCfg := cfgProvider.Get()
	switch appCfg.Cache.Backend {
	case config.CacheBackendRedis:
		cache, err := appredis.NewTokenCacheAdapter(redisClient, appLogger)
		if err != nil {
			return nil, nil, err
		}
		return cache, func() {}, nil
	case config.CacheBackendMemory:
		cache := memcache.New(appLogger)
		return cache, cache.Close, nil
	case config.CacheBackendFile, "":
		dir := appCfg.Cache.Dir
		if dir == "" {
			dir = config.DefaultCacheDir()
		}
		cache, err := filecache.New(dir, appLogger)
		if err != nil {
			return nil, nil, err
		}
		appLogger.Info(context.Background(), "Using file token cache", "dir", dir)
		return cache, func() {}, nil
	}
	return nil, nil, fmt.Errorf("unknown cache backend %q", appCfg.Cache.Backend)
}

// RefreshLockerProvider returns a Redis refresh lock when Redis backs the
// cache, and nil otherwise.
func RefreshLockerProvider(redisClient redis.UniversalClient, appLogger domain.Logger) (domain.RefreshLocker, error) {
	if redisClient == nil {
		return nil, nil
	}
	return appredis.NewRefreshLockAdapter(redisClient, appLogger)
}

// DispatcherProvider provides the HTTP dispatcher to the OpenIM server.
func DispatcherProvider(cfgProvider config.Provider, appLogger domain.Logger) (*openim.Dispatcher, error) {
	return openim.NewDispatcher(cfgProvider, appLogger)
}

// TokenManagerProvider provides the TokenManager.
func TokenManagerProvider(cfgProvider config.Provider, cache domain.TokenCache, appLogger domain.Logger) (*application.TokenManager, error) {
	ttl := time.Duration(cfgProvider.Get().Cache.DefaultTokenTTLSeconds) * time.Second
	return application.NewTokenManager(cache, appLogger, ttl)
}

// TokenServiceProvider provides the TokenService.
func TokenServiceProvider(manager *application.TokenManager, sender domain.RequestSender, locker domain.RefreshLocker, cfgProvider config.Provider, appLogger domain.Logger) (*application.TokenService, error) {
	return application.NewTokenService(manager, sender, locker, cfgProvider, appLogger)
}

// ClientProvider provides the Client aggregate.
func ClientProvider(cfgProvider config.Provider, cache domain.TokenCache, sender domain.RequestSender, tokens *application.TokenService, appLogger domain.Logger) (*application.Client, error) {
	return application.NewClient(cfgProvider, cache, sender, tokens, appLogger)
}

// TokenHandlersProvider provides the broker's HTTP handlers.
func TokenHandlersProvider(client *application.Client, appLogger domain.Logger) *apphttp.TokenHandlers {
	return apphttp.NewTokenHandlers(client, appLogger)
}

// BrokerAuthMiddlewareProvider provides the API key middleware for broker routes.
func BrokerAuthMiddlewareProvider(cfgProvider config.Provider, appLogger domain.Logger) BrokerAuthMiddleware {
	return middleware.APIKeyAuthMiddleware(cfgProvider, appLogger)
}

// ClientSet builds an OpenIM client from configuration.
var ClientSet = wire.NewSet(
	InitialZapLoggerProvider,
	ConfigProvider,
	LoggerProvider,
	RedisClientProvider,
	TokenCacheProvider,
	RefreshLockerProvider,
	DispatcherProvider,
	wire.Bind(new(domain.RequestSender), new(*openim.Dispatcher)),
	TokenManagerProvider,
	TokenServiceProvider,
	ClientProvider,
)

// ProviderSet is the Wire provider set for the token broker.
var ProviderSet = wire.NewSet(
	ClientSet,
	HTTPServeMuxProvider,
	HTTPGracefulServerProvider,
	TokenHandlersProvider,
	BrokerAuthMiddlewareProvider,
	NewApp,
)
