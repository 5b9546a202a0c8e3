package bootstrap

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"gitlab.com/timkado/api/openim-client/internal/adapters/middleware"
	"gitlab.com/timkado/api/openim-client/pkg/safego"
)

// writableChecker is implemented by cache backends that can check their storage.
type writableChecker interface {
	CheckWritable() error
}

// RegisterRoutes mounts health, readiness, metrics and the broker routes.
func (a *App) RegisterRoutes(ctx context.Context) {
	healthHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		a.logger.Debug(r.Context(), "Health check endpoint hit")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, `{"status":"OK"}`)
	})
	a.httpServeMux.Handle("GET /health", middleware.RequestIDMiddleware(healthHandler))
	a.httpServeMux.Handle("GET /ready", middleware.RequestIDMiddleware(http.HandlerFunc(a.readyHandler)))

	a.httpServeMux.Handle("GET /metrics", middleware.RequestIDMiddleware(promhttp.Handler()))
	a.logger.Info(ctx, "Prometheus metrics endpoint registered at /metrics")

	if a.tokenHandlers != nil && a.brokerAuth != nil {
		a.tokenHandlers.Register(a.httpServeMux, func(h http.Handler) http.Handler {
			return middleware.RequestIDMiddleware(a.brokerAuth(h))
		})
		a.logger.Info(ctx, "Token broker endpoints registered under /v1/tokens")
	} else {
		a.logger.Error(ctx, "Token handlers or broker auth middleware not initialized. /v1/tokens endpoints will not be available.")
	}
}

func (a *App) readyHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	ready := true
	dependenciesStatus := make(map[string]string)

	if a.redisClient != nil {
		if err := a.redisClient.Ping(r.Context()).Err(); err == nil {
			dependenciesStatus["redis"] = "connected"
		} else {
			dependenciesStatus["redis"] = "disconnected"
			ready = false
			a.logger.Warn(r.Context(), "Readiness check failed: Redis ping failed", "error", err.Error())
		}
	}

	if p, ok := a.client.Cache().(writableChecker); ok {
		if err := p.CheckWritable(); err == nil {
			dependenciesStatus["token_cache"] = "writable"
		} else {
			dependenciesStatus["token_cache"] = "unwritable"
			ready = false
			a.logger.Warn(r.Context(), "Readiness check failed: token cache not writable", "error", err.Error())
		}
	} else if a.redisClient == nil {
		dependenciesStatus["token_cache"] = "in_memory"
	}

	response := struct {
		Status       string            `json:"status"`
		Dependencies map[string]string `json:"dependencies"`
	}{
		Dependencies: dependenciesStatus,
	}

	if ready {
		response.Status = "READY"
		w.WriteHeader(http.StatusOK)
	} else {
		response.Status = "NOT_READY"
		w.WriteHeader(http.StatusServiceUnavailable)
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		a.logger.Error(r.Context(), "Failed to encode readiness response", "error", err)
	}
}

// Run serves the broker until a signal arrives or ctx is cancelled, then
// shuts the HTTP server down gracefully.
func (a *App) Run(ctx context.Context) error {
	appCfg := a.configProvider.Get().App
	a.logger.Info(ctx, "Starting application", "service_name", appCfg.ServiceName, "version", appCfg.Version)

	a.RegisterRoutes(ctx)

	safego.Execute(ctx, a.logger, "SignalListenerAndGracefulShutdown", func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)
		select {
		case sig := <-quit:
			a.logger.Info(context.Background(), "Shutdown signal received, initiating graceful shutdown...", "signal", sig.String())
		case <-ctx.Done():
			a.logger.Info(context.Background(), "Application context cancelled, initiating graceful shutdown...")
		}

		shutdownTimeout := 15 * time.Second
		if appCfg.ShutdownTimeoutSeconds > 0 {
			shutdownTimeout = time.Duration(appCfg.ShutdownTimeoutSeconds) * time.Second
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
			a.logger.Error(context.Background(), "HTTP server graceful shutdown failed", "error", err.Error())
		}
		a.logger.Info(context.Background(), "HTTP server shut down.")
	})

	a.logger.Info(ctx, fmt.Sprintf("HTTP server listening on port %d", a.configProvider.Get().Server.HTTPPort))
	if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		a.logger.Error(ctx, "HTTP server ListenAndServe error", "error", err.Error())
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}

	a.logger.Info(ctx, "Application shut down gracefully or server closed.")
	return nil
}
