package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"parserapi/internal/app"
	"parserapi/internal/config"
	hhttp "parserapi/internal/handler/http"
	"parserapi/internal/handler/http/requestid"
	"parserapi/internal/observability/logging"
	"parserapi/internal/observability/slo"
	"parserapi/internal/observability/tracing"

	_ "parserapi/docs" // swagger docs
)

// @title           ParserAPI
// @version         4.0.0
// @description     Turns any URL into feed items. RSS, Atom and JSON Feed documents are decoded directly;
// @description     other pages are extracted by an LLM with a heuristic fallback.

// @license.name  MIT
// @license.url   https://opensource.org/licenses/MIT

// @host      localhost:2058
// @BasePath  /

func main() {
	// .env is optional; real environment variables take precedence
	_ = godotenv.Load()

	logger := initLogger()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	application, err := app.New(ctx, logger, app.Options{Stores: true})
	if err != nil {
		logger.Error("failed to initialize parser", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := application.Close(); err != nil {
			logger.Error("failed to close stores", slog.Any("error", err))
		}
	}()

	shutdownTracing := tracing.Setup(application.Server.TraceSampleRatio)
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			logger.Error("failed to shut down tracer provider", slog.Any("error", err))
		}
	}()

	components := setupServer(logger, application)
	runServer(ctx, cancel, logger, application.Server, components)
}

// initLogger builds the JSON logger from LOG_LEVEL and LOG_FORMAT and makes it the default.
func initLogger() *slog.Logger {
	logger := logging.NewLogger()
	slog.SetDefault(logger)
	return logger
}

// ServerComponents holds components needed for server operation and cleanup.
type ServerComponents struct {
	Handler      http.Handler
	ParseLimiter *hhttp.RateLimiter
}

// setupServer builds the routes and the middleware chain.
func setupServer(logger *slog.Logger, a *app.App) *ServerComponents {
	limiter := hhttp.NewRateLimiter(a.Server.ParseRateLimit, time.Minute).TrustProxies(a.Server.TrustedProxies)
	if limiter.Enabled() {
		logger.Info("rate limiting initialized",
			slog.String("path", "/parse"),
			slog.Int("limit", a.Server.ParseRateLimit),
			slog.Duration("window", time.Minute),
			slog.Int("trusted_proxies_count", len(a.Server.TrustedProxies)))
	} else {
		logger.Warn("rate limiting is DISABLED - not recommended for production")
	}

	mux := setupRoutes(a, limiter)
	return &ServerComponents{
		Handler:      applyMiddleware(logger, mux, a.Server.MaxBodyBytes),
		ParseLimiter: limiter,
	}
}

// setupRoutes registers all HTTP routes.
func setupRoutes(a *app.App, limiter *hhttp.RateLimiter) *http.ServeMux {
	provider := a.AIProvider()

	return hhttp.NewMux(hhttp.Routes{
		Parse:   hhttp.ParseHandler{Svc: a.Parser, SLO: slo.NewTracker(slo.DefaultWindow)},
		History: hhttp.HistoryHandler{Repo: a.History},
		Health: &hhttp.HealthHandler{
			Version:    config.Version,
			DB:         a.DB,
			Cache:      a.Cache,
			AIProvider: provider,
		},
		Ready:   &hhttp.ReadyHandler{DB: a.DB, Cache: a.Cache},
		Live:    &hhttp.LiveHandler{},
		Metrics: hhttp.MetricsHandler(),
		Docs:    httpSwagger.WrapHandler,

		ParseLimiter: limiter,
		ParseTimeout: a.Server.ParseTimeout,

		Root: hhttp.RootHandler{Version: config.Version, Description: description(provider, a.LLM.Model)},
	})
}

func description(provider, model string) string {
	if provider == config.ProviderNone {
		return "Feed parser with heuristic HTML extraction"
	}
	return fmt.Sprintf("AI-powered feed parser with %s (%s)", provider, model)
}

// applyMiddleware wraps the handler with the middleware chain.
// Middleware order: Request ID → Recovery → Logging → Body Limit → Tracing → Metrics
func applyMiddleware(logger *slog.Logger, handler http.Handler, maxBodyBytes int64) http.Handler {
	chain := handler

	// Apply in reverse order (innermost to outermost)
	chain = hhttp.MetricsMiddleware(chain)
	chain = tracing.Middleware(chain)
	chain = hhttp.LimitRequestBody(maxBodyBytes)(chain)
	chain = hhttp.Logging(logger)(chain)
	chain = hhttp.Recover(logger)(chain)
	chain = requestid.Middleware(chain)

	return chain
}

// runServer starts the HTTP server and handles graceful shutdown.
func runServer(ctx context.Context, cancel context.CancelFunc, logger *slog.Logger, cfg *config.ServerConfig, components *ServerComponents) {
	go components.ParseLimiter.StartCleanup(ctx, time.Minute)

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           components.Handler,
		ReadHeaderTimeout: 10 * time.Second, // Prevent Slowloris attacks
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting",
			slog.String("addr", cfg.Addr()),
			slog.String("version", config.Version))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
		logger.Info("shutting down server...")
	case err := <-errCh:
		logger.Error("server failed", slog.Any("error", err))
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", slog.Any("error", err))
	}

	// in-flight requests have drained; stop rate limit cleanup and cancel stragglers
	cancel()
	logger.Info("server stopped")
}
