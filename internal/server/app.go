// Package server собирает приложение сервера: конфигурация, логгер,
// хранилище, контроллер групп, HTTP маршруты и graceful shutdown.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/iudanet/fedsim/internal/server/config"
	"github.com/iudanet/fedsim/internal/server/handlers"
	"github.com/iudanet/fedsim/internal/server/lifecycle"
	"github.com/iudanet/fedsim/internal/server/middleware"
	"github.com/iudanet/fedsim/internal/server/storage/sqlite"
	"github.com/iudanet/fedsim/internal/server/worker"
)

// App owns the server's long-lived components.
type App struct {
	cfg        *config.Config
	logger     *slog.Logger
	storage    *sqlite.Storage
	controller *lifecycle.Controller
	httpServer *http.Server
	version    string
}

// NewApp initializes storage, the group controller and the HTTP server.
func NewApp(ctx context.Context, cfg *config.Config, version string) (*App, error) {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	}))

	store, err := sqlite.New(ctx, cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to init storage: %w", err)
	}

	// Воркер группы - симулятор тренера; контроллер запускает его
	// по горутине на клиента
	startWorker := func(ctx context.Context, groupName string, clientID int, emit worker.Emitter) {
		t := worker.New(groupName, clientID, cfg.WorkerInterval, emit, logger)
		t.Run(ctx)
	}

	controller := lifecycle.New(store, store, startWorker, logger)

	app := &App{
		cfg:        cfg,
		logger:     logger,
		storage:    store,
		controller: controller,
		version:    version,
	}

	app.httpServer = &http.Server{
		Addr:              cfg.Addr,
		Handler:           app.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	return app, nil
}

// routes строит mux и цепочку middleware.
func (app *App) routes() http.Handler {
	jwtConfig := handlers.JWTConfig{
		Secret:         []byte(app.cfg.JWTSecret),
		AccessTokenTTL: app.cfg.AccessTokenTTL,
	}

	authHandler := handlers.NewAuthHandler(app.logger, app.storage, jwtConfig)
	trainingHandler := handlers.NewTrainingHandler(app.logger, app.controller)
	healthHandler := handlers.NewHealthHandler(app.logger, app.version)

	requireAuth := middleware.AuthMiddleware(app.logger, jwtConfig)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /register", authHandler.Register)
	mux.HandleFunc("POST /login", authHandler.Login)
	mux.Handle("POST /simulate", requireAuth(http.HandlerFunc(trainingHandler.Simulate)))
	mux.Handle("GET /metrics", requireAuth(http.HandlerFunc(trainingHandler.Metrics)))
	mux.Handle("POST /exit", requireAuth(http.HandlerFunc(trainingHandler.Exit)))
	mux.HandleFunc("GET /health", healthHandler.Health)

	// Жесткие лимиты только на auth endpoint-ы, чтобы не мешать
	// частому опросу /metrics
	rateLimits := []middleware.PathRateLimit{
		{Path: "/register", Rate: app.cfg.AuthRateLimit, Window: 5 * time.Minute},
		{Path: "/login", Rate: app.cfg.AuthRateLimit, Window: 5 * time.Minute},
	}

	var handler http.Handler = mux
	handler = middleware.RateLimitByPathMiddleware(rateLimits, app.cfg.DefaultRateLimit, time.Minute, app.logger)(handler)
	handler = middleware.LoggingWithSkip(app.logger, []string{"/health", "/metrics"})(handler)
	handler = middleware.RecoveryMiddleware(app.logger)(handler)

	return handler
}

// Run запускает HTTP сервер и блокируется до SIGINT/SIGTERM или ошибки
// сервера, затем выполняет graceful shutdown.
func (app *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		app.logger.Info("server starting", "addr", app.cfg.Addr, "version", app.version)
		if err := app.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		app.logger.Info("shutdown signal received")
	case err := <-errCh:
		return fmt.Errorf("http server error: %w", err)
	}

	return app.shutdown()
}

// shutdown гасит компоненты в обратном порядке запуска: сначала HTTP,
// потом группы (ledger-ы доархивируются), потом база.
func (app *App) shutdown() error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := app.httpServer.Shutdown(shutdownCtx); err != nil {
		app.logger.Warn("http server shutdown failed", "error", err)
	}

	app.controller.Shutdown(shutdownCtx)

	if err := app.storage.Close(); err != nil {
		return fmt.Errorf("failed to close storage: %w", err)
	}

	app.logger.Info("server stopped")
	return nil
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
