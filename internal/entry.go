// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/starford/dayblocks/internal/api"
	"github.com/starford/dayblocks/internal/ledger"
	"github.com/starford/dayblocks/internal/mcpserver"
	"github.com/starford/dayblocks/internal/palette"
	"github.com/starford/dayblocks/internal/reminder"
	"github.com/starford/dayblocks/internal/sse"
	"github.com/starford/dayblocks/internal/store"
	"github.com/starford/dayblocks/internal/telemetry"
)

const (
	serviceName    = "dayblocks"
	serviceVersion = "1.0.0"
)

// Run starts the HTTP server with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config

	logger := newLogger(cfg.App, os.Stdout)
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("sqlite_driver", cfg.SQLite.Driver),
		slog.String("auth_mode", cfg.Auth.Mode),
		slog.String("log_level", cfg.App.LogLevel.String()))

	shutdownTelemetry, err := telemetry.Init(ctx, cfg.Telemetry, serviceName, serviceVersion)
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTelemetry(flushCtx)
	}()

	db, err := store.Open(ctx, store.Options{Path: cfg.SQLite.Path, Driver: cfg.SQLite.Driver})
	if err != nil {
		return fmt.Errorf("init store: %w", err)
	}
	defer db.Close()

	// SSE broker.
	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()

	svc := telemetry.WrapLedger(
		ledger.NewService(db, logger, ledger.WithPublisher(broker)),
		cfg.Telemetry,
	)

	sched := reminder.New(db, logger, broker,
		reminder.WithInterval(cfg.Reminders.Interval),
		reminder.WithWindow(cfg.Reminders.Window))

	labels, err := palette.New(cfg.Palette.Path, logger)
	if err != nil {
		return fmt.Errorf("init palette: %w", err)
	}

	apiRouter := api.NewRouter(api.RouterConfig{
		Ledger:    svc,
		Reminders: reminder.NewService(db, sched),
		Labels:    labels,
		Events:    broker,
		Auth: api.AuthConfig{
			Mode:        cfg.Auth.Mode,
			DefaultUser: cfg.Auth.DefaultUser,
			JWTSecret:   cfg.Auth.JWTSecret,
		},
	})

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		writeStatus(w, http.StatusOK, "ok")
	})
	r.Get("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		if err := svc.Ready(r.Context()); err != nil {
			logger.Warn("readiness check failed", slog.String("error", err.Error()))
			writeStatus(w, http.StatusServiceUnavailable, "unavailable")
			return
		}
		writeStatus(w, http.StatusOK, "ok")
	})

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Reminder scheduler.
	g.Go(func() error {
		return sched.Run(gCtx)
	})

	// Palette hot reload.
	g.Go(func() error {
		if err := labels.Watch(gCtx); err != nil {
			logger.Warn("palette watcher stopped", slog.String("error", err.Error()))
		}
		return nil
	})

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		// Close SSE streams first so Shutdown does not wait on them.
		broker.Close()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return errShutdown
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errShutdown) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// errShutdown cancels the group so that the background loops stop.
var errShutdown = errors.New("shutdown")

// RunMCP serves the MCP tools on stdio for the configured user. Logs go to
// stderr because stdout carries the protocol.
func RunMCP(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config

	logger := newLogger(cfg.App, os.Stderr)
	slog.SetDefault(logger)

	shutdownTelemetry, err := telemetry.Init(ctx, cfg.Telemetry, serviceName+"-mcp", serviceVersion)
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}
	defer func() { _ = shutdownTelemetry(context.Background()) }()

	db, err := store.Open(ctx, store.Options{Path: cfg.SQLite.Path, Driver: cfg.SQLite.Driver})
	if err != nil {
		return fmt.Errorf("init store: %w", err)
	}
	defer db.Close()

	svc := telemetry.WrapLedger(ledger.NewService(db, logger), cfg.Telemetry)
	user := app.user()
	if user == "" {
		return fmt.Errorf("mcp: user_id is required")
	}

	logger.Info("MCP server starting", slog.String("user_id", user))
	return mcpserver.New(svc, user).ServeStdio()
}

func newApplication(opts []Option) (*application, error) {
	app := &application{}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	return app, nil
}

// newLogger builds the JSON logger, teeing into a rotated file when configured.
func newLogger(cfg ApplicationConfig, console io.Writer) *slog.Logger {
	out := console
	if cfg.LogFile != "" {
		out = io.MultiWriter(console, &lumberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    10, // megabytes
			MaxBackups: 3,
			MaxAge:     28, // days
			Compress:   true,
		})
	}
	return slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
}

func writeStatus(w http.ResponseWriter, code int, status string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": status})
}
