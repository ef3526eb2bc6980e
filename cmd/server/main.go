package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	sentrygo "github.com/getsentry/sentry-go"

	"github.com/taskgrove/backend/internal/config"
	"github.com/taskgrove/backend/internal/database"
	"github.com/taskgrove/backend/internal/logging"
	"github.com/taskgrove/backend/internal/router"
	"github.com/taskgrove/backend/internal/sentry"
	"github.com/taskgrove/backend/internal/services"
	"github.com/taskgrove/backend/internal/store"
	"github.com/taskgrove/backend/internal/streamer"
)

func main() {
	// Initialize structured logging (reads LOGGING_LEVEL env var)
	logging.Initialize()

	// Load configuration
	cfg := config.Load()

	// Error reporting (optional)
	if cfg.SentryDSN != "" {
		err := sentrygo.Init(sentrygo.ClientOptions{
			Dsn:         cfg.SentryDSN,
			Environment: cfg.SentryEnvironment,
			BeforeSend:  sentry.ScrubEvent,
		})
		if err != nil {
			slog.Error("failed to initialize sentry", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer sentrygo.Flush(2 * time.Second)
	}

	// Initialize database
	sqlDB, err := database.New(cfg.DatabasePath)
	if err != nil {
		slog.Error("failed to connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer sqlDB.Close()

	// Run migrations
	if err := database.RunMigrations(sqlDB); err != nil {
		slog.Error("failed to run migrations", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Initialize queries and services
	queries := store.New(sqlDB)
	authService := services.NewAuthService(cfg.JWTSecret, cfg.TokenDuration)
	membership := services.NewMembershipService(queries)

	// Start the update hub; it batches and fans out change notices
	// to connected stream clients.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	hub := streamer.New(authService, membership, cfg.StreamFlushInterval)
	go hub.Run(ctx)

	// Create router
	r := router.New(cfg, queries, hub, authService, membership)

	// Start server
	addr := ":" + cfg.Port
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown failed", slog.String("error", err.Error()))
		}
	}()

	slog.Info("starting server", slog.String("addr", addr))

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
