package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/mcoot/competition-console/internal/api"
	"github.com/mcoot/competition-console/internal/config"
	"github.com/mcoot/competition-console/internal/factory"
)

func main() {
	// A missing .env is fine; the real environment still applies
	_ = godotenv.Load()

	cfg, err := config.Load(os.Getenv(config.PathEnv))
	if err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger := cfg.Log.NewLogger(os.Stdout)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := factory.New(ctx, *cfg, logger)
	if err != nil {
		logger.Error("failed to create application", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer func() {
		if err := app.Close(); err != nil {
			logger.Error("failed to close application", slog.String("error", err.Error()))
		}
	}()

	// A timer left running by a previous process keeps counting
	if key, err := app.TimerController.Recover(ctx); err != nil {
		logger.Error("failed to recover active timer", slog.String("error", err.Error()))
		os.Exit(1)
	} else if key != nil {
		logger.Info("resuming running session", slog.String("session", key.String()))
	}

	app.RunBackground(ctx)

	server := api.NewServer(app.Router(), cfg.Server, logger)
	// Close the SSE hubs so open streams return and Shutdown can drain
	server.OnShutdown(app.HubManager.Close)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	logger.Info("server started",
		slog.String("addr", server.Addr()),
		slog.String("storage", cfg.Storage.Type),
		slog.Int("session_cap", cfg.Competition.SessionCap),
	)

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
		if err := server.Shutdown(context.Background()); err != nil {
			logger.Error("shutdown error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	logger.Info("server stopped")
}
