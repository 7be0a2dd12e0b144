package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/SudaisX/DB-Project/internal/app"
	"github.com/SudaisX/DB-Project/internal/config"
	"github.com/SudaisX/DB-Project/pkg/logger"
)

func main() {
	if err := run(); err != nil {
		slog.Error("storefront server exited", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log := logger.New(app.AppName, cfg.LogLevel)
	log.Info("starting storefront server",
		slog.String("environment", cfg.Environment),
		slog.Int("http_port", cfg.HTTPPort),
		slog.Bool("cache_enabled", cfg.CacheEnabled),
		slog.Bool("events_enabled", cfg.EventsEnabled),
	)

	storefront, err := app.NewApp(cfg, log)
	if err != nil {
		return fmt.Errorf("initialize application: %w", err)
	}

	// Cancelled on SIGINT or SIGTERM; Run drains and shuts down.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := storefront.Run(ctx); err != nil {
		return err
	}
	log.Info("storefront server stopped")
	return nil
}
