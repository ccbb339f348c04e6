package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"money-transfer/config"
	"money-transfer/internal/app"
	"money-transfer/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load(os.Getenv("MTS_CONFIG_FILE"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(cfg.Log.Level, cfg.Log.Pretty)

	log.Info().
		Str("mode", cfg.Server.Mode).
		Int("port", cfg.Server.Port).
		Bool("redis", cfg.Redis.Enabled).
		Msg("Starting Money Transfer Service")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize application")
	}
	defer func() {
		if err := application.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to release resources")
		}
	}()

	if err := application.Run(ctx); err != nil {
		log.Error().Err(err).Msg("HTTP server failed")
		stop()
		_ = application.Close()
		os.Exit(1)
	}
}
