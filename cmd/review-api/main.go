// Package main provides the review API server entrypoint.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/slidegate/review-engine/internal/bootstrap"
	"github.com/slidegate/review-engine/internal/config"
	"github.com/slidegate/review-engine/internal/ingest"
	"github.com/slidegate/review-engine/internal/observability"
	"github.com/slidegate/review-engine/internal/rasterize"
)

func main() {
	// Local development convenience; missing .env is fine.
	_ = godotenv.Load()

	cfgPath := os.Getenv("CONFIG_PATH")
	if len(os.Args) > 2 && os.Args[1] == "--config" {
		cfgPath = os.Args[2]
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(observability.LogConfig{
		Level:       cfg.Observability.LogLevel,
		Format:      cfg.Observability.LogFormat,
		ServiceName: "review-api",
	})

	logger.Info().
		Str("host", cfg.Server.Host).
		Int("port", cfg.Server.Port).
		Str("storage", cfg.Storage.Driver).
		Str("status", cfg.Status.Driver).
		Str("queue", cfg.Queue.Driver).
		Msg("Starting review API")

	ctx := context.Background()

	objects, err := bootstrap.ObjectStore(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create object store")
	}

	statuses, err := bootstrap.StatusStore(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create status store")
	}

	jobs, err := bootstrap.JobQueue(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create job queue")
	}

	rasterizer := rasterize.NewClient(logger, rasterize.Config{
		BaseURL:      cfg.Rasterizer.BaseURL,
		TokenURL:     cfg.Rasterizer.TokenURL,
		ClientID:     cfg.Rasterizer.ClientID,
		ClientSecret: cfg.Rasterizer.ClientSecret,
		Format:       cfg.Rasterizer.Format,
		Width:        cfg.Rasterizer.Width,
		Height:       cfg.Rasterizer.Height,
		Timeout:      cfg.Rasterizer.Timeout,
	}, objects)

	uploader := ingest.NewService(logger, objects, statuses, rasterizer, jobs, cfg.Storage.Bucket)

	router := NewRouter(logger, RouterDeps{
		Uploader:       uploader,
		Objects:        objects,
		Statuses:       statuses,
		Bucket:         cfg.Storage.Bucket,
		RequestTimeout: cfg.Server.ReadTimeout,
		MaxUploadBytes: cfg.Server.MaxUploadBytes,
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", addr).Msg("HTTP server listening")
		serverErrors <- srv.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		logger.Error().Err(err).Msg("Server error")
	case sig := <-shutdown:
		logger.Info().Str("signal", sig.String()).Msg("Shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.GracefulShutdown)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Graceful shutdown failed")
		if err := srv.Close(); err != nil {
			logger.Error().Err(err).Msg("Forced shutdown failed")
		}
	}

	logger.Info().Msg("Server stopped")
}
