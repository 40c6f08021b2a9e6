// Package main provides the review worker entrypoint. The worker drains the
// job queue and runs each job through the review engine.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/slidegate/review-engine/internal/bootstrap"
	"github.com/slidegate/review-engine/internal/config"
	"github.com/slidegate/review-engine/internal/llm"
	"github.com/slidegate/review-engine/internal/observability"
	"github.com/slidegate/review-engine/internal/queue"
	"github.com/slidegate/review-engine/internal/review"
)

// Worker pulls jobs off the queue and reviews them with bounded concurrency.
type Worker struct {
	logger    *observability.Logger
	jobs      queue.Queue
	engine    *review.Engine
	semaphore chan struct{}
	wg        sync.WaitGroup
}

// NewWorker creates a worker running at most maxConcurrency reviews at once.
func NewWorker(logger *observability.Logger, jobs queue.Queue, engine *review.Engine, maxConcurrency int) *Worker {
	if maxConcurrency <= 0 {
		maxConcurrency = 1
	}
	return &Worker{
		logger:    logger,
		jobs:      jobs,
		engine:    engine,
		semaphore: make(chan struct{}, maxConcurrency),
	}
}

// Start blocks until ctx is cancelled, then waits for in-flight reviews.
func (w *Worker) Start(ctx context.Context) {
	w.logger.Info().Msg("Worker started, waiting for jobs")
	for {
		select {
		case <-ctx.Done():
			w.logger.Info().Msg("Worker stopping")
			w.wg.Wait()
			return
		default:
			job, ok, err := w.jobs.Dequeue(ctx)
			if err != nil {
				if ctx.Err() != nil {
					continue
				}
				w.logger.Error().Err(err).Msg("Dequeue failed")
				continue
			}
			if !ok {
				continue
			}

			w.wg.Add(1)
			go w.handle(ctx, job)
		}
	}
}

func (w *Worker) handle(ctx context.Context, job review.Job) {
	defer w.wg.Done()

	w.semaphore <- struct{}{}
	defer func() { <-w.semaphore }()

	log := w.logger.WithJob(job.JobKey)
	log.Info().Str("content_key", job.DescriptorKey).Msg("Processing review job")

	result := w.engine.Review(ctx, job)
	if result.Status != "success" {
		log.Error().Str("failure_type", result.Type).Str("message", result.Message).Msg("Review job failed")
		return
	}
	log.Info().Msg("Review job completed")
}

func main() {
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
		ServiceName: "review-worker",
	})

	logger.Info().
		Str("storage", cfg.Storage.Driver).
		Str("status", cfg.Status.Driver).
		Str("queue", cfg.Queue.Driver).
		Int("max_concurrency", cfg.Worker.MaxConcurrency).
		Msg("Starting review worker")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

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

	model := llm.NewClient(llm.Config{
		BaseURL:     cfg.Model.BaseURL,
		APIKey:      cfg.Model.APIKey,
		Model:       cfg.Model.Model,
		MaxTokens:   cfg.Model.MaxTokens,
		Temperature: cfg.Model.Temperature,
		Timeout:     cfg.Model.Timeout,
		Bucket:      cfg.Storage.Bucket,
	}, objects)

	engine := review.NewEngine(logger, review.EngineConfig{
		Objects:  objects,
		Statuses: statuses,
		Model:    model,
		Bucket:   cfg.Storage.Bucket,
	})

	worker := NewWorker(logger, jobs, engine, cfg.Worker.MaxConcurrency)
	worker.Start(ctx)

	logger.Info().Msg("Worker stopped")
}
