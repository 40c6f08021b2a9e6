// Package bootstrap wires configuration to concrete storage, status, and
// queue drivers. Shared by the API server and the review worker.
package bootstrap

import (
	"context"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/redis/go-redis/v9"

	"github.com/slidegate/review-engine/internal/config"
	"github.com/slidegate/review-engine/internal/objectstore"
	"github.com/slidegate/review-engine/internal/queue"
	"github.com/slidegate/review-engine/internal/status"
)

// ObjectStore constructs the object store named by the storage driver.
func ObjectStore(ctx context.Context, cfg *config.Config) (objectstore.Store, error) {
	switch cfg.Storage.Driver {
	case "fs", "":
		return objectstore.NewFSStore(cfg.Storage.FS.Root)
	case "s3":
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Storage.S3.Region))
		if err != nil {
			return nil, fmt.Errorf("load aws config: %w", err)
		}
		client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
			if cfg.Storage.S3.Endpoint != "" {
				o.BaseEndpoint = &cfg.Storage.S3.Endpoint
			}
		})
		return objectstore.NewS3Store(client), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}

// StatusStore constructs the status store named by the status driver.
func StatusStore(cfg *config.Config) (status.Store, error) {
	switch cfg.Status.Driver {
	case "memory":
		return status.NewMemoryStore(), nil
	case "redis":
		return status.NewRedisStore(status.RedisConfig{
			Addr:     cfg.Status.Redis.Addr,
			Password: cfg.Status.Redis.Password,
			DB:       cfg.Status.Redis.DB,
			PoolSize: cfg.Status.Redis.PoolSize,
		})
	case "sqlite", "":
		return status.NewSQLiteStore(cfg.Status.SQLite.Path)
	default:
		return nil, fmt.Errorf("unknown status driver %q", cfg.Status.Driver)
	}
}

// JobQueue constructs the review-job queue named by the queue driver.
func JobQueue(ctx context.Context, cfg *config.Config) (queue.Queue, error) {
	switch cfg.Queue.Driver {
	case "memory":
		return queue.NewMemoryQueue(0), nil
	case "redis", "":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Queue.Redis.Addr,
			Password: cfg.Queue.Redis.Password,
			DB:       cfg.Queue.Redis.DB,
			PoolSize: cfg.Queue.Redis.PoolSize,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("redis ping failed: %w", err)
		}
		return queue.NewRedisQueue(client, cfg.Queue.Key), nil
	case "sqs":
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, fmt.Errorf("load aws config: %w", err)
		}
		return queue.NewSQSQueue(sqs.NewFromConfig(awsCfg), cfg.Queue.SQSURL), nil
	default:
		return nil, fmt.Errorf("unknown queue driver %q", cfg.Queue.Driver)
	}
}
