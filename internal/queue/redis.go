package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/slidegate/review-engine/internal/review"
)

// RedisQueue transports jobs over a Redis list. Enqueue pushes JSON
// payloads; Dequeue blocks on BLPOP.
type RedisQueue struct {
	client       *redis.Client
	key          string
	blockTimeout time.Duration
}

// NewRedisQueue creates a Redis-list queue on the given key.
func NewRedisQueue(client *redis.Client, key string) *RedisQueue {
	if key == "" {
		key = "review:jobs"
	}
	return &RedisQueue{
		client:       client,
		key:          key,
		blockTimeout: 20 * time.Second,
	}
}

// Enqueue pushes the job onto the list.
func (q *RedisQueue) Enqueue(ctx context.Context, job review.Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal review job: %w", err)
	}
	if err := q.client.RPush(ctx, q.key, data).Err(); err != nil {
		return fmt.Errorf("redis rpush: %w", err)
	}
	return nil
}

// Dequeue pops the next job, blocking up to the configured timeout.
func (q *RedisQueue) Dequeue(ctx context.Context) (review.Job, bool, error) {
	// BLPOP returns [key, value].
	result, err := q.client.BLPop(ctx, q.blockTimeout, q.key).Result()
	if errors.Is(err, redis.Nil) {
		return review.Job{}, false, nil
	}
	if err != nil {
		return review.Job{}, false, fmt.Errorf("redis blpop: %w", err)
	}

	var job review.Job
	if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
		return review.Job{}, false, fmt.Errorf("unmarshal review job: %w", err)
	}
	return job, true, nil
}
