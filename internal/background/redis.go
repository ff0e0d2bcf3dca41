package background

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"jobscout/internal/config"
	"jobscout/internal/logging"
	"jobscout/internal/logging/types"
)

const taskKeyPrefix = "jobscout:task:"

// RedisTaskStore persists task envelopes in Redis so polling survives
// process restarts. Entries expire with the configured task TTL.
type RedisTaskStore struct {
	client *redis.Client
	ttl    time.Duration
	logger types.Logger
}

// NewRedisTaskStore creates a Redis-backed store. The connection is verified
// so callers can fall back to the in-memory store when Redis is down.
func NewRedisTaskStore(ctx context.Context, cfg *config.Config) (*RedisTaskStore, error) {
	opts, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis unreachable: %w", err)
	}

	ttl := cfg.Redis.TaskTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}

	return &RedisTaskStore{
		client: client,
		ttl:    ttl,
		logger: logging.GetGlobalLogger().WithField("component", "redis_task_store"),
	}, nil
}

func taskKey(processID string) string {
	return taskKeyPrefix + processID
}

// Create stores a new task envelope
func (s *RedisTaskStore) Create(ctx context.Context, task *TaskResult) error {
	return s.write(ctx, task, false)
}

// Update replaces the stored envelope
func (s *RedisTaskStore) Update(ctx context.Context, task *TaskResult) error {
	return s.write(ctx, task, true)
}

func (s *RedisTaskStore) write(ctx context.Context, task *TaskResult, mustExist bool) error {
	if mustExist {
		exists, err := s.client.Exists(ctx, taskKey(task.ProcessID)).Result()
		if err != nil {
			return fmt.Errorf("failed to check task existence: %w", err)
		}
		if exists == 0 {
			return fmt.Errorf("task %s not found", task.ProcessID)
		}
	}

	data, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("failed to marshal task: %w", err)
	}

	if err := s.client.Set(ctx, taskKey(task.ProcessID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store task: %w", err)
	}
	return nil
}

// Get returns the stored envelope
func (s *RedisTaskStore) Get(ctx context.Context, processID string) (*TaskResult, error) {
	data, err := s.client.Get(ctx, taskKey(processID)).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, fmt.Errorf("task %s not found", processID)
		}
		return nil, fmt.Errorf("failed to get task: %w", err)
	}

	var task TaskResult
	if err := json.Unmarshal([]byte(data), &task); err != nil {
		return nil, fmt.Errorf("failed to unmarshal task: %w", err)
	}
	return &task, nil
}

// Delete removes the envelope
func (s *RedisTaskStore) Delete(ctx context.Context, processID string) error {
	return s.client.Del(ctx, taskKey(processID)).Err()
}

// CleanupExpired is a no-op for Redis; entries expire through their TTL
func (s *RedisTaskStore) CleanupExpired(_ context.Context, _ time.Duration) (int, error) {
	return 0, nil
}

// Ping checks the Redis connection
func (s *RedisTaskStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the Redis connection
func (s *RedisTaskStore) Close() error {
	return s.client.Close()
}
