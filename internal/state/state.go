package state

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// ProgressStore records the absolute path of the deepest leaf whose batch
// has fully settled, so an interrupted ingestion can resume without an
// operator-supplied marker.
type ProgressStore interface {
	LastLeafPath(ctx context.Context) (string, error)
	SetLastLeafPath(ctx context.Context, path string) error
}

type redisProgressStore struct {
	redisClient *redis.Client
	key         string
}

// NewRedisProgressStore stores the resume marker in Redis under a fixed key.
func NewRedisProgressStore(redisClient *redis.Client) ProgressStore {
	return &redisProgressStore{
		redisClient: redisClient,
		key:         "catalog:progress:last_leaf",
	}
}

func (s *redisProgressStore) LastLeafPath(ctx context.Context) (string, error) {
	val, err := s.redisClient.Get(ctx, s.key).Result()
	if err != nil {
		if err == redis.Nil {
			return "", nil // No progress saved yet
		}
		return "", fmt.Errorf("failed to get last leaf path: %w", err)
	}
	return val, nil
}

func (s *redisProgressStore) SetLastLeafPath(ctx context.Context, path string) error {
	if err := s.redisClient.Set(ctx, s.key, path, 0).Err(); err != nil {
		return fmt.Errorf("failed to set last leaf path: %w", err)
	}
	return nil
}

type noopProgressStore struct{}

// NewNoopProgressStore is used when no Redis is configured: progress is not
// persisted and resume markers come only from the operator.
func NewNoopProgressStore() ProgressStore {
	return noopProgressStore{}
}

func (noopProgressStore) LastLeafPath(context.Context) (string, error)  { return "", nil }
func (noopProgressStore) SetLastLeafPath(context.Context, string) error { return nil }
