package rebuild

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// ProgressKey is the single persisted key owned by this service.
const ProgressKey = "searchsync:rebuild:progress"

// ProgressStore persists the one rebuild progress descriptor.
type ProgressStore interface {
	// Get returns the current descriptor, or nil if none exists or the
	// stored value is not a well-formed descriptor.
	Get(ctx context.Context) (*Progress, error)
	Put(ctx context.Context, p *Progress) error
	Delete(ctx context.Context) error
}

// RedisProgressStore keeps the descriptor as JSON under one redis key.
type RedisProgressStore struct {
	client *redis.Client
}

func NewRedisProgressStore(client *redis.Client) *RedisProgressStore {
	return &RedisProgressStore{client: client}
}

func (s *RedisProgressStore) Get(ctx context.Context) (*Progress, error) {
	data, err := s.client.Get(ctx, ProgressKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read rebuild progress: %w", err)
	}
	// Corrupted state decodes to nil rather than failing the caller.
	return Decode(data), nil
}

func (s *RedisProgressStore) Put(ctx context.Context, p *Progress) error {
	data, err := p.Encode()
	if err != nil {
		return fmt.Errorf("failed to encode rebuild progress: %w", err)
	}
	if err := s.client.Set(ctx, ProgressKey, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to write rebuild progress: %w", err)
	}
	return nil
}

func (s *RedisProgressStore) Delete(ctx context.Context) error {
	if err := s.client.Del(ctx, ProgressKey).Err(); err != nil {
		return fmt.Errorf("failed to delete rebuild progress: %w", err)
	}
	return nil
}
