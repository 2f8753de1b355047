package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/davidbz/quotekit/internal/domain"
	"github.com/davidbz/quotekit/internal/observability"
)

// Store keeps session blobs in Redis with a sliding expiry.
type Store struct {
	client    *redis.Client
	namespace string
}

// NewStore creates a Redis session store. Every key is prefixed with namespace.
func NewStore(client *redis.Client, namespace string) *Store {
	return &Store{
		client:    client,
		namespace: namespace,
	}
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

// Load returns the stored blob.
func (s *Store) Load(ctx context.Context, key string) ([]byte, error) {
	data, err := s.client.Get(ctx, s.namespace+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("session %s: %w", key, domain.ErrSessionNotFound)
	}
	if err != nil {
		observability.FromContext(ctx).Error("session load failed",
			observability.String("key", key),
			observability.Error(err))
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	return data, nil
}

// Save stores the blob and resets its TTL. A zero ttl never expires.
func (s *Store) Save(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	if err := s.client.Set(ctx, s.namespace+key, data, ttl).Err(); err != nil {
		observability.FromContext(ctx).Error("session save failed",
			observability.String("key", key),
			observability.Error(err))
		return fmt.Errorf("failed to save session: %w", err)
	}

	observability.FromContext(ctx).Debug("session saved",
		observability.String("key", key),
		observability.Int("data_size", len(data)),
		observability.Duration("ttl", ttl))

	return nil
}

// Delete removes the key.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.namespace+key).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}
