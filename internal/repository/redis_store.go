package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/nikolayk812/tourcart/internal/port"
	"github.com/redis/go-redis/v9"
)

type redisStore struct {
	client *redis.Client
}

// NewRedisStore keeps carts without expiry; the cart is durable, not a cache.
func NewRedisStore(client *redis.Client) (port.CartStore, error) {
	if client == nil {
		return nil, fmt.Errorf("client is nil")
	}

	return &redisStore{client: client}, nil
}

func (s *redisStore) Get(ctx context.Context, namespace string) ([]byte, error) {
	if namespace == "" {
		return nil, fmt.Errorf("namespace is empty")
	}

	payload, err := s.client.Get(ctx, cartKey(namespace)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, port.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("client.Get: %w", err)
	}

	return payload, nil
}

func (s *redisStore) Set(ctx context.Context, namespace string, payload []byte) error {
	if namespace == "" {
		return fmt.Errorf("namespace is empty")
	}

	if err := s.client.Set(ctx, cartKey(namespace), payload, 0).Err(); err != nil {
		return fmt.Errorf("client.Set: %w", err)
	}

	return nil
}

func cartKey(namespace string) string {
	return fmt.Sprintf("cart:%s", namespace)
}
