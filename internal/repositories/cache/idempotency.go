package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// IdempotencyPending is stored under a reserved key until the request that
// reserved it completes.
const IdempotencyPending = "pending"

const idempotencyPrefix = "idempotency:"

// IdempotencyStore remembers the outcome of requests carrying an
// Idempotency-Key so a retried request is answered without running again.
type IdempotencyStore struct {
	client *redis.Client
}

func NewIdempotencyStore(client *redis.Client) *IdempotencyStore {
	return &IdempotencyStore{client: client}
}

// Reserve claims key. It returns false when another request already holds it.
func (s *IdempotencyStore) Reserve(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := s.client.SetNX(ctx, idempotencyPrefix+key, IdempotencyPending, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to reserve idempotency key: %w", err)
	}
	return ok, nil
}

// Load returns the stored value for key, IdempotencyPending while the owning
// request is still running.
func (s *IdempotencyStore) Load(ctx context.Context, key string) (string, bool, error) {
	val, err := s.client.Get(ctx, idempotencyPrefix+key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to load idempotency key: %w", err)
	}
	return val, true, nil
}

// Complete replaces the reservation with the final response.
func (s *IdempotencyStore) Complete(ctx context.Context, key, value string, ttl time.Duration) error {
	return s.client.Set(ctx, idempotencyPrefix+key, value, ttl).Err()
}

// Release drops a reservation so the request can be sent again.
func (s *IdempotencyStore) Release(ctx context.Context, key string) error {
	return s.client.Del(ctx, idempotencyPrefix+key).Err()
}
