package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"vipwallet/internal/models"

	"github.com/redis/go-redis/v9"
)

// CacheService stores read-side snapshots as JSON in redis. Nothing read
// from here is ever used to authorize a balance change.
type CacheService struct {
	client *redis.Client
	ttl    time.Duration
}

func NewCacheService(client *redis.Client, defaultTTL time.Duration) *CacheService {
	return &CacheService{
		client: client,
		ttl:    defaultTTL,
	}
}

// Base operations
func (s *CacheService) Set(ctx context.Context, key string, value interface{}) error {
	return s.SetWithTTL(ctx, key, value, s.ttl)
}

func (s *CacheService) SetWithTTL(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal cache value: %w", err)
	}
	return s.client.Set(ctx, key, data, ttl).Err()
}

func (s *CacheService) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("failed to get cache value: %w", err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("failed to unmarshal cache value: %w", err)
	}
	return true, nil
}

func (s *CacheService) Delete(ctx context.Context, keys ...string) error {
	return s.client.Del(ctx, keys...).Err()
}

// Key generation
func (s *CacheService) GenerateKey(entityType, keyType string, value interface{}) string {
	return fmt.Sprintf("%s:%s:%v", entityType, keyType, value)
}

// ErrStaleSnapshot is returned by CacheWallet when the wallet was
// invalidated after the snapshot's version was read.
var ErrStaleSnapshot = errors.New("wallet snapshot is stale")

func (s *CacheService) walletKey(userID uint) string {
	return s.GenerateKey("wallet", "user", userID)
}

func (s *CacheService) walletVersionKey(userID uint) string {
	return s.GenerateKey("wallet", "version", userID)
}

// WalletVersion returns the invalidation counter of the user's wallet. Read
// it before loading the wallet from the database and pass it to CacheWallet.
func (s *CacheService) WalletVersion(ctx context.Context, userID uint) (int64, error) {
	v, err := s.client.Get(ctx, s.walletVersionKey(userID)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to get wallet version: %w", err)
	}
	return v, nil
}

// CacheWallet stores the snapshot only if no invalidation happened since
// version was read; otherwise it returns ErrStaleSnapshot.
func (s *CacheService) CacheWallet(ctx context.Context, wallet *models.Wallet, version int64) error {
	if wallet == nil {
		return errors.New("cannot cache nil wallet")
	}
	data, err := json.Marshal(wallet)
	if err != nil {
		return fmt.Errorf("failed to marshal cache value: %w", err)
	}

	versionKey := s.walletVersionKey(wallet.UserID)
	err = s.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, versionKey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != version {
			return ErrStaleSnapshot
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, s.walletKey(wallet.UserID), data, s.ttl)
			return nil
		})
		return err
	}, versionKey)
	if errors.Is(err, redis.TxFailedErr) {
		return ErrStaleSnapshot
	}
	return err
}

// GetWallet returns (nil, nil) on a cache miss.
func (s *CacheService) GetWallet(ctx context.Context, userID uint) (*models.Wallet, error) {
	var wallet models.Wallet
	found, err := s.Get(ctx, s.walletKey(userID), &wallet)
	if err != nil || !found {
		return nil, err
	}
	return &wallet, nil
}

// InvalidateWallet drops the snapshot and bumps the version so that fills
// started before the invalidation are rejected.
func (s *CacheService) InvalidateWallet(ctx context.Context, userID uint) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, s.walletVersionKey(userID))
		pipe.Del(ctx, s.walletKey(userID))
		return nil
	})
	return err
}

// HealthCheck pings redis.
func (s *CacheService) HealthCheck(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis connection failed: %w", err)
	}
	return nil
}

// GetStats exposes the client pool counters.
func (s *CacheService) GetStats() *redis.PoolStats {
	return s.client.PoolStats()
}

// Close closes the Redis client connection
func (s *CacheService) Close() error {
	return s.client.Close()
}
