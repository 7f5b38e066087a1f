// Package staging provides StagingStore implementations. Snapshots carry a
// TTL so abandoned checkouts are reclaimed instead of lingering forever.
package staging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/redis/go-redis/v9"

	"github.com/thriftease/marketplace/internal/domain/checkout"
)

var _ checkout.StagingStore = (*RedisStore)(nil)

// RedisStore keeps staged orders in Redis under one key per user, expiring
// after the configured TTL.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore creates a RedisStore with the given snapshot TTL.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

// Put stores the snapshot, overwriting any prior one for the user and
// resetting the TTL.
func (s *RedisStore) Put(ctx context.Context, staged *checkout.StagedOrder) error {
	data, err := json.Marshal(staged)
	if err != nil {
		return fmt.Errorf("marshal staged order: %w", err)
	}
	if err := s.client.Set(ctx, stagingKey(staged.UserID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

// Get returns the user's snapshot, or checkout.ErrNoStagedOrder when the key
// is absent or expired.
func (s *RedisStore) Get(ctx context.Context, userID string) (*checkout.StagedOrder, error) {
	data, err := s.client.Get(ctx, stagingKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, checkout.ErrNoStagedOrder
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var staged checkout.StagedOrder
	if err := json.Unmarshal(data, &staged); err != nil {
		return nil, fmt.Errorf("unmarshal staged order: %w", err)
	}
	return &staged, nil
}

// Take removes and returns the user's snapshot in one round trip. GETDEL is
// atomic on the Redis side, so of two racing confirmations exactly one gets
// the snapshot and the other gets checkout.ErrNoStagedOrder.
func (s *RedisStore) Take(ctx context.Context, userID string) (*checkout.StagedOrder, error) {
	data, err := s.client.GetDel(ctx, stagingKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, checkout.ErrNoStagedOrder
	}
	if err != nil {
		return nil, fmt.Errorf("redis getdel failed: %w", err)
	}

	var staged checkout.StagedOrder
	if err := json.Unmarshal(data, &staged); err != nil {
		return nil, fmt.Errorf("unmarshal staged order: %w", err)
	}
	return &staged, nil
}

// Delete discards the user's snapshot. Deleting an absent key is a no-op.
func (s *RedisStore) Delete(ctx context.Context, userID string) error {
	if err := s.client.Del(ctx, stagingKey(userID)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func stagingKey(userID string) string {
	return "staging:" + userID
}
