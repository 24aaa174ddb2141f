package services

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// FlagStore keeps expiring per-key markers.
type FlagStore interface {
	SetFlag(ctx context.Context, key string, ttl time.Duration) error
	// TouchFlag reports whether key is set, extending its expiry when ttl > 0.
	TouchFlag(ctx context.Context, key string, ttl time.Duration) (bool, error)
	ClearFlag(ctx context.Context, key string) error
}

// RedisFlagStore is a FlagStore over plain Redis keys.
type RedisFlagStore struct {
	client redis.Cmdable
}

func NewRedisFlagStore(client redis.Cmdable) *RedisFlagStore {
	return &RedisFlagStore{client: client}
}

func (s *RedisFlagStore) SetFlag(ctx context.Context, key string, ttl time.Duration) error {
	return s.client.Set(ctx, key, "1", ttl).Err()
}

func (s *RedisFlagStore) TouchFlag(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	if ttl <= 0 {
		n, err := s.client.Exists(ctx, key).Result()
		return n > 0, err
	}
	// EXPIRE answers false for a missing key, so one round trip covers both.
	return s.client.Expire(ctx, key, ttl).Result()
}

func (s *RedisFlagStore) ClearFlag(ctx context.Context, key string) error {
	return s.client.Del(ctx, key).Err()
}
