package session

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// KV is the persisted key/value store holding session state across
// process restarts. Entries are owned by a single session; last write
// wins is acceptable.
type KV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, keys ...string) error
}

// RedisKV backs the KV interface with Redis.
type RedisKV struct {
	rdb *redis.Client
}

// NewRedisKV wraps a Redis client as session storage.
func NewRedisKV(rdb *redis.Client) *RedisKV {
	return &RedisKV{rdb: rdb}
}

// Get returns the value for key, or "" when the key is absent.
func (s *RedisKV) Get(ctx context.Context, key string) (string, error) {
	val, err := s.rdb.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", nil
	}
	return val, err
}

func (s *RedisKV) Set(ctx context.Context, key, value string) error {
	return s.rdb.Set(ctx, key, value, 0).Err()
}

func (s *RedisKV) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return s.rdb.Del(ctx, keys...).Err()
}
