package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisTransientStore keeps transients in Redis and relies on native key
// expiry. Single-key GET/SET/DEL are atomic on the server, so it is safe to
// share between processes.
type RedisTransientStore struct {
	redis  *redis.Client
	prefix string
}

// NewRedisTransientStore creates a store namespacing every key with prefix
func NewRedisTransientStore(redis *redis.Client, prefix string) *RedisTransientStore {
	return &RedisTransientStore{
		redis:  redis,
		prefix: prefix,
	}
}

func (r *RedisTransientStore) key(key string) string {
	if r.prefix == "" {
		return key
	}
	return fmt.Sprintf("%s:%s", r.prefix, key)
}

// Get retrieves the transient value by key
func (r *RedisTransientStore) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := r.redis.Get(ctx, r.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrTransientNotFound
		}
		return nil, fmt.Errorf("failed to get transient %s: %w", key, err)
	}
	return data, nil
}

// Set stores the value with the given expiration
func (r *RedisTransientStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}
	if err := r.redis.Set(ctx, r.key(key), value, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set transient %s: %w", key, err)
	}
	return nil
}

// Delete removes the transient; deleting a missing key is not an error
func (r *RedisTransientStore) Delete(ctx context.Context, key string) error {
	if err := r.redis.Del(ctx, r.key(key)).Err(); err != nil {
		return fmt.Errorf("failed to delete transient %s: %w", key, err)
	}
	return nil
}

func (r *RedisTransientStore) Close() error {
	return r.redis.Close()
}
