package repository

import (
	"context"
	"errors"
	"time"
)

// ErrTransientNotFound is returned by Get for absent and expired keys
var ErrTransientNotFound = errors.New("transient not found")

// TransientStore is a key/value store with per-entry expiry. Expired entries
// behave exactly like absent ones. A ttl <= 0 stores the value without expiry.
// Delete of an absent key succeeds.
type TransientStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Backend names a TransientStore implementation
type Backend string

const (
	BackendRedis    Backend = "redis"
	BackendPostgres Backend = "postgres"
	BackendMemory   Backend = "memory"
)

// Clock returns the current time; stores that evaluate expiry themselves use it
type Clock func() time.Time
