package repository

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// MemoryTransientStore is a process-local store for tests and local
// development. It does not survive restarts and is not shared between
// processes.
type MemoryTransientStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     Clock
}

func NewMemoryTransientStore() *MemoryTransientStore {
	return &MemoryTransientStore{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

// WithClock replaces the clock used to evaluate expiry
func (m *MemoryTransientStore) WithClock(now Clock) *MemoryTransientStore {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
	return m
}

func (m *MemoryTransientStore) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entry, ok := m.entries[key]
	if !ok {
		return nil, ErrTransientNotFound
	}
	if !entry.expiresAt.IsZero() && !m.now().Before(entry.expiresAt) {
		return nil, ErrTransientNotFound
	}

	value := make([]byte, len(entry.value))
	copy(value, entry.value)
	return value, nil
}

func (m *MemoryTransientStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry := memoryEntry{value: make([]byte, len(value))}
	copy(entry.value, value)
	if ttl > 0 {
		entry.expiresAt = m.now().Add(ttl)
	}
	m.entries[key] = entry
	return nil
}

func (m *MemoryTransientStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.entries, key)
	return nil
}

func (m *MemoryTransientStore) Close() error {
	return nil
}
