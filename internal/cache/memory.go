package cache

import (
	"context"
	"sync"
	"time"
)

type memEntry struct {
	value     []byte
	expiresAt time.Time
}

// Memory is an in-process Cache used when Redis is not configured.
type Memory struct {
	mu    sync.Mutex
	items map[string]memEntry
	gens  map[string]uint64
	now   func() time.Time
}

// NewMemory creates an empty in-process cache.
func NewMemory() *Memory {
	return &Memory{items: make(map[string]memEntry), gens: make(map[string]uint64), now: time.Now}
}

// WithClock replaces the time source.
func (m *Memory) WithClock(now func() time.Time) *Memory {
	m.now = now
	return m
}

// Get returns a copy of the stored value.
func (m *Memory) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.items[key]
	if !ok {
		return nil, ErrMiss
	}
	if !e.expiresAt.IsZero() && !m.now().Before(e.expiresAt) {
		delete(m.items, key)
		return nil, ErrMiss
	}
	out := make([]byte, len(e.value))
	copy(out, e.value)
	return out, nil
}

// Set stores a copy of value.
func (m *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.put(key, value, ttl)
	return nil
}

func (m *Memory) put(key string, value []byte, ttl time.Duration) {
	v := make([]byte, len(value))
	copy(v, value)
	e := memEntry{value: v}
	if ttl > 0 {
		e.expiresAt = m.now().Add(ttl)
	}
	m.items[key] = e
}

// Generation returns the invalidation counter of key.
func (m *Memory) Generation(_ context.Context, key string) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.gens[key], nil
}

// SetIfGeneration stores a copy of value unless key was invalidated after gen was read.
func (m *Memory) SetIfGeneration(_ context.Context, key string, value []byte, ttl time.Duration, gen uint64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.gens[key] != gen {
		return false, nil
	}
	m.put(key, value, ttl)
	return true, nil
}

// Invalidate deletes key and bumps its generation.
func (m *Memory) Invalidate(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.items, key)
	m.gens[key]++
	return nil
}

// Delete removes key.
func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.items, key)
	m.mu.Unlock()
	return nil
}

// Ping always succeeds.
func (m *Memory) Ping(context.Context) error { return nil }

// Close drops all entries. Generations are kept so fills in flight stay rejected.
func (m *Memory) Close() error {
	m.mu.Lock()
	m.items = make(map[string]memEntry)
	m.mu.Unlock()
	return nil
}

var (
	_ Cache = (*Memory)(nil)
	_ Cache = (*RedisAdapter)(nil)
)
