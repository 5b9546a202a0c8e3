package mocks

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

type cacheItem struct {
	value     []byte
	expiresAt time.Time
}

// MockTokenCache implements domain.TokenCache with hit/miss counters
type MockTokenCache struct {
	items map[string]cacheItem
	mu    sync.RWMutex

	Hits   atomic.Int64
	Misses atomic.Int64
	Puts   atomic.Int64
}

// NewMockTokenCache creates an empty counting cache
func NewMockTokenCache() *MockTokenCache {
	return &MockTokenCache{items: make(map[string]cacheItem)}
}

func (m *MockTokenCache) Get(ctx context.Context, key string) ([]byte, bool) {
	m.mu.RLock()
	item, ok := m.items[key]
	m.mu.RUnlock()

	if !ok || !time.Now().Before(item.expiresAt) {
		m.Misses.Add(1)
		return nil, false
	}
	m.Hits.Add(1)
	return item.value, true
}

func (m *MockTokenCache) Put(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	m.Puts.Add(1)
	m.mu.Lock()
	m.items[key] = cacheItem{value: append([]byte(nil), value...), expiresAt: time.Now().Add(ttl)}
	m.mu.Unlock()
	return nil
}

func (m *MockTokenCache) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	delete(m.items, key)
	m.mu.Unlock()
	return nil
}

// HitRatio returns hits / (hits + misses)
func (m *MockTokenCache) HitRatio() float64 {
	hits, misses := m.Hits.Load(), m.Misses.Load()
	if hits+misses == 0 {
		return 0
	}
	return float64(hits) / float64(hits+misses)
}

// Reset drops every entry and counter
func (m *MockTokenCache) Reset() {
	m.mu.Lock()
	m.items = make(map[string]cacheItem)
	m.mu.Unlock()
	m.Hits.Store(0)
	m.Misses.Store(0)
	m.Puts.Store(0)
}

type lockEntry struct {
	owner     string
	expiresAt time.Time
}

// MockRefreshLocker implements domain.RefreshLocker in memory
type MockRefreshLocker struct {
	locks map[string]lockEntry
	mu    sync.Mutex

	Attempts  atomic.Int64
	Successes atomic.Int64
	Releases  atomic.Int64
}

// NewMockRefreshLocker creates a locker with no held locks
func NewMockRefreshLocker() *MockRefreshLocker {
	return &MockRefreshLocker{locks: make(map[string]lockEntry)}
}

func (m *MockRefreshLocker) AcquireLock(ctx context.Context, key, owner string, ttl time.Duration) (bool, error) {
	m.Attempts.Add(1)
	m.mu.Lock()
	defer m.mu.Unlock()

	if entry, exists := m.locks[key]; exists && time.Now().Before(entry.expiresAt) {
		return false, nil
	}
	m.locks[key] = lockEntry{owner: owner, expiresAt: time.Now().Add(ttl)}
	m.Successes.Add(1)
	return true, nil
}

func (m *MockRefreshLocker) ReleaseLock(ctx context.Context, key, owner string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[key]
	if !exists || entry.owner != owner {
		return false, nil
	}
	delete(m.locks, key)
	m.Releases.Add(1)
	return true, nil
}
