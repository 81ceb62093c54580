package ticket

import (
	"sync"
	"time"
)

// Cache stores lookups that rarely change, such as a system's status list.
type Cache interface {
	Get(key string) (any, bool)
	Set(key string, value any)
}

type cacheItem struct {
	value   any
	expires time.Time
}

// MemoryCache is an in-process Cache whose entries expire after a TTL.
type MemoryCache struct {
	mu    sync.Mutex
	ttl   time.Duration
	items map[string]cacheItem
	now   func() time.Time
}

func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{ttl: ttl, items: map[string]cacheItem{}, now: time.Now}
}

func (m *MemoryCache) Get(key string) (any, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	it, ok := m.items[key]
	if !ok {
		return nil, false
	}
	if m.ttl > 0 && m.now().After(it.expires) {
		delete(m.items, key)
		return nil, false
	}
	return it.value, true
}

func (m *MemoryCache) Set(key string, value any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[key] = cacheItem{value: value, expires: m.now().Add(m.ttl)}
}
