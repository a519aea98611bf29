package cache

import (
	"sync"
	"time"
)

// CacheService represents a generic expiring key/value store
type CacheService interface {
	// Get returns the value for key; found is false on a miss
	Get(key string) (value []byte, found bool, err error)

	// Set stores a value in the cache with an expiration time
	Set(key string, value []byte, expiration time.Duration) error

	// Delete removes a value from the cache; deleting a missing key is not an error
	Delete(key string) error
}

// MemoryCache is an in-process CacheService used when no memcached is configured
type MemoryCache struct {
	mu    sync.Mutex
	items map[string]memoryItem
	now   func() time.Time
}

type memoryItem struct {
	value     []byte
	expiresAt time.Time
}

// NewMemoryCache creates an empty in-process cache
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		items: make(map[string]memoryItem),
		now:   time.Now,
	}
}

// Get retrieves a value, dropping it if it has expired
func (m *MemoryCache) Get(key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	item, ok := m.items[key]
	if !ok {
		return nil, false, nil
	}
	if !item.expiresAt.IsZero() && !m.now().Before(item.expiresAt) {
		delete(m.items, key)
		return nil, false, nil
	}
	return item.value, true, nil
}

// Set stores a value; a non-positive expiration never expires
func (m *MemoryCache) Set(key string, value []byte, expiration time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	item := memoryItem{value: append([]byte(nil), value...)}
	if expiration > 0 {
		item.expiresAt = m.now().Add(expiration)
	}
	m.items[key] = item
	return nil
}

// Delete removes a value
func (m *MemoryCache) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.items, key)
	return nil
}
