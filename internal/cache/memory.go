package cache

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	rate      *Rate
	expiresAt time.Time
}

// MemoryCache is an in-process RateCache used when Redis is unavailable.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
}

// NewMemoryCache creates an empty in-memory cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]memoryEntry)}
}

// Get returns the cached rate for key, or (nil, nil) on a miss or an expired
// entry.
func (c *MemoryCache) Get(_ context.Context, key string) (*Rate, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[key]
	if !ok || time.Now().After(entry.expiresAt) {
		return nil, nil
	}
	return entry.rate, nil
}

// Put stores a rate under key for ttl.
func (c *MemoryCache) Put(_ context.Context, key string, rate *Rate, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = memoryEntry{rate: rate, expiresAt: time.Now().Add(ttl)}
	return nil
}
