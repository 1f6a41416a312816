package cache

import (
	"context"
	"sync"
	"time"

	"github.com/unistore/backend/internal/domain/catalog"
)

// InMemoryProductCache implements catalog.ProductCache with a local map.
// Suitable for single-instance deployments and testing; entries are not
// shared across processes.
type InMemoryProductCache struct {
	mu      sync.RWMutex
	entries map[string]inMemoryEntry
	now     func() time.Time
}

type inMemoryEntry struct {
	products  []catalog.Product
	expiresAt time.Time
}

// NewInMemoryProductCache creates an empty in-memory cache.
func NewInMemoryProductCache() *InMemoryProductCache {
	return &InMemoryProductCache{
		entries: make(map[string]inMemoryEntry),
		now:     time.Now,
	}
}

// Get implements catalog.ProductCache.
func (c *InMemoryProductCache) Get(_ context.Context, key string) ([]catalog.Product, bool, error) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok {
		return nil, false, nil
	}
	if c.now().After(entry.expiresAt) {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return nil, false, nil
	}
	return entry.products, true, nil
}

// Set implements catalog.ProductCache.
func (c *InMemoryProductCache) Set(_ context.Context, key string, products []catalog.Product, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = inMemoryEntry{
		products:  products,
		expiresAt: c.now().Add(ttl),
	}
	return nil
}

// Invalidate implements catalog.ProductCache.
func (c *InMemoryProductCache) Invalidate(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	return nil
}

var _ catalog.ProductCache = (*InMemoryProductCache)(nil)
