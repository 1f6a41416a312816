package catalog

import (
	"context"
	"time"
)

// ProductCache stores normalized product lists between catalog reads.
// Implementations live in infrastructure.
type ProductCache interface {
	// Get returns the cached products for a key, or ok=false on a miss.
	Get(ctx context.Context, key string) (products []Product, ok bool, err error)

	// Set stores a product list under a key for the given lifetime.
	Set(ctx context.Context, key string, products []Product, ttl time.Duration) error

	// Invalidate drops a cached entry.
	Invalidate(ctx context.Context, key string) error
}
