package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/unistore/backend/internal/domain/catalog"
)

// RedisProductCache implements catalog.ProductCache on Redis so multiple
// instances share one product cache.
type RedisProductCache struct {
	client    *redis.Client
	keyPrefix string
}

// RedisConfig holds Redis connection configuration.
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// NewRedisProductCache connects to Redis and verifies the connection.
func NewRedisProductCache(cfg RedisConfig) (*RedisProductCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisProductCache{client: client, keyPrefix: "catalog:products:"}, nil
}

// NewRedisProductCacheWithClient wraps an existing client. Useful for tests
// or when sharing a client across components.
func NewRedisProductCacheWithClient(client *redis.Client, keyPrefix string) *RedisProductCache {
	if keyPrefix == "" {
		keyPrefix = "catalog:products:"
	}
	return &RedisProductCache{client: client, keyPrefix: keyPrefix}
}

// Get implements catalog.ProductCache. A corrupt entry is treated as a
// miss after being dropped.
func (c *RedisProductCache) Get(ctx context.Context, key string) ([]catalog.Product, bool, error) {
	raw, err := c.client.Get(ctx, c.keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get failed: %w", err)
	}

	var products []catalog.Product
	if err := json.Unmarshal(raw, &products); err != nil {
		_ = c.client.Del(ctx, c.keyPrefix+key).Err()
		return nil, false, nil
	}
	return products, true, nil
}

// Set implements catalog.ProductCache.
func (c *RedisProductCache) Set(ctx context.Context, key string, products []catalog.Product, ttl time.Duration) error {
	raw, err := json.Marshal(products)
	if err != nil {
		return fmt.Errorf("failed to marshal products: %w", err)
	}
	if err := c.client.Set(ctx, c.keyPrefix+key, raw, ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

// Invalidate implements catalog.ProductCache.
func (c *RedisProductCache) Invalidate(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, c.keyPrefix+key).Err(); err != nil {
		return fmt.Errorf("redis del failed: %w", err)
	}
	return nil
}

var _ catalog.ProductCache = (*RedisProductCache)(nil)
