package cache

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/unistore/backend/internal/domain/catalog"
	"github.com/unistore/backend/internal/infrastructure/config"
)

// ProductCacheFactory creates product caches based on configuration.
type ProductCacheFactory struct {
	redisConfig config.RedisConfig
	logger      *zap.Logger
}

// NewProductCacheFactory creates a new factory.
func NewProductCacheFactory(cfg config.RedisConfig, logger *zap.Logger) *ProductCacheFactory {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProductCacheFactory{redisConfig: cfg, logger: logger}
}

// Create returns a Redis-backed cache when Redis is enabled and reachable,
// falling back to the in-memory cache otherwise.
func (f *ProductCacheFactory) Create() catalog.ProductCache {
	if !f.redisConfig.Enabled {
		f.logger.Info("using in-memory product cache")
		return NewInMemoryProductCache()
	}

	store, err := NewRedisProductCache(RedisConfig{
		Host:     f.redisConfig.Host,
		Port:     f.redisConfig.Port,
		Password: f.redisConfig.Password,
		DB:       f.redisConfig.DB,
	})
	if err != nil {
		f.logger.Warn("Redis unavailable, falling back to in-memory product cache",
			zap.Error(fmt.Errorf("create redis product cache: %w", err)))
		return NewInMemoryProductCache()
	}

	f.logger.Info("using Redis product cache")
	return store
}
