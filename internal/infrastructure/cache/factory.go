package cache

import (
	"fmt"

	"github.com/ChenZongYanLive/OrderManagementSystem/internal/domain/mapping"
	"github.com/ChenZongYanLive/OrderManagementSystem/internal/infrastructure/config"
	"go.uber.org/zap"
)

// TemplateCacheFactory creates the default-template cache based on configuration
type TemplateCacheFactory struct {
	redisConfig           config.RedisConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// TemplateCacheFactoryOption is a functional option for configuring the factory
type TemplateCacheFactoryOption func(*TemplateCacheFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) TemplateCacheFactoryOption {
	return func(f *TemplateCacheFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether to fall back to the in-memory cache
// when Redis is enabled but unreachable. Default is true.
func WithInMemoryFallback(allow bool) TemplateCacheFactoryOption {
	return func(f *TemplateCacheFactory) {
		f.allowInMemoryFallback = allow
	}
}

// NewTemplateCacheFactory creates a new factory
func NewTemplateCacheFactory(cfg config.RedisConfig, opts ...TemplateCacheFactoryOption) *TemplateCacheFactory {
	f := &TemplateCacheFactory{
		redisConfig:           cfg,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// CreateRedisCache creates a Redis-backed template cache
func (f *TemplateCacheFactory) CreateRedisCache() (*RedisTemplateCache, error) {
	c, err := NewRedisTemplateCache(RedisConfig{
		Host:     f.redisConfig.Host,
		Port:     f.redisConfig.Port,
		Password: f.redisConfig.Password,
		DB:       f.redisConfig.DB,
	}, WithTemplateTTL(f.redisConfig.TemplateCacheTTL), WithTemplateCacheLogger(f.logger))
	if err != nil {
		return nil, fmt.Errorf("failed to create Redis template cache: %w", err)
	}
	return c, nil
}

// CreateInMemoryCache creates a process-local template cache. Instances do
// not share it, so a default changed on one instance is seen by the others
// only after the TTL.
func (f *TemplateCacheFactory) CreateInMemoryCache() *InMemoryTemplateCache {
	return NewInMemoryTemplateCache(f.redisConfig.TemplateCacheTTL)
}

// CreateCache returns the Redis cache when Redis is enabled and reachable,
// otherwise the in-memory cache. With fallback disabled an unreachable Redis
// is an error. The returned close function releases the Redis client.
func (f *TemplateCacheFactory) CreateCache() (mapping.TemplateCache, func() error, error) {
	noop := func() error { return nil }
	if !f.redisConfig.Enabled {
		f.logger.Info("Redis disabled, using in-memory template cache")
		return f.CreateInMemoryCache(), noop, nil
	}

	c, err := f.CreateRedisCache()
	if err == nil {
		f.logger.Info("Using Redis template cache", zap.String("addr", f.redisConfig.Addr()))
		return c, c.Close, nil
	}

	if !f.allowInMemoryFallback {
		return nil, nil, fmt.Errorf("Redis required for template cache but unavailable: %w", err)
	}

	f.logger.Warn("Redis unavailable, falling back to in-memory template cache", zap.Error(err))
	return f.CreateInMemoryCache(), noop, nil
}
