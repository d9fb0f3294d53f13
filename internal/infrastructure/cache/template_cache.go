package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ChenZongYanLive/OrderManagementSystem/internal/domain/mapping"
	"github.com/ChenZongYanLive/OrderManagementSystem/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	defaultTemplateTTL = 10 * time.Minute
	templateKeyPrefix  = "mapping_template:default:"
)

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// cachedTemplate is the serialized form of a default template.
type cachedTemplate struct {
	ID          uuid.UUID            `json:"id"`
	Name        string               `json:"name"`
	Description string               `json:"description"`
	Kind        mapping.Kind         `json:"kind"`
	Mapping     mapping.FieldMapping `json:"mapping"`
	IsDefault   bool                 `json:"is_default"`
	CreatedAt   time.Time            `json:"created_at"`
	UpdatedAt   time.Time            `json:"updated_at"`
}

func encodeTemplate(t *mapping.MappingTemplate) ([]byte, error) {
	return json.Marshal(cachedTemplate{
		ID:          t.ID,
		Name:        t.Name,
		Description: t.Description,
		Kind:        t.Kind,
		Mapping:     t.Mapping,
		IsDefault:   t.IsDefault,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	})
}

func decodeTemplate(data []byte) (*mapping.MappingTemplate, error) {
	var c cachedTemplate
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, err
	}
	return &mapping.MappingTemplate{
		BaseAggregateRoot: shared.BaseAggregateRoot{BaseEntity: shared.BaseEntity{
			ID:        c.ID,
			CreatedAt: c.CreatedAt,
			UpdatedAt: c.UpdatedAt,
		}},
		Name:        c.Name,
		Description: c.Description,
		Kind:        c.Kind,
		Mapping:     c.Mapping,
		IsDefault:   c.IsDefault,
	}, nil
}

func templateCacheKey(kind mapping.Kind) string {
	return templateKeyPrefix + string(kind)
}

// RedisTemplateCache implements mapping.TemplateCache using Redis so every
// instance sees the same default templates.
type RedisTemplateCache struct {
	client     *redis.Client
	ownsClient bool
	ttl        time.Duration
	logger     *zap.Logger
}

// RedisTemplateCacheOption is a functional option for configuring the cache
type RedisTemplateCacheOption func(*RedisTemplateCache)

// WithTemplateTTL sets how long a default template stays cached
func WithTemplateTTL(ttl time.Duration) RedisTemplateCacheOption {
	return func(c *RedisTemplateCache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithTemplateCacheLogger sets the logger for the cache
func WithTemplateCacheLogger(logger *zap.Logger) RedisTemplateCacheOption {
	return func(c *RedisTemplateCache) {
		c.logger = logger
	}
}

// NewRedisTemplateCache connects to Redis and creates the cache
func NewRedisTemplateCache(cfg RedisConfig, opts ...RedisTemplateCacheOption) (*RedisTemplateCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	c := NewRedisTemplateCacheWithClient(client, opts...)
	c.ownsClient = true
	return c, nil
}

// NewRedisTemplateCacheWithClient creates a cache with an existing Redis client.
// The caller keeps ownership of the client.
func NewRedisTemplateCacheWithClient(client *redis.Client, opts ...RedisTemplateCacheOption) *RedisTemplateCache {
	c := &RedisTemplateCache{
		client: client,
		ttl:    defaultTemplateTTL,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetDefault returns the cached default template of kind
func (c *RedisTemplateCache) GetDefault(ctx context.Context, kind mapping.Kind) (*mapping.MappingTemplate, error) {
	key := templateCacheKey(kind)
	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get template from cache: %w", err)
	}

	t, err := decodeTemplate(data)
	if err != nil {
		c.logger.Warn("Dropping corrupted template cache entry", zap.String("key", key), zap.Error(err))
		_ = c.client.Del(ctx, key)
		return nil, nil
	}
	return t, nil
}

// SetDefault caches t as the default template of kind
func (c *RedisTemplateCache) SetDefault(ctx context.Context, kind mapping.Kind, t *mapping.MappingTemplate) error {
	if t == nil {
		return nil
	}
	data, err := encodeTemplate(t)
	if err != nil {
		return fmt.Errorf("failed to marshal template: %w", err)
	}
	if err := c.client.Set(ctx, templateCacheKey(kind), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set template in cache: %w", err)
	}
	return nil
}

// Invalidate deletes the cached defaults of kinds, or of all kinds
func (c *RedisTemplateCache) Invalidate(ctx context.Context, kinds ...mapping.Kind) error {
	if len(kinds) == 0 {
		kinds = mapping.AllKinds
	}
	keys := make([]string, len(kinds))
	for i, k := range kinds {
		keys[i] = templateCacheKey(k)
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to invalidate template cache: %w", err)
	}
	return nil
}

// Close closes the Redis client when the cache created it
func (c *RedisTemplateCache) Close() error {
	if c.ownsClient {
		return c.client.Close()
	}
	return nil
}

var _ mapping.TemplateCache = (*RedisTemplateCache)(nil)
