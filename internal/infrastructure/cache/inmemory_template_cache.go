package cache

import (
	"context"
	"time"

	"github.com/ChenZongYanLive/OrderManagementSystem/internal/domain/mapping"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

// InMemoryTemplateCache implements mapping.TemplateCache with an expiring
// LRU local to the process. Entries are copies so callers cannot mutate the
// cached value.
type InMemoryTemplateCache struct {
	lru *expirable.LRU[mapping.Kind, mapping.MappingTemplate]
}

// NewInMemoryTemplateCache creates a cache whose entries live for ttl
func NewInMemoryTemplateCache(ttl time.Duration) *InMemoryTemplateCache {
	if ttl <= 0 {
		ttl = defaultTemplateTTL
	}
	return &InMemoryTemplateCache{
		lru: expirable.NewLRU[mapping.Kind, mapping.MappingTemplate](len(mapping.AllKinds)*2, nil, ttl),
	}
}

// GetDefault returns the cached default template of kind
func (c *InMemoryTemplateCache) GetDefault(_ context.Context, kind mapping.Kind) (*mapping.MappingTemplate, error) {
	t, ok := c.lru.Get(kind)
	if !ok {
		return nil, nil
	}
	return cloneTemplate(t), nil
}

// SetDefault caches t as the default template of kind
func (c *InMemoryTemplateCache) SetDefault(_ context.Context, kind mapping.Kind, t *mapping.MappingTemplate) error {
	if t == nil {
		return nil
	}
	c.lru.Add(kind, *cloneTemplate(*t))
	return nil
}

// Invalidate removes the cached defaults of kinds, or of all kinds
func (c *InMemoryTemplateCache) Invalidate(_ context.Context, kinds ...mapping.Kind) error {
	if len(kinds) == 0 {
		c.lru.Purge()
		return nil
	}
	for _, k := range kinds {
		c.lru.Remove(k)
	}
	return nil
}

func cloneTemplate(t mapping.MappingTemplate) *mapping.MappingTemplate {
	m := make(mapping.FieldMapping, len(t.Mapping))
	for h, target := range t.Mapping {
		m[h] = target
	}
	t.Mapping = m
	t.ClearDomainEvents()
	return &t
}

var _ mapping.TemplateCache = (*InMemoryTemplateCache)(nil)
