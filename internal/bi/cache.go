package bi

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Cache stores computed widget data.
type Cache interface {
	Get(key string) (any, bool)
	Add(key string, value any)
}

// LRUCache is a size-bounded cache whose entries expire after a fixed TTL.
type LRUCache struct {
	lru *expirable.LRU[string, any]
}

// NewLRUCache creates a cache holding up to size entries for ttl each.
func NewLRUCache(size int, ttl time.Duration) *LRUCache {
	return &LRUCache{lru: expirable.NewLRU[string, any](size, nil, ttl)}
}

func (c *LRUCache) Get(key string) (any, bool) { return c.lru.Get(key) }

func (c *LRUCache) Add(key string, value any) { c.lru.Add(key, value) }

// NoopCache never stores anything.
type NoopCache struct{}

func (NoopCache) Get(string) (any, bool) { return nil, false }

func (NoopCache) Add(string, any) {}
