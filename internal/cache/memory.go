// README: In-process caches backed by an expiring LRU.
package cache

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"flock/internal/types"
)

type MemoryLocationCache struct {
	lru *expirable.LRU[types.ID, LocationEntry]
}

// NewMemoryLocationCache keeps at most size entries for ttl. A size of 0 is
// unbounded and a ttl of 0 never expires.
func NewMemoryLocationCache(size int, ttl time.Duration) *MemoryLocationCache {
	return &MemoryLocationCache{lru: expirable.NewLRU[types.ID, LocationEntry](size, nil, ttl)}
}

func (c *MemoryLocationCache) GetLocation(_ context.Context, riderID types.ID) (LocationEntry, bool, error) {
	e, ok := c.lru.Get(riderID)
	return e, ok, nil
}

func (c *MemoryLocationCache) PutLocation(_ context.Context, riderID types.ID, e LocationEntry) error {
	c.lru.Add(riderID, e)
	return nil
}

func (c *MemoryLocationCache) Len() int {
	return c.lru.Len()
}

type MemoryRouteCache struct {
	lru *expirable.LRU[RouteKey, types.Route]
}

func NewMemoryRouteCache(size int, ttl time.Duration) *MemoryRouteCache {
	return &MemoryRouteCache{lru: expirable.NewLRU[RouteKey, types.Route](size, nil, ttl)}
}

func (c *MemoryRouteCache) GetRoute(_ context.Context, key RouteKey) (types.Route, bool, error) {
	r, ok := c.lru.Get(key)
	return r, ok, nil
}

func (c *MemoryRouteCache) PutRoute(_ context.Context, key RouteKey, r types.Route) error {
	c.lru.Add(key, r)
	return nil
}

func (c *MemoryRouteCache) Len() int {
	return c.lru.Len()
}
