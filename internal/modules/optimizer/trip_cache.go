// README: Per-trip result cache keyed by trip id and guarded by the trip fingerprint.
package optimizer

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"flock/internal/modules/trip"
	"flock/internal/types"
)

type tripCacheEntry struct {
	fingerprint Fingerprint
	result      *OptimizedTrip
}

type TripCache struct {
	lru *expirable.LRU[types.ID, tripCacheEntry]
}

func NewTripCache(size int, ttl time.Duration) *TripCache {
	return &TripCache{lru: expirable.NewLRU[types.ID, tripCacheEntry](size, nil, ttl)}
}

// HasChanged reports whether t differs from the trip whose result is cached.
// A trip with no cached result has always changed.
func (c *TripCache) HasChanged(t *trip.Trip) bool {
	e, ok := c.lru.Get(t.ID)
	if !ok {
		return true
	}
	return !e.fingerprint.Equal(FingerprintOf(t))
}

// Lookup returns the cached result when t is unchanged. The same pointer is
// returned on every hit.
func (c *TripCache) Lookup(t *trip.Trip) (*OptimizedTrip, bool) {
	e, ok := c.lru.Get(t.ID)
	if !ok || !e.fingerprint.Equal(FingerprintOf(t)) {
		return nil, false
	}
	return e.result, true
}

func (c *TripCache) Put(t *trip.Trip, result *OptimizedTrip) {
	c.lru.Add(t.ID, tripCacheEntry{fingerprint: FingerprintOf(t), result: result})
}

func (c *TripCache) Invalidate(id types.ID) {
	c.lru.Remove(id)
}

func (c *TripCache) Len() int {
	return c.lru.Len()
}
