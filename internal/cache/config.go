// README: Builds the location and route caches for the configured backend.
package cache

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"flock/internal/config"
	"flock/internal/types"
)

type LocationStore interface {
	GetLocation(ctx context.Context, riderID types.ID) (LocationEntry, bool, error)
	PutLocation(ctx context.Context, riderID types.ID, e LocationEntry) error
}

type RouteStore interface {
	GetRoute(ctx context.Context, key RouteKey) (types.Route, bool, error)
	PutRoute(ctx context.Context, key RouteKey, r types.Route) error
}

// New returns memory caches unless cfg selects redis, in which case client
// must be non-nil.
func New(cfg config.CacheConfig, client *redis.Client) (LocationStore, RouteStore, error) {
	switch cfg.Backend {
	case config.CacheBackendMemory, "":
		return NewMemoryLocationCache(cfg.Size, cfg.TTL), NewMemoryRouteCache(cfg.Size, cfg.TTL), nil
	case config.CacheBackendRedis:
		if client == nil {
			return nil, nil, fmt.Errorf("cache backend %q needs a redis client", cfg.Backend)
		}
		return NewRedisLocationCache(client, cfg.TTL), NewRedisRouteCache(client, cfg.TTL), nil
	default:
		return nil, nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}
