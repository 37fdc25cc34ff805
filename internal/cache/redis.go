// README: Redis-backed caches so several flock-api instances share geocodes and routes.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/redis/go-redis/v9"

	"flock/internal/types"
)

const (
	locationKeyPrefix = "flock:location:%s"
	routeKeyPrefix    = "flock:route:%s|%s"
)

type RedisLocationCache struct {
	redis *redis.Client
	ttl   time.Duration
}

func NewRedisLocationCache(client *redis.Client, ttl time.Duration) *RedisLocationCache {
	return &RedisLocationCache{redis: client, ttl: ttl}
}

func locationKey(riderID types.ID) string {
	return fmt.Sprintf(locationKeyPrefix, string(riderID))
}

func (c *RedisLocationCache) GetLocation(ctx context.Context, riderID types.ID) (LocationEntry, bool, error) {
	var e LocationEntry
	ok, err := getJSON(ctx, c.redis, locationKey(riderID), &e)
	return e, ok, err
}

func (c *RedisLocationCache) PutLocation(ctx context.Context, riderID types.ID, e LocationEntry) error {
	return setJSON(ctx, c.redis, locationKey(riderID), e, c.ttl)
}

type RedisRouteCache struct {
	redis *redis.Client
	ttl   time.Duration
}

func NewRedisRouteCache(client *redis.Client, ttl time.Duration) *RedisRouteCache {
	return &RedisRouteCache{redis: client, ttl: ttl}
}

// Titles are free text, so they are escaped to keep the separator unambiguous.
func routeKey(k RouteKey) string {
	return fmt.Sprintf(routeKeyPrefix, url.QueryEscape(k.Source), url.QueryEscape(k.Destination))
}

func (c *RedisRouteCache) GetRoute(ctx context.Context, key RouteKey) (types.Route, bool, error) {
	var r types.Route
	ok, err := getJSON(ctx, c.redis, routeKey(key), &r)
	return r, ok, err
}

func (c *RedisRouteCache) PutRoute(ctx context.Context, key RouteKey, r types.Route) error {
	return setJSON(ctx, c.redis, routeKey(key), r, c.ttl)
}

func getJSON(ctx context.Context, client *redis.Client, key string, out any) (bool, error) {
	raw, err := client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("redis get %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

func setJSON(ctx context.Context, client *redis.Client, key string, v any, ttl time.Duration) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if err := client.Set(ctx, key, raw, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}
