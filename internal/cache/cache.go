// README: Location and route caches shared by optimization runs.
package cache

import "flock/internal/types"

// LocationEntry remembers the location string a rider had when it was
// geocoded, so a changed address is treated as a miss.
type LocationEntry struct {
	Location string         `json:"location"`
	Point    types.GeoPoint `json:"point"`
}

// RouteKey is the ordered pair of resolved titles an edge runs between.
type RouteKey struct {
	Source      string
	Destination string
}

// Cacheable reports whether both titles are present. Untitled points are
// never cached because distinct places would collide on the empty key.
func (k RouteKey) Cacheable() bool {
	return k.Source != "" && k.Destination != ""
}
