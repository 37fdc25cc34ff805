// README: Geographic value objects returned by the geocoding and routing services.
package types

import (
	"fmt"
	"time"
)

type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// String renders the point the way the Directions API accepts it as an origin.
func (p Point) String() string {
	return fmt.Sprintf("%.6f,%.6f", p.Lat, p.Lng)
}

// GeoPoint is a resolved location. Title is the provider's display name for
// the place and is also the route cache key.
type GeoPoint struct {
	Title string `json:"title"`
	Point Point  `json:"point"`
}

// Route is one travel alternative between two resolved locations.
type Route struct {
	TravelTime     time.Duration `json:"travel_time"`
	DistanceMeters float64       `json:"distance_meters"`
}

// FastestRoute picks the alternative with the smallest travel time. The first
// candidate wins ties.
func FastestRoute(candidates []Route) (Route, bool) {
	if len(candidates) == 0 {
		return Route{}, false
	}
	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.TravelTime < best.TravelTime {
			best = c
		}
	}
	return best, true
}
