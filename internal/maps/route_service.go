package maps

import (
	"context"
	"fmt"
	"strings"

	"googlemaps.github.io/maps"

	"flock/internal/types"
)

// RouteService asks the Directions API for driving alternatives.
type RouteService struct {
	client *maps.Client
}

func NewRouteService(client *maps.Client) *RouteService {
	return &RouteService{client: client}
}

// Routes returns one candidate per alternative; each sums its legs.
func (s *RouteService) Routes(ctx context.Context, from, to types.GeoPoint) ([]types.Route, error) {
	r := &maps.DirectionsRequest{
		Origin:       from.Point.String(),
		Destination:  to.Point.String(),
		Mode:         maps.TravelModeDriving,
		Alternatives: true,
	}

	routes, _, err := s.client.Directions(ctx, r)
	if err != nil {
		if strings.Contains(err.Error(), "ZERO_RESULTS") {
			return nil, fmt.Errorf("%s -> %s: %w", from.Title, to.Title, ErrNoResults)
		}
		return nil, fmt.Errorf("maps api error: %w", err)
	}

	out := make([]types.Route, 0, len(routes))
	for _, route := range routes {
		if len(route.Legs) == 0 {
			continue
		}
		var c types.Route
		for _, leg := range route.Legs {
			c.TravelTime += leg.Duration
			c.DistanceMeters += float64(leg.Distance.Meters)
		}
		out = append(out, c)
	}
	return out, nil
}
