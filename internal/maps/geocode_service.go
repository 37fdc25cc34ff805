package maps

import (
	"context"
	"fmt"
	"strings"

	"googlemaps.github.io/maps"

	"flock/internal/types"
)

// GeocodeService resolves free-text addresses with the Geocoding API.
type GeocodeService struct {
	client *maps.Client
}

func NewGeocodeService(client *maps.Client) *GeocodeService {
	return &GeocodeService{client: client}
}

// Geocode returns the first match. Its formatted address becomes the title.
func (s *GeocodeService) Geocode(ctx context.Context, location string) (types.GeoPoint, error) {
	results, err := s.client.Geocode(ctx, &maps.GeocodingRequest{Address: location})
	if err != nil {
		if strings.Contains(err.Error(), "ZERO_RESULTS") {
			return types.GeoPoint{}, fmt.Errorf("%q: %w", location, ErrNoResults)
		}
		return types.GeoPoint{}, fmt.Errorf("maps geocode: %w", err)
	}
	if len(results) == 0 {
		return types.GeoPoint{}, fmt.Errorf("%q: %w", location, ErrNoResults)
	}
	r := results[0]
	return types.GeoPoint{
		Title: r.FormattedAddress,
		Point: types.Point{Lat: r.Geometry.Location.Lat, Lng: r.Geometry.Location.Lng},
	}, nil
}
