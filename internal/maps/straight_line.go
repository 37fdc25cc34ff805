// README: Offline provider; coordinates in, great-circle travel estimates out.
package maps

import (
	"context"
	"fmt"
	"time"

	"flock/internal/geo"
	"flock/internal/types"
)

// roadFactor stretches great-circle distance toward typical road distance.
const roadFactor = 1.3

// StraightLineService geocodes "lat,lng" strings and estimates travel time at
// a fixed average speed. It needs no API key, so it backs local runs and tests.
type StraightLineService struct {
	kph float64
}

func NewStraightLineService(kph float64) *StraightLineService {
	return &StraightLineService{kph: kph}
}

func (s *StraightLineService) Geocode(_ context.Context, location string) (types.GeoPoint, error) {
	p, err := geo.ParsePoint(location)
	if err != nil {
		return types.GeoPoint{}, fmt.Errorf("%w: %v", ErrNoResults, err)
	}
	return types.GeoPoint{Title: p.String(), Point: p}, nil
}

func (s *StraightLineService) Routes(_ context.Context, from, to types.GeoPoint) ([]types.Route, error) {
	km := geo.HaversineKm(from.Point, to.Point) * roadFactor
	hours := km / s.kph
	return []types.Route{{
		TravelTime:     time.Duration(hours * float64(time.Hour)).Round(time.Second),
		DistanceMeters: km * 1000,
	}}, nil
}
