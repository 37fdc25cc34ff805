// Package geo contains pure geographic computation helpers.
package geo

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"flock/internal/types"
)

const earthRadiusKm = 6371.0

var ErrNotCoordinate = errors.New("not a coordinate pair")

// HaversineKm returns the great-circle distance in kilometres between two
// points specified in decimal degrees.
func HaversineKm(a, b types.Point) float64 {
	dLat := degreesToRadians(b.Lat - a.Lat)
	dLng := degreesToRadians(b.Lng - a.Lng)

	rLat1 := degreesToRadians(a.Lat)
	rLat2 := degreesToRadians(b.Lat)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(rLat1)*math.Cos(rLat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return earthRadiusKm * c
}

func degreesToRadians(deg float64) float64 {
	return deg * math.Pi / 180.0
}

// ParsePoint reads a "lat,lng" string. Whitespace around either number is ignored.
func ParsePoint(s string) (types.Point, error) {
	latStr, lngStr, ok := strings.Cut(s, ",")
	if !ok {
		return types.Point{}, fmt.Errorf("%q: %w", s, ErrNotCoordinate)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(latStr), 64)
	if err != nil {
		return types.Point{}, fmt.Errorf("%q: %w", s, ErrNotCoordinate)
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(lngStr), 64)
	if err != nil {
		return types.Point{}, fmt.Errorf("%q: %w", s, ErrNotCoordinate)
	}
	if math.IsNaN(lat) || math.IsNaN(lng) {
		return types.Point{}, fmt.Errorf("%q: %w", s, ErrNotCoordinate)
	}
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return types.Point{}, fmt.Errorf("%q: out of range: %w", s, ErrNotCoordinate)
	}
	return types.Point{Lat: lat, Lng: lng}, nil
}
