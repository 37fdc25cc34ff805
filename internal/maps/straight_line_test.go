package maps

import (
	"context"
	"errors"
	"testing"
	"time"

	"flock/internal/types"
)

func TestStraightLine_Geocode(t *testing.T) {
	s := NewStraightLineService(60)
	p, err := s.Geocode(context.Background(), "25.0340,121.5645")
	if err != nil {
		t.Fatalf("Geocode: %v", err)
	}
	if p.Title != "25.034000,121.564500" {
		t.Errorf("Title = %q", p.Title)
	}
	if _, err := s.Geocode(context.Background(), "Taipei 101"); !errors.Is(err, ErrNoResults) {
		t.Errorf("expected ErrNoResults for free text, got %v", err)
	}
	if _, err := s.Geocode(context.Background(), "NaN,NaN"); !errors.Is(err, ErrNoResults) {
		t.Errorf("expected ErrNoResults for NaN coordinates, got %v", err)
	}
}

func TestStraightLine_Routes(t *testing.T) {
	s := NewStraightLineService(60)
	a := types.GeoPoint{Point: types.Point{Lat: 0, Lng: 0}}
	b := types.GeoPoint{Point: types.Point{Lat: 0, Lng: 1}}

	routes, err := s.Routes(context.Background(), a, b)
	if err != nil || len(routes) != 1 {
		t.Fatalf("Routes() = %v, %v", routes, err)
	}
	// One degree of longitude at the equator is ~111.2 km; 1.3x at 60 km/h ~ 144.6 min.
	got := routes[0].TravelTime
	if got < 140*time.Minute || got > 150*time.Minute {
		t.Errorf("TravelTime = %v", got)
	}

	same, _ := s.Routes(context.Background(), a, a)
	if same[0].TravelTime != 0 {
		t.Errorf("same point TravelTime = %v, want 0", same[0].TravelTime)
	}
}
