package optimizer

import (
	"context"
	"errors"
	"math"
	"sync/atomic"
	"testing"
	"time"

	"flock/internal/cache"
	"flock/internal/config"
	"flock/internal/modules/trip"
	"flock/internal/types"
)

// ---------------------------------------------------------------------------
// Fake maps provider
// ---------------------------------------------------------------------------

// fakeMaps places every location on a grid. Travel time is the Manhattan
// distance in minutes, so expected totals are easy to work out by hand.
type fakeMaps struct {
	points map[string]types.Point
	// fail lists locations whose geocode returns an error.
	fail map[string]bool
	// block makes every geocode wait for release or ctx.
	block   bool
	release chan struct{}

	geocodes atomic.Int64
	routes   atomic.Int64
}

var errFakeNotFound = errors.New("fake: not found")

func newFakeMaps(points map[string]types.Point) *fakeMaps {
	return &fakeMaps{points: points, fail: map[string]bool{}, release: make(chan struct{})}
}

func (f *fakeMaps) Geocode(ctx context.Context, location string) (types.GeoPoint, error) {
	f.geocodes.Add(1)
	if f.block {
		select {
		case <-f.release:
		case <-ctx.Done():
			return types.GeoPoint{}, ctx.Err()
		}
	}
	p, ok := f.points[location]
	if !ok || f.fail[location] {
		return types.GeoPoint{}, errFakeNotFound
	}
	return types.GeoPoint{Title: location, Point: p}, nil
}

func (f *fakeMaps) Routes(_ context.Context, from, to types.GeoPoint) ([]types.Route, error) {
	f.routes.Add(1)
	d := math.Abs(from.Point.Lat-to.Point.Lat) + math.Abs(from.Point.Lng-to.Point.Lng)
	fast := types.Route{TravelTime: time.Duration(d * float64(time.Minute)), DistanceMeters: d * 1000}
	// A slower alternative listed first checks that the fastest one is kept.
	slow := types.Route{TravelTime: fast.TravelTime + 5*time.Minute, DistanceMeters: fast.DistanceMeters / 2}
	return []types.Route{slow, fast}, nil
}

// ---------------------------------------------------------------------------
// Fixtures
// ---------------------------------------------------------------------------

func rider(id, location string, driver bool, capacity int) trip.Rider {
	return trip.Rider{ID: types.ID(id), Name: id, Location: location, IsDriver: driver, PassengerCapacity: capacity}
}

func newTrip(id string, suggested bool, riders ...trip.Rider) *trip.Trip {
	return &trip.Trip{
		ID:                  types.ID(id),
		Name:                id,
		Destination:         "school",
		DestinationID:       types.ID(id + "-dest"),
		UseSuggestedDrivers: suggested,
		Riders:              riders,
	}
}

// gridPoints: school at the origin, riders spread out along two roads.
func gridPoints() map[string]types.Point {
	return map[string]types.Point{
		"school": {Lat: 0, Lng: 0},
		"a":      {Lat: 10, Lng: 0},
		"b":      {Lat: 6, Lng: 0},
		"c":      {Lat: 0, Lng: 10},
		"d":      {Lat: 0, Lng: 7},
		"e":      {Lat: 3, Lng: 3},
	}
}

func testConfig() config.OptimizerConfig {
	return config.OptimizerConfig{ResolveTimeout: 5 * time.Second, ResolveConcurrency: 4, MaxRiders: 12}
}

func newTestEngine(m *fakeMaps, cfg config.OptimizerConfig) *Engine {
	return NewEngine(Deps{
		Geocoder:  m,
		Router:    m,
		Locations: cache.NewMemoryLocationCache(0, 0),
		Routes:    cache.NewMemoryRouteCache(0, 0),
		Trips:     NewTripCache(0, 0),
	}, cfg)
}

// resolvedGraph builds and resolves a graph for t against m.
func resolvedGraph(t *testing.T, tr *trip.Trip, m *fakeMaps) *Graph {
	t.Helper()
	g := BuildGraph(tr)
	r := newResolver(Deps{
		Geocoder:  m,
		Router:    m,
		Locations: cache.NewMemoryLocationCache(0, 0),
		Routes:    cache.NewMemoryRouteCache(0, 0),
	}, 4)
	if err := r.Resolve(context.Background(), g); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	return g
}

func allPaths(g *Graph, mode Mode) []Path {
	var paths []Path
	for _, n := range g.Riders() {
		if mode == ModeSuggested || n.IsDriver {
			paths = append(paths, EnumeratePaths(n, g.Adjacency())...)
		}
	}
	return paths
}

func nodeByID(g *Graph, id types.ID) *Node {
	for _, n := range g.Nodes {
		if n.ID == id {
			return n
		}
	}
	return nil
}
