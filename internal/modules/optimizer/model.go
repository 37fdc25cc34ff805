// README: Optimizer modes, run states, results and sentinel errors.
package optimizer

import (
	"errors"
	"math"
	"time"

	"flock/internal/modules/trip"
	"flock/internal/types"
)

type Mode string

const (
	// ModeSpecified uses exactly the riders flagged as drivers.
	ModeSpecified Mode = "specified"
	// ModeSuggested lets any rider drive and picks the cheapest set of cars.
	ModeSuggested Mode = "suggested"
)

func ModeFor(t *trip.Trip) Mode {
	if t.UseSuggestedDrivers {
		return ModeSuggested
	}
	return ModeSpecified
}

type State string

const (
	StateIdle            State = "idle"
	StateGraphBuilt      State = "graph_built"
	StateResolving       State = "resolving"
	StatePathsEnumerated State = "paths_enumerated"
	StatePartitioning    State = "partitioning"
	StateComplete        State = "complete"
	StateFailed          State = "failed"
)

var (
	ErrBusy          = errors.New("optimizer is busy with another trip")
	ErrNoRequest     = errors.New("no optimization request")
	ErrNoRiders      = errors.New("trip has no riders")
	ErrTooManyRiders = errors.New("trip has too many riders to optimize")
	ErrNoSolution    = errors.New("no assignment of riders to drivers satisfies the trip")
	ErrRouteNotFound = errors.New("no route between locations")
	ErrCancelled     = errors.New("optimization cancelled")
)

// InfiniteTime is the total time of a trip with no solution.
const InfiniteTime = time.Duration(math.MaxInt64)

// OptimizedTrip is the chosen set of driver paths. Every rider appears in
// exactly one path. An empty path set with InfiniteTime means no solution.
type OptimizedTrip struct {
	TripID    types.ID
	Mode      Mode
	Paths     []Path
	TotalTime time.Duration
}

func noSolution(tripID types.ID, mode Mode) *OptimizedTrip {
	return &OptimizedTrip{TripID: tripID, Mode: mode, TotalTime: InfiniteTime}
}

func (o *OptimizedTrip) Found() bool {
	return len(o.Paths) > 0
}

// DriverIDs lists the rider driving each path, in path order.
func (o *OptimizedTrip) DriverIDs() []types.ID {
	ids := make([]types.ID, 0, len(o.Paths))
	for _, p := range o.Paths {
		ids = append(ids, p.Driver().ID)
	}
	return ids
}

func (o *OptimizedTrip) TotalDistanceMeters() float64 {
	var d float64
	for _, p := range o.Paths {
		d += p.DistanceMeters()
	}
	return d
}

type Stop struct {
	RiderID       types.ID      `json:"rider_id,omitempty"`
	Name          string        `json:"name"`
	Location      string        `json:"location"`
	LegTime       time.Duration `json:"leg_time"`
	IsDestination bool          `json:"is_destination"`
}

// Itinerary is one car's schedule: the driver followed by each stop in order.
type Itinerary struct {
	DriverID   types.ID      `json:"driver_id"`
	DriverName string        `json:"driver_name"`
	Stops      []Stop        `json:"stops"`
	TotalTime  time.Duration `json:"total_time"`
	Route      string        `json:"route"`
}

func (o *OptimizedTrip) Itineraries() []Itinerary {
	out := make([]Itinerary, 0, len(o.Paths))
	for _, p := range o.Paths {
		driver := p.Driver()
		it := Itinerary{
			DriverID:   driver.ID,
			DriverName: driver.Name,
			TotalTime:  p.TotalTime(),
			Route:      p.String(),
		}
		for _, e := range p.Edges {
			s := Stop{
				Name:          e.To.Name,
				Location:      e.To.Location,
				LegTime:       e.TravelTime(),
				IsDestination: e.To.IsDestination,
			}
			if !e.To.IsDestination {
				s.RiderID = e.To.ID
			}
			it.Stops = append(it.Stops, s)
		}
		out = append(out, it)
	}
	return out
}
