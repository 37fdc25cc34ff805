// README: Trip service validates commands and persists trips through a Repository.
package trip

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"flock/internal/types"
)

type Repository interface {
	Create(ctx context.Context, t *Trip) error
	Get(ctx context.Context, id types.ID) (*Trip, error)
	List(ctx context.Context, owner string) ([]*Trip, error)
	Update(ctx context.Context, t *Trip) error
	Delete(ctx context.Context, id types.ID) error
}

type Service struct {
	store Repository
	now   func() time.Time
}

func NewService(store Repository) *Service {
	return &Service{store: store, now: time.Now}
}

var (
	ErrNotFound   = errors.New("trip not found")
	ErrBadRequest = errors.New("bad request")
)

// CreateCommand carries a new trip. Riders with an empty ID get one assigned.
type CreateCommand struct {
	OwnerID             string
	Name                string
	Destination         string
	UseSuggestedDrivers bool
	Riders              []Rider
}

type UpdateCommand struct {
	ID                  types.ID
	Name                string
	Destination         string
	UseSuggestedDrivers bool
	Riders              []Rider
}

func (s *Service) Create(ctx context.Context, cmd CreateCommand) (*Trip, error) {
	riders, err := NormalizeRiders(cmd.Riders)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(cmd.Name) == "" || strings.TrimSpace(cmd.Destination) == "" {
		return nil, fmt.Errorf("%w: name and destination are required", ErrBadRequest)
	}
	now := s.now().UTC()
	t := &Trip{
		ID:                  types.NewID(),
		OwnerID:             cmd.OwnerID,
		Name:                strings.TrimSpace(cmd.Name),
		Destination:         strings.TrimSpace(cmd.Destination),
		DestinationID:       types.NewID(),
		UseSuggestedDrivers: cmd.UseSuggestedDrivers,
		Riders:              riders,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if err := s.store.Create(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *Service) Get(ctx context.Context, id types.ID) (*Trip, error) {
	if id == "" {
		return nil, ErrBadRequest
	}
	return s.store.Get(ctx, id)
}

// List returns owner's trips; an empty owner lists every trip.
func (s *Service) List(ctx context.Context, owner string) ([]*Trip, error) {
	return s.store.List(ctx, owner)
}

// Update keeps the trip's identity and destination node id so cached results
// for an unchanged trip stay valid.
func (s *Service) Update(ctx context.Context, cmd UpdateCommand) (*Trip, error) {
	if cmd.ID == "" {
		return nil, ErrBadRequest
	}
	riders, err := NormalizeRiders(cmd.Riders)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(cmd.Name) == "" || strings.TrimSpace(cmd.Destination) == "" {
		return nil, fmt.Errorf("%w: name and destination are required", ErrBadRequest)
	}
	existing, err := s.store.Get(ctx, cmd.ID)
	if err != nil {
		return nil, err
	}
	existing.Name = strings.TrimSpace(cmd.Name)
	existing.Destination = strings.TrimSpace(cmd.Destination)
	existing.UseSuggestedDrivers = cmd.UseSuggestedDrivers
	existing.Riders = riders
	existing.UpdatedAt = s.now().UTC()
	if err := s.store.Update(ctx, existing); err != nil {
		return nil, err
	}
	return existing, nil
}

func (s *Service) Delete(ctx context.Context, id types.ID) error {
	if id == "" {
		return ErrBadRequest
	}
	return s.store.Delete(ctx, id)
}

// NormalizeRiders trims and defaults each rider and rejects unnamed riders,
// negative capacities and duplicate ids with ErrBadRequest.
func NormalizeRiders(in []Rider) ([]Rider, error) {
	out := make([]Rider, 0, len(in))
	seen := make(map[types.ID]bool, len(in))
	for i, r := range in {
		r.Name = strings.TrimSpace(r.Name)
		r.Location = strings.TrimSpace(r.Location)
		if r.Name == "" {
			return nil, fmt.Errorf("%w: rider %d has no name", ErrBadRequest, i)
		}
		if r.PassengerCapacity < 0 {
			return nil, fmt.Errorf("%w: rider %q has negative capacity", ErrBadRequest, r.Name)
		}
		r.ApplyDefaults()
		if seen[r.ID] {
			return nil, fmt.Errorf("%w: duplicate rider id %s", ErrBadRequest, r.ID)
		}
		seen[r.ID] = true
		out = append(out, r)
	}
	return out, nil
}
