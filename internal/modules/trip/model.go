// README: Trip aggregate and rider definitions.
package trip

import (
	"time"

	"flock/internal/types"
)

const (
	DefaultLocation          = "Unknown location"
	DefaultPassengerCapacity = 4
)

// Rider is a participant. PassengerCapacity counts the seats in the rider's
// car including the driver's own.
type Rider struct {
	ID                types.ID `json:"id"`
	Name              string   `json:"name"`
	PhoneNumber       string   `json:"phone_number,omitempty"`
	Location          string   `json:"location"`
	IsDriver          bool     `json:"is_driver"`
	PassengerCapacity int      `json:"passenger_capacity"`
}

type Trip struct {
	ID                  types.ID  `json:"id"`
	// OwnerID is the uid of the account that created the trip; empty for
	// trips created without auth.
	OwnerID             string    `json:"owner_id,omitempty"`
	Name                string    `json:"name"`
	Destination         string    `json:"destination"`
	DestinationID       types.ID  `json:"destination_id"`
	UseSuggestedDrivers bool      `json:"use_suggested_drivers"`
	Riders              []Rider   `json:"riders"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

func NewRider(name, location string) Rider {
	return Rider{
		ID:                types.NewID(),
		Name:              name,
		Location:          location,
		PassengerCapacity: DefaultPassengerCapacity,
	}
}

// DriverCount is the number of riders flagged as drivers.
func (t *Trip) DriverCount() int {
	n := 0
	for _, r := range t.Riders {
		if r.IsDriver {
			n++
		}
	}
	return n
}

func (t *Trip) PassengerCount() int {
	return len(t.Riders) - t.DriverCount()
}

func (t *Trip) Rider(id types.ID) (Rider, bool) {
	for _, r := range t.Riders {
		if r.ID == id {
			return r, true
		}
	}
	return Rider{}, false
}

// Clone returns a copy that shares nothing mutable with t.
func (t *Trip) Clone() *Trip {
	c := *t
	c.Riders = append([]Rider(nil), t.Riders...)
	return &c
}

// ApplyDefaults fills the fields a freshly added rider leaves empty.
func (r *Rider) ApplyDefaults() {
	if r.ID == "" {
		r.ID = types.NewID()
	}
	if r.Location == "" {
		r.Location = DefaultLocation
	}
	if r.PassengerCapacity == 0 {
		r.PassengerCapacity = DefaultPassengerCapacity
	}
}
