// README: Trip fingerprints; two trips with equal fingerprints optimize to the same result.
package optimizer

import (
	"slices"
	"strconv"

	"flock/internal/modules/trip"
	"flock/internal/types"
)

// Fingerprint captures the inputs that change an optimization. Rider order,
// names and phone numbers are deliberately absent. Each field is kept sorted
// so equality is order independent. Duplicates are kept: two riders at the
// same address differ from one rider there and another elsewhere.
type Fingerprint struct {
	Destination         string
	UseSuggestedDrivers bool
	RiderLocations      []string
	DriverIDs           []types.ID
	CapacityKeys        []string
}

func FingerprintOf(t *trip.Trip) Fingerprint {
	f := Fingerprint{
		Destination:         t.Destination,
		UseSuggestedDrivers: t.UseSuggestedDrivers,
	}
	for _, r := range t.Riders {
		f.RiderLocations = append(f.RiderLocations, r.Location)
		if r.IsDriver {
			f.DriverIDs = append(f.DriverIDs, r.ID)
		}
		f.CapacityKeys = append(f.CapacityKeys, strconv.Itoa(r.PassengerCapacity)+":"+string(r.ID))
	}
	f.RiderLocations = sorted(f.RiderLocations)
	f.DriverIDs = sorted(f.DriverIDs)
	f.CapacityKeys = sorted(f.CapacityKeys)
	return f
}

func (f Fingerprint) Equal(o Fingerprint) bool {
	return f.Destination == o.Destination &&
		f.UseSuggestedDrivers == o.UseSuggestedDrivers &&
		slices.Equal(f.RiderLocations, o.RiderLocations) &&
		slices.Equal(f.DriverIDs, o.DriverIDs) &&
		slices.Equal(f.CapacityKeys, o.CapacityKeys)
}

func sorted[T ~string](in []T) []T {
	out := slices.Clone(in)
	slices.Sort(out)
	return out
}
