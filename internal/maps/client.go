// README: Google Maps client construction shared by the geocoder and router.
package maps

import (
	"errors"
	"fmt"

	"googlemaps.github.io/maps"
)

var ErrNoResults = errors.New("maps: no results")

func NewClient(apiKey string) (*maps.Client, error) {
	client, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create maps client: %w", err)
	}
	return client, nil
}
