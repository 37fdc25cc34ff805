// README: Picks the maps backend named in config and builds its rate limiter.
package maps

import (
	"context"
	"fmt"
	"math"

	"golang.org/x/time/rate"

	"flock/internal/config"
	"flock/internal/types"
)

// Provider geocodes locations and lists route alternatives between points.
type Provider interface {
	Geocode(ctx context.Context, location string) (types.GeoPoint, error)
	Routes(ctx context.Context, from, to types.GeoPoint) ([]types.Route, error)
}

type googleProvider struct {
	*GeocodeService
	*RouteService
}

func NewProvider(cfg config.MapsConfig) (Provider, error) {
	switch cfg.Provider {
	case config.MapsProviderStraightLine:
		return NewStraightLineService(cfg.StraightLineKph), nil
	case config.MapsProviderGoogle:
		client, err := NewClient(cfg.APIKey)
		if err != nil {
			return nil, err
		}
		return googleProvider{NewGeocodeService(client), NewRouteService(client)}, nil
	default:
		return nil, fmt.Errorf("unknown maps provider %q", cfg.Provider)
	}
}

// NewLimiter returns nil when qps is not positive.
func NewLimiter(qps float64) *rate.Limiter {
	if qps <= 0 {
		return nil
	}
	burst := int(math.Ceil(qps))
	return rate.NewLimiter(rate.Limit(qps), burst)
}
