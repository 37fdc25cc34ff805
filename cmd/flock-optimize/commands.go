// README: Cobra command tree and the engine wiring shared by its subcommands.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"flock/internal/cache"
	"flock/internal/config"
	"flock/internal/infra"
	"flock/internal/maps"
	"flock/internal/modules/optimizer"
	"flock/internal/modules/trip"
	"flock/internal/types"
)

type rootOptions struct {
	provider string
	timeout  time.Duration
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "flock-optimize",
		Short:         "Plan carpool assignments for a trip file",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.provider, "provider", "", "maps provider (google|straightline); defaults to FLOCK_MAPS_PROVIDER")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", 0, "resolve timeout; defaults to FLOCK_RESOLVE_TIMEOUT")

	root.AddCommand(newRunCmd(opts), newPrewarmCmd(opts))
	return root
}

// engineEnv is what a subcommand needs to drive the optimizer.
type engineEnv struct {
	engine *optimizer.Engine
	close  func()
}

func buildEngine(ctx context.Context, opts *rootOptions) (*engineEnv, error) {
	if opts.provider != "" {
		// Load validates the provider, so the override has to land first.
		if err := os.Setenv("FLOCK_MAPS_PROVIDER", opts.provider); err != nil {
			return nil, err
		}
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if opts.timeout > 0 {
		cfg.Optimizer.ResolveTimeout = opts.timeout
	}

	env := &engineEnv{close: func() {}}
	var client *redis.Client
	if cfg.Cache.Backend == config.CacheBackendRedis {
		client, err = infra.NewRedis(ctx, cfg.Redis.Addr)
		if err != nil {
			return nil, err
		}
		env.close = func() { _ = client.Close() }
	}
	locations, routes, err := cache.New(cfg.Cache, client)
	if err != nil {
		env.close()
		return nil, err
	}
	provider, err := maps.NewProvider(cfg.Maps)
	if err != nil {
		env.close()
		return nil, err
	}
	env.engine = optimizer.NewEngine(optimizer.Deps{
		Geocoder:  provider,
		Router:    provider,
		Locations: locations,
		Routes:    routes,
		Limiter:   maps.NewLimiter(cfg.Maps.QPS),
	}, cfg.Optimizer)
	return env, nil
}

// loadTrip reads a trip document. Riders are validated and defaulted the
// same way the API does it. Missing trip and destination ids are generated,
// since results and cached locations are keyed by them.
func loadTrip(path string) (*trip.Trip, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read trip: %w", err)
	}
	var t trip.Trip
	if err := json.Unmarshal(raw, &t); err != nil {
		return nil, fmt.Errorf("parse trip %s: %w", path, err)
	}
	if strings.TrimSpace(t.Destination) == "" {
		return nil, fmt.Errorf("trip %s: %w: destination is required", path, trip.ErrBadRequest)
	}
	riders, err := trip.NormalizeRiders(t.Riders)
	if err != nil {
		return nil, fmt.Errorf("trip %s: %w", path, err)
	}
	t.Riders = riders
	if t.ID == "" {
		t.ID = types.NewID()
	}
	if t.DestinationID == "" {
		t.DestinationID = types.NewID()
	}
	return &t, nil
}
