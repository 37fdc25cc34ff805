// README: Entry point; loads config, wires the trip store and optimizer, starts the HTTP server.
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"flock/internal/cache"
	"flock/internal/config"
	httptransport "flock/internal/http"
	"flock/internal/infra"
	"flock/internal/maps"
	"flock/internal/metrics"
	"flock/internal/modules/optimizer"
	"flock/internal/modules/trip"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
		log.Fatalf("metrics: %v", err)
	}

	if cfg.DB.DSN == "" {
		log.Fatal("FLOCK_DB_DSN is required")
	}
	dbPool, err := infra.NewDB(ctx, cfg.DB.DSN)
	if err != nil {
		log.Fatal(err)
	}
	defer dbPool.Close()

	var redisClient *redis.Client
	if cfg.Cache.Backend == config.CacheBackendRedis {
		redisClient, err = infra.NewRedis(ctx, cfg.Redis.Addr)
		if err != nil {
			log.Fatal(err)
		}
		defer redisClient.Close()
	}
	locations, routes, err := cache.New(cfg.Cache, redisClient)
	if err != nil {
		log.Fatal(err)
	}

	provider, err := maps.NewProvider(cfg.Maps)
	if err != nil {
		log.Fatalf("maps init: %v", err)
	}

	engine := optimizer.NewEngine(optimizer.Deps{
		Geocoder:  provider,
		Router:    provider,
		Locations: locations,
		Routes:    routes,
		Trips:     optimizer.NewTripCache(cfg.Cache.Size, cfg.Cache.TTL),
		Limiter:   maps.NewLimiter(cfg.Maps.QPS),
	}, cfg.Optimizer)

	tripStore := trip.NewStore(dbPool)
	tripSvc := trip.NewService(tripStore)

	var verifier infra.TokenVerifier
	if cfg.Firebase.ProjectID != "" {
		verifier, err = infra.NewFirebaseVerifier(ctx, cfg.Firebase.ProjectID, cfg.Firebase.CredentialsFile)
		if err != nil {
			log.Fatalf("firebase init: %v", err)
		}
	} else {
		log.Printf("[API] FLOCK_FIREBASE_PROJECT_ID not set; /api is unauthenticated")
	}

	handler := httptransport.NewServer(httptransport.ServerDeps{
		Trips:     tripSvc,
		Optimizer: engine,
		Verifier:  verifier,
	})

	server := &http.Server{Addr: cfg.HTTP.Addr, Handler: handler.Routes()}

	go prewarm(ctx, tripSvc, engine)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		engine.ClearQueue()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("[API] shutdown: %v", err)
		}
	}()

	log.Printf("[API] listening on %s (maps=%s cache=%s)", cfg.HTTP.Addr, cfg.Maps.Provider, cfg.Cache.Backend)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(err)
	}
}

// prewarm geocodes every stored trip's riders so the first optimize call only
// has routes left to fetch.
func prewarm(ctx context.Context, trips *trip.Service, engine *optimizer.Engine) {
	list, err := trips.List(ctx, "")
	if err != nil {
		log.Printf("[API] prewarm: list trips: %v", err)
		return
	}
	if len(list) == 0 {
		return
	}
	if err := engine.Prewarm(ctx, list...); err != nil {
		log.Printf("[API] prewarm: %v", err)
		return
	}
	log.Printf("[API] prewarmed %d trips", len(list))
}
