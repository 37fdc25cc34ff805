// README: API gateway; holds module services and builds the gin engine.
package http

import (
	"github.com/prometheus/client_golang/prometheus"

	"flock/internal/http/handlers"
	"flock/internal/infra"
	"flock/internal/types"
)

// OptimizerService is the engine surface the API needs.
type OptimizerService interface {
	handlers.Optimizer
	Invalidate(tripID types.ID)
}

type ServerDeps struct {
	Trips     handlers.TripService
	Optimizer OptimizerService
	// Verifier enables Firebase auth on /api when set.
	Verifier infra.TokenVerifier
	// Gatherer backs /metrics; nil serves the default registry.
	Gatherer prometheus.Gatherer
}

type Server struct {
	trips     handlers.TripService
	optimizer OptimizerService
	verifier  infra.TokenVerifier
	gatherer  prometheus.Gatherer
}

func NewServer(deps ServerDeps) *Server {
	g := deps.Gatherer
	if g == nil {
		g = prometheus.DefaultGatherer
	}
	return &Server{
		trips:     deps.Trips,
		optimizer: deps.Optimizer,
		verifier:  deps.Verifier,
		gatherer:  g,
	}
}
