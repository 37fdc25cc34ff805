// README: HTTP router registration.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"flock/internal/http/handlers"
	"flock/internal/http/middleware"
)

func (s *Server) Routes() http.Handler {
	r := gin.New()
	r.Use(middleware.Recovery(), middleware.Logging())

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})))

	api := r.Group("/api")
	if s.verifier != nil {
		api.Use(middleware.Auth(s.verifier))
	}

	tripHandler := handlers.NewTripHandler(s.trips, s.optimizer)
	api.POST("/trips", tripHandler.Create)
	api.GET("/trips", tripHandler.List)
	api.GET("/trips/:id", tripHandler.Get)
	api.PUT("/trips/:id", tripHandler.Update)
	api.DELETE("/trips/:id", tripHandler.Delete)

	optHandler := handlers.NewOptimizerHandler(s.trips, s.optimizer)
	api.POST("/trips/:id/optimize", optHandler.Optimize)
	api.POST("/trips/:id/optimize/wait", optHandler.OptimizeWait)
	api.GET("/optimizer/status", optHandler.Status)
	api.GET("/optimizer/result", optHandler.Result)
	api.DELETE("/optimizer/queue", optHandler.ClearQueue)

	return r
}
