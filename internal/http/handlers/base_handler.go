// README: Base handler utilities (JSON helpers, error mapping).
package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"flock/internal/modules/optimizer"
	"flock/internal/modules/trip"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(c *gin.Context, status int, v any) {
	c.JSON(status, v)
}

func writeError(c *gin.Context, status int, msg string) {
	writeJSON(c, status, errorResponse{Error: msg})
}

func writeTripError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, trip.ErrBadRequest):
		writeError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, trip.ErrNotFound):
		writeError(c, http.StatusNotFound, err.Error())
	default:
		log.Printf("[HTTP] trip error: %v", err)
		writeError(c, http.StatusInternalServerError, "internal error")
	}
}

func writeOptimizerError(c *gin.Context, err error) {
	var rerr *optimizer.ResolutionError
	switch {
	case errors.Is(err, optimizer.ErrBusy):
		writeError(c, http.StatusConflict, err.Error())
	case errors.Is(err, optimizer.ErrNoRiders), errors.Is(err, optimizer.ErrTooManyRiders):
		writeError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		writeError(c, http.StatusGatewayTimeout, err.Error())
	case errors.Is(err, optimizer.ErrCancelled), errors.Is(err, context.Canceled):
		writeError(c, http.StatusConflict, err.Error())
	case errors.As(err, &rerr):
		writeError(c, http.StatusBadGateway, err.Error())
	default:
		log.Printf("[HTTP] optimizer error: %v", err)
		writeError(c, http.StatusInternalServerError, "internal error")
	}
}
