// README: Trip CRUD handlers.
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"flock/internal/http/middleware"
	"flock/internal/modules/trip"
	"flock/internal/types"
)

type TripService interface {
	Create(ctx context.Context, cmd trip.CreateCommand) (*trip.Trip, error)
	Get(ctx context.Context, id types.ID) (*trip.Trip, error)
	List(ctx context.Context, owner string) ([]*trip.Trip, error)
	Update(ctx context.Context, cmd trip.UpdateCommand) (*trip.Trip, error)
	Delete(ctx context.Context, id types.ID) error
}

// resultInvalidator drops cached optimization results for deleted trips.
type resultInvalidator interface {
	Invalidate(tripID types.ID)
}

type TripHandler struct {
	trips   TripService
	results resultInvalidator
}

func NewTripHandler(trips TripService, results resultInvalidator) *TripHandler {
	return &TripHandler{trips: trips, results: results}
}

type tripReq struct {
	Name                string       `json:"name"`
	Destination         string       `json:"destination"`
	UseSuggestedDrivers bool         `json:"use_suggested_drivers"`
	Riders              []trip.Rider `json:"riders"`
}

func (h *TripHandler) Create(c *gin.Context) {
	var req tripReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	t, err := h.trips.Create(c.Request.Context(), trip.CreateCommand{
		OwnerID:             middleware.CallerUID(c),
		Name:                req.Name,
		Destination:         req.Destination,
		UseSuggestedDrivers: req.UseSuggestedDrivers,
		Riders:              req.Riders,
	})
	if err != nil {
		writeTripError(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, t)
}

func (h *TripHandler) List(c *gin.Context) {
	trips, err := h.trips.List(c.Request.Context(), middleware.CallerUID(c))
	if err != nil {
		writeTripError(c, err)
		return
	}
	if trips == nil {
		trips = []*trip.Trip{}
	}
	writeJSON(c, http.StatusOK, gin.H{"trips": trips})
}

func (h *TripHandler) Get(c *gin.Context) {
	t, err := h.trips.Get(c.Request.Context(), types.ID(c.Param("id")))
	if err != nil {
		writeTripError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, t)
}

func (h *TripHandler) Update(c *gin.Context) {
	var req tripReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	t, err := h.trips.Update(c.Request.Context(), trip.UpdateCommand{
		ID:                  types.ID(c.Param("id")),
		Name:                req.Name,
		Destination:         req.Destination,
		UseSuggestedDrivers: req.UseSuggestedDrivers,
		Riders:              req.Riders,
	})
	if err != nil {
		writeTripError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, t)
}

func (h *TripHandler) Delete(c *gin.Context) {
	id := types.ID(c.Param("id"))
	if err := h.trips.Delete(c.Request.Context(), id); err != nil {
		writeTripError(c, err)
		return
	}
	if h.results != nil {
		h.results.Invalidate(id)
	}
	c.Status(http.StatusNoContent)
}
