// README: Optimizer handlers; fire-and-forget submit, polling, blocking run and queue reset.
package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"flock/internal/modules/optimizer"
	"flock/internal/modules/trip"
	"flock/internal/types"
)

type Optimizer interface {
	Optimize(t *trip.Trip) bool
	Run(ctx context.Context, t *trip.Trip) (*optimizer.OptimizedTrip, error)
	Status() optimizer.Status
	GetOptimizedTrip() (*optimizer.OptimizedTrip, bool)
	ClearQueue()
}

type OptimizerHandler struct {
	trips     TripService
	optimizer Optimizer
}

func NewOptimizerHandler(trips TripService, opt Optimizer) *OptimizerHandler {
	return &OptimizerHandler{trips: trips, optimizer: opt}
}

type stopResp struct {
	RiderID       types.ID `json:"rider_id,omitempty"`
	Name          string   `json:"name"`
	Location      string   `json:"location"`
	LegMinutes    float64  `json:"leg_minutes"`
	IsDestination bool     `json:"is_destination"`
}

type itineraryResp struct {
	DriverID     types.ID   `json:"driver_id"`
	DriverName   string     `json:"driver_name"`
	Route        string     `json:"route"`
	TotalMinutes float64    `json:"total_minutes"`
	Stops        []stopResp `json:"stops"`
}

type resultResp struct {
	TripID          types.ID        `json:"trip_id"`
	Mode            optimizer.Mode  `json:"mode"`
	Found           bool            `json:"found"`
	TotalMinutes    *float64        `json:"total_minutes"`
	TotalDistanceKm float64         `json:"total_distance_km"`
	Itineraries     []itineraryResp `json:"itineraries"`
}

func minutes(d time.Duration) float64 {
	return d.Round(time.Second).Minutes()
}

func toResultResp(res *optimizer.OptimizedTrip) resultResp {
	out := resultResp{
		TripID:          res.TripID,
		Mode:            res.Mode,
		Found:           res.Found(),
		TotalDistanceKm: res.TotalDistanceMeters() / 1000,
		Itineraries:     []itineraryResp{},
	}
	// The no-solution total is infinite and left null.
	if out.Found {
		m := minutes(res.TotalTime)
		out.TotalMinutes = &m
	}
	for _, it := range res.Itineraries() {
		ir := itineraryResp{
			DriverID:     it.DriverID,
			DriverName:   it.DriverName,
			Route:        it.Route,
			TotalMinutes: minutes(it.TotalTime),
		}
		for _, s := range it.Stops {
			ir.Stops = append(ir.Stops, stopResp{
				RiderID:       s.RiderID,
				Name:          s.Name,
				Location:      s.Location,
				LegMinutes:    minutes(s.LegTime),
				IsDestination: s.IsDestination,
			})
		}
		out.Itineraries = append(out.Itineraries, ir)
	}
	return out
}

// Optimize submits a trip and returns immediately. A trip whose result is
// already cached comes back complete with 200.
func (h *OptimizerHandler) Optimize(c *gin.Context) {
	t, err := h.trips.Get(c.Request.Context(), types.ID(c.Param("id")))
	if err != nil {
		writeTripError(c, err)
		return
	}
	if !h.optimizer.Optimize(t) {
		writeError(c, http.StatusConflict, optimizer.ErrBusy.Error())
		return
	}
	if res, ok := h.optimizer.GetOptimizedTrip(); ok && res.TripID == t.ID {
		writeJSON(c, http.StatusOK, toResultResp(res))
		return
	}
	writeJSON(c, http.StatusAccepted, h.optimizer.Status())
}

// OptimizeWait runs the trip and blocks until it finishes or the request ends.
func (h *OptimizerHandler) OptimizeWait(c *gin.Context) {
	t, err := h.trips.Get(c.Request.Context(), types.ID(c.Param("id")))
	if err != nil {
		writeTripError(c, err)
		return
	}
	res, err := h.optimizer.Run(c.Request.Context(), t)
	if errors.Is(err, optimizer.ErrNoSolution) {
		writeJSON(c, http.StatusUnprocessableEntity, toResultResp(res))
		return
	}
	if err != nil {
		writeOptimizerError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, toResultResp(res))
}

func (h *OptimizerHandler) Status(c *gin.Context) {
	writeJSON(c, http.StatusOK, h.optimizer.Status())
}

func (h *OptimizerHandler) Result(c *gin.Context) {
	res, ok := h.optimizer.GetOptimizedTrip()
	if !ok {
		writeError(c, http.StatusNotFound, "no completed optimization")
		return
	}
	status := http.StatusOK
	if !res.Found() {
		status = http.StatusUnprocessableEntity
	}
	writeJSON(c, status, toResultResp(res))
}

func (h *OptimizerHandler) ClearQueue(c *gin.Context) {
	h.optimizer.ClearQueue()
	c.Status(http.StatusNoContent)
}
