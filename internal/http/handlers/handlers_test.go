// README: Handler tests over the real trip service and optimizer with the offline maps provider.
package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"flock/internal/cache"
	"flock/internal/config"
	"flock/internal/http/handlers"
	"flock/internal/http/middleware"
	"flock/internal/infra"
	"flock/internal/maps"
	"flock/internal/modules/optimizer"
	"flock/internal/modules/trip"
	"flock/internal/types"
)

// ---------------------------------------------------------------------------
// In-memory repository
// ---------------------------------------------------------------------------

type memRepo struct {
	mu    sync.Mutex
	trips map[types.ID]*trip.Trip
}

func (m *memRepo) Create(_ context.Context, t *trip.Trip) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trips[t.ID] = t.Clone()
	return nil
}

func (m *memRepo) Get(_ context.Context, id types.ID) (*trip.Trip, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.trips[id]
	if !ok {
		return nil, trip.ErrNotFound
	}
	return t.Clone(), nil
}

func (m *memRepo) List(_ context.Context, owner string) ([]*trip.Trip, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*trip.Trip
	for _, t := range m.trips {
		if owner != "" && t.OwnerID != owner {
			continue
		}
		out = append(out, t.Clone())
	}
	return out, nil
}

func (m *memRepo) Update(_ context.Context, t *trip.Trip) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.trips[t.ID]; !ok {
		return trip.ErrNotFound
	}
	m.trips[t.ID] = t.Clone()
	return nil
}

func (m *memRepo) Delete(_ context.Context, id types.ID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.trips[id]; !ok {
		return trip.ErrNotFound
	}
	delete(m.trips, id)
	return nil
}

// ---------------------------------------------------------------------------
// Router
// ---------------------------------------------------------------------------

func buildTestRouter(t *testing.T) (*gin.Engine, *optimizer.Engine) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	svc := trip.NewService(&memRepo{trips: map[types.ID]*trip.Trip{}})
	sl := maps.NewStraightLineService(40)
	engine := optimizer.NewEngine(optimizer.Deps{
		Geocoder:  sl,
		Router:    sl,
		Locations: cache.NewMemoryLocationCache(0, 0),
		Routes:    cache.NewMemoryRouteCache(0, 0),
		Trips:     optimizer.NewTripCache(0, 0),
	}, config.OptimizerConfig{ResolveTimeout: 5 * time.Second, ResolveConcurrency: 4, MaxRiders: 12})

	r := gin.New()
	th := handlers.NewTripHandler(svc, engine)
	r.POST("/api/trips", th.Create)
	r.GET("/api/trips", th.List)
	r.GET("/api/trips/:id", th.Get)
	r.PUT("/api/trips/:id", th.Update)
	r.DELETE("/api/trips/:id", th.Delete)
	oh := handlers.NewOptimizerHandler(svc, engine)
	r.POST("/api/trips/:id/optimize", oh.Optimize)
	r.POST("/api/trips/:id/optimize/wait", oh.OptimizeWait)
	r.GET("/api/optimizer/status", oh.Status)
	r.GET("/api/optimizer/result", oh.Result)
	r.DELETE("/api/optimizer/queue", oh.ClearQueue)
	return r, engine
}

func doRequest(r *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %s: %v", w.Body.String(), err)
	}
}

// Two drivers and two passengers around a school, one neighbourhood each.
func carpoolBody() map[string]any {
	return map[string]any{
		"name":        "Morning run",
		"destination": "37.4000,-122.1000",
		"riders": []map[string]any{
			{"name": "Ana", "location": "37.4400,-122.1000", "is_driver": true},
			{"name": "Ben", "location": "37.4300,-122.1000"},
			{"name": "Cy", "location": "37.4000,-122.0500", "is_driver": true},
			{"name": "Di", "location": "37.4000,-122.0700"},
		},
	}
}

func createTrip(t *testing.T, r *gin.Engine, body any) trip.Trip {
	t.Helper()
	w := doRequest(r, http.MethodPost, "/api/trips", body)
	if w.Code != http.StatusCreated {
		t.Fatalf("create: %d %s", w.Code, w.Body.String())
	}
	var created trip.Trip
	decode(t, w, &created)
	return created
}

type resultBody struct {
	TripID       string   `json:"trip_id"`
	Found        bool     `json:"found"`
	TotalMinutes *float64 `json:"total_minutes"`
	Itineraries  []struct {
		DriverName string `json:"driver_name"`
		Route      string `json:"route"`
		Stops      []struct {
			Name string `json:"name"`
		} `json:"stops"`
	} `json:"itineraries"`
}

// ---------------------------------------------------------------------------
// Trips
// ---------------------------------------------------------------------------

func TestTrips_CRUD(t *testing.T) {
	r, _ := buildTestRouter(t)
	created := createTrip(t, r, carpoolBody())
	if len(created.Riders) != 4 || created.Riders[1].PassengerCapacity != trip.DefaultPassengerCapacity {
		t.Fatalf("created = %+v", created)
	}

	w := doRequest(r, http.MethodGet, "/api/trips/"+string(created.ID), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get: %d", w.Code)
	}

	body := carpoolBody()
	body["name"] = "Evening run"
	w = doRequest(r, http.MethodPut, "/api/trips/"+string(created.ID), body)
	if w.Code != http.StatusOK {
		t.Fatalf("update: %d %s", w.Code, w.Body.String())
	}

	w = doRequest(r, http.MethodGet, "/api/trips", nil)
	var list struct {
		Trips []trip.Trip `json:"trips"`
	}
	decode(t, w, &list)
	if len(list.Trips) != 1 || list.Trips[0].Name != "Evening run" {
		t.Errorf("list = %+v", list)
	}

	if w := doRequest(r, http.MethodDelete, "/api/trips/"+string(created.ID), nil); w.Code != http.StatusNoContent {
		t.Errorf("delete: %d", w.Code)
	}
	if w := doRequest(r, http.MethodGet, "/api/trips/"+string(created.ID), nil); w.Code != http.StatusNotFound {
		t.Errorf("get after delete: %d", w.Code)
	}
}

func TestTrips_BadRequests(t *testing.T) {
	r, _ := buildTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/trips", bytes.NewBufferString("{"))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("invalid json: %d", w.Code)
	}

	w = doRequest(r, http.MethodPost, "/api/trips", map[string]any{"name": "No destination"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing destination: %d", w.Code)
	}
	if w := doRequest(r, http.MethodPut, "/api/trips/missing", carpoolBody()); w.Code != http.StatusNotFound {
		t.Errorf("update missing: %d", w.Code)
	}
}

// ---------------------------------------------------------------------------
// Optimizer
// ---------------------------------------------------------------------------

func TestOptimize_WaitReturnsItineraries(t *testing.T) {
	r, _ := buildTestRouter(t)
	created := createTrip(t, r, carpoolBody())

	w := doRequest(r, http.MethodPost, "/api/trips/"+string(created.ID)+"/optimize/wait", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("optimize/wait: %d %s", w.Code, w.Body.String())
	}
	var res resultBody
	decode(t, w, &res)
	if !res.Found || res.TotalMinutes == nil || len(res.Itineraries) != 2 {
		t.Fatalf("result = %+v", res)
	}
	routes := map[string]bool{}
	for _, it := range res.Itineraries {
		routes[it.Route] = true
	}
	if !routes["Ana -> Ben -> 37.4000,-122.1000"] || !routes["Cy -> Di -> 37.4000,-122.1000"] {
		t.Errorf("routes = %v", routes)
	}

	w = doRequest(r, http.MethodGet, "/api/optimizer/result", nil)
	if w.Code != http.StatusOK {
		t.Errorf("result: %d", w.Code)
	}
}

func TestOptimize_AsyncThenPoll(t *testing.T) {
	r, engine := buildTestRouter(t)
	created := createTrip(t, r, carpoolBody())

	w := doRequest(r, http.MethodPost, "/api/trips/"+string(created.ID)+"/optimize", nil)
	if w.Code != http.StatusAccepted && w.Code != http.StatusOK {
		t.Fatalf("optimize: %d %s", w.Code, w.Body.String())
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := engine.Wait(ctx); err != nil {
		t.Fatal(err)
	}

	w = doRequest(r, http.MethodGet, "/api/optimizer/status", nil)
	var st optimizer.Status
	decode(t, w, &st)
	if !st.Free || !st.Complete || st.TripID != created.ID {
		t.Errorf("status = %+v", st)
	}

	// Unchanged trip: served from cache with 200.
	w = doRequest(r, http.MethodPost, "/api/trips/"+string(created.ID)+"/optimize", nil)
	if w.Code != http.StatusOK {
		t.Errorf("cached optimize: %d", w.Code)
	}
}

func TestOptimize_NoSolution(t *testing.T) {
	r, _ := buildTestRouter(t)
	created := createTrip(t, r, map[string]any{
		"name":        "Too small",
		"destination": "37.4000,-122.1000",
		"riders": []map[string]any{
			{"name": "Ana", "location": "37.4400,-122.1000", "is_driver": true, "passenger_capacity": 1},
			{"name": "Ben", "location": "37.4300,-122.1000"},
		},
	})

	w := doRequest(r, http.MethodPost, "/api/trips/"+string(created.ID)+"/optimize/wait", nil)
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("optimize/wait: %d %s", w.Code, w.Body.String())
	}
	var res resultBody
	decode(t, w, &res)
	if res.Found || res.TotalMinutes != nil || len(res.Itineraries) != 0 {
		t.Errorf("result = %+v", res)
	}
	if w := doRequest(r, http.MethodGet, "/api/optimizer/result", nil); w.Code != http.StatusUnprocessableEntity {
		t.Errorf("result: %d", w.Code)
	}
}

func TestOptimize_UnresolvableLocation(t *testing.T) {
	r, _ := buildTestRouter(t)
	created := createTrip(t, r, map[string]any{
		"name":        "Free text",
		"destination": "Lincoln High",
		"riders":      []map[string]any{{"name": "Ana", "location": "37.4400,-122.1000", "is_driver": true}},
	})
	w := doRequest(r, http.MethodPost, "/api/trips/"+string(created.ID)+"/optimize/wait", nil)
	if w.Code != http.StatusBadGateway {
		t.Errorf("optimize/wait: %d %s", w.Code, w.Body.String())
	}
}

func TestOptimizer_ResultBeforeAnyRun(t *testing.T) {
	r, _ := buildTestRouter(t)
	if w := doRequest(r, http.MethodGet, "/api/optimizer/result", nil); w.Code != http.StatusNotFound {
		t.Errorf("result: %d", w.Code)
	}
	if w := doRequest(r, http.MethodDelete, "/api/optimizer/queue", nil); w.Code != http.StatusNoContent {
		t.Errorf("clear queue: %d", w.Code)
	}
	if w := doRequest(r, http.MethodPost, "/api/trips/missing/optimize", nil); w.Code != http.StatusNotFound {
		t.Errorf("optimize missing trip: %d", w.Code)
	}
}

// ---------------------------------------------------------------------------
// Ownership
// ---------------------------------------------------------------------------

// uidVerifier accepts any token and uses it as the caller's uid.
type uidVerifier struct{}

func (uidVerifier) VerifyIDToken(_ context.Context, idToken string) (*infra.FirebaseToken, error) {
	return &infra.FirebaseToken{UID: idToken}, nil
}

func TestTrips_ListScopedToCaller(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := trip.NewService(&memRepo{trips: map[types.ID]*trip.Trip{}})
	th := handlers.NewTripHandler(svc, nil)
	r := gin.New()
	api := r.Group("/api", middleware.Auth(uidVerifier{}))
	api.POST("/trips", th.Create)
	api.GET("/trips", th.List)

	as := func(uid, method string, body any) *httptest.ResponseRecorder {
		var buf bytes.Buffer
		if body != nil {
			_ = json.NewEncoder(&buf).Encode(body)
		}
		req := httptest.NewRequest(method, "/api/trips", &buf)
		req.Header.Set("Authorization", "Bearer "+uid)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	w := as("parent-1", http.MethodPost, carpoolBody())
	if w.Code != http.StatusCreated {
		t.Fatalf("create: %d %s", w.Code, w.Body.String())
	}
	var created trip.Trip
	decode(t, w, &created)
	if created.OwnerID != "parent-1" {
		t.Fatalf("OwnerID = %q, want parent-1", created.OwnerID)
	}
	if w := as("parent-2", http.MethodPost, carpoolBody()); w.Code != http.StatusCreated {
		t.Fatalf("create: %d", w.Code)
	}

	var list struct {
		Trips []trip.Trip `json:"trips"`
	}
	decode(t, as("parent-1", http.MethodGet, nil), &list)
	if len(list.Trips) != 1 || list.Trips[0].ID != created.ID {
		t.Fatalf("parent-1 sees %d trips, want only its own", len(list.Trips))
	}
}
