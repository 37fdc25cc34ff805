// README: Single-slot optimization coordinator; admits one trip at a time and exposes polling and blocking APIs.
package optimizer

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"flock/internal/config"
	"flock/internal/metrics"
	"flock/internal/modules/trip"
	"flock/internal/types"
)

type Deps struct {
	Geocoder  Geocoder
	Router    Router
	Locations LocationCache
	Routes    RouteCache
	Trips     *TripCache
	// Limiter throttles maps provider calls; nil means unlimited.
	Limiter *rate.Limiter
}

// request is the single slot's occupant. Fields other than done are guarded
// by Engine.mu.
type request struct {
	trip     *trip.Trip
	state    State
	result   *OptimizedTrip
	err      error
	cancel   context.CancelFunc
	resolver *resolver
	started  time.Time
	done     chan struct{}
}

func (r *request) finished() bool {
	return r.state == StateComplete || r.state == StateFailed
}

type Engine struct {
	deps Deps
	cfg  config.OptimizerConfig

	mu      sync.Mutex
	current *request
}

func NewEngine(deps Deps, cfg config.OptimizerConfig) *Engine {
	if deps.Trips == nil {
		deps.Trips = NewTripCache(0, 0)
	}
	return &Engine{deps: deps, cfg: cfg}
}

// Optimize admits t if no other request is in flight and returns false
// otherwise. The trip is copied, so later edits by the caller do not affect
// the run. An unchanged trip with a cached result completes before Optimize
// returns, without any maps calls.
func (e *Engine) Optimize(t *trip.Trip) bool {
	_, ok := e.admit(t)
	return ok
}

// Run optimizes t and waits for the result. It returns ErrBusy when another
// request is in flight and ErrNoSolution, along with the empty result, when
// the riders cannot be covered. Cancelling ctx abandons the run.
func (e *Engine) Run(ctx context.Context, t *trip.Trip) (*OptimizedTrip, error) {
	req, ok := e.admit(t)
	if !ok {
		return nil, ErrBusy
	}
	res, err := e.waitFor(ctx, req)
	if err != nil {
		if ctx.Err() != nil {
			e.mu.Lock()
			e.abandonLocked(req)
			e.mu.Unlock()
		}
		return nil, err
	}
	if !res.Found() {
		return res, ErrNoSolution
	}
	return res, nil
}

// Wait blocks until the current request finishes or ctx is done.
func (e *Engine) Wait(ctx context.Context) (*OptimizedTrip, error) {
	e.mu.Lock()
	req := e.current
	e.mu.Unlock()
	if req == nil {
		return nil, ErrNoRequest
	}
	return e.waitFor(ctx, req)
}

func (e *Engine) admit(t *trip.Trip) (*request, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.current != nil && !e.current.finished() {
		log.Printf("[OPTIMIZER] busy with trip %s, rejecting trip %s", e.current.trip.ID, t.ID)
		metrics.OptimizeRuns.WithLabelValues(metrics.OutcomeBusy).Inc()
		return nil, false
	}

	req := &request{trip: t.Clone(), state: StateIdle, started: time.Now(), done: make(chan struct{})}
	e.current = req

	if res, ok := e.deps.Trips.Lookup(req.trip); ok {
		log.Printf("[OPTIMIZER] trip %s unchanged, using cached result", t.ID)
		metrics.OptimizeRuns.WithLabelValues(metrics.OutcomeCacheHit).Inc()
		e.finishLocked(req, res, nil)
		return req, true
	}

	ctx, cancel := context.WithCancel(context.Background())
	req.cancel = cancel
	go e.run(ctx, req)
	return req, true
}

func (e *Engine) waitFor(ctx context.Context, req *request) (*OptimizedTrip, error) {
	select {
	case <-req.done:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return req.result, req.err
}

// IsFree reports whether a new request would be admitted.
func (e *Engine) IsFree() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.current == nil || e.current.finished()
}

// IsRequestComplete reports whether the last request finished with a result.
func (e *Engine) IsRequestComplete() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.current != nil && e.current.state == StateComplete
}

// GetOptimizedTrip returns the last completed result.
func (e *Engine) GetOptimizedTrip() (*OptimizedTrip, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.current == nil || e.current.state != StateComplete {
		return nil, false
	}
	return e.current.result, true
}

// Err returns the failure of the last request, if it failed.
func (e *Engine) Err() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.current == nil {
		return nil
	}
	return e.current.err
}

// State is StateIdle unless a request is in flight.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.current == nil || e.current.finished() {
		return StateIdle
	}
	return e.current.state
}

type Status struct {
	State         State    `json:"state"`
	TripID        types.ID `json:"trip_id,omitempty"`
	Free          bool     `json:"free"`
	Complete      bool     `json:"complete"`
	ResolvedEdges int      `json:"resolved_edges"`
	TotalEdges    int      `json:"total_edges"`
	Error         string   `json:"error,omitempty"`
}

func (e *Engine) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	s := Status{State: StateIdle, Free: true}
	req := e.current
	if req == nil {
		return s
	}
	s.TripID = req.trip.ID
	s.Complete = req.state == StateComplete
	if !req.finished() {
		s.State = req.state
		s.Free = false
	}
	if req.resolver != nil {
		s.ResolvedEdges, s.TotalEdges = req.resolver.Progress()
	}
	if req.err != nil {
		s.Error = req.err.Error()
	}
	return s
}

// ClearQueue abandons the in-flight request. Its goroutines are cancelled
// and anything it produces afterwards is discarded. A finished request is
// left in place so its result stays readable.
func (e *Engine) ClearQueue() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.current != nil {
		e.abandonLocked(e.current)
	}
}

func (e *Engine) abandonLocked(req *request) {
	if e.current != req || req.finished() {
		return
	}
	log.Printf("[OPTIMIZER] clearing request for trip %s in state %s", req.trip.ID, req.state)
	if req.cancel != nil {
		req.cancel()
	}
	metrics.OptimizeRuns.WithLabelValues(metrics.OutcomeCancelled).Inc()
	req.state = StateFailed
	req.err = ErrCancelled
	close(req.done)
	e.current = nil
}

// Invalidate drops the cached result for a trip, e.g. after it is deleted.
func (e *Engine) Invalidate(tripID types.ID) {
	e.deps.Trips.Invalidate(tripID)
}

// Prewarm geocodes the riders and destinations of trips into the location
// cache. It does not use the request slot.
func (e *Engine) Prewarm(ctx context.Context, trips ...*trip.Trip) (err error) {
	defer metrics.Time(fmt.Sprintf("[OPTIMIZER] prewarm trips=%d", len(trips)))(&err)
	res := newResolver(e.deps, e.cfg.ResolveConcurrency)
	var errs []error
	for _, t := range trips {
		g := BuildGraph(t)
		if rerr := res.ResolveNodes(ctx, g.Nodes); rerr != nil {
			errs = append(errs, fmt.Errorf("trip %s: %w", t.ID, rerr))
		}
	}
	return errors.Join(errs...)
}

func (e *Engine) run(ctx context.Context, req *request) {
	defer req.cancel()
	res, err := e.execute(ctx, req)

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.current != req {
		log.Printf("[OPTIMIZER] discarding superseded result for trip %s", req.trip.ID)
		return
	}
	if err == nil {
		e.deps.Trips.Put(req.trip, res)
		outcome := metrics.OutcomeComplete
		if !res.Found() {
			outcome = metrics.OutcomeNoSolution
		}
		metrics.OptimizeRuns.WithLabelValues(outcome).Inc()
	} else {
		metrics.OptimizeRuns.WithLabelValues(metrics.OutcomeFailed).Inc()
	}
	metrics.OptimizeDuration.Observe(time.Since(req.started).Seconds())
	e.finishLocked(req, res, err)
}

func (e *Engine) finishLocked(req *request, res *OptimizedTrip, err error) {
	req.result = res
	req.err = err
	if err != nil {
		req.state = StateFailed
		log.Printf("[OPTIMIZER] trip %s failed: %v", req.trip.ID, err)
	} else {
		req.state = StateComplete
	}
	close(req.done)
}

func (e *Engine) setState(req *request, s State) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.current == req && !req.finished() {
		req.state = s
	}
}

func (e *Engine) execute(ctx context.Context, req *request) (_ *OptimizedTrip, err error) {
	t := req.trip
	defer metrics.Time(fmt.Sprintf("[OPTIMIZER] optimize trip=%s drivers=%d passengers=%d", t.ID, t.DriverCount(), t.PassengerCount()))(&err)

	if len(t.Riders) == 0 {
		return nil, ErrNoRiders
	}
	if e.cfg.MaxRiders > 0 && len(t.Riders) > e.cfg.MaxRiders {
		return nil, fmt.Errorf("%w: %d riders, limit %d", ErrTooManyRiders, len(t.Riders), e.cfg.MaxRiders)
	}

	g := BuildGraph(t)
	e.setState(req, StateGraphBuilt)

	res := newResolver(e.deps, e.cfg.ResolveConcurrency)
	e.mu.Lock()
	req.resolver = res
	e.mu.Unlock()
	e.setState(req, StateResolving)

	rctx := ctx
	if e.cfg.ResolveTimeout > 0 {
		var cancel context.CancelFunc
		rctx, cancel = context.WithTimeout(ctx, e.cfg.ResolveTimeout)
		defer cancel()
	}
	if err := res.Resolve(rctx, g); err != nil {
		switch {
		case ctx.Err() != nil:
			return nil, ErrCancelled
		case errors.Is(rctx.Err(), context.DeadlineExceeded):
			return nil, fmt.Errorf("resolve trip %s after %s: %w", t.ID, e.cfg.ResolveTimeout, context.DeadlineExceeded)
		default:
			return nil, fmt.Errorf("resolve trip %s: %w", t.ID, err)
		}
	}

	mode := ModeFor(t)
	adj := g.Adjacency()
	var paths []Path
	for _, n := range g.Riders() {
		if mode == ModeSuggested || n.IsDriver {
			paths = append(paths, EnumeratePaths(n, adj)...)
		}
	}
	e.setState(req, StatePathsEnumerated)
	log.Printf("[OPTIMIZER] trip %s mode=%s paths=%d", t.ID, mode, len(paths))

	e.setState(req, StatePartitioning)
	result := Solve(paths, g.Riders(), mode, t.DriverCount())
	result.TripID = t.ID
	if !result.Found() {
		log.Printf("[OPTIMIZER] trip %s has no valid assignment", t.ID)
		return result, nil
	}
	for _, p := range result.Paths {
		log.Printf("[OPTIMIZER] trip %s path %s (%s)", t.ID, p, p.TotalTime().Round(time.Second))
	}
	return result, nil
}
