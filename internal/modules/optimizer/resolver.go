// README: Resolves node locations and edge routes concurrently, through the location and route caches.
package optimizer

import (
	"context"
	"fmt"
	"log"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"flock/internal/cache"
	"flock/internal/metrics"
	"flock/internal/types"
)

// Geocoder turns a free-text location into a titled point.
type Geocoder interface {
	Geocode(ctx context.Context, location string) (types.GeoPoint, error)
}

// Router returns the travel alternatives between two points.
type Router interface {
	Routes(ctx context.Context, from, to types.GeoPoint) ([]types.Route, error)
}

type LocationCache interface {
	GetLocation(ctx context.Context, riderID types.ID) (cache.LocationEntry, bool, error)
	PutLocation(ctx context.Context, riderID types.ID, e cache.LocationEntry) error
}

type RouteCache interface {
	GetRoute(ctx context.Context, key cache.RouteKey) (types.Route, bool, error)
	PutRoute(ctx context.Context, key cache.RouteKey, r types.Route) error
}

type ResolutionKind string

const (
	KindGeocode ResolutionKind = "geocode"
	KindRoute   ResolutionKind = "route"
)

// ResolutionError reports the location or leg the maps provider could not resolve.
type ResolutionError struct {
	Kind    ResolutionKind
	Subject string
	Err     error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Kind, e.Subject, e.Err)
}

func (e *ResolutionError) Unwrap() error {
	return e.Err
}

type resolver struct {
	geocoder  Geocoder
	router    Router
	locations LocationCache
	routes    RouteCache
	limiter   *rate.Limiter
	sem       *semaphore.Weighted

	resolvedEdges atomic.Int64
	totalEdges    atomic.Int64
}

func newResolver(deps Deps, concurrency int) *resolver {
	if concurrency < 1 {
		concurrency = 1
	}
	return &resolver{
		geocoder:  deps.Geocoder,
		router:    deps.Router,
		locations: deps.Locations,
		routes:    deps.Routes,
		limiter:   deps.Limiter,
		sem:       semaphore.NewWeighted(int64(concurrency)),
	}
}

// Progress reports resolved and total edges of the graph being resolved.
func (r *resolver) Progress() (resolved, total int) {
	return int(r.resolvedEdges.Load()), int(r.totalEdges.Load())
}

// Resolve geocodes every node and routes every edge. Each edge starts as soon
// as both of its endpoints are resolved. The first failure cancels the rest.
// Nothing is written to the caches once ctx is done.
func (r *resolver) Resolve(ctx context.Context, g *Graph) error {
	r.totalEdges.Store(int64(len(g.Edges)))
	grp, gctx := errgroup.WithContext(ctx)
	for _, n := range g.Nodes {
		grp.Go(func() error { return r.resolveNode(gctx, n) })
	}
	for _, e := range g.Edges {
		grp.Go(func() error { return r.resolveEdge(gctx, e) })
	}
	return grp.Wait()
}

// ResolveNodes geocodes nodes without routing any edges.
func (r *resolver) ResolveNodes(ctx context.Context, nodes []*Node) error {
	grp, gctx := errgroup.WithContext(ctx)
	for _, n := range nodes {
		grp.Go(func() error { return r.resolveNode(gctx, n) })
	}
	return grp.Wait()
}

func (r *resolver) resolveNode(ctx context.Context, n *Node) error {
	entry, hit, err := r.locations.GetLocation(ctx, n.ID)
	if err != nil {
		log.Printf("[RESOLVER] location cache read %s: %v", n.ID, err)
	}
	hit = hit && entry.Location == n.Location
	metrics.CacheLookups.WithLabelValues("location", metrics.CacheResult(hit)).Inc()
	if hit {
		n.markResolved(entry.Point)
		return nil
	}

	p, err := call(ctx, r, func(ctx context.Context) (types.GeoPoint, error) {
		return r.geocoder.Geocode(ctx, n.Location)
	})
	metrics.ResolverRequests.WithLabelValues(string(KindGeocode), resultLabel(err)).Inc()
	if err != nil {
		return &ResolutionError{Kind: KindGeocode, Subject: fmt.Sprintf("%q", n.Location), Err: err}
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := r.locations.PutLocation(ctx, n.ID, cache.LocationEntry{Location: n.Location, Point: p}); err != nil {
		log.Printf("[RESOLVER] location cache write %s: %v", n.ID, err)
	}
	n.markResolved(p)
	return nil
}

func (r *resolver) resolveEdge(ctx context.Context, e *Edge) error {
	for _, n := range []*Node{e.From, e.To} {
		select {
		case <-n.ready:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	key := cache.RouteKey{Source: e.From.Point.Title, Destination: e.To.Point.Title}
	cacheable := key.Cacheable()
	if cacheable {
		route, hit, err := r.routes.GetRoute(ctx, key)
		if err != nil {
			log.Printf("[RESOLVER] route cache read %s -> %s: %v", key.Source, key.Destination, err)
		}
		metrics.CacheLookups.WithLabelValues("route", metrics.CacheResult(hit)).Inc()
		if hit {
			e.Route = &route
			r.resolvedEdges.Add(1)
			return nil
		}
	}

	candidates, err := call(ctx, r, func(ctx context.Context) ([]types.Route, error) {
		return r.router.Routes(ctx, *e.From.Point, *e.To.Point)
	})
	metrics.ResolverRequests.WithLabelValues(string(KindRoute), resultLabel(err)).Inc()
	subject := fmt.Sprintf("%s -> %s", e.From.Name, e.To.Name)
	if err != nil {
		return &ResolutionError{Kind: KindRoute, Subject: subject, Err: err}
	}
	best, ok := types.FastestRoute(candidates)
	if !ok {
		return &ResolutionError{Kind: KindRoute, Subject: subject, Err: ErrRouteNotFound}
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if cacheable {
		if err := r.routes.PutRoute(ctx, key, best); err != nil {
			log.Printf("[RESOLVER] route cache write %s -> %s: %v", key.Source, key.Destination, err)
		}
	}
	e.Route = &best
	r.resolvedEdges.Add(1)
	return nil
}

// call runs fn inside one concurrency slot and one rate limiter token.
func call[T any](ctx context.Context, r *resolver, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	if err := r.sem.Acquire(ctx, 1); err != nil {
		return zero, err
	}
	defer r.sem.Release(1)
	if r.limiter != nil {
		if err := r.limiter.Wait(ctx); err != nil {
			return zero, err
		}
	}
	return fn(ctx)
}

func resultLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
