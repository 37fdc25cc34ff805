// README: Trip graph; one node per rider plus the destination, edges between every ordered pair.
package optimizer

import (
	"sync"
	"time"

	"flock/internal/modules/trip"
	"flock/internal/types"
)

type NodeKind string

const (
	KindSource      NodeKind = "source"
	KindPickup      NodeKind = "pickup"
	KindDestination NodeKind = "destination"
)

// Node is a rider or the destination. Point is written once by the resolver
// before ready is closed; read it only after Ready reports true.
type Node struct {
	ID            types.ID
	Name          string
	Location      string
	IsDriver      bool
	IsDestination bool
	Capacity      int

	Point *types.GeoPoint

	ready     chan struct{}
	readyOnce sync.Once
}

func newNode(id types.ID, name, location string) *Node {
	return &Node{ID: id, Name: name, Location: location, ready: make(chan struct{})}
}

// Kind follows the driver flag after the trip mode is applied, so in
// suggested mode every rider reports KindPickup.
func (n *Node) Kind() NodeKind {
	switch {
	case n.IsDestination:
		return KindDestination
	case n.IsDriver:
		return KindSource
	default:
		return KindPickup
	}
}

func (n *Node) markResolved(p types.GeoPoint) {
	n.readyOnce.Do(func() {
		n.Point = &p
		close(n.ready)
	})
}

func (n *Node) Ready() bool {
	select {
	case <-n.ready:
		return true
	default:
		return false
	}
}

// Edge is a directed travel leg. Route stays nil until resolved.
type Edge struct {
	From  *Node
	To    *Node
	Route *types.Route
}

// TravelTime is zero for an unresolved edge.
func (e *Edge) TravelTime() time.Duration {
	if e.Route == nil {
		return 0
	}
	return e.Route.TravelTime
}

// Adjacency maps a node id to its outgoing edges.
type Adjacency map[types.ID][]*Edge

type Graph struct {
	TripID      types.ID
	Nodes       []*Node
	Edges       []*Edge
	Destination *Node
	adjacency   Adjacency
}

// BuildGraph creates one node per rider and one for the destination, then a
// directed edge from every node to every other node except out of the
// destination. Rider order is preserved. In suggested mode no rider keeps a
// driver flag.
func BuildGraph(t *trip.Trip) *Graph {
	g := &Graph{TripID: t.ID, adjacency: make(Adjacency)}
	suggested := t.UseSuggestedDrivers
	for _, r := range t.Riders {
		n := newNode(r.ID, r.Name, r.Location)
		n.IsDriver = r.IsDriver && !suggested
		n.Capacity = r.PassengerCapacity
		g.Nodes = append(g.Nodes, n)
	}
	dest := newNode(t.DestinationID, t.Destination, t.Destination)
	dest.IsDestination = true
	dest.Capacity = 1
	g.Nodes = append(g.Nodes, dest)
	g.Destination = dest

	for _, from := range g.Nodes {
		if from.IsDestination {
			continue
		}
		for _, to := range g.Nodes {
			if to == from {
				continue
			}
			e := &Edge{From: from, To: to}
			g.Edges = append(g.Edges, e)
			g.adjacency[from.ID] = append(g.adjacency[from.ID], e)
		}
	}
	return g
}

func (g *Graph) Adjacency() Adjacency {
	return g.adjacency
}

// Riders returns every non-destination node in trip order.
func (g *Graph) Riders() []*Node {
	return g.Nodes[:len(g.Nodes)-1]
}

// Resolved reports whether every edge has a route. Call it only after the
// resolver has returned.
func (g *Graph) Resolved() bool {
	for _, e := range g.Edges {
		if e.Route == nil {
			return false
		}
	}
	return true
}
