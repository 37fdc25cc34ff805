// README: Driver paths and their depth-first enumeration.
package optimizer

import (
	"strings"
	"time"

	"flock/internal/types"
)

// Path is one car's route: it starts at the driver's node, visits each
// pickup at most once and ends at the destination.
type Path struct {
	Edges []*Edge
}

func (p Path) Driver() *Node {
	return p.Edges[0].From
}

func (p Path) TotalTime() time.Duration {
	var total time.Duration
	for _, e := range p.Edges {
		total += e.TravelTime()
	}
	return total
}

func (p Path) DistanceMeters() float64 {
	var d float64
	for _, e := range p.Edges {
		if e.Route != nil {
			d += e.Route.DistanceMeters
		}
	}
	return d
}

// Riders lists the driver and every pickup, excluding the destination.
func (p Path) Riders() []*Node {
	nodes := []*Node{p.Driver()}
	for _, e := range p.Edges {
		if !e.To.IsDestination {
			nodes = append(nodes, e.To)
		}
	}
	return nodes
}

// String renders the stops by name, e.g. "Ana -> Ben -> Lincoln Field".
func (p Path) String() string {
	if len(p.Edges) == 0 {
		return ""
	}
	names := []string{p.Driver().Name}
	for _, e := range p.Edges {
		names = append(names, e.To.Name)
	}
	return strings.Join(names, " -> ")
}

// EnumeratePaths lists every simple path from driver to the destination
// whose edge count fits the driver's capacity. A capacity of c allows the
// driver plus c-1 pickups, which is c edges. Paths are produced in
// adjacency order so results are deterministic for a given graph.
func EnumeratePaths(driver *Node, adj Adjacency) []Path {
	var paths []Path
	visited := map[types.ID]bool{driver.ID: true}
	var edges []*Edge

	var walk func(current *Node)
	walk = func(current *Node) {
		if current.IsDestination {
			if len(edges) <= driver.Capacity {
				paths = append(paths, Path{Edges: append([]*Edge(nil), edges...)})
			}
			return
		}
		for _, e := range adj[current.ID] {
			if visited[e.To.ID] {
				continue
			}
			// A pickup still needs one more edge to reach the destination.
			need := len(edges) + 1
			if !e.To.IsDestination {
				need++
			}
			if need > driver.Capacity {
				continue
			}
			visited[e.To.ID] = true
			edges = append(edges, e)
			walk(e.To)
			edges = edges[:len(edges)-1]
			visited[e.To.ID] = false
		}
	}
	walk(driver)
	return paths
}
