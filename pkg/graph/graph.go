// Package graph is the tagged-variant node/edge model of the fused transit
// graph: a closed set of node kinds (Street, Stop) and edge kinds (Walk,
// Transit), stored as an index-based adjacency list rather than a
// pointer-linked structure, per the data model and design notes of the
// specification.
//
// Grounded on the teacher's pkg/datastructure/graph.go (node/edge field
// layout) and on original_source/cascade-core/src/graph.rs (the GraphNode/
// GraphEdge tagged enums and the calculate_delay time-dependent weight
// function that this package's Edge.Weight reimplements in Go).
package graph

import (
	"sort"

	"transitgraph/pkg/spatial"
)

// NodeKind tags a vertex as drawn from OSM (Street) or from GTFS stops (Stop).
type NodeKind uint8

const (
	Street NodeKind = iota
	Stop
)

// Node is a graph vertex. Index is assigned at insertion and is stable:
// indices are dense and never reused.
type Node struct {
	Kind NodeKind
	Lat  float64
	Lon  float64
	// OSMID is valid when Kind == Street.
	OSMID int64
	// StopID is valid when Kind == Stop.
	StopID string
}

// EdgeKind tags an edge as a constant-weight Walk or a time-dependent
// Transit edge backed by a schedule.
type EdgeKind uint8

const (
	Walk EdgeKind = iota
	Transit
)

// SchedulePair is one (departure, arrival) entry of a Transit edge's
// schedule, in absolute integer seconds since service-day midnight.
type SchedulePair struct {
	DepT int64
	ArrT int64
}

// Edge is a directed arc. For Walk edges WalkSeconds holds the constant
// travel time. For Transit edges SchedOffset/SchedLen index into the
// owning Graph's schedule arena, which is sorted ascending on DepT.
type Edge struct {
	To          int32
	Kind        EdgeKind
	WalkSeconds float64
	SchedOffset int32
	SchedLen    int32
}

// Weight evaluates the edge's time-dependent weight at current arrival
// time t (seconds since service-day midnight; fractional, since walking
// time is derived from a distance in meters and rarely lands on a whole
// second).
//
// Walk: arrival = t + seconds, always traversable.
// Transit: binary-searches the schedule for the smallest dep_t >= t; if
// found, arrival is that pair's arr_t. If no such pair exists the edge is
// not traversable at t and ok is false.
func (e Edge) Weight(g *Graph, t float64) (delay float64, arrival float64, ok bool) {
	switch e.Kind {
	case Walk:
		return e.WalkSeconds, t + e.WalkSeconds, true
	case Transit:
		sched := g.Schedule(e)
		i := sort.Search(len(sched), func(i int) bool { return float64(sched[i].DepT) >= t })
		if i == len(sched) {
			return 0, 0, false
		}
		pair := sched[i]
		return float64(pair.ArrT) - t, float64(pair.ArrT), true
	default:
		return 0, 0, false
	}
}

// Graph is the immutable, directed, time-dependent transit graph produced
// by the assembler. It owns all node/edge storage and the spatial index
// over street-node coordinates; it is read-only except through the
// explicit extend-with-transit operation (see Builder).
type Graph struct {
	nodes     []Node
	adj       [][]Edge
	schedules []SchedulePair
	streetIdx *spatial.Index

	// osmIDIndex/stopIDIndex are retained only so that extend_with_transit
	// can recognize already-inserted street/stop nodes and preserve their
	// indices. They are never consulted by query operations.
	osmIDIndex  map[int64]int32
	stopIDIndex map[string]int32
}

// NodeCount returns |V|. Node indices form the dense range [0, NodeCount()).
func (g *Graph) NodeCount() int32 {
	return int32(len(g.nodes))
}

// Node looks up a vertex by index.
func (g *Graph) Node(idx int32) (Node, bool) {
	if idx < 0 || int(idx) >= len(g.nodes) {
		return Node{}, false
	}
	return g.nodes[idx], true
}

// OutEdges returns the outgoing adjacency list of a node.
func (g *Graph) OutEdges(idx int32) []Edge {
	if idx < 0 || int(idx) >= len(g.adj) {
		return nil
	}
	return g.adj[idx]
}

// Schedule returns the sorted (dep_t, arr_t) pairs backing a Transit edge.
func (g *Graph) Schedule(e Edge) []SchedulePair {
	return g.schedules[e.SchedOffset : e.SchedOffset+e.SchedLen]
}

// StreetIndex returns the R*-tree over street-node coordinates, used to
// snap arbitrary query points to an entry/exit node.
func (g *Graph) StreetIndex() *spatial.Index {
	return g.streetIdx
}
