package graph

import (
	"sort"

	"transitgraph/domain"
	"transitgraph/pkg/spatial"
)

// edgeKey identifies a (from, to) directed node pair while a Transit
// edge's schedule is still being accumulated during assembly.
type edgeKey struct {
	From int32
	To   int32
}

// Builder accumulates nodes and edges during graph assembly. A fresh
// Builder backs the build operation; a Builder seeded from an existing
// Graph (NewBuilderFromGraph) backs extend_with_transit, preserving the
// index stability of every previously inserted node.
//
// Transit schedules are kept in a per-(from,to) pending slice rather than
// directly in the arena so that repeated trips contributing to the same
// edge, and an extend_with_transit call's newly-seen trips, can all be
// appended before the edge is sorted once at Finish -- matching the
// assembler algorithm's step 4 (append) / step 5 (sort once, at the end).
type Builder struct {
	nodes          []Node
	walkAdj        map[int32][]Edge
	transitPending map[edgeKey][]SchedulePair
	osmIDIndex     map[int64]int32
	stopIDIndex    map[string]int32
}

// NewBuilder starts a Builder for a fresh graph build.
func NewBuilder() *Builder {
	return &Builder{
		walkAdj:        make(map[int32][]Edge),
		transitPending: make(map[edgeKey][]SchedulePair),
		osmIDIndex:     make(map[int64]int32),
		stopIDIndex:    make(map[string]int32),
	}
}

// NewBuilderFromGraph seeds a Builder with an existing graph's nodes and
// edges, so that extend_with_transit only needs to add new stops and
// transit edges on top.
func NewBuilderFromGraph(g *Graph) *Builder {
	b := NewBuilder()
	b.nodes = append(b.nodes, g.nodes...)

	for from, edges := range g.adj {
		for _, e := range edges {
			switch e.Kind {
			case Walk:
				b.walkAdj[int32(from)] = append(b.walkAdj[int32(from)], e)
			case Transit:
				key := edgeKey{From: int32(from), To: e.To}
				b.transitPending[key] = append(b.transitPending[key], g.Schedule(e)...)
			}
		}
	}
	for k, v := range g.osmIDIndex {
		b.osmIDIndex[k] = v
	}
	for k, v := range g.stopIDIndex {
		b.stopIDIndex[k] = v
	}
	return b
}

// NodeCount reports how many nodes the builder holds so far.
func (b *Builder) NodeCount() int32 {
	return int32(len(b.nodes))
}

// EachStreetNode calls fn once per Street node currently in the builder,
// in index order. Used by the assembler to build a provisional spatial
// index ahead of Finish, so stop snapping can run before the final Graph
// exists.
func (b *Builder) EachStreetNode(fn func(idx int32, lat, lon float64)) {
	for i, n := range b.nodes {
		if n.Kind == Street {
			fn(int32(i), n.Lat, n.Lon)
		}
	}
}

// AddStreetNode inserts a Street node, or returns the existing index if
// this osmID was already inserted (both in a fresh build, where a way can
// reference the same OSM node twice, and in extend_with_transit, where the
// street layer is reused wholesale).
func (b *Builder) AddStreetNode(osmID int64, lat, lon float64) int32 {
	if idx, ok := b.osmIDIndex[osmID]; ok {
		return idx
	}
	idx := int32(len(b.nodes))
	b.nodes = append(b.nodes, Node{Kind: Street, Lat: lat, Lon: lon, OSMID: osmID})
	b.osmIDIndex[osmID] = idx
	return idx
}

// AddStopNode inserts a Stop node, or returns the existing index if this
// stop_id is already present (extend_with_transit reusing a stop seen by
// an earlier build). isNew reports whether the node was newly created.
func (b *Builder) AddStopNode(stopID string, lat, lon float64) (idx int32, isNew bool) {
	if existing, ok := b.stopIDIndex[stopID]; ok {
		return existing, false
	}
	idx = int32(len(b.nodes))
	b.nodes = append(b.nodes, Node{Kind: Stop, Lat: lat, Lon: lon, StopID: stopID})
	b.stopIDIndex[stopID] = idx
	return idx, true
}

// StreetNodeIdx looks up a previously inserted Street node by OSM id.
func (b *Builder) StreetNodeIdx(osmID int64) (int32, bool) {
	idx, ok := b.osmIDIndex[osmID]
	return idx, ok
}

// StopNodeIdx looks up a previously inserted Stop node by GTFS stop_id.
func (b *Builder) StopNodeIdx(stopID string) (int32, bool) {
	idx, ok := b.stopIDIndex[stopID]
	return idx, ok
}

// AddWalkEdge inserts a directed constant-weight Walk edge.
func (b *Builder) AddWalkEdge(from, to int32, seconds float64) {
	b.walkAdj[from] = append(b.walkAdj[from], Edge{To: to, Kind: Walk, WalkSeconds: seconds})
}

// AppendTransitSchedule appends one (dep_t, arr_t) pair to the Transit
// edge from -> to, creating it if this is the first trip to use it.
func (b *Builder) AppendTransitSchedule(from, to int32, depT, arrT int64) {
	key := edgeKey{From: from, To: to}
	b.transitPending[key] = append(b.transitPending[key], SchedulePair{DepT: depT, ArrT: arrT})
}

// Finish sorts every Transit edge's schedule ascending on dep_t, asserts
// dep_t <= arr_t for every pair, builds the schedule arena and the street
// spatial index, and returns the resulting immutable Graph.
func (b *Builder) Finish() (*Graph, error) {
	adj := make([][]Edge, len(b.nodes))
	for from, edges := range b.walkAdj {
		adj[from] = append(adj[from], edges...)
	}

	keys := make([]edgeKey, 0, len(b.transitPending))
	for k := range b.transitPending {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].From != keys[j].From {
			return keys[i].From < keys[j].From
		}
		return keys[i].To < keys[j].To
	})

	var schedules []SchedulePair
	for _, k := range keys {
		sched := b.transitPending[k]
		sort.Slice(sched, func(i, j int) bool { return sched[i].DepT < sched[j].DepT })

		for _, p := range sched {
			if p.DepT > p.ArrT {
				return nil, domain.WrapErrorf(nil, domain.ErrInternalInvariant,
					"transit edge %d->%d: dep_t %d exceeds arr_t %d", k.From, k.To, p.DepT, p.ArrT)
			}
		}

		offset := int32(len(schedules))
		schedules = append(schedules, sched...)
		adj[k.From] = append(adj[k.From], Edge{
			To:          k.To,
			Kind:        Transit,
			SchedOffset: offset,
			SchedLen:    int32(len(sched)),
		})
	}

	return &Graph{
		nodes:       b.nodes,
		adj:         adj,
		schedules:   schedules,
		streetIdx:   buildStreetIndex(b.nodes),
		osmIDIndex:  copyInt64Map(b.osmIDIndex),
		stopIDIndex: copyStringMap(b.stopIDIndex),
	}, nil
}

func buildStreetIndex(nodes []Node) *spatial.Index {
	lats := make([]float64, 0, len(nodes))
	lons := make([]float64, 0, len(nodes))
	idxs := make([]int32, 0, len(nodes))
	for i, n := range nodes {
		if n.Kind == Street {
			lats = append(lats, n.Lat)
			lons = append(lons, n.Lon)
			idxs = append(idxs, int32(i))
		}
	}
	return spatial.Build(lats, lons, idxs)
}

func copyInt64Map(src map[int64]int32) map[int64]int32 {
	dst := make(map[int64]int32, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

func copyStringMap(src map[string]int32) map[string]int32 {
	dst := make(map[string]int32, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
