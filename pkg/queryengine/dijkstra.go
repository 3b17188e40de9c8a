package queryengine

import (
	"math"

	"transitgraph/domain"
	"transitgraph/pkg/geo"
	"transitgraph/pkg/graph"
	"transitgraph/pkg/util"
)

// State is the per-query state machine position, per the specification's
// Init -> Searching -> (Found | Exhausted | EarlyStop) contract. Only Found
// and EarlyStop populate a path.
type State int

const (
	Init State = iota
	Searching
	Found
	Exhausted
	EarlyStop
)

// EntryPoint is an arbitrary (x,y) query point resolved to its nearest
// street node, carrying the walking penalty incurred snapping to it.
type EntryPoint struct {
	NodeIdx        NodeIdx
	PenaltySeconds float64
}

// ResolveEntryPoint snaps (lat,lon) to the nearest street node in g's
// spatial index and computes the haversine/WalkSpeedMPS walking penalty.
// Returns domain.ErrNoEntryPoint if the graph's street layer is empty.
func ResolveEntryPoint(g *graph.Graph, lat, lon float64) (EntryPoint, error) {
	idx := g.StreetIndex()
	if idx == nil || idx.Empty() {
		return EntryPoint{}, domain.WrapErrorf(nil, domain.ErrNoEntryPoint, "no street nodes in graph")
	}
	res, ok := idx.NearestOne(lat, lon)
	if !ok {
		return EntryPoint{}, domain.WrapErrorf(nil, domain.ErrNoEntryPoint, "no street nodes in graph")
	}
	return EntryPoint{NodeIdx: res.NodeIdx, PenaltySeconds: geo.WalkSeconds(res.DistMeters)}, nil
}

// sssp runs time-dependent Dijkstra from a street node at absolute
// departure time t0, optionally stopping early once target is settled.
// arrival[v] is the earliest arrival time at v (absolute seconds,
// fractional since walking time is), only populated for reached nodes;
// pred[v] is the predecessor used to reach it.
func sssp(g *graph.Graph, source NodeIdx, t0 float64, target NodeIdx, earlyStop bool) (arrival map[NodeIdx]float64, pred map[NodeIdx]NodeIdx, state State) {
	arrival = make(map[NodeIdx]float64)
	pred = make(map[NodeIdx]NodeIdx)
	settled := make(map[NodeIdx]bool)

	h := newMinHeap()
	arrival[source] = t0
	h.insert(heapNode{Rank: t0, Item: source})

	state = Searching
	for !h.isEmpty() {
		cur, _ := h.extractMin()
		u := cur.Item
		tU := cur.Rank

		if best, ok := arrival[u]; !ok || tU > best {
			continue
		}
		if settled[u] {
			continue
		}
		settled[u] = true

		if earlyStop && u == target {
			return arrival, pred, EarlyStop
		}

		for _, e := range g.OutEdges(u) {
			_, tV, ok := e.Weight(g, tU)
			if !ok {
				continue
			}
			best, seen := arrival[e.To]
			if !seen || tV < best {
				arrival[e.To] = tV
				pred[e.To] = u
				h.insert(heapNode{Rank: tV, Item: e.To})
			}
		}
	}

	if earlyStop {
		return arrival, pred, Exhausted
	}
	return arrival, pred, Found
}

// SSSPArrival runs time-dependent Dijkstra from an already-resolved source
// node at absolute departure time t0, returning the raw arrival-time and
// predecessor maps. Exported so other packages (the OD-matrix driver) can
// reuse one entry-resolved search without re-snapping a (lat,lon) point or
// duplicating the relaxation loop.
func SSSPArrival(g *graph.Graph, source NodeIdx, t0 float64) (arrival map[NodeIdx]float64, pred map[NodeIdx]NodeIdx, state State) {
	return sssp(g, source, t0, -1, false)
}

// SSSPWeights computes, for every node reachable from the street node
// nearest (lat,lon), the earliest arrival delay in seconds since t0
// (including the entry walking penalty). Only reachable nodes are present.
func SSSPWeights(g *graph.Graph, t0 int64, lat, lon float64) (map[NodeIdx]float64, error) {
	entry, err := ResolveEntryPoint(g, lat, lon)
	if err != nil {
		return nil, err
	}
	start := float64(t0) + entry.PenaltySeconds
	arrival, _, _ := sssp(g, entry.NodeIdx, start, -1, false)

	weights := make(map[NodeIdx]float64, len(arrival))
	for node, t := range arrival {
		weights[node] = t - float64(t0)
	}
	return weights, nil
}

// Unreachable is the sentinel SPWeight returns in place of a numeric value
// when no path exists.
const Unreachable = math.MaxFloat64

// SPWeight computes the earliest-arrival travel time in seconds between two
// query points, including entry and exit walking penalties. Returns
// Unreachable if no path exists; Dijkstra stops as soon as the destination
// node is settled (EarlyStop).
func SPWeight(g *graph.Graph, t0 int64, srcLat, srcLon, dstLat, dstLon float64) (float64, error) {
	src, err := ResolveEntryPoint(g, srcLat, srcLon)
	if err != nil {
		return 0, err
	}
	dst, err := ResolveEntryPoint(g, dstLat, dstLon)
	if err != nil {
		return 0, err
	}

	start := float64(t0) + src.PenaltySeconds
	arrival, _, state := sssp(g, src.NodeIdx, start, dst.NodeIdx, true)
	if state != EarlyStop {
		return Unreachable, nil
	}
	tDst, ok := arrival[dst.NodeIdx]
	if !ok {
		return Unreachable, nil
	}
	return (tDst - float64(t0)) + dst.PenaltySeconds, nil
}

// SPPath computes the earliest-arrival path between two query points as an
// ordered sequence of node indices, including the resolved entry and exit
// street nodes. Returns an empty slice if no path exists.
func SPPath(g *graph.Graph, t0 int64, srcLat, srcLon, dstLat, dstLon float64) ([]NodeIdx, error) {
	src, err := ResolveEntryPoint(g, srcLat, srcLon)
	if err != nil {
		return nil, err
	}
	dst, err := ResolveEntryPoint(g, dstLat, dstLon)
	if err != nil {
		return nil, err
	}

	start := float64(t0) + src.PenaltySeconds
	_, pred, state := sssp(g, src.NodeIdx, start, dst.NodeIdx, true)
	if state != EarlyStop {
		return nil, nil
	}

	path := []NodeIdx{dst.NodeIdx}
	cur := dst.NodeIdx
	for cur != src.NodeIdx {
		p, ok := pred[cur]
		if !ok {
			return nil, nil
		}
		path = append(path, p)
		cur = p
	}
	util.ReverseG(path)
	return path, nil
}
