// Package osmloader builds the walking layer of the transit graph from an
// OSM PBF extract: every way tagged `highway` becomes a bidirectional Walk
// edge at the fixed pedestrian speed, nodes unreferenced by any retained
// edge are dropped, and the remaining street graph is reduced to its
// largest connected component.
//
// Grounded on the teacher's pkg/osmparser/map.go and alg/osm_parser.go (the
// two-pass osmpbf.New scan: ways first, then only the nodes those ways
// reference) and on original_source/cascade-core/src/streets.rs (the
// largest-connected-component reduction, which the teacher's pipeline does
// not perform).
package osmloader

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"

	"transitgraph/domain"
	"transitgraph/pkg/geo"

	"github.com/paulmach/osm"
	"github.com/paulmach/osm/osmpbf"
)

// StreetEdge is one retained OSM way segment between two consecutive nodes
// of a highway way, expressed in OSM node ids. Assembler turns these into
// graph.Builder street nodes and bidirectional Walk edges.
type StreetEdge struct {
	FromID, ToID int64
	FromLat, FromLon float64
	ToLat, ToLon     float64
	Meters           float64
}

// Result is the parsed, connectivity-reduced street layer, ready for the
// assembler to fold into a graph.Builder.
type Result struct {
	Edges []StreetEdge
}

// Load parses an OSM PBF file at path into a street layer. progress reports
// completion of the two scan passes; pass domain.NoopProgress to silence it.
// Returns domain.ErrIoError if the file cannot be opened/read, and
// domain.ErrInvalidPbf if the scanner reports a decode failure.
func Load(path string, progress domain.Progress, sink domain.Sink) (*Result, error) {
	if progress == nil {
		progress = domain.NoopProgress
	}
	if sink == nil {
		sink = domain.DiscardSink{}
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, domain.WrapErrorf(err, domain.ErrIoError, "open pbf %q", path)
	}
	defer f.Close()

	ways, wayNodeIDs, err := scanWays(f, progress)
	if err != nil {
		return nil, err
	}

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, domain.WrapErrorf(err, domain.ErrIoError, "rewind pbf %q", path)
	}

	nodeLocs, err := scanNodes(f, wayNodeIDs, progress, sink)
	if err != nil {
		return nil, err
	}

	edges := make([]StreetEdge, 0, len(ways)*2)
	dropped := 0
	for _, way := range ways {
		for i := 0; i+1 < len(way.Nodes); i++ {
			fromID := int64(way.Nodes[i].ID)
			toID := int64(way.Nodes[i+1].ID)
			fromLoc, fromOK := nodeLocs[way.Nodes[i].ID]
			toLoc, toOK := nodeLocs[way.Nodes[i+1].ID]
			if !fromOK || !toOK {
				dropped++
				continue
			}
			meters := geo.HaversineMetersDeg(fromLoc.lat, fromLoc.lon, toLoc.lat, toLoc.lon)
			edges = append(edges, StreetEdge{
				FromID: fromID, ToID: toID,
				FromLat: fromLoc.lat, FromLon: fromLoc.lon,
				ToLat: toLoc.lat, ToLon: toLoc.lon,
				Meters: meters,
			})
		}
	}
	if dropped > 0 {
		sink.Warnf("osmloader: dropped %d way segments referencing unresolved nodes", dropped)
	}

	edges = largestConnectedComponent(edges, sink)

	return &Result{Edges: edges}, nil
}

func scanWays(f *os.File, progress domain.Progress) ([]*osm.Way, map[osm.NodeID]struct{}, error) {
	scanner := osmpbf.New(context.Background(), f, 3)
	defer scanner.Close()

	ways := []*osm.Way{}
	wayNodeIDs := make(map[osm.NodeID]struct{})
	count := 0
	for scanner.Scan() {
		o := scanner.Object()
		if o.ObjectID().Type() != osm.TypeWay {
			continue
		}
		way := o.(*osm.Way)
		if _, ok := way.TagMap()["highway"]; !ok {
			continue
		}
		ways = append(ways, way)
		for _, n := range way.Nodes {
			wayNodeIDs[n.ID] = struct{}{}
		}
		count++
		if count%10000 == 0 {
			progress.Add(10000)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, domain.WrapErrorf(err, domain.ErrInvalidPbf, "scan ways")
	}
	return ways, wayNodeIDs, nil
}

type latLon struct{ lat, lon float64 }

func scanNodes(f *os.File, wanted map[osm.NodeID]struct{}, progress domain.Progress, sink domain.Sink) (map[osm.NodeID]latLon, error) {
	scanner := osmpbf.New(context.Background(), f, 3)
	defer scanner.Close()

	locs := make(map[osm.NodeID]latLon, len(wanted))
	count := 0
	unreferenced := 0
	for scanner.Scan() {
		o := scanner.Object()
		if o.ObjectID().Type() != osm.TypeNode {
			continue
		}
		node := o.(*osm.Node)
		if _, ok := wanted[node.ID]; !ok {
			unreferenced++
			continue
		}
		locs[node.ID] = latLon{lat: node.Lat, lon: node.Lon}
		count++
		if count%10000 == 0 {
			progress.Add(10000)
		}
	}
	progress.Finish()
	if err := scanner.Err(); err != nil {
		return nil, domain.WrapErrorf(err, domain.ErrInvalidPbf, "scan nodes")
	}
	if unreferenced > 0 {
		sink.Warnf("osmloader: dropped %d nodes not referenced by any highway way", unreferenced)
	}
	return locs, nil
}

// largestConnectedComponent reduces the street graph to its largest
// connected component under an undirected adjacency view, per
// original_source/cascade-core/src/streets.rs. Disconnected slivers are
// reported through sink and dropped.
func largestConnectedComponent(edges []StreetEdge, sink domain.Sink) []StreetEdge {
	if len(edges) == 0 {
		return edges
	}

	adj := make(map[int64][]int64)
	for _, e := range edges {
		adj[e.FromID] = append(adj[e.FromID], e.ToID)
		adj[e.ToID] = append(adj[e.ToID], e.FromID)
	}

	// Component discovery order must be deterministic across runs -- ranging
	// over adj directly would make the id (and hence the tie-break below)
	// depend on Go's randomized map iteration order, so two byte-identical
	// PBF extracts could retain different halves of an evenly split graph.
	nodeIDs := make([]int64, 0, len(adj))
	for id := range adj {
		nodeIDs = append(nodeIDs, id)
	}
	sort.Slice(nodeIDs, func(i, j int) bool { return nodeIDs[i] < nodeIDs[j] })

	component := make(map[int64]int)
	sizes := []int{}
	for _, start := range nodeIDs {
		if _, seen := component[start]; seen {
			continue
		}
		id := len(sizes)
		size := 0
		stack := []int64{start}
		component[start] = id
		for len(stack) > 0 {
			n := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			size++
			for _, next := range adj[n] {
				if _, seen := component[next]; !seen {
					component[next] = id
					stack = append(stack, next)
				}
			}
		}
		sizes = append(sizes, size)
	}

	if len(sizes) <= 1 {
		return edges
	}

	largest, largestSize := 0, sizes[0]
	for id, size := range sizes {
		if size > largestSize {
			largest, largestSize = id, size
		}
	}

	kept := make([]StreetEdge, 0, len(edges))
	droppedNodes := 0
	for _, e := range edges {
		if component[e.FromID] == largest {
			kept = append(kept, e)
		} else {
			droppedNodes++
		}
	}
	if droppedNodes > 0 {
		sink.Warnf("osmloader: dropped %d edges outside the largest connected component (%d components found)",
			droppedNodes, len(sizes))
	}
	return kept
}

// Summary is a human-readable one-line description of the street layer.
func (r *Result) Summary() string {
	return fmt.Sprintf("%d street edges", len(r.Edges))
}
