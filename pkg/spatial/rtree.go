// Package spatial wraps an R*-tree over street-node coordinates, used both
// by the assembler (snapping GTFS stops to the street layer) and by the
// query engine (snapping arbitrary query points to an entry/exit node).
//
// Grounded on the teacher's alg/rtree.go (github.com/dhconnelly/rtreego)
// generalized from the teacher's linear-scan-then-rtree hybrid in
// road_snaping.go into a single R*-tree lookup, matching the
// expected-O(log n) nearest_one contract of the specification.
package spatial

import (
	"transitgraph/pkg/geo"

	"github.com/dhconnelly/rtreego"
)

const tolerance = 0.0001

// streetPoint is the payload stored in the R*-tree: a street node's
// coordinates plus the dense node index it corresponds to in the graph.
type streetPoint struct {
	location rtreego.Point
	nodeIdx  int32
}

func (s *streetPoint) Bounds() rtreego.Rect {
	return s.location.ToRect(tolerance)
}

// Index is an immutable R*-tree over street-node coordinates. Built once
// from the final set of street nodes; never mutated afterward.
type Index struct {
	tree *rtreego.Rtree
	size int
}

// Build constructs the index from parallel lat/lon/nodeIdx slices. The
// three slices must have equal length.
func Build(lats, lons []float64, nodeIdxs []int32) *Index {
	tree := rtreego.NewTree(2, 25, 50)
	for i := range lats {
		tree.Insert(&streetPoint{
			location: rtreego.Point{lats[i], lons[i]},
			nodeIdx:  nodeIdxs[i],
		})
	}
	return &Index{tree: tree, size: len(lats)}
}

// Empty reports whether the index holds no points.
func (idx *Index) Empty() bool {
	return idx.size == 0
}

// Result is a nearest-neighbor lookup result: the matched node index and
// the Haversine distance to it, in meters.
type Result struct {
	NodeIdx    int32
	DistMeters float64
}

// NearestOne returns the nearest street node to (lat, lon) and the
// Haversine distance to it. ok is false if the index holds no points.
//
// Ranking inside the tree uses Euclidean distance in (lat, lon) space;
// the reported distance is recomputed with Haversine, which may disagree
// with the Euclidean ranking for extremely close candidates -- acceptable
// because the resulting error is bounded well below one node spacing.
func (idx *Index) NearestOne(lat, lon float64) (Result, bool) {
	if idx.size == 0 {
		return Result{}, false
	}

	query := rtreego.Point{lat, lon}
	neighbors := idx.tree.NearestNeighbors(1, query)
	if len(neighbors) == 0 {
		return Result{}, false
	}

	nearest := neighbors[0].(*streetPoint)
	dist := geo.HaversineMetersDeg(lat, lon, nearest.location[0], nearest.location[1])

	return Result{NodeIdx: nearest.nodeIdx, DistMeters: dist}, true
}
