package queryengine

import (
	"transitgraph/pkg/graph"

	"github.com/twpayne/go-polyline"
)

// RenderPolyline encodes an sp_path result as a polyline string, useful to
// callers that want to hand the path to a map renderer without re-deriving
// lat/lon from node indices themselves. A pure convenience alongside
// sp_path, not a replacement for its documented []node index return.
//
// Grounded on the teacher's datastructure.RenderPath/RenderPath2.
func RenderPolyline(g *graph.Graph, path []NodeIdx) string {
	coords := make([][]float64, 0, len(path))
	for _, idx := range path {
		n, ok := g.Node(idx)
		if !ok {
			continue
		}
		coords = append(coords, []float64{n.Lat, n.Lon})
	}
	return string(polyline.EncodeCoords(coords))
}
