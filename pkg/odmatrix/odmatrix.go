// Package odmatrix computes an origin-destination travel-time matrix by
// running one sssp_weights search per source point, fanned out across a
// worker pool, and snapping each target point to its nearest street node
// only once up front.
//
// Grounded on the teacher's alg.WorkerPool[T, G] dispatch pattern as used
// by many_to_many_bidijkstra.go: sized to runtime.NumCPU(), results
// collected into a map keyed by source id after every worker finishes so
// the output is deterministic regardless of scheduling order.
package odmatrix

import (
	"runtime"

	"transitgraph/domain"
	"transitgraph/pkg/concurrent"
	"transitgraph/pkg/graph"
	"transitgraph/pkg/queryengine"
)

// Point is one labeled query point of an OD request.
type Point struct {
	ID  string
	Lat float64
	Lon float64
}

// Matrix is the nested src_id -> dst_id -> seconds mapping. A missing
// dst entry (or queryengine.Unreachable value) means no path exists.
type Matrix map[string]map[string]float64

type targetSnap struct {
	id      string
	nodeIdx queryengine.NodeIdx
	exit    float64
}

type sourceResult struct {
	id  string
	row map[string]float64
}

// Build computes the full OD matrix for sources and targets at departure
// time t0. Sources are processed in parallel across runtime.NumCPU()
// workers; each worker runs its own independent sssp_weights call, so no
// shared mutable scratch state exists across workers.
func Build(g *graph.Graph, sources, targets []Point, t0 int64) (Matrix, error) {
	snappedTargets := make([]targetSnap, 0, len(targets))
	for _, t := range targets {
		entry, err := queryengine.ResolveEntryPoint(g, t.Lat, t.Lon)
		if err != nil {
			return nil, err
		}
		snappedTargets = append(snappedTargets, targetSnap{id: t.ID, nodeIdx: entry.NodeIdx, exit: entry.PenaltySeconds})
	}

	if len(sources) == 0 {
		return Matrix{}, nil
	}

	numWorkers := runtime.NumCPU()
	results := concurrent.RunAll(numWorkers, sources, func(src Point) sourceResult {
		entry, err := queryengine.ResolveEntryPoint(g, src.Lat, src.Lon)
		if err != nil {
			return sourceResult{id: src.ID, row: nil}
		}
		start := float64(t0) + entry.PenaltySeconds
		arrival, _, _ := queryengine.SSSPArrival(g, entry.NodeIdx, start)

		row := make(map[string]float64, len(snappedTargets))
		for _, tgt := range snappedTargets {
			if src.ID == tgt.id {
				row[tgt.id] = 0
				continue
			}
			tArr, ok := arrival[tgt.nodeIdx]
			if !ok {
				row[tgt.id] = queryengine.Unreachable
				continue
			}
			row[tgt.id] = (tArr - float64(t0)) + tgt.exit
		}
		return sourceResult{id: src.ID, row: row}
	})

	matrix := make(Matrix, len(sources))
	for _, r := range results {
		if r.row == nil {
			return nil, domain.WrapErrorf(nil, domain.ErrNoEntryPoint, "od_matrix: source %q has no entry point", r.id)
		}
		matrix[r.id] = r.row
	}
	return matrix, nil
}
