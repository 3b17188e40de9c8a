// Package assembler fuses an OSM street layer with a GTFS transit layer
// into a single graph.Graph: street nodes/edges from osmloader, stop nodes
// snapped to their nearest street node via a bidirectional Walk edge, and
// Transit edges built from GTFS trip segments.
//
// Grounded on original_source/cascade-core/src/graph.rs's TransitGraph
// assembly steps and streets.rs's connector-linking pass, adapted to this
// package's graph.Builder. The teacher repo has no direct analogue (it
// builds a single-mode road graph), so the wiring pattern for combining a
// street layer, a stop layer and worker-pool fan-out is grounded on the
// teacher's alg/worker_pool.go dispatch idiom instead.
package assembler

import (
	"runtime"

	"transitgraph/domain"
	"transitgraph/pkg/concurrent"
	"transitgraph/pkg/geo"
	"transitgraph/pkg/graph"
	"transitgraph/pkg/gtfsloader"
	"transitgraph/pkg/osmloader"
	"transitgraph/pkg/spatial"

	"github.com/uber/h3-go/v4"
)

// h3SnapResolution is the H3 cell resolution used to bucket stops before
// parallel snapping: resolution 8 cells span roughly 0.7 km^2, comparable to
// a city block, so workers assigned to distinct cells rarely contend on the
// same region of the R*-tree.
const h3SnapResolution = 8

// Build assembles a fresh graph from a parsed OSM street layer and a parsed
// GTFS layer. Returns domain.ErrDisconnectedStop if the street layer has no
// nodes to snap stops to.
func Build(osm *osmloader.Result, gtfs *gtfsloader.Result, sink domain.Sink) (*graph.Graph, error) {
	return assemble(graph.NewBuilder(), osm, gtfs, sink)
}

// ExtendWithTransit reuses an existing graph's street layer and adds a new
// GTFS layer's stops and transit edges on top, preserving every previously
// assigned node index. No street nodes or street edges are added, matching
// the operation's contract of only adding transit content.
func ExtendWithTransit(g *graph.Graph, gtfs *gtfsloader.Result, sink domain.Sink) (*graph.Graph, error) {
	return assemble(graph.NewBuilderFromGraph(g), nil, gtfs, sink)
}

func assemble(b *graph.Builder, osm *osmloader.Result, gtfs *gtfsloader.Result, sink domain.Sink) (*graph.Graph, error) {
	if sink == nil {
		sink = domain.DiscardSink{}
	}

	if osm != nil {
		for _, e := range osm.Edges {
			from := b.AddStreetNode(e.FromID, e.FromLat, e.FromLon)
			to := b.AddStreetNode(e.ToID, e.ToLat, e.ToLon)
			seconds := geo.WalkSeconds(e.Meters)
			b.AddWalkEdge(from, to, seconds)
			b.AddWalkEdge(to, from, seconds)
		}
	}

	if b.NodeCount() == 0 {
		return nil, domain.WrapErrorf(nil, domain.ErrDisconnectedStop, "assembler: no street nodes to snap stops to")
	}

	streetIdx := buildProvisionalIndex(b)
	if streetIdx.Empty() {
		return nil, domain.WrapErrorf(nil, domain.ErrDisconnectedStop, "assembler: street layer has no nodes")
	}

	snaps := snapStopsParallel(gtfs.Stops, streetIdx)

	stopIdx := make(map[string]int32, len(gtfs.Stops))
	for i, stop := range gtfs.Stops {
		snap := snaps[i]
		if !snap.ok {
			sink.Warnf("assembler: stop %q could not be snapped to the street layer, dropping", stop.StopID)
			continue
		}
		idx, isNew := b.AddStopNode(stop.StopID, stop.Lat, stop.Lon)
		if isNew {
			seconds := geo.WalkSeconds(snap.result.DistMeters)
			b.AddWalkEdge(idx, snap.result.NodeIdx, seconds)
			b.AddWalkEdge(snap.result.NodeIdx, idx, seconds)
		}
		stopIdx[stop.StopID] = idx
	}

	dropped := 0
	for _, seg := range gtfs.Segments {
		fromIdx, fromOK := stopIdx[seg.FromStopID]
		toIdx, toOK := stopIdx[seg.ToStopID]
		if !fromOK || !toOK {
			dropped++
			continue
		}
		b.AppendTransitSchedule(fromIdx, toIdx, seg.DepT, seg.ArrT)
	}
	if dropped > 0 {
		sink.Warnf("assembler: dropped %d transit segments referencing unsnapped stops", dropped)
	}

	return b.Finish()
}

// buildProvisionalIndex builds a spatial index over the street nodes
// currently in b, ahead of Builder.Finish's own index build, so that
// snapping can run before the final Graph exists.
func buildProvisionalIndex(b *graph.Builder) *spatial.Index {
	lats := make([]float64, 0, int(b.NodeCount()))
	lons := make([]float64, 0, int(b.NodeCount()))
	idxs := make([]int32, 0, int(b.NodeCount()))
	b.EachStreetNode(func(idx int32, lat, lon float64) {
		lats = append(lats, lat)
		lons = append(lons, lon)
		idxs = append(idxs, idx)
	})
	return spatial.Build(lats, lons, idxs)
}

type stopSnap struct {
	result spatial.Result
	ok     bool
}

type snapJob struct {
	index int
	stop  gtfsloader.Stop
}

// snapStopsParallel snaps every stop to its nearest street node, fanning
// work out across a worker pool bucketed by H3 cell so that concurrently
// running workers tend to touch disjoint regions of the R*-tree. Results
// are collected back into a slice indexed by the stop's original position,
// making the outcome identical to the sequential algorithm regardless of
// worker scheduling order.
func snapStopsParallel(stops []gtfsloader.Stop, idx *spatial.Index) []stopSnap {
	results := make([]stopSnap, len(stops))
	if len(stops) == 0 {
		return results
	}

	buckets := make(map[h3.Cell][]snapJob)
	for i, stop := range stops {
		cell := h3.LatLngToCell(h3.NewLatLng(stop.Lat, stop.Lon), h3SnapResolution)
		buckets[cell] = append(buckets[cell], snapJob{index: i, stop: stop})
	}

	jobs := make([][]snapJob, 0, len(buckets))
	for _, bucket := range buckets {
		jobs = append(jobs, bucket)
	}

	numWorkers := runtime.NumCPU()
	type bucketResult struct {
		jobs  []snapJob
		snaps []stopSnap
	}
	out := concurrent.RunAll(numWorkers, jobs, func(bucket []snapJob) bucketResult {
		snaps := make([]stopSnap, len(bucket))
		for i, job := range bucket {
			res, ok := idx.NearestOne(job.stop.Lat, job.stop.Lon)
			snaps[i] = stopSnap{result: res, ok: ok}
		}
		return bucketResult{jobs: bucket, snaps: snaps}
	})

	for _, br := range out {
		for i, job := range br.jobs {
			results[job.index] = br.snaps[i]
		}
	}
	return results
}
