// Command buildgraph is a thin smoke-test harness for the engine package:
// build a graph from a GTFS directory and an OSM PBF extract, print basic
// counts, and optionally run one sp_weight query. It is not a packaged CLI
// product -- CLI/packaging is a named non-goal -- this mirrors the
// teacher's cmd/preprocessing and cmd/auto entry points, scaled down to a
// single build-and-report pass.
package main

import (
	"flag"
	"fmt"
	"log"

	"transitgraph/engine"
	"transitgraph/pkg/graphcache"
)

var (
	pbfFile    = flag.String("pbf", "map.osm.pbf", "OSM PBF extract")
	gtfsDir    = flag.String("gtfs", "gtfs", "GTFS feed directory")
	weekday    = flag.String("weekday", "monday", "service day, lowercase english")
	departure  = flag.Int64("departure", 0, "departure epoch, seconds since service-day midnight")
	duration   = flag.Int64("duration", 24*3600, "retained window duration, seconds")
	srcLat     = flag.Float64("src-lat", 0, "optional sp_weight query source latitude")
	srcLon     = flag.Float64("src-lon", 0, "optional sp_weight query source longitude")
	dstLat     = flag.Float64("dst-lat", 0, "optional sp_weight query destination latitude")
	dstLon     = flag.Float64("dst-lon", 0, "optional sp_weight query destination longitude")
	runSPQuery = flag.Bool("query", false, "run one sp_weight query after building")
	cacheDir   = flag.String("cache", "", "optional graph cache directory; empty disables caching")
)

func main() {
	flag.Parse()

	eng := engine.New(nil, nil)

	if *cacheDir != "" {
		cache, err := graphcache.Open(*cacheDir)
		if err != nil {
			log.Fatalf("graphcache: open: %v", err)
		}
		defer cache.Close()
		eng.Cache = cache
	}

	g, err := eng.CreateGraph(*gtfsDir, *pbfFile, *departure, *duration, *weekday)
	if err != nil {
		log.Fatalf("create_graph: %v", err)
	}

	fmt.Printf("graph built: %d nodes\n", countNodes(eng, g))

	if *runSPQuery {
		weight, err := eng.SPWeight(g, *departure, *srcLat, *srcLon, *dstLat, *dstLon)
		if err != nil {
			log.Fatalf("sp_weight: %v", err)
		}
		fmt.Printf("sp_weight: %.2f seconds\n", weight)
	}
}

func countNodes(eng *engine.Engine, g *engine.Graph) int {
	count := 0
	for i := int32(0); ; i++ {
		if _, ok := eng.GetNode(g, i); !ok {
			break
		}
		count++
	}
	return count
}
