// Package engine exposes the callable surface of the transit graph system
// as a plain Go API: create_graph, extend_with_transit, sssp_weights,
// sp_weight, sp_path, od_matrix, get_node. The host-binding layer that
// would expose this table to a scripting language is an explicitly
// out-of-scope external collaborator; this package is the boundary that
// layer would sit behind.
package engine

import (
	"strconv"
	"time"

	"transitgraph/domain"
	"transitgraph/pkg/assembler"
	"transitgraph/pkg/graphcache"
	"transitgraph/pkg/gtfsloader"
	"transitgraph/pkg/metrics"
	"transitgraph/pkg/odmatrix"
	"transitgraph/pkg/osmloader"
	"transitgraph/pkg/queryengine"
	"transitgraph/pkg/validate"

	"transitgraph/pkg/graph"

	"github.com/prometheus/client_golang/prometheus"
)

// Graph is an opaque handle over the assembled transit graph, returned by
// CreateGraph and consumed by every query operation.
type Graph struct {
	g *graph.Graph
}

// Engine bundles the ambient concerns (warning sink, progress reporting,
// metrics, graph cache) every operation is run through. The zero value uses
// a discard sink, no progress reporting, no metrics registration, and no
// cache -- every CreateGraph call rebuilds from source.
type Engine struct {
	Sink     domain.Sink
	Progress func(description string) domain.Progress
	Metrics  *metrics.Metrics
	Cache    *graphcache.Cache
}

// New builds an Engine with the given warning sink and metrics registerer.
// Pass a nil sink to discard warnings, or a nil registerer to skip metrics.
func New(sink domain.Sink, reg prometheus.Registerer) *Engine {
	e := &Engine{Sink: sink}
	if reg != nil {
		e.Metrics = metrics.New(reg)
	}
	return e
}

func (e *Engine) sink() domain.Sink {
	if e.Sink == nil {
		return domain.DiscardSink{}
	}
	return e.Sink
}

func (e *Engine) progress(description string) domain.Progress {
	if e.Progress == nil {
		return domain.NoopProgress
	}
	return e.Progress(description)
}

// CreateGraph builds a new graph from a GTFS directory and an OSM PBF
// extract, restricted to one service day (weekday) and one departure
// window [departure, departure+duration). If e.Cache is set, a prior build
// with identical parameters is served from the on-disk snapshot instead of
// re-parsing the feed and extract.
func (e *Engine) CreateGraph(gtfsPath, pbfPath string, departure, duration int64, weekday string) (*Graph, error) {
	if err := validate.Struct(validate.BuildRequest{
		GTFSPath:  gtfsPath,
		PBFPath:   pbfPath,
		Departure: departure,
		Duration:  duration,
		Weekday:   weekday,
	}); err != nil {
		return nil, err
	}

	params := graphcache.BuildParams{
		GTFSPath: gtfsPath, PBFPath: pbfPath, Departure: departure, Duration: duration, Weekday: weekday,
	}
	if e.Cache != nil {
		if cached, ok, err := e.Cache.Get(params); err != nil {
			return nil, err
		} else if ok {
			return &Graph{g: cached}, nil
		}
	}

	start := time.Now()
	warnings := &domain.CountingSink{Inner: e.sink()}

	streets, err := osmloader.Load(pbfPath, e.progress("[1/3] reading osm pbf..."), warnings)
	if err != nil {
		return nil, err
	}

	transit, err := gtfsloader.Load(gtfsPath, gtfsloader.Weekday(weekday),
		gtfsloader.Window{Departure: departure, Duration: duration}, e.progress("[2/3] reading gtfs feed..."), warnings)
	if err != nil {
		return nil, err
	}

	g, err := assembler.Build(streets, transit, warnings)
	if err != nil {
		return nil, err
	}

	if e.Cache != nil {
		if err := e.Cache.Put(params, g); err != nil {
			return nil, err
		}
	}

	if e.Metrics != nil {
		e.Metrics.ObserveBuild(start, int(g.NodeCount()), countEdges(g), warnings.Count())
	}
	return &Graph{g: g}, nil
}

// ExtendWithTransit folds a new GTFS layer's stops and transit edges into
// an existing graph in place, preserving every previously assigned node
// index. The original OSM street layer is not re-read.
func (e *Engine) ExtendWithTransit(gh *Graph, gtfsPath string, departure, duration int64, weekday string) error {
	transit, err := gtfsloader.Load(gtfsPath, gtfsloader.Weekday(weekday),
		gtfsloader.Window{Departure: departure, Duration: duration}, e.progress("reading gtfs feed..."), e.sink())
	if err != nil {
		return err
	}

	extended, err := assembler.ExtendWithTransit(gh.g, transit, e.sink())
	if err != nil {
		return err
	}
	gh.g = extended
	return nil
}

// SSSPWeights returns the mapping node_index -> arrival_delay_seconds for
// every node reachable from (lat,lon) at absolute departure time t0.
func (e *Engine) SSSPWeights(gh *Graph, t0 int64, lat, lon float64) (map[int32]float64, error) {
	if err := validate.Struct(validate.Query{Departure: t0, Lat: lat, Lon: lon}); err != nil {
		return nil, err
	}

	start := time.Now()
	weights, err := queryengine.SSSPWeights(gh.g, t0, lat, lon)
	if e.Metrics != nil {
		outcome := "ok"
		if err != nil {
			outcome = "error"
		}
		e.Metrics.ObserveQuery("sssp_weights", start, outcome)
		if err == nil {
			e.Metrics.ObserveReachability(len(weights), int(gh.g.NodeCount()))
		}
	}
	return weights, err
}

// SPWeight returns the earliest-arrival travel time in seconds between two
// query points, or queryengine.Unreachable if no path exists.
func (e *Engine) SPWeight(gh *Graph, t0 int64, srcLat, srcLon, dstLat, dstLon float64) (float64, error) {
	if err := validate.Struct(validate.PointToPointQuery{
		Departure: t0, SrcLat: srcLat, SrcLon: srcLon, DstLat: dstLat, DstLon: dstLon,
	}); err != nil {
		return 0, err
	}

	start := time.Now()
	weight, err := queryengine.SPWeight(gh.g, t0, srcLat, srcLon, dstLat, dstLon)
	if e.Metrics != nil {
		outcome := "ok"
		if err != nil {
			outcome = "error"
		} else if weight == queryengine.Unreachable {
			outcome = "unreachable"
		}
		e.Metrics.ObserveQuery("sp_weight", start, outcome)
	}
	return weight, err
}

// SPPath returns the earliest-arrival path between two query points as an
// ordered sequence of node indices, or an empty slice if no path exists.
func (e *Engine) SPPath(gh *Graph, t0 int64, srcLat, srcLon, dstLat, dstLon float64) ([]int32, error) {
	if err := validate.Struct(validate.PointToPointQuery{
		Departure: t0, SrcLat: srcLat, SrcLon: srcLon, DstLat: dstLat, DstLon: dstLon,
	}); err != nil {
		return nil, err
	}

	start := time.Now()
	path, err := queryengine.SPPath(gh.g, t0, srcLat, srcLon, dstLat, dstLon)
	if e.Metrics != nil {
		outcome := "ok"
		if err != nil {
			outcome = "error"
		} else if len(path) == 0 {
			outcome = "unreachable"
		}
		e.Metrics.ObserveQuery("sp_path", start, outcome)
	}
	return path, err
}

// RenderPath encodes an SPPath result as a polyline string.
func (e *Engine) RenderPath(gh *Graph, path []int32) string {
	return queryengine.RenderPolyline(gh.g, path)
}

// ODMatrix computes the nested src_id -> dst_id -> seconds mapping for the
// given labeled source and target points at absolute departure time t0.
func (e *Engine) ODMatrix(gh *Graph, sources, targets []odmatrix.Point, t0 int64) (odmatrix.Matrix, error) {
	if err := validate.Struct(validate.ODRequest{
		Departure: t0,
		Sources:   toValidateODPoints(sources),
		Targets:   toValidateODPoints(targets),
	}); err != nil {
		return nil, err
	}

	start := time.Now()
	m, err := odmatrix.Build(gh.g, sources, targets, t0)
	if e.Metrics != nil {
		outcome := "ok"
		if err != nil {
			outcome = "error"
		}
		e.Metrics.ObserveQuery("od_matrix", start, outcome)
	}
	return m, err
}

// Node is the {kind, id, (lat,lon)} description get_node returns.
type Node struct {
	Kind string
	ID   string
	Lat  float64
	Lon  float64
}

// GetNode looks up one node by index.
func (e *Engine) GetNode(gh *Graph, index int32) (Node, bool) {
	n, ok := gh.g.Node(index)
	if !ok {
		return Node{}, false
	}
	switch n.Kind {
	case graph.Street:
		return Node{Kind: "street", ID: formatOSMID(n.OSMID), Lat: n.Lat, Lon: n.Lon}, true
	case graph.Stop:
		return Node{Kind: "stop", ID: n.StopID, Lat: n.Lat, Lon: n.Lon}, true
	default:
		return Node{}, false
	}
}

func formatOSMID(id int64) string {
	return strconv.FormatInt(id, 10)
}

func toValidateODPoints(points []odmatrix.Point) []validate.ODPoint {
	out := make([]validate.ODPoint, len(points))
	for i, p := range points {
		out[i] = validate.ODPoint{ID: p.ID, Lat: p.Lat, Lon: p.Lon}
	}
	return out
}

func countEdges(g *graph.Graph) int {
	count := 0
	for i := int32(0); i < g.NodeCount(); i++ {
		count += len(g.OutEdges(i))
	}
	return count
}
