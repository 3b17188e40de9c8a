package queryengine_test

import (
	"errors"
	"testing"

	"transitgraph/domain"
	"transitgraph/pkg/geo"
	"transitgraph/pkg/graph"
	"transitgraph/pkg/queryengine"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSPWeightWalkOnlyChain(t *testing.T) {
	b := graph.NewBuilder()
	a := b.AddStreetNode(1, 0, 0)
	mid := b.AddStreetNode(2, 0, 1)
	c := b.AddStreetNode(3, 0, 2)
	b.AddWalkEdge(a, mid, 100)
	b.AddWalkEdge(mid, c, 115.83)
	g, err := b.Finish()
	require.NoError(t, err)

	weight, err := queryengine.SPWeight(g, 0, 0, 0, 0, 2)
	require.NoError(t, err)
	assert.InDelta(t, 215.83, weight, 0.001)
}

func TestSPWeightSingleTransitTrip(t *testing.T) {
	b := graph.NewBuilder()
	streetSrc := b.AddStreetNode(1, 0, 0)
	stopA, _ := b.AddStopNode("A", 0, 0)
	streetDst := b.AddStreetNode(2, 0, 1)
	stopB, _ := b.AddStopNode("B", 0, 1)
	b.AddWalkEdge(streetSrc, stopA, 0)
	b.AddWalkEdge(stopB, streetDst, 0)
	b.AppendTransitSchedule(stopA, stopB, 100, 250)
	g, err := b.Finish()
	require.NoError(t, err)

	weight, err := queryengine.SPWeight(g, 0, 0, 0, 0, 1)
	require.NoError(t, err)
	assert.Equal(t, 250.0, weight)
}

func TestEdgeWeightAlwaysTakesEarliestFeasibleDeparture(t *testing.T) {
	// A non-FIFO schedule: the later-departing trip (dep 100) arrives before
	// the earlier-departing one (dep 50). The documented relaxation rule
	// binary-searches for the smallest dep_t >= t and stops there -- it does
	// not look further down the schedule for a later departure with an
	// earlier arrival.
	b := graph.NewBuilder()
	a, _ := b.AddStopNode("A", 0, 0)
	c, _ := b.AddStopNode("B", 0, 1)
	b.AppendTransitSchedule(a, c, 50, 500)
	b.AppendTransitSchedule(a, c, 100, 150)
	g, err := b.Finish()
	require.NoError(t, err)

	edge := g.OutEdges(a)[0]
	_, arrival, ok := edge.Weight(g, 40)
	require.True(t, ok)
	assert.Equal(t, 500.0, arrival)
}

func TestSPWeightUnreachableWhenNoPath(t *testing.T) {
	b := graph.NewBuilder()
	b.AddStreetNode(1, 0, 0)
	b.AddStreetNode(2, 0, 1)
	g, err := b.Finish()
	require.NoError(t, err)

	weight, err := queryengine.SPWeight(g, 0, 0, 0, 0, 1)
	require.NoError(t, err)
	assert.Equal(t, queryengine.Unreachable, weight)
}

func TestSPPathRoundTripsToSPWeight(t *testing.T) {
	b := graph.NewBuilder()
	a := b.AddStreetNode(1, 0, 0)
	mid := b.AddStreetNode(2, 0, 1)
	c := b.AddStreetNode(3, 0, 2)
	b.AddWalkEdge(a, mid, 40)
	b.AddWalkEdge(mid, c, 60)
	g, err := b.Finish()
	require.NoError(t, err)

	path, err := queryengine.SPPath(g, 0, 0, 0, 0, 2)
	require.NoError(t, err)
	require.Equal(t, []int32{a, mid, c}, path)

	weight, err := queryengine.SPWeight(g, 0, 0, 0, 0, 2)
	require.NoError(t, err)

	recomputed := 0.0
	t0 := 0.0
	for i := 0; i < len(path)-1; i++ {
		var edge graph.Edge
		for _, e := range g.OutEdges(path[i]) {
			if e.To == path[i+1] {
				edge = e
			}
		}
		delay, arrival, ok := edge.Weight(g, t0)
		require.True(t, ok)
		recomputed += delay
		t0 = arrival
	}
	assert.Equal(t, weight, recomputed)
}

func TestSSSPWeightsCountsEntryPenaltyOnlyOnce(t *testing.T) {
	// The query point doesn't sit exactly on node a, so ResolveEntryPoint
	// charges a non-zero snap penalty. That penalty is already baked into
	// the search's start time -- it must not be added a second time when
	// reporting each node's delay.
	b := graph.NewBuilder()
	a := b.AddStreetNode(1, 0, 0)
	c := b.AddStreetNode(2, 0, 1)
	b.AddWalkEdge(a, c, 50)
	g, err := b.Finish()
	require.NoError(t, err)

	const queryLat, queryLon = 0, 0.01
	penalty := geo.WalkSeconds(geo.HaversineMetersDeg(queryLat, queryLon, 0, 0))
	require.Greater(t, penalty, 0.0)

	weights, err := queryengine.SSSPWeights(g, 0, queryLat, queryLon)
	require.NoError(t, err)
	assert.InDelta(t, penalty, weights[a], 0.001)
	assert.InDelta(t, penalty+50, weights[c], 0.001)
}

func TestResolveEntryPointFailsOnEmptyStreetIndex(t *testing.T) {
	b := graph.NewBuilder()
	b.AddStopNode("A", 0, 0)
	g, err := b.Finish()
	require.NoError(t, err)

	_, err = queryengine.ResolveEntryPoint(g, 0, 0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNoEntryPoint))
}
