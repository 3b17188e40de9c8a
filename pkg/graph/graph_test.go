package graph_test

import (
	"testing"

	"transitgraph/pkg/graph"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilderIndexStability(t *testing.T) {
	t.Run("street and stop indices are dense and contiguous", func(t *testing.T) {
		b := graph.NewBuilder()
		a := b.AddStreetNode(1, 0, 0)
		c := b.AddStreetNode(2, 0, 0)
		stop, isNew := b.AddStopNode("S1", 0, 0)

		assert.Equal(t, int32(0), a)
		assert.Equal(t, int32(1), c)
		assert.Equal(t, int32(2), stop)
		assert.True(t, isNew)
		assert.Equal(t, int32(3), b.NodeCount())
	})

	t.Run("re-adding the same osm id returns the existing index", func(t *testing.T) {
		b := graph.NewBuilder()
		first := b.AddStreetNode(7, 1, 1)
		second := b.AddStreetNode(7, 1, 1)
		assert.Equal(t, first, second)
		assert.Equal(t, int32(1), b.NodeCount())
	})
}

func TestExtendWithTransitPreservesIndices(t *testing.T) {
	b := graph.NewBuilder()
	street := b.AddStreetNode(1, 0, 0)
	stop, _ := b.AddStopNode("S1", 0, 0)
	b.AddWalkEdge(street, stop, 10)
	b.AddWalkEdge(stop, street, 10)
	b.AppendTransitSchedule(stop, stop, 100, 200)
	g, err := b.Finish()
	require.NoError(t, err)

	b2 := graph.NewBuilderFromGraph(g)
	reusedStreet, ok := b2.StreetNodeIdx(1)
	require.True(t, ok)
	reusedStop, ok := b2.StopNodeIdx("S1")
	require.True(t, ok)
	assert.Equal(t, street, reusedStreet)
	assert.Equal(t, stop, reusedStop)

	newStop, isNew := b2.AddStopNode("S2", 1, 1)
	assert.True(t, isNew)
	assert.Equal(t, g.NodeCount(), newStop)

	b2.AppendTransitSchedule(stop, newStop, 300, 400)
	g2, err := b2.Finish()
	require.NoError(t, err)
	assert.Equal(t, g.NodeCount()+1, g2.NodeCount())
}

func TestScheduleSortedAscendingOnDepT(t *testing.T) {
	b := graph.NewBuilder()
	a, _ := b.AddStopNode("A", 0, 0)
	c, _ := b.AddStopNode("B", 0, 0)

	b.AppendTransitSchedule(a, c, 500, 600)
	b.AppendTransitSchedule(a, c, 100, 200)
	b.AppendTransitSchedule(a, c, 300, 350)

	g, err := b.Finish()
	require.NoError(t, err)

	var edge graph.Edge
	for _, e := range g.OutEdges(a) {
		if e.To == c {
			edge = e
		}
	}
	sched := g.Schedule(edge)
	require.Len(t, sched, 3)
	assert.Equal(t, int64(100), sched[0].DepT)
	assert.Equal(t, int64(300), sched[1].DepT)
	assert.Equal(t, int64(500), sched[2].DepT)
}

func TestFinishRejectsDepAfterArr(t *testing.T) {
	b := graph.NewBuilder()
	a, _ := b.AddStopNode("A", 0, 0)
	c, _ := b.AddStopNode("B", 0, 0)
	b.AppendTransitSchedule(a, c, 200, 100)

	_, err := b.Finish()
	require.Error(t, err)
}

func TestEdgeWeightTransitBinarySearch(t *testing.T) {
	b := graph.NewBuilder()
	a, _ := b.AddStopNode("A", 0, 0)
	c, _ := b.AddStopNode("B", 0, 0)
	b.AppendTransitSchedule(a, c, 100, 160)
	b.AppendTransitSchedule(a, c, 165, 250)
	g, err := b.Finish()
	require.NoError(t, err)

	edge := g.OutEdges(a)[0]

	_, arrival, ok := edge.Weight(g, 50)
	require.True(t, ok)
	assert.Equal(t, 160.0, arrival)

	_, arrival, ok = edge.Weight(g, 161)
	require.True(t, ok)
	assert.Equal(t, 250.0, arrival)

	_, _, ok = edge.Weight(g, 251)
	assert.False(t, ok)
}

func TestEdgeWeightWalkPreservesFractionalSeconds(t *testing.T) {
	b := graph.NewBuilder()
	a := b.AddStreetNode(1, 0, 0)
	c := b.AddStreetNode(2, 0, 0)
	b.AddWalkEdge(a, c, 115.83)
	g, err := b.Finish()
	require.NoError(t, err)

	edge := g.OutEdges(a)[0]
	delay, arrival, ok := edge.Weight(g, 100)
	require.True(t, ok)
	assert.Equal(t, 115.83, delay)
	assert.InDelta(t, 215.83, arrival, 0.001)
}

func TestEdgeWeightWalkAlwaysTraversable(t *testing.T) {
	b := graph.NewBuilder()
	a := b.AddStreetNode(1, 0, 0)
	c := b.AddStreetNode(2, 0, 0)
	b.AddWalkEdge(a, c, 42)
	g, err := b.Finish()
	require.NoError(t, err)

	edge := g.OutEdges(a)[0]
	delay, arrival, ok := edge.Weight(g, 1000)
	require.True(t, ok)
	assert.Equal(t, 42.0, delay)
	assert.Equal(t, 1042.0, arrival)
}
