package odmatrix_test

import (
	"testing"

	"transitgraph/pkg/graph"
	"transitgraph/pkg/odmatrix"
	"transitgraph/pkg/queryengine"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildChainGraph(t *testing.T) (*graph.Graph, []odmatrix.Point) {
	t.Helper()
	b := graph.NewBuilder()
	nodes := make([]int32, 4)
	for i := range nodes {
		nodes[i] = b.AddStreetNode(int64(i), 0, float64(i))
	}
	for i := 0; i < len(nodes)-1; i++ {
		b.AddWalkEdge(nodes[i], nodes[i+1], 10)
		b.AddWalkEdge(nodes[i+1], nodes[i], 10)
	}
	g, err := b.Finish()
	require.NoError(t, err)

	points := []odmatrix.Point{
		{ID: "A", Lat: 0, Lon: 0},
		{ID: "B", Lat: 0, Lon: 1},
		{ID: "C", Lat: 0, Lon: 2},
		{ID: "D", Lat: 0, Lon: 3},
	}
	return g, points
}

func TestODMatrixDiagonalIsZero(t *testing.T) {
	g, points := buildChainGraph(t)
	matrix, err := odmatrix.Build(g, points, points, 0)
	require.NoError(t, err)

	for _, p := range points {
		assert.Equal(t, 0.0, matrix[p.ID][p.ID])
	}
}

func TestODMatrixMatchesIndependentSPWeightCalls(t *testing.T) {
	g, points := buildChainGraph(t)
	matrix, err := odmatrix.Build(g, points, points, 0)
	require.NoError(t, err)

	for _, src := range points {
		for _, dst := range points {
			want, err := queryengine.SPWeight(g, 0, src.Lat, src.Lon, dst.Lat, dst.Lon)
			require.NoError(t, err)
			assert.Equal(t, want, matrix[src.ID][dst.ID], "src=%s dst=%s", src.ID, dst.ID)
		}
	}
}

func TestODMatrixIsDeterministicAcrossRuns(t *testing.T) {
	g, points := buildChainGraph(t)

	first, err := odmatrix.Build(g, points, points, 0)
	require.NoError(t, err)
	second, err := odmatrix.Build(g, points, points, 0)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestODMatrixWithDisjointSourcesAndTargets(t *testing.T) {
	g, points := buildChainGraph(t)
	sources := points[:2]
	targets := points[2:]

	matrix, err := odmatrix.Build(g, sources, targets, 0)
	require.NoError(t, err)

	require.Len(t, matrix, 2)
	assert.Equal(t, 20.0, matrix["A"]["C"])
	assert.Equal(t, 30.0, matrix["A"]["D"])
	assert.Equal(t, 10.0, matrix["B"]["C"])
	assert.Equal(t, 20.0, matrix["B"]["D"])
}
