package queryengine_test

import (
	"testing"

	"transitgraph/pkg/graph"
	"transitgraph/pkg/queryengine"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderPolylineNonEmptyForNonEmptyPath(t *testing.T) {
	b := graph.NewBuilder()
	a := b.AddStreetNode(1, 0, 0)
	c := b.AddStreetNode(2, 0, 1)
	b.AddWalkEdge(a, c, 10)
	g, err := b.Finish()
	require.NoError(t, err)

	rendered := queryengine.RenderPolyline(g, []int32{a, c})
	assert.NotEmpty(t, rendered)
}

func TestRenderPolylineEmptyForEmptyPath(t *testing.T) {
	b := graph.NewBuilder()
	b.AddStreetNode(1, 0, 0)
	g, err := b.Finish()
	require.NoError(t, err)

	assert.Empty(t, queryengine.RenderPolyline(g, nil))
}
