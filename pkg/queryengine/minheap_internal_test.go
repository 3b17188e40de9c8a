package queryengine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMinHeapExtractsInAscendingRankOrder(t *testing.T) {
	h := newMinHeap()
	h.insert(heapNode{Rank: 5, Item: 5})
	h.insert(heapNode{Rank: 1, Item: 1})
	h.insert(heapNode{Rank: 3, Item: 3})
	h.insert(heapNode{Rank: 2, Item: 2})
	h.insert(heapNode{Rank: 4, Item: 4})

	var order []NodeIdx
	for !h.isEmpty() {
		n, err := h.extractMin()
		require.NoError(t, err)
		order = append(order, n.Item)
	}
	assert.Equal(t, []NodeIdx{1, 2, 3, 4, 5}, order)
}

func TestMinHeapExtractMinOnEmptyHeapErrors(t *testing.T) {
	h := newMinHeap()
	_, err := h.extractMin()
	assert.Error(t, err)
}

func TestMinHeapAllowsDuplicateRanks(t *testing.T) {
	h := newMinHeap()
	h.insert(heapNode{Rank: 1, Item: 1})
	h.insert(heapNode{Rank: 1, Item: 2})
	assert.Equal(t, 2, h.size())

	first, err := h.extractMin()
	require.NoError(t, err)
	second, err := h.extractMin()
	require.NoError(t, err)
	assert.ElementsMatch(t, []NodeIdx{1, 2}, []NodeIdx{first.Item, second.Item})
}
