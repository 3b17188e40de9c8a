// Package queryengine implements time-dependent Dijkstra over a
// graph.Graph: single-source shortest arrival times, point-to-point
// shortest weight with early stop, and path reconstruction, plus
// (x,y)-query-point resolution to an entry/exit street node.
//
// Grounded on the teacher's pkg/contractor/priority_queue.go MinHeap[T]
// (generalized from int32 specifically to this package's node-index type,
// which is already int32, so the constraint is unchanged) and on
// original_source/cascade-core/src/algo.rs's time-dependent relaxation
// rule (binary-search the schedule for the smallest dep_t >= t_u).
package queryengine

import "errors"

// NodeIdx is a graph node index, matching graph.Graph's index type.
type NodeIdx = int32

// heapNode is one entry of the priority queue: a node keyed by tentative
// arrival time (Rank), not distance -- arrival time is what time-dependent
// edge relaxation needs.
type heapNode struct {
	Rank float64
	Item NodeIdx
}

// minHeap is a binary-heap min-priority-queue over heapNode, keyed on Rank.
// Grounded on the teacher's MinHeap[T], trimmed to Insert/ExtractMin: this
// package's Dijkstra never needs DecreaseKey/DeleteNode since a settled-set
// check plus lazy deletion of stale heap entries handles staleness instead.
type minHeap struct {
	heap []heapNode
}

func newMinHeap() *minHeap {
	return &minHeap{heap: make([]heapNode, 0)}
}

func (h *minHeap) parent(i int) int { return (i - 1) / 2 }
func (h *minHeap) left(i int) int   { return 2*i + 1 }
func (h *minHeap) right(i int) int  { return 2*i + 2 }

func (h *minHeap) swap(i, j int) {
	h.heap[i], h.heap[j] = h.heap[j], h.heap[i]
}

func (h *minHeap) heapifyUp(i int) {
	for i != 0 && h.heap[i].Rank < h.heap[h.parent(i)].Rank {
		h.swap(i, h.parent(i))
		i = h.parent(i)
	}
}

func (h *minHeap) heapifyDown(i int) {
	smallest := i
	if l := h.left(i); l < len(h.heap) && h.heap[l].Rank < h.heap[smallest].Rank {
		smallest = l
	}
	if r := h.right(i); r < len(h.heap) && h.heap[r].Rank < h.heap[smallest].Rank {
		smallest = r
	}
	if smallest != i {
		h.swap(i, smallest)
		h.heapifyDown(smallest)
	}
}

func (h *minHeap) isEmpty() bool { return len(h.heap) == 0 }

func (h *minHeap) size() int { return len(h.heap) }

func (h *minHeap) insert(n heapNode) {
	h.heap = append(h.heap, n)
	h.heapifyUp(h.size() - 1)
}

func (h *minHeap) extractMin() (heapNode, error) {
	if h.isEmpty() {
		return heapNode{}, errors.New("heap is empty")
	}
	root := h.heap[0]
	last := h.size() - 1
	h.heap[0] = h.heap[last]
	h.heap = h.heap[:last]
	if !h.isEmpty() {
		h.heapifyDown(0)
	}
	return root, nil
}
