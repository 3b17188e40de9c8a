package graph

import (
	"encoding/gob"
	"io"
)

// snapshot is the gob-serializable form of a Graph: every field needed to
// reconstruct it, including the street spatial index, which is rebuilt
// rather than encoded (an R*-tree is cheap to rebuild from street nodes and
// gob cannot serialize rtreego's internal pointers).
type snapshot struct {
	Nodes       []Node
	Adj         [][]Edge
	Schedules   []SchedulePair
	OSMIDIndex  map[int64]int32
	StopIDIndex map[string]int32
}

// Encode gob-encodes g to w. Used by the graph cache to persist a fully
// assembled graph; the spatial index is not part of the encoding and is
// rebuilt on Decode.
func Encode(w io.Writer, g *Graph) error {
	snap := snapshot{
		Nodes:       g.nodes,
		Adj:         g.adj,
		Schedules:   g.schedules,
		OSMIDIndex:  g.osmIDIndex,
		StopIDIndex: g.stopIDIndex,
	}
	return gob.NewEncoder(w).Encode(&snap)
}

// Decode reconstructs a Graph from bytes written by Encode, rebuilding the
// street spatial index from the decoded nodes.
func Decode(r io.Reader) (*Graph, error) {
	var snap snapshot
	if err := gob.NewDecoder(r).Decode(&snap); err != nil {
		return nil, err
	}
	return &Graph{
		nodes:       snap.Nodes,
		adj:         snap.Adj,
		schedules:   snap.Schedules,
		streetIdx:   buildStreetIndex(snap.Nodes),
		osmIDIndex:  snap.OSMIDIndex,
		stopIDIndex: snap.StopIDIndex,
	}, nil
}
