// Package graphcache is an optional on-disk cache for a fully assembled
// graph.Graph, keyed by a hash of the parameters that determine its
// contents. Rebuilding from a multi-gigabyte PBF + GTFS feed is the most
// expensive operation in the system, so a repeat create_graph call with
// identical build parameters can be served from a gob-encoded,
// zstd-compressed snapshot instead of re-parsing.
//
// Grounded on the teacher's pkg/kv (pebble-backed KV store) and
// zstd_compression.go. The teacher encodes its cached value with
// github.com/kelindar/binary, but that package is not declared in the
// teacher's own go.mod (only referenced from one file) -- it is not a real,
// resolvable dependency of this corpus, so this cache encodes with the
// standard library's encoding/gob instead and keeps the teacher's actual
// DataDog/zstd dependency for compression.
package graphcache

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"transitgraph/pkg/graph"

	"github.com/DataDog/zstd"
	"github.com/cockroachdb/pebble"
)

// BuildParams identifies a create_graph call's inputs. Two calls with equal
// BuildParams produce byte-identical graphs, so the second can be served
// from cache.
type BuildParams struct {
	GTFSPath  string
	PBFPath   string
	Departure int64
	Duration  int64
	Weekday   string
}

// Key derives the cache key for params: a hex-encoded sha256 over its
// fields, not the struct's Go representation, so the key is stable across
// processes and Go versions.
func (p BuildParams) Key() []byte {
	h := sha256.New()
	fmt.Fprintf(h, "%s\x00%s\x00%d\x00%d\x00%s", p.GTFSPath, p.PBFPath, p.Departure, p.Duration, p.Weekday)
	return []byte(hex.EncodeToString(h.Sum(nil)))
}

// Cache wraps a pebble.DB storing zstd-compressed gob snapshots of
// assembled graphs. create_graph consults it as a fast path only;
// extend_with_transit always operates on the in-memory graph and never
// reads or writes the cache.
type Cache struct {
	db *pebble.DB
}

// Open opens (or creates) a pebble database at dir to back the cache.
func Open(dir string) (*Cache, error) {
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, err
	}
	return &Cache{db: db}, nil
}

func (c *Cache) Close() error {
	return c.db.Close()
}

// Get returns the cached graph for params, or ok=false on a cache miss.
func (c *Cache) Get(params BuildParams) (g *graph.Graph, ok bool, err error) {
	val, closer, err := c.db.Get(params.Key())
	if err == pebble.ErrNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	defer closer.Close()

	raw, err := zstd.Decompress(nil, val)
	if err != nil {
		return nil, false, fmt.Errorf("graphcache: decompress: %w", err)
	}

	g, err = graph.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, false, fmt.Errorf("graphcache: decode: %w", err)
	}
	return g, true, nil
}

// Put stores g under params's key, overwriting any prior snapshot.
func (c *Cache) Put(params BuildParams, g *graph.Graph) error {
	var buf bytes.Buffer
	if err := graph.Encode(&buf, g); err != nil {
		return fmt.Errorf("graphcache: encode: %w", err)
	}

	compressed, err := zstd.Compress(nil, buf.Bytes())
	if err != nil {
		return fmt.Errorf("graphcache: compress: %w", err)
	}

	return c.db.Set(params.Key(), compressed, pebble.Sync)
}
