// Package column implements the fabric's typed, append-only chunked column
// (spec.md §4.6), grounded in original_source/src/dataframe/column.h but
// rearchitected per the Design Notes: the C++ inheritance tower over
// Column/BoolColumn/IntColumn/DoubleColumn/StringColumn becomes a small
// closed Kind tag plus one Go type per element kind behind the Column
// interface; typed access is a checked Go type assertion to the concrete
// type.
package column

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/metrics"

	"github.com/chunkfabric/eau2/kv"
)

var (
	metricChunkFetches  = metrics.NewRegisteredCounter("column/chunk/fetches", nil)
	metricChunkCacheHit = metrics.NewRegisteredCounter("column/chunk/cachehit", nil)
)

// Kind tags a column's element type. Values match the original's ASCII
// type tags so wire bytes stay recognizable between implementations.
type Kind byte

const (
	Unknown Kind = 0
	Bool    Kind = 'B'
	Int     Kind = 'I'
	Double  Kind = 'D'
	String  Kind = 'S'
)

func (k Kind) String() string {
	switch k {
	case Bool:
		return "bool"
	case Int:
		return "int"
	case Double:
		return "double"
	case String:
		return "string"
	default:
		return fmt.Sprintf("Kind(%d)", byte(k))
	}
}

// DefaultChunkSize is the element count per fixed-width chunk absent an
// explicit override from config (spec.md §8, CHUNK_SIZE, typically 1024).
const DefaultChunkSize = 1024

// Column is the typed, chunked, append-only sequence backing one field of a
// dataframe. Every concrete column type (Bool/Int/Double/String) satisfies
// it; type-specific accessors live on the concrete types, not the
// interface, since a caller always knows which kind it expects (the
// original's as_bool/as_int/... checked-downcast pattern, collapsed into a
// plain Go type assertion against the concrete type the caller expects).
type Column interface {
	Kind() Kind
	Name() string
	Len() int
	ChunkKeys() []kv.Key
	Serialize() []byte

	// Clone returns a column sharing the same store, chunk keys and length
	// but an independent read cache, so a caller running concurrent reads
	// against the same underlying chunks (e.g. one clone per PMap worker
	// band) does not share base's unsynchronized hasCache/cachedIdx/
	// cachedChunk fields with the original or with any other clone
	// (spec.md §5: "concurrent reads of the same column from multiple
	// threads require external synchronization").
	Clone() Column
}

// base holds the fields and chunk bookkeeping shared by every concrete
// column type: the owning store, chunk key list, element count, the
// single-entry read cache for sealed chunks, and the configured chunk
// size. Concrete types embed base and add their own push/get plus the
// per-kind chunk byte-layout logic.
type base struct {
	store     *kv.Store
	name      string
	chunkKeys []kv.Key
	length    int
	chunkSize int

	hasCache    bool
	cachedIdx   int
	cachedChunk kv.Value
}

func newBase(store *kv.Store, name string, chunkSize int) base {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return base{store: store, name: name, chunkSize: chunkSize}
}

func (b *base) Name() string      { return b.name }
func (b *base) Len() int          { return b.length }
func (b *base) ChunkKeys() []kv.Key {
	out := make([]kv.Key, len(b.chunkKeys))
	copy(out, b.chunkKeys)
	return out
}

// chunkKeyFor derives key "<name>:0x<idx>", owner always 0 (spec.md §8:
// "Chunk key format... owner index 0").
func chunkKeyFor(name string, idx int) kv.Key {
	return kv.New(0, fmt.Sprintf("%s:0x%X", name, idx))
}

// chunkIdx and itemIdx split a fixed-width column's logical index into the
// chunk it lives in and its offset within that chunk.
func (b *base) chunkIdx(idx int) int { return idx / b.chunkSize }
func (b *base) itemIdx(idx int) int  { return idx % b.chunkSize }

// isLastChunk reports whether chunkIdx is the column's current last chunk,
// i.e. not yet sealed and therefore not cacheable.
func (b *base) isLastChunk(idx int) bool {
	return idx == len(b.chunkKeys)-1
}

// fetchChunk returns the bytes of chunk idx, going through the one-entry
// cache when idx is sealed (every chunk but the last). The last chunk is
// always re-read since a concurrent append may have mutated it.
func (b *base) fetchChunk(ctx context.Context, idx int) (kv.Value, error) {
	if b.isLastChunk(idx) {
		metricChunkFetches.Inc(1)
		v, ok, err := b.store.Get(ctx, b.chunkKeys[idx])
		if err != nil {
			return kv.Value{}, err
		}
		if !ok {
			return kv.Value{}, fmt.Errorf("column: chunk %d of %q missing", idx, b.name)
		}
		return v, nil
	}
	if b.hasCache && b.cachedIdx == idx {
		metricChunkCacheHit.Inc(1)
		return b.cachedChunk, nil
	}
	metricChunkFetches.Inc(1)
	v, ok, err := b.store.Get(ctx, b.chunkKeys[idx])
	if err != nil {
		return kv.Value{}, err
	}
	if !ok {
		return kv.Value{}, fmt.Errorf("column: chunk %d of %q missing", idx, b.name)
	}
	b.hasCache = true
	b.cachedIdx = idx
	b.cachedChunk = v
	return v, nil
}

// invalidateCache drops any sealed-chunk cache entry matching idx. Every
// Push calls it after writing a chunk; in practice it finds nothing to drop
// because only the unsealed last chunk changes by append, and that chunk
// is never cached.
func (b *base) invalidateCache(idx int) {
	if b.hasCache && b.cachedIdx == idx {
		b.hasCache = false
	}
}

// putChunk writes back chunk idx's bytes under its existing key. The
// chunk-key list is not touched; only new-chunk allocation appends a key.
func (b *base) putChunk(ctx context.Context, idx int, data []byte) error {
	return b.store.Put(ctx, b.chunkKeys[idx], kv.NewValue(data))
}
