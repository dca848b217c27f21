package column

import (
	"context"
	"encoding/binary"
	"fmt"

	"github.com/chunkfabric/eau2/kv"
)

const intItemSize = 4

// IntColumn holds int32 values, CHUNK_SIZE per fixed-width chunk, grounded
// in original_source/src/dataframe/column.h's IntColumn.
type IntColumn struct {
	base
}

// NewIntColumn creates an empty int column, named name, backed by store.
func NewIntColumn(store *kv.Store, name string, chunkSize int) *IntColumn {
	return &IntColumn{base: newBase(store, name, chunkSize)}
}

func (c *IntColumn) Kind() Kind { return Int }

// Clone returns a read handle over the same chunks with its own cache.
func (c *IntColumn) Clone() Column {
	clone := *c
	return &clone
}

func (c *IntColumn) Serialize() []byte {
	return serializeMeta(Int, c.length, c.name, c.chunkKeys)
}

// Push appends val, allocating a new CHUNK_SIZE*4-byte chunk when the
// current last chunk is full.
func (c *IntColumn) Push(ctx context.Context, val int32) error {
	if c.length%c.chunkSize == 0 {
		if err := c.allocateChunk(ctx); err != nil {
			return err
		}
	}
	idx := c.chunkIdx(c.length)
	item := c.itemIdx(c.length)

	chunk, err := c.fetchChunk(ctx, idx)
	if err != nil {
		return err
	}
	data := append([]byte(nil), chunk.Bytes()...)
	binary.LittleEndian.PutUint32(data[item*intItemSize:], uint32(val))
	if err := c.putChunk(ctx, idx, data); err != nil {
		return err
	}
	c.invalidateCache(idx)
	c.length++
	return nil
}

// Get returns the element at idx, which must be < Len().
func (c *IntColumn) Get(ctx context.Context, idx int) (int32, error) {
	if idx < 0 || idx >= c.length {
		return 0, fmt.Errorf("column: IntColumn.Get(%d): out of bounds (len=%d)", idx, c.length)
	}
	chunk, err := c.fetchChunk(ctx, c.chunkIdx(idx))
	if err != nil {
		return 0, err
	}
	item := c.itemIdx(idx)
	return int32(binary.LittleEndian.Uint32(chunk.Bytes()[item*intItemSize:])), nil
}

func (c *IntColumn) allocateChunk(ctx context.Context) error {
	idx := c.chunkIdx(c.length)
	key := chunkKeyFor(c.name, idx)
	if err := c.store.Put(ctx, key, kv.NewValue(make([]byte, c.chunkSize*intItemSize))); err != nil {
		return err
	}
	c.chunkKeys = append(c.chunkKeys, key)
	return nil
}
