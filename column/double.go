package column

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/chunkfabric/eau2/kv"
)

const doubleItemSize = 8

// DoubleColumn holds float64 values, CHUNK_SIZE per fixed-width chunk.
type DoubleColumn struct {
	base
}

func NewDoubleColumn(store *kv.Store, name string, chunkSize int) *DoubleColumn {
	return &DoubleColumn{base: newBase(store, name, chunkSize)}
}

func (c *DoubleColumn) Kind() Kind { return Double }

// Clone returns a read handle over the same chunks with its own cache.
func (c *DoubleColumn) Clone() Column {
	clone := *c
	return &clone
}

func (c *DoubleColumn) Serialize() []byte {
	return serializeMeta(Double, c.length, c.name, c.chunkKeys)
}

func (c *DoubleColumn) Push(ctx context.Context, val float64) error {
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
	binary.LittleEndian.PutUint64(data[item*doubleItemSize:], math.Float64bits(val))
	if err := c.putChunk(ctx, idx, data); err != nil {
		return err
	}
	c.invalidateCache(idx)
	c.length++
	return nil
}

func (c *DoubleColumn) Get(ctx context.Context, idx int) (float64, error) {
	if idx < 0 || idx >= c.length {
		return 0, fmt.Errorf("column: DoubleColumn.Get(%d): out of bounds (len=%d)", idx, c.length)
	}
	chunk, err := c.fetchChunk(ctx, c.chunkIdx(idx))
	if err != nil {
		return 0, err
	}
	item := c.itemIdx(idx)
	return math.Float64frombits(binary.LittleEndian.Uint64(chunk.Bytes()[item*doubleItemSize:])), nil
}

func (c *DoubleColumn) allocateChunk(ctx context.Context) error {
	idx := c.chunkIdx(c.length)
	key := chunkKeyFor(c.name, idx)
	if err := c.store.Put(ctx, key, kv.NewValue(make([]byte, c.chunkSize*doubleItemSize))); err != nil {
		return err
	}
	c.chunkKeys = append(c.chunkKeys, key)
	return nil
}
