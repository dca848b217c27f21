package column

import (
	"context"
	"fmt"

	"github.com/chunkfabric/eau2/kv"
)

// BoolColumn packs CHUNK_SIZE bits per chunk, one bit per element, matching
// the original's size_t-word bit-packing scheme but using plain bytes.
type BoolColumn struct {
	base
}

func NewBoolColumn(store *kv.Store, name string, chunkSize int) *BoolColumn {
	return &BoolColumn{base: newBase(store, name, chunkSize)}
}

func (c *BoolColumn) Kind() Kind { return Bool }

// Clone returns a read handle over the same chunks with its own cache.
func (c *BoolColumn) Clone() Column {
	clone := *c
	return &clone
}

func (c *BoolColumn) Serialize() []byte {
	return serializeMeta(Bool, c.length, c.name, c.chunkKeys)
}

func boolChunkBytes(chunkSize int) int {
	return (chunkSize + 7) / 8
}

func (c *BoolColumn) Push(ctx context.Context, val bool) error {
	if c.length%c.chunkSize == 0 {
		if err := c.allocateChunk(ctx); err != nil {
			return err
		}
	}
	idx := c.chunkIdx(c.length)
	bitPos := c.itemIdx(c.length)
	byteIdx, bitIdx := bitPos/8, uint(bitPos%8)

	chunk, err := c.fetchChunk(ctx, idx)
	if err != nil {
		return err
	}
	data := append([]byte(nil), chunk.Bytes()...)
	if val {
		data[byteIdx] |= 1 << bitIdx
	} else {
		data[byteIdx] &^= 1 << bitIdx
	}
	if err := c.putChunk(ctx, idx, data); err != nil {
		return err
	}
	c.invalidateCache(idx)
	c.length++
	return nil
}

func (c *BoolColumn) Get(ctx context.Context, idx int) (bool, error) {
	if idx < 0 || idx >= c.length {
		return false, fmt.Errorf("column: BoolColumn.Get(%d): out of bounds (len=%d)", idx, c.length)
	}
	chunk, err := c.fetchChunk(ctx, c.chunkIdx(idx))
	if err != nil {
		return false, err
	}
	bitPos := c.itemIdx(idx)
	byteIdx, bitIdx := bitPos/8, uint(bitPos%8)
	return (chunk.Bytes()[byteIdx]>>bitIdx)&1 == 1, nil
}

func (c *BoolColumn) allocateChunk(ctx context.Context) error {
	idx := c.chunkIdx(c.length)
	key := chunkKeyFor(c.name, idx)
	if err := c.store.Put(ctx, key, kv.NewValue(make([]byte, boolChunkBytes(c.chunkSize)))); err != nil {
		return err
	}
	c.chunkKeys = append(c.chunkKeys, key)
	return nil
}
