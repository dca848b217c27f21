package column

import (
	"context"
	"fmt"

	"github.com/chunkfabric/eau2/kv"
	"github.com/chunkfabric/eau2/wire"
)

// StringColumn holds string values, CHUNK_SIZE elements per chunk, stored
// as a concatenation of NUL-terminated strings so a chunk's byte length
// varies while its element count stays fixed at the chunk boundary
// (spec.md §4.6: "capacity is byte-variable: the chunk grows by
// len(s)+1 on each push").
type StringColumn struct {
	base
}

func NewStringColumn(store *kv.Store, name string, chunkSize int) *StringColumn {
	return &StringColumn{base: newBase(store, name, chunkSize)}
}

func (c *StringColumn) Kind() Kind { return String }

// Clone returns a read handle over the same chunks with its own cache.
func (c *StringColumn) Clone() Column {
	clone := *c
	return &clone
}

func (c *StringColumn) Serialize() []byte {
	return serializeMeta(String, c.length, c.name, c.chunkKeys)
}

func (c *StringColumn) Push(ctx context.Context, val string) error {
	if c.length%c.chunkSize == 0 {
		if err := c.allocateChunk(ctx); err != nil {
			return err
		}
	}
	idx := c.chunkIdx(c.length)

	chunk, err := c.fetchChunk(ctx, idx)
	if err != nil {
		return err
	}
	data := wire.PutCString(append([]byte(nil), chunk.Bytes()...), val)
	if err := c.putChunk(ctx, idx, data); err != nil {
		return err
	}
	c.invalidateCache(idx)
	c.length++
	return nil
}

func (c *StringColumn) Get(ctx context.Context, idx int) (string, error) {
	if idx < 0 || idx >= c.length {
		return "", fmt.Errorf("column: StringColumn.Get(%d): out of bounds (len=%d)", idx, c.length)
	}
	chunk, err := c.fetchChunk(ctx, c.chunkIdx(idx))
	if err != nil {
		return "", err
	}
	item := c.itemIdx(idx)
	buf := chunk.Bytes()
	for i := 0; i < item; i++ {
		_, n := wire.CString(buf)
		buf = buf[n:]
	}
	s, _ := wire.CString(buf)
	return s, nil
}

func (c *StringColumn) allocateChunk(ctx context.Context) error {
	idx := c.chunkIdx(c.length)
	key := chunkKeyFor(c.name, idx)
	if err := c.store.Put(ctx, key, kv.NewValue([]byte{})); err != nil {
		return err
	}
	c.chunkKeys = append(c.chunkKeys, key)
	return nil
}
