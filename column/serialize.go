package column

import (
	"fmt"

	"github.com/chunkfabric/eau2/kv"
	"github.com/chunkfabric/eau2/wire"
)

// serializeMeta encodes the shared column header
// <type:1><len:4><name:c-string><count:4>[chunk_key...], writing the chunk-key
// count explicitly rather than deriving it on read (spec.md §9 resolves
// the original's off-by-one/variable-width ambiguity this way).
func serializeMeta(k Kind, length int, name string, chunkKeys []kv.Key) []byte {
	buf := make([]byte, 0, 1+4+len(name)+1+len(chunkKeys)*24)
	buf = append(buf, byte(k))
	lenBuf := make([]byte, 4)
	wire.PutUint32(lenBuf, uint32(length))
	buf = append(buf, lenBuf...)
	buf = wire.PutCString(buf, name)
	countBuf := make([]byte, 4)
	wire.PutUint32(countBuf, uint32(len(chunkKeys)))
	buf = append(buf, countBuf...)
	for _, ck := range chunkKeys {
		buf = append(buf, ck.Marshal()...)
	}
	return buf
}

type meta struct {
	kind      Kind
	length    int
	name      string
	chunkKeys []kv.Key
}

func deserializeMeta(buf []byte) (meta, int) {
	k := Kind(buf[0])
	off := 1
	length := int(wire.Uint32(buf[off : off+4]))
	off += 4
	name, n := wire.CString(buf[off:])
	off += n
	count := int(wire.Uint32(buf[off : off+4]))
	off += 4
	keys := make([]kv.Key, count)
	for i := 0; i < count; i++ {
		key, kn := kv.UnmarshalKey(buf[off:])
		keys[i] = key
		off += kn
	}
	return meta{kind: k, length: length, name: name, chunkKeys: keys}, off
}

// Deserialize reconstructs a read handle for a column from bytes produced
// by Serialize, attaching it to store for subsequent chunk fetches.
func Deserialize(buf []byte, store *kv.Store, chunkSize int) (Column, error) {
	m, _ := deserializeMeta(buf)
	b := base{store: store, name: m.name, chunkKeys: m.chunkKeys, length: m.length, chunkSize: chunkSize}
	if b.chunkSize <= 0 {
		b.chunkSize = DefaultChunkSize
	}
	switch m.kind {
	case Bool:
		return &BoolColumn{base: b}, nil
	case Int:
		return &IntColumn{base: b}, nil
	case Double:
		return &DoubleColumn{base: b}, nil
	case String:
		return &StringColumn{base: b}, nil
	default:
		return nil, fmt.Errorf("column: invalid type tag %d", byte(m.kind))
	}
}
