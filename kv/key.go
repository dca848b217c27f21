// Package kv implements the fabric's typed key/value layer: the Key and
// Value wire types, the node-local bucket map (spec.md §4.4), and the
// KVStore facade that transparently routes a Get/GetAndWait/Put to the
// local map or to the owning peer (spec.md §4.5). It is grounded in
// original_source/src/kvstore/{keyvalue,map,keyvaluestore}.h, rearchitected
// per the Design Notes: owned copies in and out, no borrowed pointers.
package kv

import "github.com/chunkfabric/eau2/wire"

// NodeIndex names a peer's position in the fixed registry directory.
type NodeIndex int

// Key is (owner node, name). Equality and hashing combine both fields; a Key
// is immutable once constructed.
type Key struct {
	Owner NodeIndex
	Name  string
}

// New constructs a Key. The zero value is not meaningful on its own, so
// construction always goes through here or Marshal/Unmarshal.
func New(owner NodeIndex, name string) Key {
	return Key{Owner: owner, Name: name}
}

// Equal reports key equality by value, not identity.
func (k Key) Equal(o Key) bool {
	return k.Owner == o.Owner && k.Name == o.Name
}

// Marshal encodes the key as owner:uint32 | name:c-string (spec.md §6).
func (k Key) Marshal() []byte {
	buf := make([]byte, 0, 4+len(k.Name)+1)
	buf = append(buf, 0, 0, 0, 0)
	wire.PutUint32(buf, uint32(k.Owner))
	buf = wire.PutCString(buf, k.Name)
	return buf
}

// UnmarshalKey is the inverse of Key.Marshal and reports the number of
// bytes consumed, so callers can pack additional data (e.g. a Put's value)
// after the key in the same buffer.
func UnmarshalKey(buf []byte) (Key, int) {
	owner := wire.Uint32(buf[:4])
	name, n := wire.CString(buf[4:])
	return Key{Owner: NodeIndex(owner), Name: name}, 4 + n
}
