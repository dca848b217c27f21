package kv

import "bytes"

// Value is an owned, immutable-by-convention byte buffer. Callers that need
// to mutate data after a Put must Clone first; the map never hands out its
// internal slice.
type Value struct {
	bytes []byte
}

// NewValue takes ownership of b. Callers must not mutate b afterward.
func NewValue(b []byte) Value {
	return Value{bytes: b}
}

// Bytes returns the underlying buffer without copying. Treat as read-only.
func (v Value) Bytes() []byte { return v.bytes }

// Len reports the value's size in bytes.
func (v Value) Len() int { return len(v.bytes) }

// Equal compares by content.
func (v Value) Equal(o Value) bool { return bytes.Equal(v.bytes, o.bytes) }

// Clone returns a Value backed by a fresh copy of the buffer.
func (v Value) Clone() Value {
	cp := make([]byte, len(v.bytes))
	copy(cp, v.bytes)
	return Value{bytes: cp}
}
