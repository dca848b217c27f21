package wire

import "encoding/binary"

// PutUint32 and Uint32 are the fabric's canonical little-endian integer
// encodings, used wherever a wire format embeds a raw length or count
// (spec.md §6: "all integers little-endian, host width"). Kept as named
// wrappers, rather than inlined binary.LittleEndian calls everywhere, so
// every (de)serializer in the fabric reads identically.
func PutUint32(b []byte, v uint32) { binary.LittleEndian.PutUint32(b, v) }

func Uint32(b []byte) uint32 { return binary.LittleEndian.Uint32(b) }

// PutCString appends s followed by a NUL terminator to buf, matching the
// original's c-string key/name encoding, and returns the extended slice.
func PutCString(buf []byte, s string) []byte {
	buf = append(buf, s...)
	return append(buf, 0)
}

// CString reads a NUL-terminated string starting at buf[0] and returns the
// decoded string along with the number of bytes consumed (including the
// terminator).
func CString(buf []byte) (string, int) {
	for i, b := range buf {
		if b == 0 {
			return string(buf[:i]), i + 1
		}
	}
	return string(buf), len(buf)
}
