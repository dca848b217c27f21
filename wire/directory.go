package wire

// EncodeDirectory serializes a Directory payload: num_clients | [endpoint...]
// (spec.md §6).
func EncodeDirectory(dir []Endpoint) []byte {
	buf := make([]byte, 4+len(dir)*endpointSize)
	PutUint32(buf, uint32(len(dir)))
	off := 4
	for _, e := range dir {
		e.marshal(buf[off : off+endpointSize])
		off += endpointSize
	}
	return buf
}

// DecodeDirectory parses a Directory payload produced by EncodeDirectory.
func DecodeDirectory(buf []byte) []Endpoint {
	n := int(Uint32(buf))
	dir := make([]Endpoint, n)
	off := 4
	for i := 0; i < n; i++ {
		dir[i] = unmarshalEndpoint(buf[off : off+endpointSize])
		off += endpointSize
	}
	return dir
}
