package wire

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Kind identifies a message's role in the handshake. The set matches
// spec.md §4.1 exactly.
type Kind uint8

const (
	KindRegister Kind = iota + 1
	KindDeregister
	KindDirectory
	KindMessage
	KindShutdown
	KindReady
	KindAck
	KindGet
	KindGetAndWait
	KindPut
	KindResponse
)

func (k Kind) String() string {
	switch k {
	case KindRegister:
		return "Register"
	case KindDeregister:
		return "Deregister"
	case KindDirectory:
		return "Directory"
	case KindMessage:
		return "Message"
	case KindShutdown:
		return "Shutdown"
	case KindReady:
		return "Ready"
	case KindAck:
		return "Ack"
	case KindGet:
		return "Get"
	case KindGetAndWait:
		return "GetAndWait"
	case KindPut:
		return "Put"
	case KindResponse:
		return "Response"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Header is the fixed-size frame prefix of every message: kind, payload
// size and the sender's dialable endpoint (spec.md §6).
type Header struct {
	Kind        Kind
	PayloadSize uint32
	Sender      Endpoint
}

// HeaderSize is the number of bytes a Header occupies on the wire.
const HeaderSize = 1 + 4 + endpointSize

func writeHeader(w io.Writer, h Header) error {
	var buf [HeaderSize]byte
	buf[0] = byte(h.Kind)
	binary.LittleEndian.PutUint32(buf[1:5], h.PayloadSize)
	h.Sender.marshal(buf[5:])
	_, err := w.Write(buf[:])
	return err
}

func readHeader(r io.Reader) (Header, error) {
	var buf [HeaderSize]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return Header{}, fmt.Errorf("wire: short header read: %w", err)
	}
	return Header{
		Kind:        Kind(buf[0]),
		PayloadSize: binary.LittleEndian.Uint32(buf[1:5]),
		Sender:      unmarshalEndpoint(buf[5:]),
	}, nil
}
