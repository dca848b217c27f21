package wire

import (
	"fmt"
	"net"
)

// Handler dispatches one decoded request to the owning component (the
// node-local map, the directory, ...). It returns the bytes of a Response
// payload and true, or (nil, false) to simply Ack and close — the Go
// analogue of MessageHandler::handle_* returning a Response* or nullptr.
type Handler func(kind Kind, payload []byte, sender Endpoint) (response []byte, hasResponse bool)

// Do performs the initiator side of the four-step handshake described in
// spec.md §4.1 over an already-dialed connection: send the header, follow
// Ready with a packetized payload send (skipped for zero-length payloads,
// which go straight to the disposition step), then read either a closing Ack
// or a Response header followed by its own Ready/Ack-escorted payload.
// The caller owns conn and is responsible for closing it.
func Do(conn net.Conn, self Endpoint, kind Kind, payload []byte, maxPacket int) ([]byte, error) {
	if err := writeHeader(conn, Header{Kind: kind, PayloadSize: uint32(len(payload)), Sender: self}); err != nil {
		return nil, err
	}

	if len(payload) > 0 {
		reply, err := readHeader(conn)
		if err != nil {
			return nil, err
		}
		if reply.Kind != KindReady {
			return nil, fmt.Errorf("wire: expected Ready, got %s", reply.Kind)
		}
		if err := writePacketized(conn, payload, maxPacket); err != nil {
			return nil, err
		}
	}

	disposition, err := readHeader(conn)
	if err != nil {
		return nil, err
	}
	switch disposition.Kind {
	case KindAck:
		return nil, nil
	case KindResponse:
		var resp []byte
		if disposition.PayloadSize > 0 {
			if err := writeHeader(conn, Header{Kind: KindReady, Sender: self}); err != nil {
				return nil, err
			}
			resp, err = readPacketized(conn, int(disposition.PayloadSize), maxPacket)
			if err != nil {
				return nil, err
			}
		}
		if err := writeHeader(conn, Header{Kind: KindAck, Sender: self}); err != nil {
			return nil, err
		}
		return resp, nil
	default:
		return nil, fmt.Errorf("wire: expected Ack or Response, got %s", disposition.Kind)
	}
}

// Serve performs the receiver side of one exchange on an accepted
// connection: read the header, fetch the payload if any, invoke handle, and
// carry out the matching Ack-or-Response continuation. It reads and writes
// exactly one logical exchange; the caller closes conn afterward.
func Serve(conn net.Conn, self Endpoint, maxPacket int, handle Handler) error {
	req, err := readHeader(conn)
	if err != nil {
		return err
	}

	var payload []byte
	if req.PayloadSize > 0 {
		if err := writeHeader(conn, Header{Kind: KindReady, Sender: self}); err != nil {
			return err
		}
		payload, err = readPacketized(conn, int(req.PayloadSize), maxPacket)
		if err != nil {
			return err
		}
	}

	resp, hasResp := handle(req.Kind, payload, req.Sender)
	if !hasResp {
		return writeHeader(conn, Header{Kind: KindAck, Sender: self})
	}

	if err := writeHeader(conn, Header{Kind: KindResponse, PayloadSize: uint32(len(resp)), Sender: self}); err != nil {
		return err
	}
	cont, err := readHeader(conn)
	if err != nil {
		return err
	}
	switch cont.Kind {
	case KindAck:
		return nil
	case KindReady:
		if err := writePacketized(conn, resp, maxPacket); err != nil {
			return err
		}
		final, err := readHeader(conn)
		if err != nil {
			return err
		}
		if final.Kind != KindAck {
			return fmt.Errorf("wire: expected final Ack, got %s", final.Kind)
		}
		return nil
	default:
		return fmt.Errorf("wire: expected Ready or Ack continuing a response, got %s", cont.Kind)
	}
}
