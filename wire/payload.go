package wire

import (
	"fmt"
	"io"
)

// writePacketized writes payload in packets of at most maxPacket bytes, the
// Go equivalent of the original's send_payload_ loop bounding each send() to
// MAX_PACKET_LENGTH.
func writePacketized(w io.Writer, payload []byte, maxPacket int) error {
	for off := 0; off < len(payload); {
		end := off + maxPacket
		if end > len(payload) {
			end = len(payload)
		}
		n, err := w.Write(payload[off:end])
		if err != nil {
			return fmt.Errorf("wire: short write sending packet: %w", err)
		}
		off += n
	}
	return nil
}

// readPacketized reads exactly size bytes in chunks of at most maxPacket,
// mirroring receive_payload_.
func readPacketized(r io.Reader, size int, maxPacket int) ([]byte, error) {
	buf := make([]byte, size)
	for off := 0; off < size; {
		end := off + maxPacket
		if end > size {
			end = size
		}
		n, err := io.ReadFull(r, buf[off:end])
		if err != nil {
			return nil, fmt.Errorf("wire: short read receiving packet: %w", err)
		}
		off += n
	}
	return buf, nil
}
