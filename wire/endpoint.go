// Package wire implements the fabric's length-prefixed request/response
// protocol: a fixed header, a four-step Ready/Ack handshake, and a
// Register/Deregister/Directory/Message/Shutdown/Get/GetAndWait/Put/Response
// message kind set. It is the Go-native analogue of the original's
// kvstore/network.h: no sockaddr_in, no manual connection-thread pool, but
// the same wire shape and handshake sequence.
package wire

import (
	"encoding/binary"
	"fmt"
	"net"
)

// Endpoint is a peer's dialable address, serialized as a fixed 18 bytes
// (16-byte IPv6-mapped address + 2-byte port) so headers stay fixed size.
type Endpoint struct {
	IP   net.IP
	Port uint16
}

const endpointSize = 18

// EndpointFromAddr converts a net.Addr (as returned by Listener.Addr or
// Conn.RemoteAddr) into an Endpoint.
func EndpointFromAddr(addr net.Addr) (Endpoint, error) {
	tcpAddr, ok := addr.(*net.TCPAddr)
	if !ok {
		host, portStr, err := net.SplitHostPort(addr.String())
		if err != nil {
			return Endpoint{}, fmt.Errorf("wire: cannot parse addr %q: %w", addr, err)
		}
		var port int
		if _, err := fmt.Sscanf(portStr, "%d", &port); err != nil {
			return Endpoint{}, fmt.Errorf("wire: cannot parse port %q: %w", portStr, err)
		}
		return Endpoint{IP: net.ParseIP(host), Port: uint16(port)}, nil
	}
	return Endpoint{IP: tcpAddr.IP, Port: uint16(tcpAddr.Port)}, nil
}

func (e Endpoint) String() string {
	return net.JoinHostPort(e.IP.String(), fmt.Sprintf("%d", e.Port))
}

// Equal reports whether two endpoints name the same IP and port.
func (e Endpoint) Equal(o Endpoint) bool {
	return e.IP.Equal(o.IP) && e.Port == o.Port
}

func (e Endpoint) marshal(buf []byte) {
	ip16 := e.IP.To16()
	if ip16 == nil {
		ip16 = make([]byte, 16)
	}
	copy(buf[:16], ip16)
	binary.LittleEndian.PutUint16(buf[16:18], e.Port)
}

func unmarshalEndpoint(buf []byte) Endpoint {
	ip := make(net.IP, 16)
	copy(ip, buf[:16])
	return Endpoint{IP: ip, Port: binary.LittleEndian.Uint16(buf[16:18])}
}

// Dial opens a TCP connection to the endpoint.
func (e Endpoint) Dial() (net.Conn, error) {
	return net.Dial("tcp", e.String())
}
