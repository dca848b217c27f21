// Package registry implements the fabric's one-node directory service:
// peers register themselves, the registry hands back nothing synchronously
// but broadcasts the full directory once the configured quorum of peers has
// joined, and broadcasts a shutdown to every registered peer on teardown.
// Grounded in original_source/src/kvstore/network.h's Server class, with
// the round-robin ConnectionThread pool replaced by one goroutine per
// accepted connection and net.Listener/context.Context standing in for the
// raw fd plus select-loop accept.
package registry

import (
	"context"
	"fmt"
	"net"
	"sync"

	"github.com/ethereum/go-ethereum/log"

	"github.com/chunkfabric/eau2/internal/fail"
	"github.com/chunkfabric/eau2/wire"
)

// Registry tracks the fixed-quorum peer directory for one fabric instance.
// Register/Deregister serialize on mu; a broadcast runs with mu held so a
// concurrent registration can't interleave with an in-flight directory
// push.
type Registry struct {
	quorum int

	mu       sync.Mutex
	peers    []wire.Endpoint
	shutdown bool

	listener net.Listener
	self     wire.Endpoint
	maxPacket int

	log log.Logger
}

// New constructs a Registry that broadcasts once quorum peers have
// registered.
func New(quorum int, maxPacket int) *Registry {
	return &Registry{
		quorum:    quorum,
		maxPacket: maxPacket,
		log:       log.New("component", "registry"),
	}
}

// Listen binds the registry's accept socket at addr and records its own
// dialable endpoint, the Go analogue of Server's get_listen_socket plus
// get_sockaddr.
func (r *Registry) Listen(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("registry: listen: %w", err)
	}
	self, err := wire.EndpointFromAddr(ln.Addr())
	if err != nil {
		ln.Close()
		return err
	}
	r.listener = ln
	r.self = self
	return nil
}

// Addr reports the registry's bound endpoint. Valid after Listen.
func (r *Registry) Addr() wire.Endpoint { return r.self }

// Serve accepts connections until ctx is cancelled or the listener closes,
// handling each one on its own goroutine: registration traffic is low-volume and
// short-lived, so unlike peer.Pool's data-plane dispatch there is no need
// for a bounded worker pool here.
func (r *Registry) Serve(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		r.listener.Close()
	}()

	for {
		conn, err := r.listener.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
				return fmt.Errorf("registry: accept: %w", err)
			}
		}
		go func() {
			defer conn.Close()
			if err := wire.Serve(conn, r.self, r.maxPacket, r.handle); err != nil {
				r.log.Debug("registry: exchange failed", "err", err)
			}
		}()
	}
}

// handle dispatches one decoded request, the registry's MessageHandler
// equivalent. Register and Deregister never produce a Response payload;
// any resulting directory broadcast is a separate outbound round-trip to
// every registered peer.
func (r *Registry) handle(kind wire.Kind, _ []byte, sender wire.Endpoint) (response []byte, hasResponse bool) {
	switch kind {
	case wire.KindRegister:
		r.register(sender)
	case wire.KindDeregister:
		r.deregister(sender)
	default:
		r.log.Warn("registry: unexpected message kind", "kind", kind)
	}
	return nil, false
}

func (r *Registry) register(ep wire.Endpoint) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, p := range r.peers {
		if p.Equal(ep) {
			return
		}
	}
	if len(r.peers) >= r.quorum {
		// spec: a Register past quorum is a programmer/operator error,
		// not a transient condition — fatal, matching the original's
		// abort_if_not(client_count_ < config_.CLIENT_NUM, ...).
		fail.Now("registry: over-quorum registration from %s (quorum %d already reached)", ep, r.quorum)
		return
	}
	r.peers = append(r.peers, ep)
	r.log.Info("registry: peer registered", "endpoint", ep, "count", len(r.peers))

	if len(r.peers) == r.quorum {
		r.broadcastDirectory()
	}
}

func (r *Registry) deregister(ep wire.Endpoint) {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := -1
	for i, p := range r.peers {
		if p.Equal(ep) {
			idx = i
			break
		}
	}
	if idx == -1 {
		return
	}
	r.peers = append(r.peers[:idx], r.peers[idx+1:]...)
	r.log.Info("registry: peer deregistered", "endpoint", ep, "count", len(r.peers))
	r.broadcastDirectory()
}

// broadcastDirectory sends the current directory to every registered peer.
// Called with mu held, mirroring Server::broadcast_directory's
// lock-held-for-the-whole-fanout behavior.
func (r *Registry) broadcastDirectory() {
	payload := wire.EncodeDirectory(r.peers)
	for _, p := range r.peers {
		if err := r.sendTo(p, wire.KindDirectory, payload); err != nil {
			r.log.Warn("registry: directory broadcast failed", "peer", p, "err", err)
		}
	}
}

// Shutdown sends a Shutdown message to every registered peer, then tears
// down the listener. Mirrors Server::shutdown_clients followed by the
// destructor's quitting_ flag.
func (r *Registry) Shutdown(ctx context.Context) {
	r.mu.Lock()
	if r.shutdown {
		r.mu.Unlock()
		return
	}
	r.shutdown = true
	peers := append([]wire.Endpoint(nil), r.peers...)
	r.mu.Unlock()

	for _, p := range peers {
		if err := r.sendTo(p, wire.KindShutdown, nil); err != nil {
			r.log.Warn("registry: shutdown notice failed", "peer", p, "err", err)
		}
	}
	if r.listener != nil {
		r.listener.Close()
	}
}

func (r *Registry) sendTo(ep wire.Endpoint, kind wire.Kind, payload []byte) error {
	conn, err := ep.Dial()
	if err != nil {
		return err
	}
	defer conn.Close()
	_, err = wire.Do(conn, r.self, kind, payload, r.maxPacket)
	return err
}

// Peers returns a snapshot of the current directory.
func (r *Registry) Peers() []wire.Endpoint {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]wire.Endpoint(nil), r.peers...)
}
