package registry

import (
	"context"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/chunkfabric/eau2/wire"
)

// fakePeer is a minimal stand-in for peer.Peer: it listens, registers with
// the registry under test, and records whatever Directory/Shutdown
// messages arrive.
type fakePeer struct {
	ln  net.Listener
	ep  wire.Endpoint

	mu        sync.Mutex
	dirs      [][]wire.Endpoint
	shutdowns int
}

func newFakePeer(t *testing.T) *fakePeer {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	ep, err := wire.EndpointFromAddr(ln.Addr())
	if err != nil {
		t.Fatalf("endpoint: %v", err)
	}
	p := &fakePeer{ln: ln, ep: ep}
	go p.serve()
	return p
}

func (p *fakePeer) serve() {
	for {
		conn, err := p.ln.Accept()
		if err != nil {
			return
		}
		go func() {
			defer conn.Close()
			wire.Serve(conn, p.ep, 4096, func(kind wire.Kind, payload []byte, _ wire.Endpoint) ([]byte, bool) {
				p.mu.Lock()
				defer p.mu.Unlock()
				switch kind {
				case wire.KindDirectory:
					p.dirs = append(p.dirs, wire.DecodeDirectory(payload))
				case wire.KindShutdown:
					p.shutdowns++
				}
				return nil, false
			})
		}()
	}
}

func (p *fakePeer) register(t *testing.T, regAddr string) {
	t.Helper()
	conn, err := net.Dial("tcp", regAddr)
	if err != nil {
		t.Fatalf("dial registry: %v", err)
	}
	defer conn.Close()
	if _, err := wire.Do(conn, p.ep, wire.KindRegister, nil, 4096); err != nil {
		t.Fatalf("register: %v", err)
	}
}

func (p *fakePeer) lastDir() []wire.Endpoint {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.dirs) == 0 {
		return nil
	}
	return p.dirs[len(p.dirs)-1]
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met within deadline")
}

func TestRegistryBroadcastsAtQuorum(t *testing.T) {
	r := New(3, 4096)
	if err := r.Listen("127.0.0.1:0"); err != nil {
		t.Fatalf("listen: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go r.Serve(ctx)

	p1, p2, p3 := newFakePeer(t), newFakePeer(t), newFakePeer(t)
	p1.register(t, r.Addr().String())
	p2.register(t, r.Addr().String())

	waitFor(t, func() bool { return len(r.Peers()) == 2 })
	if p1.lastDir() != nil {
		t.Fatalf("broadcast happened before quorum")
	}

	p3.register(t, r.Addr().String())

	waitFor(t, func() bool { return p3.lastDir() != nil })
	dir := p3.lastDir()
	if len(dir) != 3 {
		t.Fatalf("directory has %d entries, want 3", len(dir))
	}
}

func TestRegistryDeregisterRebroadcasts(t *testing.T) {
	r := New(2, 4096)
	if err := r.Listen("127.0.0.1:0"); err != nil {
		t.Fatalf("listen: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go r.Serve(ctx)

	p1, p2 := newFakePeer(t), newFakePeer(t)
	p1.register(t, r.Addr().String())
	p2.register(t, r.Addr().String())
	waitFor(t, func() bool { return p1.lastDir() != nil })

	conn, err := net.Dial("tcp", r.Addr().String())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	if _, err := wire.Do(conn, p1.ep, wire.KindDeregister, nil, 4096); err != nil {
		t.Fatalf("deregister: %v", err)
	}
	conn.Close()

	waitFor(t, func() bool { return len(p2.lastDir()) == 1 })
}

func TestRegistryShutdownNotifiesPeers(t *testing.T) {
	r := New(1, 4096)
	if err := r.Listen("127.0.0.1:0"); err != nil {
		t.Fatalf("listen: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go r.Serve(ctx)

	p1 := newFakePeer(t)
	p1.register(t, r.Addr().String())
	waitFor(t, func() bool { return p1.lastDir() != nil })

	r.Shutdown(context.Background())

	waitFor(t, func() bool {
		p1.mu.Lock()
		defer p1.mu.Unlock()
		return p1.shutdowns == 1
	})
}
