package kv

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/chunkfabric/eau2/wire"
)

// fakeTransport routes a request directly into a peer Store's HandleRequest,
// simulating the network without sockets.
type fakeTransport struct {
	peers      map[NodeIndex]*Store
	calls      int32
	beforeEach func()
}

func (f *fakeTransport) Request(ctx context.Context, to NodeIndex, kind wire.Kind, payload []byte) ([]byte, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.beforeEach != nil {
		f.beforeEach()
	}
	resp, _ := f.peers[to].HandleRequest(kind, payload)
	return resp, nil
}

func TestStoreLocalPutGet(t *testing.T) {
	s := NewStore(0, nil)
	k := New(0, "x")
	if err := s.Put(context.Background(), k, NewValue([]byte("v"))); err != nil {
		t.Fatalf("put: %v", err)
	}
	v, ok, err := s.Get(context.Background(), k)
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if string(v.Bytes()) != "v" {
		t.Fatalf("got %q", v.Bytes())
	}
}

func TestStoreRemoteRouting(t *testing.T) {
	remote := NewStore(1, nil)
	transport := &fakeTransport{peers: map[NodeIndex]*Store{1: remote}}
	local := NewStore(0, transport)

	k := New(1, "shared")
	if err := local.Put(context.Background(), k, NewValue([]byte("remote-value"))); err != nil {
		t.Fatalf("put: %v", err)
	}
	if !remote.Has(k) {
		t.Fatalf("expected remote store to hold the key after a routed put")
	}

	v, ok, err := local.Get(context.Background(), k)
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if string(v.Bytes()) != "remote-value" {
		t.Fatalf("got %q", v.Bytes())
	}
}

func TestStoreRemoteGetMissing(t *testing.T) {
	remote := NewStore(1, nil)
	transport := &fakeTransport{peers: map[NodeIndex]*Store{1: remote}}
	local := NewStore(0, transport)

	_, ok, err := local.Get(context.Background(), New(1, "absent"))
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if ok {
		t.Fatalf("expected absent key to report not found")
	}
}

func TestStoreGetAndWaitRemoteRetriesUntilPut(t *testing.T) {
	remote := NewStore(1, nil)
	transport := &fakeTransport{peers: map[NodeIndex]*Store{1: remote}}
	local := NewStore(0, transport)

	k := New(1, "eventual")
	go func() {
		time.Sleep(100 * time.Millisecond)
		remote.local.put(k, NewValue([]byte("here")))
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	v, err := local.GetAndWait(ctx, k)
	if err != nil {
		t.Fatalf("getAndWait: %v", err)
	}
	if string(v.Bytes()) != "here" {
		t.Fatalf("got %q", v.Bytes())
	}
}

func TestStoreGetAndWaitRemoteCancels(t *testing.T) {
	remote := NewStore(1, nil)
	transport := &fakeTransport{peers: map[NodeIndex]*Store{1: remote}}
	local := NewStore(0, transport)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Millisecond)
	defer cancel()
	_, err := local.GetAndWait(ctx, New(1, "never"))
	if err == nil {
		t.Fatalf("expected context deadline error")
	}
}

func TestStoreRemoteGetWithoutTransportErrors(t *testing.T) {
	s := NewStore(0, nil)
	_, _, err := s.Get(context.Background(), New(1, "x"))
	if err == nil {
		t.Fatalf("expected error for remote key with no transport")
	}
}
