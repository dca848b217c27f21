package peer

import (
	"context"
	"testing"
	"time"

	"github.com/chunkfabric/eau2/kv"
	"github.com/chunkfabric/eau2/registry"
)

func TestPeerJoinAndRemoteRoundTrip(t *testing.T) {
	reg := registry.New(2, 4096)
	if err := reg.Listen("127.0.0.1:0"); err != nil {
		t.Fatalf("registry listen: %v", err)
	}
	regCtx, regCancel := context.WithCancel(context.Background())
	defer regCancel()
	go reg.Serve(regCtx)

	p1 := New(reg.Addr().String(), 4096, 2)
	p2 := New(reg.Addr().String(), 4096, 2)
	if err := p1.Listen("127.0.0.1:0"); err != nil {
		t.Fatalf("p1 listen: %v", err)
	}
	if err := p2.Listen("127.0.0.1:0"); err != nil {
		t.Fatalf("p2 listen: %v", err)
	}

	ctx1, cancel1 := context.WithCancel(context.Background())
	ctx2, cancel2 := context.WithCancel(context.Background())
	defer cancel1()
	defer cancel2()
	go p1.Serve(ctx1)
	go p2.Serve(ctx2)

	joinCtx, joinCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer joinCancel()

	errs := make(chan error, 2)
	go func() { errs <- p1.Join(joinCtx) }()
	go func() { errs <- p2.Join(joinCtx) }()
	for i := 0; i < 2; i++ {
		if err := <-errs; err != nil {
			t.Fatalf("join: %v", err)
		}
	}

	if len(p1.Directory()) != 2 || len(p2.Directory()) != 2 {
		t.Fatalf("expected both peers to see a 2-entry directory")
	}

	store1 := kv.NewStore(p1.Index(), p1)
	store2 := kv.NewStore(p2.Index(), p2)
	p1.SetStore(store1)
	p2.SetStore(store2)

	ctx := context.Background()
	key := kv.New(store2.Self(), "greeting")
	if err := store2.Put(ctx, key, kv.NewValue([]byte("hello"))); err != nil {
		t.Fatalf("put: %v", err)
	}

	v, ok, err := store1.Get(ctx, key)
	if err != nil {
		t.Fatalf("remote get: %v", err)
	}
	if !ok {
		t.Fatalf("expected key to be found on remote node")
	}
	if string(v.Bytes()) != "hello" {
		t.Fatalf("got %q, want hello", v.Bytes())
	}
}

func TestPeerGetAndWaitAcrossNodes(t *testing.T) {
	reg := registry.New(2, 4096)
	if err := reg.Listen("127.0.0.1:0"); err != nil {
		t.Fatalf("registry listen: %v", err)
	}
	regCtx, regCancel := context.WithCancel(context.Background())
	defer regCancel()
	go reg.Serve(regCtx)

	p1 := New(reg.Addr().String(), 4096, 2)
	p2 := New(reg.Addr().String(), 4096, 2)
	if err := p1.Listen("127.0.0.1:0"); err != nil {
		t.Fatalf("p1 listen: %v", err)
	}
	if err := p2.Listen("127.0.0.1:0"); err != nil {
		t.Fatalf("p2 listen: %v", err)
	}
	ctx1, cancel1 := context.WithCancel(context.Background())
	ctx2, cancel2 := context.WithCancel(context.Background())
	defer cancel1()
	defer cancel2()
	go p1.Serve(ctx1)
	go p2.Serve(ctx2)

	joinCtx, joinCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer joinCancel()
	errs := make(chan error, 2)
	go func() { errs <- p1.Join(joinCtx) }()
	go func() { errs <- p2.Join(joinCtx) }()
	for i := 0; i < 2; i++ {
		if err := <-errs; err != nil {
			t.Fatalf("join: %v", err)
		}
	}

	store1 := kv.NewStore(p1.Index(), p1)
	store2 := kv.NewStore(p2.Index(), p2)
	p1.SetStore(store1)
	p2.SetStore(store2)

	key := kv.New(store2.Self(), "late")
	go func() {
		time.Sleep(100 * time.Millisecond)
		store2.Put(context.Background(), key, kv.NewValue([]byte("arrived")))
	}()

	waitCtx, waitCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer waitCancel()
	v, err := store1.GetAndWait(waitCtx, key)
	if err != nil {
		t.Fatalf("get and wait: %v", err)
	}
	if string(v.Bytes()) != "arrived" {
		t.Fatalf("got %q, want arrived", v.Bytes())
	}
}
