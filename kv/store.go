package kv

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/metrics"
	"golang.org/x/sync/singleflight"

	"github.com/chunkfabric/eau2/tracing"
	"github.com/chunkfabric/eau2/wire"
)

// Transport carries a request to the peer that owns a key, returning its
// response payload. The peer package implements this over wire.Do; tests
// can supply an in-process fake.
type Transport interface {
	Request(ctx context.Context, to NodeIndex, kind wire.Kind, payload []byte) ([]byte, error)
}

var (
	metricLocalHits   = metrics.NewRegisteredCounter("kv/get/local", nil)
	metricRemoteHits  = metrics.NewRegisteredCounter("kv/get/remote", nil)
	metricPuts        = metrics.NewRegisteredCounter("kv/put", nil)
	metricWaitBlocked = metrics.NewRegisteredCounter("kv/getandwait/blocked", nil)
)

// Store is the fabric-wide key/value facade: every Get/GetAndWait/Put
// routes to the local map when Key.Owner is self, or to the owning peer
// over Transport otherwise. Grounded in
// original_source/src/kvstore/keyvaluestore.h; the busy-poll getAndWait of
// the original is replaced by localMap's condition variable for local
// keys, and by a bounded retry-on-miss loop for remote keys since a remote
// node cannot be made to block our goroutine indefinitely.
type Store struct {
	self      NodeIndex
	local     *localMap
	transport Transport
	group     singleflight.Group
}

// NewStore constructs a Store for the node at self, talking to other nodes
// through transport. transport may be nil for single-node tests where every
// key is local.
func NewStore(self NodeIndex, transport Transport) *Store {
	return &Store{self: self, local: newLocalMap(), transport: transport}
}

// Self reports this store's owning node index.
func (s *Store) Self() NodeIndex { return s.self }

// Get returns the value for k if present, without blocking for it to
// appear.
func (s *Store) Get(ctx context.Context, k Key) (Value, bool, error) {
	if k.Owner == s.self {
		metricLocalHits.Inc(1)
		v, ok := s.local.get(k)
		return v, ok, nil
	}
	metricRemoteHits.Inc(1)
	return s.remoteGet(ctx, k)
}

// GetAndWait blocks until k appears or ctx is cancelled.
func (s *Store) GetAndWait(ctx context.Context, k Key) (Value, error) {
	if k.Owner == s.self {
		v, ok := s.local.getAndWait(k, ctx.Done())
		if !ok {
			return Value{}, ctx.Err()
		}
		return v, nil
	}

	v, ok, err := s.remoteGet(ctx, k)
	if err == nil && ok {
		return v, nil
	}
	metricWaitBlocked.Inc(1)
	ticker := pollTicker()
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return Value{}, ctx.Err()
		case <-ticker.C:
			v, ok, err := s.remoteGet(ctx, k)
			if err != nil {
				return Value{}, err
			}
			if ok {
				return v, nil
			}
		}
	}
}

// Put installs k=v, locally or on the owning peer.
func (s *Store) Put(ctx context.Context, k Key, v Value) error {
	metricPuts.Inc(1)
	if k.Owner == s.self {
		s.local.put(k, v)
		return nil
	}
	payload := append(k.Marshal(), v.Bytes()...)
	_, err := s.transport.Request(ctx, k.Owner, wire.KindPut, payload)
	return err
}

// remoteGet issues a Get RPC, collapsing concurrent identical requests for
// the same key through singleflight so a hot key doesn't fan out one
// connection per caller.
func (s *Store) remoteGet(ctx context.Context, k Key) (Value, bool, error) {
	if s.transport == nil {
		return Value{}, false, fmt.Errorf("kv: key %v is remote but no transport configured", k)
	}
	ctx, span := tracing.StartSpan(ctx, "kv.remoteGet")
	defer span.Finish()
	sfKey := fmt.Sprintf("%d:%s", k.Owner, k.Name)
	res, err, _ := s.group.Do(sfKey, func() (interface{}, error) {
		payload := k.Marshal()
		resp, err := s.transport.Request(ctx, k.Owner, wire.KindGet, payload)
		if err != nil {
			return nil, err
		}
		return decodeGetResponse(resp), nil
	})
	if err != nil {
		log.Debug("kv: remote get failed", "key", k.Name, "owner", k.Owner, "err", err)
		return Value{}, false, err
	}
	gr := res.(getResult)
	return gr.value, gr.found, nil
}

type getResult struct {
	found bool
	value Value
}

// encodeGetResponse frames a Get reply as found-flag | value-bytes, the
// shape the peer server side writes and remoteGet decodes.
func encodeGetResponse(v Value, found bool) []byte {
	if !found {
		return []byte{0}
	}
	buf := make([]byte, 1+v.Len())
	buf[0] = 1
	copy(buf[1:], v.Bytes())
	return buf
}

func decodeGetResponse(buf []byte) getResult {
	if len(buf) == 0 || buf[0] == 0 {
		return getResult{}
	}
	return getResult{found: true, value: NewValue(append([]byte(nil), buf[1:]...))}
}

// HandleRequest answers a Get/Put directed at this node's local map,
// suitable as the inner dispatch target of a peer's wire.Handler. It never
// blocks: a remote GetAndWait is realized by the caller retrying Get, not
// by pushing the original's poll loop onto the server side.
func (s *Store) HandleRequest(kind wire.Kind, payload []byte) (response []byte, hasResponse bool) {
	switch kind {
	case wire.KindGet:
		k, _ := UnmarshalKey(payload)
		v, ok := s.local.get(k)
		return encodeGetResponse(v, ok), true
	case wire.KindPut:
		k, n := UnmarshalKey(payload)
		s.local.put(k, NewValue(append([]byte(nil), payload[n:]...)))
		return nil, false
	default:
		return nil, false
	}
}

// Keys returns a snapshot of every key held locally.
func (s *Store) Keys() []Key { return s.local.keys() }

// Has reports whether k is present locally, without waiting.
func (s *Store) Has(k Key) bool {
	if k.Owner != s.self {
		return false
	}
	return s.local.has(k)
}
