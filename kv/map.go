package kv

import "sync"

// initialBuckets mirrors map.h's starting bucket count.
const initialBuckets = 128

// maxLoadFactor triggers a rehash once the map is this full, matching the
// original's grow-at-0.75 policy.
const maxLoadFactor = 0.75

type entry struct {
	key Key
	val Value
}

// localMap is a node's in-memory store: a bucket-chained hash map keyed on
// Key, guarded by a RWMutex, with a Cond broadcast on every Put so
// GetAndWait callers never need to poll. Grounded in
// original_source/src/kvstore/map.h, redesigned per the Design Notes
// instruction to replace the sleep-poll with a condition variable.
type localMap struct {
	mu      sync.RWMutex
	cond    *sync.Cond
	buckets [][]entry
	size    int
}

func newLocalMap() *localMap {
	m := &localMap{buckets: make([][]entry, initialBuckets)}
	m.cond = sync.NewCond(&m.mu)
	return m
}

func hashKey(k Key) uint64 {
	// FNV-1a, combining owner and name the way the original's Key::hash_
	// folds node_index into the string hash.
	var h uint64 = 14695981039346656037
	for _, b := range []byte(k.Name) {
		h ^= uint64(b)
		h *= 1099511628211
	}
	h ^= uint64(uint32(k.Owner))
	h *= 1099511628211
	return h
}

func (m *localMap) bucketIndex(k Key, n int) int {
	return int(hashKey(k) % uint64(n))
}

// get returns a clone of the stored value and true, or a zero Value and
// false if absent. Cloning keeps the map's internal buffer private.
func (m *localMap) get(k Key) (Value, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	idx := m.bucketIndex(k, len(m.buckets))
	for _, e := range m.buckets[idx] {
		if e.key.Equal(k) {
			return e.val.Clone(), true
		}
	}
	return Value{}, false
}

// put clones key and value in, overwriting any existing entry for key, and
// wakes every GetAndWait waiter so they can re-check.
func (m *localMap) put(k Key, v Value) {
	m.mu.Lock()
	defer m.mu.Unlock()
	idx := m.bucketIndex(k, len(m.buckets))
	for i, e := range m.buckets[idx] {
		if e.key.Equal(k) {
			m.buckets[idx][i].val = v.Clone()
			m.cond.Broadcast()
			return
		}
	}
	m.buckets[idx] = append(m.buckets[idx], entry{key: Key{Owner: k.Owner, Name: k.Name}, val: v.Clone()})
	m.size++
	if float64(m.size)/float64(len(m.buckets)) > maxLoadFactor {
		m.rehash()
	}
	m.cond.Broadcast()
}

// rehash doubles the bucket count. Callers must hold mu.
func (m *localMap) rehash() {
	next := make([][]entry, len(m.buckets)*2)
	for _, bucket := range m.buckets {
		for _, e := range bucket {
			idx := m.bucketIndex(e.key, len(next))
			next[idx] = append(next[idx], e)
		}
	}
	m.buckets = next
}

// getAndWait blocks until k is present or ctx is done, returning a clone of
// the value. The wait loop rechecks on every put broadcast rather than
// sleeping and polling.
func (m *localMap) getAndWait(k Key, done <-chan struct{}) (Value, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	// A goroutine that wakes every waiter once ctx is cancelled; Cond has
	// no native context support, so this bridges the two idioms. It takes mu
	// before broadcasting so the wakeup cannot land between the done check
	// below and cond.Wait.
	stop := make(chan struct{})
	go func() {
		select {
		case <-done:
			m.mu.Lock()
			m.cond.Broadcast()
			m.mu.Unlock()
		case <-stop:
		}
	}()
	defer close(stop)

	for {
		idx := m.bucketIndex(k, len(m.buckets))
		for _, e := range m.buckets[idx] {
			if e.key.Equal(k) {
				return e.val.Clone(), true
			}
		}
		select {
		case <-done:
			return Value{}, false
		default:
		}
		m.cond.Wait()
	}
}

// has reports presence without cloning the value, used by Store.Has.
func (m *localMap) has(k Key) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	idx := m.bucketIndex(k, len(m.buckets))
	for _, e := range m.buckets[idx] {
		if e.key.Equal(k) {
			return true
		}
	}
	return false
}

// keys returns a snapshot of every key currently stored, used by
// Store.Keys.
func (m *localMap) keys() []Key {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Key, 0, m.size)
	for _, bucket := range m.buckets {
		for _, e := range bucket {
			out = append(out, e.key)
		}
	}
	return out
}
