package cache

import (
	"container/list"
	"sync"
	"sync/atomic"

	"github.com/puzpuzpuz/xsync/v3"
)

// lockingStore is a strict LRU: an index gives O(1) key lookup and a
// doubly-linked list maintains recency ordering.
//
// List position is the recency marker, so ordering is total and needs no
// tie-break. The list and every node's elem are guarded by mu. The index is a
// concurrent map, and node values sit behind an atomic pointer, so lookups
// never need the mutex. All index writes still happen under mu, which keeps
// the index and the list in step.
type lockingStore[K comparable, V any] struct {
	mu sync.RWMutex

	capacity int
	index    *xsync.MapOf[K, *node[K, V]]
	lru      *list.List // Front = most recently used (MRU), Back = least recently used (LRU)

	metrics Metrics
}

// node is the value stored in the LRU list elements.
// We keep the key here because eviction starts from list nodes.
type node[K comparable, V any] struct {
	key   K
	value atomic.Pointer[V]

	// guarded by lockingStore.mu; nil once the node left the list.
	elem *list.Element
}

func newLockingStore[K comparable, V any](capacity int, m Metrics) *lockingStore[K, V] {
	return &lockingStore[K, V]{
		capacity: capacity,
		index:    xsync.NewMapOf[K, *node[K, V]](),
		lru:      list.New(),
		metrics:  m,
	}
}

// get never blocks. Promotion to MRU is best effort: if another goroutine
// holds the mutex, the value is returned without touching recency. Order can
// go stale under read contention, but readers never queue behind writers.
func (s *lockingStore[K, V]) get(key K) (V, bool) {
	n, ok := s.index.Load(key)
	if !ok {
		var zero V
		return zero, false
	}
	v := *n.value.Load()

	if s.mu.TryLock() {
		// The node may have been removed between Load and TryLock.
		if n.elem != nil {
			s.lru.MoveToFront(n.elem)
		}
		s.mu.Unlock()
	}
	return v, true
}

// put inserts or overwrites key and evicts from the LRU end until the store
// is back within capacity.
//
// Complexity:
//   - O(1) to locate/insert
//   - O(1) eviction per removed entry
func (s *lockingStore[K, V]) put(key K, value V) (V, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if n, ok := s.index.Load(key); ok {
		prev := n.value.Swap(&value)
		// Updating counts as use; move to MRU.
		s.lru.MoveToFront(n.elem)
		return *prev, true
	}

	n := &node[K, V]{key: key}
	n.value.Store(&value)
	n.elem = s.lru.PushFront(n)
	s.index.Store(key, n)

	s.evictIfNeededLocked()

	var zero V
	return zero, false
}

func (s *lockingStore[K, V]) remove(key K) (V, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.index.Load(key)
	if !ok {
		var zero V
		return zero, false
	}
	s.deleteLocked(n)
	return *n.value.Load(), true
}

func (s *lockingStore[K, V]) clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Unlink node by node: readers may still hold nodes from the index and
	// must see elem == nil rather than an element of a reset list.
	for el := s.lru.Front(); el != nil; {
		next := el.Next()
		s.deleteLocked(el.Value.(*node[K, V]))
		el = next
	}
}

// len takes the read lock so it never observes the transient overshoot
// inside put, before eviction runs.
func (s *lockingStore[K, V]) len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lru.Len()
}

func (s *lockingStore[K, V]) containsKey(key K) bool {
	_, ok := s.index.Load(key)
	return ok
}

// entries returns a snapshot in MRU -> LRU order.
func (s *lockingStore[K, V]) entries() []Entry[K, V] {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Entry[K, V], 0, s.lru.Len())
	for el := s.lru.Front(); el != nil; el = el.Next() {
		n := el.Value.(*node[K, V])
		out = append(out, Entry[K, V]{Key: n.key, Value: *n.value.Load()})
	}
	return out
}

func (s *lockingStore[K, V]) evictIfNeededLocked() {
	evicted := 0
	for s.lru.Len() > s.capacity {
		el := s.lru.Back()
		if el == nil {
			break
		}
		s.deleteLocked(el.Value.(*node[K, V]))
		evicted++
	}
	if evicted > 0 {
		s.metrics.Evicted(evicted)
	}
}

func (s *lockingStore[K, V]) deleteLocked(n *node[K, V]) {
	s.lru.Remove(n.elem)
	n.elem = nil
	s.index.Delete(n.key)
}

var _ store[string, any] = (*lockingStore[string, any])(nil)
