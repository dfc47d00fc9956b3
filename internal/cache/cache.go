package cache

import (
	"fmt"
	"iter"
	"strings"
	"sync"
)

// Cache is a concurrency-safe, capacity-bounded key/value cache with LRU
// eviction. The eviction strategy is fixed at construction; see [Strategy].
//
// Read views (Keys, Values, Entries, All, Snapshot) are point-in-time copies
// ordered most recently used first. They never reflect later mutations and
// never hold internal locks while the caller iterates.
//
// Ownership model:
// Cache owns the Worker it creates for a Threaded strategy. Call Shutdown to
// stop it.
type Cache[K comparable, V any] struct {
	store    store[K, V]
	strategy Strategy
	capacity int

	// worker is non-nil only when the cache created it.
	worker       *Worker
	shutdownOnce sync.Once

	metrics    Metrics
	valueEqual func(a, b any) bool
}

// New constructs a cache holding at most capacity entries.
//
// Configuration errors are returned synchronously; no cache is returned
// with them and no background goroutine is left running.
func New[K comparable, V any](capacity int, opts ...Option) (*Cache[K, V], error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidCapacity, capacity)
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if err := o.validate(); err != nil {
		return nil, err
	}

	c := &Cache[K, V]{
		strategy:   o.strategy,
		capacity:   capacity,
		metrics:    o.metrics,
		valueEqual: o.valueEqual,
	}

	switch o.strategy {
	case Locking:
		c.store = newLockingStore[K, V](capacity, o.metrics)
	case Threaded:
		sched := o.scheduler
		if sched == nil {
			c.worker = NewWorker(WithWorkerLogger(o.logger))
			sched = c.worker
		}
		c.store = newThreadedStore[K, V](capacity, o.cleanupDelay, sched, o.logger, o.metrics)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownStrategy, o.strategy)
	}

	return c, nil
}

// Get returns the value for key. A hit counts as use.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	v, ok := c.store.get(key)
	if ok {
		c.metrics.Hit()
	} else {
		c.metrics.Miss()
	}
	return v, ok
}

// Put stores value under key and returns the previous value, if any.
//
// With Locking, any eviction has happened by the time Put returns. With
// Threaded, eviction happens later on the scheduler.
func (c *Cache[K, V]) Put(key K, value V) (V, bool) {
	prev, ok := c.store.put(key, value)
	c.metrics.Size(c.store.len())
	return prev, ok
}

// PutAll stores every pair of m. Order among the pairs is unspecified, which
// matters when len(m) exceeds the capacity.
func (c *Cache[K, V]) PutAll(m map[K]V) {
	for k, v := range m {
		c.store.put(k, v)
	}
	c.metrics.Size(c.store.len())
}

// Remove deletes key and returns the value it held, if any.
func (c *Cache[K, V]) Remove(key K) (V, bool) {
	prev, ok := c.store.remove(key)
	if ok {
		c.metrics.Size(c.store.len())
	}
	return prev, ok
}

// Clear removes every entry.
func (c *Cache[K, V]) Clear() {
	c.store.clear()
	c.metrics.Size(0)
}

// Len returns the number of live entries. With Threaded it may briefly
// exceed Capacity.
func (c *Cache[K, V]) Len() int {
	return c.store.len()
}

func (c *Cache[K, V]) IsEmpty() bool {
	return c.store.len() == 0
}

// ContainsKey reports whether key is present without counting as use.
func (c *Cache[K, V]) ContainsKey(key K) bool {
	return c.store.containsKey(key)
}

// ContainsValue reports whether any entry holds value. O(n).
func (c *Cache[K, V]) ContainsValue(value V) bool {
	for _, e := range c.store.entries() {
		if c.valueEqual(e.Value, value) {
			return true
		}
	}
	return false
}

// Keys returns the keys in MRU -> LRU order.
func (c *Cache[K, V]) Keys() []K {
	entries := c.store.entries()
	out := make([]K, len(entries))
	for i, e := range entries {
		out[i] = e.Key
	}
	return out
}

// Values returns the values in MRU -> LRU order.
func (c *Cache[K, V]) Values() []V {
	entries := c.store.entries()
	out := make([]V, len(entries))
	for i, e := range entries {
		out[i] = e.Value
	}
	return out
}

// Entries returns the key/value pairs in MRU -> LRU order.
func (c *Cache[K, V]) Entries() []Entry[K, V] {
	return c.store.entries()
}

// All iterates over a snapshot taken when iteration starts.
func (c *Cache[K, V]) All() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		for _, e := range c.store.entries() {
			if !yield(e.Key, e.Value) {
				return
			}
		}
	}
}

// Snapshot copies the current contents into a new map.
func (c *Cache[K, V]) Snapshot() map[K]V {
	entries := c.store.entries()
	out := make(map[K]V, len(entries))
	for _, e := range entries {
		out[e.Key] = e.Value
	}
	return out
}

// Equal reports whether c and other currently hold the same key/value
// pairs. Capacity, strategy and recency order are not compared.
func (c *Cache[K, V]) Equal(other *Cache[K, V]) bool {
	if c == other {
		return true
	}
	if other == nil {
		return false
	}
	mine, theirs := c.Snapshot(), other.Snapshot()
	if len(mine) != len(theirs) {
		return false
	}
	for k, v := range mine {
		ov, ok := theirs[k]
		if !ok || !c.valueEqual(v, ov) {
			return false
		}
	}
	return true
}

// String renders the contents as {k1=v1, k2=v2} in MRU -> LRU order.
func (c *Cache[K, V]) String() string {
	var b strings.Builder
	b.WriteByte('{')
	for i, e := range c.store.entries() {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%v=%v", e.Key, e.Value)
	}
	b.WriteByte('}')
	return b.String()
}

func (c *Cache[K, V]) Capacity() int { return c.capacity }

func (c *Cache[K, V]) Strategy() Strategy { return c.strategy }

// Shutdown stops the background Worker the cache created for itself.
// It is a no-op for Locking caches and for schedulers supplied with
// WithScheduler. The cache stays usable afterwards, but a Threaded cache no
// longer trims.
//
// Shutdown is safe to call multiple times.
func (c *Cache[K, V]) Shutdown() {
	c.shutdownOnce.Do(func() {
		if c.worker != nil {
			c.worker.Stop()
		}
	})
}
