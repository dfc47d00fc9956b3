package cache

import (
	"log/slog"
	"slices"
	"sync/atomic"
	"time"

	"github.com/puzpuzpuz/xsync/v3"
)

// threadedStore never blocks callers on eviction. Get/Put/Remove are single
// operations on a concurrent map; keeping the store within capacity is the
// job of a trim pass that runs on the scheduler.
//
// A pass is sort based: O(n log n) over the live entries. Passes are
// coalesced to at most one pending per store, so the cost is paid once per
// burst of writes rather than once per Put.
type threadedStore[K comparable, V any] struct {
	capacity int
	delay    time.Duration
	sched    Scheduler

	data  *xsync.MapOf[K, *tEntry[V]]
	clock clock

	// pending is set by the Put that finds the store over capacity and
	// cleared by the pass it schedules.
	pending atomic.Bool

	log     *slog.Logger
	metrics Metrics

	// beforeTrim runs at the start of every pass when set (tests only).
	beforeTrim func()
}

// tEntry is immutable apart from its recency marker. Overwriting a key
// installs a new tEntry that keeps the insertion sequence of the old one.
type tEntry[V any] struct {
	value   V
	seq     uint64
	recency atomic.Uint64
}

// touch advances the recency marker to t unless a later access already did.
func (e *tEntry[V]) touch(t uint64) {
	for {
		cur := e.recency.Load()
		if cur >= t || e.recency.CompareAndSwap(cur, t) {
			return
		}
	}
}

func (e *tEntry[V]) stamp() stamp {
	return stamp{recency: e.recency.Load(), seq: e.seq}
}

// candidate is one entry as seen by a pass snapshot.
type candidate[K comparable, V any] struct {
	key   K
	entry *tEntry[V]
	stamp stamp
}

func newThreadedStore[K comparable, V any](capacity int, delay time.Duration, sched Scheduler, log *slog.Logger, m Metrics) *threadedStore[K, V] {
	return &threadedStore[K, V]{
		capacity: capacity,
		delay:    delay,
		sched:    sched,
		data:     xsync.NewMapOf[K, *tEntry[V]](),
		log:      log,
		metrics:  m,
	}
}

func (s *threadedStore[K, V]) get(key K) (V, bool) {
	e, ok := s.data.Load(key)
	if !ok {
		var zero V
		return zero, false
	}
	e.touch(s.clock.now())
	return e.value, true
}

func (s *threadedStore[K, V]) put(key K, value V) (prev V, existed bool) {
	now := s.clock.now()
	s.data.Compute(key, func(old *tEntry[V], loaded bool) (*tEntry[V], bool) {
		e := &tEntry[V]{value: value}
		if loaded {
			prev, existed = old.value, true
			e.seq = old.seq
		} else {
			e.seq = s.clock.nextSeq()
		}
		e.recency.Store(now)
		return e, false
	})

	s.requestTrim()
	return prev, existed
}

func (s *threadedStore[K, V]) remove(key K) (V, bool) {
	e, ok := s.data.LoadAndDelete(key)
	if !ok {
		var zero V
		return zero, false
	}
	return e.value, true
}

func (s *threadedStore[K, V]) clear() {
	s.data.Clear()
}

func (s *threadedStore[K, V]) len() int {
	return s.data.Size()
}

func (s *threadedStore[K, V]) containsKey(key K) bool {
	_, ok := s.data.Load(key)
	return ok
}

// entries returns a snapshot in MRU -> LRU order.
func (s *threadedStore[K, V]) entries() []Entry[K, V] {
	snap := s.snapshot()
	slices.SortFunc(snap, func(a, b candidate[K, V]) int {
		return compareStamps(b.stamp, a.stamp)
	})

	out := make([]Entry[K, V], len(snap))
	for i, c := range snap {
		out[i] = Entry[K, V]{Key: c.key, Value: c.entry.value}
	}
	return out
}

// requestTrim schedules a pass if the store is over capacity and no pass is
// pending yet.
func (s *threadedStore[K, V]) requestTrim() {
	if s.data.Size() <= s.capacity {
		return
	}
	if !s.pending.CompareAndSwap(false, true) {
		return
	}
	if !s.sched.Schedule(s.delay, s.runPass) {
		// Scheduler is gone; leave the flag clear so a later Put can retry
		// against a scheduler that accepts work again.
		s.pending.Store(false)
	}
}

// runPass is the scheduled task. A pass that panicked is not retried here;
// the next Put re-evaluates.
func (s *threadedStore[K, V]) runPass() {
	ok := s.trimSafely()
	s.pending.Store(false)
	if ok {
		// Puts that raced with the pass may have pushed us over again.
		s.requestTrim()
	}
}

func (s *threadedStore[K, V]) trimSafely() (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			s.metrics.TrimPanicked()
			s.log.Error("cache trim pass panicked", slog.Any("recovered", r))
			ok = false
		}
	}()
	defer s.metrics.TrimPassDuration().ObserveDuration()

	if s.beforeTrim != nil {
		s.beforeTrim()
	}
	if n := s.trim(); n > 0 {
		s.metrics.Evicted(n)
		s.metrics.Size(s.data.Size())
	}
	return true
}

// trim removes the oldest entries beyond capacity and returns how many it
// removed. An entry read or overwritten after the snapshot survives; the
// follow-up pass in runPass picks a new victim if needed.
func (s *threadedStore[K, V]) trim() int {
	snap := s.snapshot()
	excess := len(snap) - s.capacity
	if excess <= 0 {
		return 0
	}

	slices.SortFunc(snap, func(a, b candidate[K, V]) int {
		return compareStamps(a.stamp, b.stamp)
	})

	removed := 0
	for _, c := range snap[:excess] {
		if s.evictIfUnchanged(c) {
			removed++
		}
	}
	return removed
}

func (s *threadedStore[K, V]) evictIfUnchanged(c candidate[K, V]) bool {
	evicted := false
	s.data.Compute(c.key, func(cur *tEntry[V], loaded bool) (*tEntry[V], bool) {
		if !loaded {
			// Already gone; delete=true keeps the key absent.
			return cur, true
		}
		if cur != c.entry || cur.recency.Load() != c.stamp.recency {
			return cur, false
		}
		evicted = true
		return cur, true
	})
	return evicted
}

func (s *threadedStore[K, V]) snapshot() []candidate[K, V] {
	out := make([]candidate[K, V], 0, s.data.Size())
	s.data.Range(func(key K, e *tEntry[V]) bool {
		out = append(out, candidate[K, V]{key: key, entry: e, stamp: e.stamp()})
		return true
	})
	return out
}

var _ store[string, any] = (*threadedStore[string, any])(nil)
