package cache

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newManualThreaded(capacity int, m Metrics) (*threadedStore[string, int], *manualScheduler) {
	sched := &manualScheduler{}
	return newThreadedStore[string, int](capacity, 0, sched, discardLogger(), m), sched
}

func TestThreadedCoalescesTrimRequests(t *testing.T) {
	s, sched := newManualThreaded(10, NopMetrics())

	for i := 0; i < 100; i++ {
		s.put(fmt.Sprintf("k%02d", i), i)
	}
	// Put never evicts by itself.
	assert.Equal(t, 100, s.len())
	require.Equal(t, 1, sched.pending())
	require.True(t, s.pending.Load())

	require.True(t, sched.runNext())
	assert.Equal(t, 10, s.len())
	assert.Equal(t, 0, sched.pending())
	assert.False(t, s.pending.Load())

	for i := 90; i < 100; i++ {
		assert.True(t, s.containsKey(fmt.Sprintf("k%02d", i)))
	}
}

func TestThreadedGetAndRemoveNeverSchedule(t *testing.T) {
	s, sched := newManualThreaded(2, NopMetrics())
	s.put("a", 1)
	s.put("b", 2)
	s.get("a")
	s.remove("b")
	s.remove("missing")
	assert.Equal(t, 0, sched.pending())
}

func TestThreadedEvictionSkipsTouchedEntries(t *testing.T) {
	s, _ := newManualThreaded(1, NopMetrics())
	s.put("a", 1)
	s.put("b", 2)
	s.put("c", 3)

	snap := map[string]candidate[string, int]{}
	for _, c := range s.snapshot() {
		snap[c.key] = c
	}

	// Read after the snapshot.
	s.get("a")
	assert.False(t, s.evictIfUnchanged(snap["a"]))
	assert.True(t, s.containsKey("a"))

	// Overwritten after the snapshot.
	s.put("b", 20)
	assert.False(t, s.evictIfUnchanged(snap["b"]))
	assert.True(t, s.containsKey("b"))

	// Untouched.
	assert.True(t, s.evictIfUnchanged(snap["c"]))
	assert.False(t, s.containsKey("c"))

	// Already gone.
	assert.False(t, s.evictIfUnchanged(snap["c"]))
	assert.False(t, s.containsKey("c"))
}

func TestThreadedTieBreaksOnInsertionSequence(t *testing.T) {
	s, _ := newManualThreaded(2, NopMetrics())

	add := func(key string, seq, recency uint64) {
		e := &tEntry[int]{seq: seq}
		e.recency.Store(recency)
		s.data.Store(key, e)
	}
	add("late", 2, 5)
	add("early", 1, 5)
	add("fresh", 3, 9)

	assert.Equal(t, 1, s.trim())
	assert.False(t, s.containsKey("early"))
	assert.True(t, s.containsKey("late"))
	assert.True(t, s.containsKey("fresh"))
}

func TestThreadedPassReschedulesWhenPutsRace(t *testing.T) {
	m := &countingMetrics{}
	s, sched := newManualThreaded(2, m)

	var raced atomic.Bool
	m.onEvicted = func() {
		if raced.CompareAndSwap(false, true) {
			// Puts landing while the pass is still running.
			s.put("x", 10)
			s.put("y", 11)
		}
	}

	s.put("a", 1)
	s.put("b", 2)
	s.put("c", 3)
	require.Equal(t, 1, sched.pending())

	require.True(t, sched.runNext())
	assert.Equal(t, 4, s.len())
	require.Equal(t, 1, sched.pending(), "pass should schedule a follow-up")

	require.True(t, sched.runNext())
	assert.Equal(t, 2, s.len())
	assert.True(t, s.containsKey("x"))
	assert.True(t, s.containsKey("y"))
	assert.Equal(t, 0, sched.pending())
}

func TestThreadedPanickingPassIsIsolated(t *testing.T) {
	w := NewWorker(WithWorkerLogger(discardLogger()))
	defer w.Stop()

	m := &countingMetrics{}
	s := newThreadedStore[string, int](2, 0, w, discardLogger(), m)
	var failed atomic.Bool
	s.beforeTrim = func() {
		if failed.CompareAndSwap(false, true) {
			panic("boom")
		}
	}

	s.put("a", 1)
	s.put("b", 2)
	s.put("c", 3)

	require.Eventually(t, func() bool {
		return m.panics.Load() == 1 && !s.pending.Load()
	}, time.Second, 2*time.Millisecond)
	// No retry of the failed pass.
	assert.Equal(t, 3, s.len())
	assert.False(t, w.Stopped())

	// The next put triggers a fresh pass.
	s.put("d", 4)
	require.Eventually(t, func() bool {
		return s.len() == 2
	}, time.Second, 2*time.Millisecond)
	assert.True(t, s.containsKey("c"))
	assert.True(t, s.containsKey("d"))
}

func TestThreadedRefusedScheduleClearsPending(t *testing.T) {
	s, sched := newManualThreaded(1, NopMetrics())
	sched.refuse = true

	s.put("a", 1)
	s.put("b", 2)
	assert.False(t, s.pending.Load())
	assert.Equal(t, 2, s.len())

	sched.refuse = false
	s.put("c", 3)
	assert.Equal(t, 1, sched.pending())
}

func TestTouchIsMonotonic(t *testing.T) {
	e := &tEntry[int]{}
	e.recency.Store(10)

	e.touch(5)
	assert.EqualValues(t, 10, e.recency.Load())
	e.touch(12)
	assert.EqualValues(t, 12, e.recency.Load())
}
