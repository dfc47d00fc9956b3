package cache

import (
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"gocache/internal/metrics"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// countingMetrics records what the cache reports. onEvicted, when set, runs
// inside Evicted, which lets tests act in the middle of a trim pass.
type countingMetrics struct {
	hits, misses, evicted, size, passes, panics atomic.Int64
	onEvicted                                   func()
}

func (m *countingMetrics) Hit()       { m.hits.Add(1) }
func (m *countingMetrics) Miss()      { m.misses.Add(1) }
func (m *countingMetrics) Size(n int) { m.size.Store(int64(n)) }
func (m *countingMetrics) Evicted(n int) {
	m.evicted.Add(int64(n))
	if m.onEvicted != nil {
		m.onEvicted()
	}
}
func (m *countingMetrics) TrimPassDuration() metrics.Timer {
	m.passes.Add(1)
	return metrics.NopTimer()
}
func (m *countingMetrics) TrimPanicked() { m.panics.Add(1) }

// manualScheduler queues tasks until the test runs them.
type manualScheduler struct {
	mu     sync.Mutex
	tasks  []func()
	refuse bool
}

func (s *manualScheduler) Schedule(_ time.Duration, task func()) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.refuse {
		return false
	}
	s.tasks = append(s.tasks, task)
	return true
}

func (s *manualScheduler) pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}

// runNext runs the oldest queued task and reports whether there was one.
func (s *manualScheduler) runNext() bool {
	s.mu.Lock()
	if len(s.tasks) == 0 {
		s.mu.Unlock()
		return false
	}
	task := s.tasks[0]
	s.tasks = s.tasks[1:]
	s.mu.Unlock()

	task()
	return true
}
