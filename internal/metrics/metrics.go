// Package metrics provides small instrumentation interfaces so the cache can
// report to a metrics backend (Prometheus, StatsD, ...) without importing it.
package metrics

import "time"

// Observer records a single float sample, typically into a histogram.
type Observer interface {
	Observe(value float64)
}

// Timer measures the duration of an operation. Call ObserveDuration when
// the operation completes to record the elapsed time.
type Timer interface {
	// ObserveDuration records the elapsed time since the timer was created.
	ObserveDuration()
}

// TimerFunc creates a new Timer. This allows deferred timing patterns like:
// defer m.TrimPassDuration().ObserveDuration()
type TimerFunc func() Timer

type observerTimer struct {
	o     Observer
	start time.Time
}

func (t *observerTimer) ObserveDuration() {
	t.o.Observe(time.Since(t.start).Seconds())
}

// StartTimer returns a Timer that reports elapsed seconds to o.
func StartTimer(o Observer) Timer {
	return &observerTimer{o: o, start: time.Now()}
}
