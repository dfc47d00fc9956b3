package cache

import "gocache/internal/metrics"

// Metrics receives cache instrumentation. Implementations must be safe for
// concurrent use; trim pass callbacks run on the scheduler goroutine.
type Metrics interface {
	Hit()
	Miss()
	// Evicted reports entries removed for capacity, not by Remove or Clear.
	Evicted(n int)
	// Size reports the live entry count after a mutation.
	Size(n int)
	// TrimPassDuration times one background trim pass.
	TrimPassDuration() metrics.Timer
	TrimPanicked()
}

type nopMetrics struct{}

func (nopMetrics) Hit()                            {}
func (nopMetrics) Miss()                           {}
func (nopMetrics) Evicted(int)                     {}
func (nopMetrics) Size(int)                        {}
func (nopMetrics) TrimPassDuration() metrics.Timer { return metrics.NopTimer() }
func (nopMetrics) TrimPanicked()                   {}

// NopMetrics returns a Metrics that discards everything.
func NopMetrics() Metrics { return nopMetrics{} }
