// Package prometheus reports cache activity through Prometheus collectors.
package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"

	"gocache/internal/cache"
	"gocache/internal/metrics"
)

// Default histogram buckets for trim pass latency (in seconds).
var trimBuckets = []float64{
	.00001, .00005, .0001, .0005, .001, .005, .01, .05, .1, .5, 1,
}

// cacheMetrics implements cache.Metrics using Prometheus.
type cacheMetrics struct {
	hits         prometheus.Counter
	misses       prometheus.Counter
	evictions    prometheus.Counter
	size         prometheus.Gauge
	trimDuration prometheus.Histogram
	trimPanics   prometheus.Counter
}

// NewCacheMetrics registers the collectors for one cache on reg. name is
// attached as the "cache" label so several caches can share a registry.
func NewCacheMetrics(reg prometheus.Registerer, name string) cache.Metrics {
	labels := prometheus.Labels{"cache": name}

	m := &cacheMetrics{
		hits: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "gocache_hits_total",
			Help:        "Total number of cache hits",
			ConstLabels: labels,
		}),
		misses: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "gocache_misses_total",
			Help:        "Total number of cache misses",
			ConstLabels: labels,
		}),
		evictions: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "gocache_evictions_total",
			Help:        "Total number of entries evicted for capacity",
			ConstLabels: labels,
		}),
		size: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "gocache_entries",
			Help:        "Number of live entries",
			ConstLabels: labels,
		}),
		trimDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:        "gocache_trim_pass_duration_seconds",
			Help:        "Background trim pass latency in seconds",
			Buckets:     trimBuckets,
			ConstLabels: labels,
		}),
		trimPanics: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "gocache_trim_pass_panics_total",
			Help:        "Total number of background trim passes that panicked",
			ConstLabels: labels,
		}),
	}

	reg.MustRegister(
		m.hits,
		m.misses,
		m.evictions,
		m.size,
		m.trimDuration,
		m.trimPanics,
	)

	return m
}

func (m *cacheMetrics) Hit()  { m.hits.Inc() }
func (m *cacheMetrics) Miss() { m.misses.Inc() }

func (m *cacheMetrics) Evicted(n int) { m.evictions.Add(float64(n)) }

func (m *cacheMetrics) Size(n int) { m.size.Set(float64(n)) }

func (m *cacheMetrics) TrimPassDuration() metrics.Timer {
	return metrics.StartTimer(m.trimDuration)
}

func (m *cacheMetrics) TrimPanicked() { m.trimPanics.Inc() }

var _ cache.Metrics = (*cacheMetrics)(nil)
