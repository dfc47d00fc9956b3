package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct{ samples []float64 }

func (r *recorder) Observe(v float64) { r.samples = append(r.samples, v) }

func TestStartTimer(t *testing.T) {
	r := &recorder{}
	timer := StartTimer(r)
	time.Sleep(5 * time.Millisecond)
	timer.ObserveDuration()

	require.Len(t, r.samples, 1)
	assert.GreaterOrEqual(t, r.samples[0], 0.005)
}

func TestNopTimer(t *testing.T) {
	NopTimer().ObserveDuration()
	NopTimerFunc()().ObserveDuration()
}
