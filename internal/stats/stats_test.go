package stats

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRunAdd(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	r := NewRun(start)

	r.Add(true, false, 2*time.Millisecond)
	r.Add(false, true, 40*time.Millisecond)
	r.Add(true, true, 6*time.Millisecond)

	assert.Equal(t, uint64(2), r.Sent)
	assert.Equal(t, uint64(1), r.Failed)
	assert.Equal(t, uint64(2), r.Duplicated)
	assert.Equal(t, uint64(3), r.Attempts())
	assert.InDelta(t, 33.33, r.ErrorRate(), 0.01)
	// Failed attempts stay out of the latency histogram.
	assert.Equal(t, int64(2), r.Latency.Count())

	now := start.Add(2 * time.Second)
	assert.InDelta(t, 1.0, r.Rate(now), 1e-9)

	s := r.Summary(now)
	assert.Equal(t, 2*time.Second, s.Elapsed)
	assert.Equal(t, uint64(3), s.Attempts())
	assert.InDelta(t, 4.0, s.AvgLatencyMs, 0.01)
	assert.InDelta(t, 6.0, s.MaxLatencyMs, 0.01)

	snap := r.Snapshot(now, 3, 10)
	assert.Equal(t, 3, snap.Iterations)
	assert.Equal(t, 10, snap.Total)
	assert.InDelta(t, 1.0, snap.Rate, 1e-9)
}

func TestRateAtStartIsZero(t *testing.T) {
	start := time.Now()
	r := NewRun(start)
	r.Add(true, false, time.Millisecond)
	assert.Zero(t, r.Rate(start))
	assert.Zero(t, NewRun(start).ErrorRate())
}

func TestHistogramClamps(t *testing.T) {
	h := NewHistogram()
	h.Record(0)
	h.Record(time.Hour)
	assert.Equal(t, int64(2), h.Count())
	assert.InDelta(t, 0.001, h.QuantileMs(0), 0.001)
	assert.InDelta(t, float64(10*time.Minute/time.Millisecond), h.MaxMs(), 1000)
}
