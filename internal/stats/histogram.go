package stats

import (
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

// Histogram records publish latencies in microseconds. It is owned by a
// single run and is not safe for concurrent use.
type Histogram struct {
	hist *hdrhistogram.Histogram
}

func NewHistogram() *Histogram {
	// 1us to 10min, 3 significant figures
	h := hdrhistogram.New(1, int64(10*time.Minute/time.Microsecond), 3)
	return &Histogram{hist: h}
}

// Record stores d, clamped into the trackable range.
func (h *Histogram) Record(d time.Duration) {
	us := d.Microseconds()
	if us < 1 {
		us = 1
	}
	if max := h.hist.HighestTrackableValue(); us > max {
		us = max
	}
	_ = h.hist.RecordValue(us)
}

// QuantileMs returns the q-th percentile (0-100) in milliseconds.
func (h *Histogram) QuantileMs(q float64) float64 {
	return float64(h.hist.ValueAtQuantile(q)) / 1000.0
}

func (h *Histogram) MeanMs() float64 {
	return h.hist.Mean() / 1000.0
}

func (h *Histogram) MaxMs() float64 {
	return float64(h.hist.Max()) / 1000.0
}

func (h *Histogram) Count() int64 {
	return h.hist.TotalCount()
}

func (h *Histogram) Reset() {
	h.hist.Reset()
}
