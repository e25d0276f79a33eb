package stats

import (
	"time"
)

// Run accumulates the counters of one load run. The pacing loop owns it and
// hands out copies (Snapshot, Summary) to everyone else.
type Run struct {
	Sent       uint64
	Failed     uint64
	Duplicated uint64
	Start      time.Time

	// Publish latency, successes and failures alike
	Latency *Histogram
}

func NewRun(start time.Time) *Run {
	return &Run{
		Start:   start,
		Latency: NewHistogram(),
	}
}

// Add folds one publish attempt into the counters. Only successful
// attempts contribute latency.
func (r *Run) Add(success, duplicate bool, latency time.Duration) {
	if success {
		r.Sent++
		r.Latency.Record(latency)
	} else {
		r.Failed++
	}
	if duplicate {
		r.Duplicated++
	}
}

// Attempts is the number of publish attempts so far.
func (r *Run) Attempts() uint64 {
	return r.Sent + r.Failed
}

// Rate is the successful sends per second since Start.
func (r *Run) Rate(now time.Time) float64 {
	elapsed := now.Sub(r.Start).Seconds()
	if elapsed <= 0 {
		return 0
	}
	return float64(r.Sent) / elapsed
}

// ErrorRate is the share of failed attempts in percent.
func (r *Run) ErrorRate() float64 {
	n := r.Attempts()
	if n == 0 {
		return 0
	}
	return (float64(r.Failed) / float64(n)) * 100
}

// Snapshot is a point-in-time copy of a run, used for checkpoints and
// live views.
type Snapshot struct {
	Iterations int
	Total      int
	Sent       uint64
	Failed     uint64
	Duplicated uint64
	Elapsed    time.Duration
	Rate       float64

	P50Ms float64
	P90Ms float64
	P99Ms float64
}

func (r *Run) Snapshot(now time.Time, iterations, total int) Snapshot {
	return Snapshot{
		Iterations: iterations,
		Total:      total,
		Sent:       r.Sent,
		Failed:     r.Failed,
		Duplicated: r.Duplicated,
		Elapsed:    now.Sub(r.Start),
		Rate:       r.Rate(now),
		P50Ms:      r.Latency.QuantileMs(50),
		P90Ms:      r.Latency.QuantileMs(90),
		P99Ms:      r.Latency.QuantileMs(99),
	}
}

// Summary is the final tally of a run.
type Summary struct {
	Sent       uint64        `json:"sent"`
	Failed     uint64        `json:"failed"`
	Duplicated uint64        `json:"duplicated"`
	Elapsed    time.Duration `json:"elapsed"`
	AvgRate    float64       `json:"avg_rate"`

	AvgLatencyMs float64 `json:"avg_latency_ms"`
	P50LatencyMs float64 `json:"p50_latency_ms"`
	P90LatencyMs float64 `json:"p90_latency_ms"`
	P99LatencyMs float64 `json:"p99_latency_ms"`
	MaxLatencyMs float64 `json:"max_latency_ms"`
}

func (r *Run) Summary(now time.Time) Summary {
	return Summary{
		Sent:         r.Sent,
		Failed:       r.Failed,
		Duplicated:   r.Duplicated,
		Elapsed:      now.Sub(r.Start),
		AvgRate:      r.Rate(now),
		AvgLatencyMs: r.Latency.MeanMs(),
		P50LatencyMs: r.Latency.QuantileMs(50),
		P90LatencyMs: r.Latency.QuantileMs(90),
		P99LatencyMs: r.Latency.QuantileMs(99),
		MaxLatencyMs: r.Latency.MaxMs(),
	}
}

// Attempts is the number of publish attempts in the summary.
func (s Summary) Attempts() uint64 {
	return s.Sent + s.Failed
}
