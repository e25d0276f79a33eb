// Package pacer throttles the publish loop towards a target rate.
package pacer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"kafkaload/internal/clock"
)

// Strategy selects a pacing algorithm.
type Strategy string

const (
	// StrategyCatchUp sleeps only while ahead of schedule, so a slow stretch
	// is followed by an unthrottled burst until the run is back on target.
	StrategyCatchUp Strategy = "catchup"

	// StrategySmooth spaces successful sends evenly with a token bucket and
	// never bursts to recover lost time.
	StrategySmooth Strategy = "smooth"
)

var ErrInvalid = errors.New("invalid pacer")

// Pacer is consulted after every publish attempt with the number of
// successful sends so far.
type Pacer interface {
	Begin(start time.Time)
	Wait(ctx context.Context, sent uint64) error
}

// New builds the pacer for s. An empty strategy means catch-up.
func New(s Strategy, perSecond float64, clk clock.Clock) (Pacer, error) {
	if perSecond <= 0 {
		return nil, fmt.Errorf("%w: rate %v must be positive", ErrInvalid, perSecond)
	}
	if clk == nil {
		clk = clock.Real()
	}
	switch Strategy(strings.ToLower(string(s))) {
	case StrategyCatchUp, "":
		return &CatchUp{rate: perSecond, clock: clk}, nil
	case StrategySmooth:
		return &Smooth{rate: perSecond, clock: clk}, nil
	}
	return nil, fmt.Errorf("%w: strategy '%s' (must be 'catchup' or 'smooth')", ErrInvalid, s)
}

// CatchUp compares the successful sends against elapsed*rate and sleeps off
// any surplus.
type CatchUp struct {
	rate  float64
	clock clock.Clock
	start time.Time
}

func (p *CatchUp) Begin(start time.Time) {
	p.start = start
}

func (p *CatchUp) Wait(ctx context.Context, sent uint64) error {
	d := p.Delay(sent, p.clock.Now().Sub(p.start))
	if d <= 0 {
		return nil
	}
	return p.clock.Sleep(ctx, d)
}

// Delay is the sleep owed after sent successes in elapsed time.
func (p *CatchUp) Delay(sent uint64, elapsed time.Duration) time.Duration {
	expected := elapsed.Seconds() * p.rate
	ahead := float64(sent) - expected
	if ahead <= 0 {
		return 0
	}
	return time.Duration(ahead / p.rate * float64(time.Second))
}

// Smooth reserves one token per successful send.
type Smooth struct {
	rate    float64
	clock   clock.Clock
	limiter *rate.Limiter
	last    uint64
}

func (p *Smooth) Begin(start time.Time) {
	p.limiter = rate.NewLimiter(rate.Limit(p.rate), 1)
	p.limiter.SetLimitAt(start, rate.Limit(p.rate))
	p.last = 0
}

func (p *Smooth) Wait(ctx context.Context, sent uint64) error {
	if sent <= p.last {
		return nil
	}
	n := int(sent - p.last)
	p.last = sent

	now := p.clock.Now()
	var delay time.Duration
	for i := 0; i < n; i++ {
		r := p.limiter.ReserveN(now, 1)
		if !r.OK() {
			return fmt.Errorf("%w: reservation refused", ErrInvalid)
		}
		delay = r.DelayFrom(now)
	}
	if delay <= 0 {
		return nil
	}
	return p.clock.Sleep(ctx, delay)
}
