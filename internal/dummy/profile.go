// Package dummy describes how the simulated broker behaves: how long each
// publish takes and how often it is rejected.
package dummy

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Profile is a named latency/failure behaviour.
type Profile string

const (
	// Instant acknowledges immediately.
	Instant Profile = "instant"
	// Fast takes 10-50ms.
	Fast Profile = "fast"
	// Medium takes 100-300ms.
	Medium Profile = "medium"
	// Slow takes 1-2s. Good for exercising the publish timeout.
	Slow Profile = "slow"
	// Spike is usually fast but 5% of publishes take 2s.
	Spike Profile = "spike"
	// Flaky rejects 40% of publishes.
	Flaky Profile = "error"
	// Down rejects everything.
	Down Profile = "down"
)

var Profiles = []Profile{Instant, Fast, Medium, Slow, Spike, Flaky, Down}

var (
	ErrUnavailable = errors.New("broker unavailable")
	ErrThrottled   = errors.New("throttled: quota exceeded")
	ErrUnknown     = errors.New("unknown profile")
)

// Rand is the randomness a profile draws from.
type Rand interface {
	Float64() float64
	IntN(n int) int
}

// ParseProfile maps a name such as "fast" or "sim://spike" onto a Profile.
func ParseProfile(s string) (Profile, error) {
	s = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), "sim://")
	if s == "" {
		return Fast, nil
	}
	for _, p := range Profiles {
		if string(p) == s {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: '%s'", ErrUnknown, s)
}

// Next draws the latency of one publish and whether it is rejected.
func (p Profile) Next(r Rand) (time.Duration, error) {
	switch p {
	case Instant:
		return 0, nil
	case Medium:
		return jitter(r, 100, 300), nil
	case Slow:
		return jitter(r, 1000, 2000), nil
	case Spike:
		if r.Float64() < 0.05 {
			return 2 * time.Second, nil
		}
		return 20 * time.Millisecond, nil
	case Flaky:
		lat := jitter(r, 10, 50)
		rnd := r.Float64()
		if rnd < 0.2 {
			return lat, ErrUnavailable
		} else if rnd < 0.4 {
			return lat, ErrThrottled
		}
		return lat, nil
	case Down:
		return 0, ErrUnavailable
	default:
		return jitter(r, 10, 50), nil
	}
}

func jitter(r Rand, loMs, hiMs int) time.Duration {
	return time.Duration(r.IntN(hiMs-loMs)+loMs) * time.Millisecond
}
