package publisher

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/zeebo/xxh3"

	"kafkaload/internal/clock"
	"kafkaload/internal/dummy"
)

// SimOptions configures the in-process simulated broker.
type SimOptions struct {
	// Partitions defaults to 6.
	Partitions int
	// Timeout bounds a publish the way a real transport would. Default: DefaultTimeout.
	Timeout time.Duration
	// Seed feeds the profile's randomness when Rand is nil. Zero picks a random seed.
	Seed  uint64
	Rand  dummy.Rand
	Clock clock.Clock
}

// Sim is an in-process broker. Keys are spread over partitions by hash and
// each partition hands out increasing offsets.
type Sim struct {
	profile    dummy.Profile
	partitions uint64
	timeout    time.Duration
	rng        dummy.Rand
	clock      clock.Clock

	mu      sync.Mutex
	offsets []int64
	closed  bool

	published int
	flushes   int
	closes    int
}

func NewSim(profile dummy.Profile, opts SimOptions) *Sim {
	if opts.Partitions <= 0 {
		opts.Partitions = 6
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Clock == nil {
		opts.Clock = clock.Real()
	}
	if opts.Rand == nil {
		seed := opts.Seed
		if seed == 0 {
			seed = rand.Uint64()
		}
		opts.Rand = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	}
	return &Sim{
		profile:    profile,
		partitions: uint64(opts.Partitions),
		timeout:    opts.Timeout,
		rng:        opts.Rand,
		clock:      opts.Clock,
		offsets:    make([]int64, opts.Partitions),
	}
}

func (s *Sim) Publish(ctx context.Context, msg Message) (Ack, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return Ack{}, ErrNotOpen
	}
	latency, rejected := s.profile.Next(s.rng)
	s.mu.Unlock()

	if latency > s.timeout {
		if err := s.clock.Sleep(ctx, s.timeout); err != nil {
			return Ack{}, classify(err)
		}
		return Ack{}, errors.Join(ErrTimeout, fmt.Errorf("no ack within %s", s.timeout))
	}
	if err := s.clock.Sleep(ctx, latency); err != nil {
		return Ack{}, classify(err)
	}
	if rejected != nil {
		return Ack{}, errors.Join(ErrBroker, rejected)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	partition := xxh3.HashString(msg.Key) % s.partitions
	offset := s.offsets[partition]
	s.offsets[partition]++
	s.published++

	return Ack{Topic: msg.Topic, Partition: int32(partition), Offset: offset}, nil
}

func (s *Sim) Flush(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flushes++
	return nil
}

func (s *Sim) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.closes++
	return nil
}

// Counts reports how many records were accepted and how often Flush and
// Close were called.
func (s *Sim) Counts() (published, flushes, closes int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.published, s.flushes, s.closes
}
