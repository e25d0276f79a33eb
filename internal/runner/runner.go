package runner

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"kafkaload/internal/clock"
	"kafkaload/internal/ledger"
	"kafkaload/internal/pacer"
	"kafkaload/internal/publisher"
	"kafkaload/internal/record"
	"kafkaload/internal/stats"
)

// Opener connects the publisher for a run.
type Opener func(ctx context.Context) (publisher.Publisher, error)

// Runner drives one load run or smoke-test suite. It is single use.
type Runner struct {
	Cfg Config

	open      Opener
	clock     clock.Clock
	rng       record.Rand
	codec     record.Codec
	gen       *record.Generator
	observers observers
	log       zerolog.Logger
	runID     string

	updateInterval time.Duration

	state  State
	ledger *ledger.Ledger
}

type Option func(*Runner)

func WithClock(c clock.Clock) Option {
	return func(r *Runner) { r.clock = c }
}

// WithRand sets the randomness for duplicate decisions and record contents.
func WithRand(rng record.Rand) Option {
	return func(r *Runner) { r.rng = rng }
}

// WithSeed seeds a PCG source. Zero keeps the random default.
func WithSeed(seed uint64) Option {
	return func(r *Runner) {
		if seed != 0 {
			r.rng = rand.New(rand.NewPCG(seed, seed))
		}
	}
}

func WithCodec(c record.Codec) Option {
	return func(r *Runner) { r.codec = c }
}

func WithObservers(os ...Observer) Option {
	return func(r *Runner) { r.observers = append(r.observers, os...) }
}

func WithLogger(l zerolog.Logger) Option {
	return func(r *Runner) { r.log = l }
}

func WithRunID(id string) Option {
	return func(r *Runner) { r.runID = id }
}

// WithUpdateInterval throttles Tick notifications. Zero disables them.
func WithUpdateInterval(d time.Duration) Option {
	return func(r *Runner) { r.updateInterval = d }
}

// NewRunner validates cfg and prepares a run. The publisher is opened by Run.
func NewRunner(cfg Config, open Opener, opts ...Option) (*Runner, error) {
	if open == nil {
		return nil, fmt.Errorf("%w: no publisher", ErrValidation)
	}

	r := &Runner{
		Cfg:            cfg,
		open:           open,
		clock:          clock.Real(),
		log:            zerolog.Nop(),
		updateInterval: DefaultUpdateInterval,
		ledger:         ledger.New(),
	}
	for _, opt := range opts {
		opt(r)
	}

	if r.rng == nil {
		r.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if r.codec == nil {
		r.codec, _ = record.NewCodec(record.FormatJSON)
	}
	if r.runID == "" {
		r.runID = uuid.NewString()
	}
	r.gen = record.NewGenerator(r.rng, r.clock)

	return r, nil
}

// State is the run's lifecycle state.
func (r *Runner) State() State {
	return r.state
}

// RunID identifies the run in reports and history.
func (r *Runner) RunID() string {
	return r.runID
}

// Run sends Cfg.Count records at Cfg.Rate, replaying earlier ids with
// probability Cfg.DuplicateProbability.
//
// On completion the report is returned with a nil error. On cancellation the
// partial report is returned with ErrInterrupted. A publisher that cannot be
// opened yields ErrSetup and no report.
func (r *Runner) Run(ctx context.Context) (Report, error) {
	if err := r.Cfg.Validate(); err != nil {
		return Report{}, err
	}
	p, err := pacer.New(r.Cfg.Pacing, r.Cfg.Rate, r.clock)
	if err != nil {
		return Report{}, fmt.Errorf("%w: %w", ErrValidation, err)
	}

	return r.execute(ctx, ModeLoad, r.Cfg.Count, func(ctx context.Context, it *iteration) error {
		p.Begin(it.metrics.Start)
		for i := 0; i < r.Cfg.Count; i++ {
			if ctx.Err() != nil {
				return errInterrupted
			}

			id, duplicate := r.pickID(i)
			if err := it.send(ctx, i, id, "", duplicate); err != nil {
				return err
			}

			if err := p.Wait(ctx, it.metrics.Sent); err != nil {
				if ctx.Err() != nil {
					return errInterrupted
				}
				return err
			}

			if (i+1)%r.Cfg.CheckpointEvery == 0 {
				r.observers.checkpoint(it.metrics.Snapshot(r.clock.Now(), i+1, r.Cfg.Count))
			}
		}
		return nil
	})
}

// pickID decides whether iteration i replays a known id or mints a new one.
func (r *Runner) pickID(i int) (string, bool) {
	u := r.rng.Float64()
	if r.ledger.Len() > 0 && u < r.Cfg.DuplicateProbability {
		if id, ok := r.ledger.SampleExisting(r.rng); ok {
			return id, true
		}
	}
	id := fmt.Sprintf("msg-%08d", i)
	r.ledger.RecordNew(id)
	return id, false
}

// RunCases sends a fixed sequence, waiting interval between sends. A case
// whose id was already sent in this run counts as a duplicate.
func (r *Runner) RunCases(ctx context.Context, cases []Case, interval time.Duration) (Report, error) {
	if len(cases) == 0 {
		return Report{}, fmt.Errorf("%w: no cases", ErrValidation)
	}
	r.Cfg.applyDefaults()
	r.Cfg.Count = len(cases)

	return r.execute(ctx, ModeSuite, len(cases), func(ctx context.Context, it *iteration) error {
		for i, c := range cases {
			if ctx.Err() != nil {
				return errInterrupted
			}

			duplicate := r.ledger.Contains(c.ID)
			if !duplicate {
				r.ledger.RecordNew(c.ID)
			}
			if err := it.send(ctx, i, c.ID, c.Category, duplicate); err != nil {
				return err
			}

			if i < len(cases)-1 {
				if err := r.clock.Sleep(ctx, interval); err != nil {
					return errInterrupted
				}
			}
		}
		return nil
	})
}

var errInterrupted = errors.New("interrupted")

// execute owns the run lifecycle: open, drive, flush and close on every path,
// then report.
func (r *Runner) execute(ctx context.Context, mode Mode, total int, drive func(context.Context, *iteration) error) (Report, error) {
	if r.state != NotStarted {
		return Report{}, ErrAlreadyRan
	}

	pub, err := r.open(ctx)
	if err != nil {
		r.state = Failed
		return Report{}, fmt.Errorf("%w: %w", ErrSetup, err)
	}

	r.state = Running
	r.ledger.Reset()
	start := r.clock.Now()
	it := &iteration{
		r:        r,
		pub:      pub,
		metrics:  stats.NewRun(start),
		total:    total,
		lastTick: start,
	}

	r.observers.start(Plan{RunID: r.runID, Mode: mode, Total: total, Config: r.Cfg})

	err = r.drive(ctx, it, drive)

	now := r.clock.Now()
	report := Report{
		RunID:      r.runID,
		Mode:       mode,
		StartedAt:  start,
		Config:     r.Cfg,
		Iterations: it.done,
		Total:      total,
		Summary:    it.metrics.Summary(now),
	}

	switch {
	case err == nil:
		r.state = Completed
	case errors.Is(err, errInterrupted):
		r.state = Interrupted
		err = fmt.Errorf("%w: %w", ErrInterrupted, context.Cause(ctx))
	default:
		r.state = Failed
		report.State = r.state
		return report, err
	}

	report.State = r.state
	r.observers.finished(report)
	return report, err
}

// drive runs the loop body and releases the publisher afterwards, also when
// the body panics.
func (r *Runner) drive(ctx context.Context, it *iteration, body func(context.Context, *iteration) error) (err error) {
	defer r.release(it.pub)
	return body(ctx, it)
}

// release flushes then closes the publisher. It is detached from the run's
// context so an interrupted run still drains.
func (r *Runner) release(pub publisher.Publisher) {
	ctx, cancel := context.WithTimeout(context.Background(), r.Cfg.PublishTimeout)
	defer cancel()

	if err := pub.Flush(ctx); err != nil {
		r.log.Warn().Err(err).Msg("flush failed")
	}
	if err := pub.Close(); err != nil {
		r.log.Warn().Err(err).Msg("close failed")
	}
}

// iteration carries the per-run mutable state through the loop body.
type iteration struct {
	r        *Runner
	pub      publisher.Publisher
	metrics  *stats.Run
	total    int
	done     int
	lastTick time.Time
}

// send generates, encodes and publishes one record and folds the outcome into
// the metrics. Publish failures are counted, never returned.
func (it *iteration) send(ctx context.Context, i int, id string, category record.Category, duplicate bool) error {
	r := it.r

	rec := r.gen.Generate(id, category)
	value, err := r.codec.Encode(rec)
	if err != nil {
		return fmt.Errorf("encoding record %s: %w", id, err)
	}

	msg := publisher.Message{
		Topic: r.Cfg.Topic,
		Key:   rec.ID,
		Value: value,
		Headers: []publisher.Header{
			{Key: "event_type", Value: string(rec.Category)},
			{Key: "correlation_id", Value: rec.CorrelationID},
			{Key: "source", Value: rec.Origin},
			{Key: "content_type", Value: r.codec.ContentType()},
		},
	}

	// In-flight publishes are not pre-empted by cancellation; only the
	// per-publish bound applies.
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.Cfg.PublishTimeout)
	began := r.clock.Now()
	ack, perr := it.pub.Publish(pctx, msg)
	latency := r.clock.Now().Sub(began)
	cancel()

	it.metrics.Add(perr == nil, duplicate, latency)
	it.done = i + 1

	r.observers.published(PublishEvent{
		Iteration: i,
		At:        began,
		ID:        id,
		Category:  rec.Category,
		Duplicate: duplicate,
		Ack:       ack,
		Err:       perr,
		Latency:   latency,
	})

	if r.updateInterval > 0 {
		now := r.clock.Now()
		if now.Sub(it.lastTick) >= r.updateInterval || it.done == it.total {
			it.lastTick = now
			r.observers.tick(it.metrics.Snapshot(now, it.done, it.total))
		}
	}
	return nil
}
