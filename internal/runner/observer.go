package runner

import (
	"github.com/rs/zerolog"

	"kafkaload/internal/publisher"
	"kafkaload/internal/stats"
)

// Observer receives the progress of a run. All methods are called from the
// run's goroutine and must not block for long.
type Observer interface {
	Start(Plan)
	Published(PublishEvent)
	// Tick is a throttled live snapshot for dashboards.
	Tick(stats.Snapshot)
	Checkpoint(stats.Snapshot)
	Finished(Report)
}

// NopObserver ignores everything; embed it to implement a subset.
type NopObserver struct{}

func (NopObserver) Start(Plan)                {}
func (NopObserver) Published(PublishEvent)    {}
func (NopObserver) Tick(stats.Snapshot)       {}
func (NopObserver) Checkpoint(stats.Snapshot) {}
func (NopObserver) Finished(Report)           {}

type observers []Observer

func (os observers) start(p Plan) {
	for _, o := range os {
		o.Start(p)
	}
}

func (os observers) published(e PublishEvent) {
	for _, o := range os {
		o.Published(e)
	}
}

func (os observers) tick(s stats.Snapshot) {
	for _, o := range os {
		o.Tick(s)
	}
}

func (os observers) checkpoint(s stats.Snapshot) {
	for _, o := range os {
		o.Checkpoint(s)
	}
}

func (os observers) finished(r Report) {
	for _, o := range os {
		o.Finished(r)
	}
}

// LogObserver writes run events to a structured logger. Individual publishes
// are logged at debug level, failures at warn.
type LogObserver struct {
	log zerolog.Logger
}

func NewLogObserver(log zerolog.Logger) *LogObserver {
	return &LogObserver{log: log.With().Str("component", "runner").Logger()}
}

func (l *LogObserver) Start(p Plan) {
	l.log.Info().
		Str("run_id", p.RunID).
		Str("mode", string(p.Mode)).
		Int("total", p.Total).
		Float64("rate", p.Config.Rate).
		Float64("duplicates", p.Config.DuplicateProbability).
		Str("topic", p.Config.Topic).
		Msg("run started")
}

func (l *LogObserver) Published(e PublishEvent) {
	if e.Err != nil {
		l.log.Warn().
			Err(e.Err).
			Str("id", e.ID).
			Str("kind", publisher.Kind(e.Err)).
			Bool("duplicate", e.Duplicate).
			Msg("publish failed")
		return
	}
	l.log.Debug().
		Str("id", e.ID).
		Str("category", string(e.Category)).
		Bool("duplicate", e.Duplicate).
		Int32("partition", e.Ack.Partition).
		Int64("offset", e.Ack.Offset).
		Dur("latency", e.Latency).
		Msg("published")
}

func (l *LogObserver) Tick(stats.Snapshot) {}

func (l *LogObserver) Checkpoint(s stats.Snapshot) {
	l.log.Info().
		Int("iterations", s.Iterations).
		Int("total", s.Total).
		Float64("rate", s.Rate).
		Dur("elapsed", s.Elapsed).
		Msg("checkpoint")
}

func (l *LogObserver) Finished(r Report) {
	l.log.Info().
		Str("run_id", r.RunID).
		Str("state", r.State.String()).
		Uint64("sent", r.Sent).
		Uint64("duplicated", r.Duplicated).
		Uint64("failed", r.Failed).
		Dur("elapsed", r.Elapsed).
		Float64("avg_rate", r.AvgRate).
		Msg("run finished")
}
