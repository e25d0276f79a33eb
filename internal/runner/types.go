package runner

import (
	"errors"
	"fmt"
	"time"

	"kafkaload/internal/pacer"
	"kafkaload/internal/publisher"
	"kafkaload/internal/record"
	"kafkaload/internal/stats"
)

const (
	DefaultTopic           = "high-volume-topic"
	DefaultCheckpointEvery = 1000
	DefaultUpdateInterval  = 200 * time.Millisecond
)

var (
	// ErrValidation marks an invalid run configuration.
	ErrValidation = errors.New("invalid run configuration")
	// ErrSetup marks a publisher that could not be opened. No report is produced.
	ErrSetup = errors.New("setup failed")
	// ErrInterrupted is returned, alongside a partial report, when the run
	// was cancelled.
	ErrInterrupted = errors.New("run interrupted")
	// ErrAlreadyRan is returned when a Runner is started twice.
	ErrAlreadyRan = errors.New("runner already used")
)

type Config struct {
	Count                int            `json:"count"`
	Rate                 float64        `json:"rate"`
	DuplicateProbability float64        `json:"duplicate_probability"`
	Topic                string         `json:"topic"`
	CheckpointEvery      int            `json:"checkpoint_every"`
	PublishTimeout       time.Duration  `json:"publish_timeout"`
	Pacing               pacer.Strategy `json:"pacing"`
}

// Validate checks the configuration and fills in defaults.
func (c *Config) Validate() error {
	if c.Count <= 0 {
		return fmt.Errorf("%w: count %d must be positive", ErrValidation, c.Count)
	}
	if c.Rate <= 0 {
		return fmt.Errorf("%w: rate %v must be positive", ErrValidation, c.Rate)
	}
	if c.DuplicateProbability < 0 || c.DuplicateProbability > 1 {
		return fmt.Errorf("%w: duplicate probability %v must be within [0,1]", ErrValidation, c.DuplicateProbability)
	}
	c.applyDefaults()
	return nil
}

func (c *Config) applyDefaults() {
	if c.Topic == "" {
		c.Topic = DefaultTopic
	}
	if c.CheckpointEvery <= 0 {
		c.CheckpointEvery = DefaultCheckpointEvery
	}
	if c.PublishTimeout <= 0 {
		c.PublishTimeout = publisher.DefaultTimeout
	}
}

// Case is one fixed send of the smoke-test suite.
type Case struct {
	ID       string          `yaml:"id" json:"id"`
	Category record.Category `yaml:"category" json:"category"`
}

// Mode tells load runs and smoke-test suites apart in reports.
type Mode string

const (
	ModeLoad  Mode = "load"
	ModeSuite Mode = "suite"
)

// Plan describes a run about to start.
type Plan struct {
	RunID  string
	Mode   Mode
	Total  int
	Config Config
}

// PublishEvent describes one publish attempt.
type PublishEvent struct {
	Iteration int
	At        time.Time
	ID        string
	Category  record.Category
	Duplicate bool
	Ack       publisher.Ack
	Err       error
	Latency   time.Duration
}

// Report is the final summary of a completed or interrupted run.
type Report struct {
	RunID      string    `json:"run_id"`
	Mode       Mode      `json:"mode"`
	State      State     `json:"state"`
	StartedAt  time.Time `json:"started_at"`
	Config     Config    `json:"config"`
	Iterations int       `json:"iterations"`
	Total      int       `json:"total"`
	stats.Summary
}
