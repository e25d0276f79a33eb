package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"kafkaload/internal/cli"
	"kafkaload/internal/logging"
	"kafkaload/internal/metrics"
	"kafkaload/internal/publisher"
	"kafkaload/internal/record"
	"kafkaload/internal/runner"
	"kafkaload/internal/storage"
	"kafkaload/internal/tui"
)

// settings are the options shared by every command, resolved from flags,
// environment and config file.
type settings struct {
	Transport       publisher.Transport
	Brokers         []string
	Topic           string
	PublishTimeout  time.Duration
	Format          record.Format
	Acks            publisher.Acks
	Compression     publisher.Compression
	Retries         int
	AutoCreateTopic bool
	QoS             int
	ClientID        string
	Seed            uint64
	LogLevel        string
	MetricsAddr     string
	HistoryFile     string
	NoHistory       bool
	Verbose         bool
}

func loadSettings(v *viper.Viper) settings {
	return settings{
		Transport:       publisher.Transport(strings.ToLower(v.GetString("transport"))),
		Brokers:         v.GetStringSlice("brokers"),
		Topic:           v.GetString("topic"),
		PublishTimeout:  v.GetDuration("publish-timeout"),
		Format:          record.Format(v.GetString("format")),
		Acks:            publisher.Acks(v.GetString("acks")),
		Compression:     publisher.Compression(v.GetString("compression")),
		Retries:         v.GetInt("retries"),
		AutoCreateTopic: v.GetBool("auto-create-topic"),
		QoS:             v.GetInt("qos"),
		ClientID:        v.GetString("client-id"),
		Seed:            v.GetUint64("seed"),
		LogLevel:        v.GetString("log-level"),
		MetricsAddr:     v.GetString("metrics-addr"),
		HistoryFile:     v.GetString("history-file"),
		NoHistory:       v.GetBool("no-history"),
		Verbose:         v.GetBool("verbose"),
	}
}

func (s settings) publisherConfig(log zerolog.Logger) (publisher.Config, error) {
	if s.QoS < 0 || s.QoS > 2 {
		return publisher.Config{}, fmt.Errorf("%w: qos %d must be 0, 1 or 2", runner.ErrValidation, s.QoS)
	}
	return publisher.Config{
		Transport:       s.Transport,
		Brokers:         s.Brokers,
		Timeout:         s.PublishTimeout,
		Acks:            s.Acks,
		Compression:     s.Compression,
		Retries:         s.Retries,
		AutoCreateTopic: s.AutoCreateTopic,
		ClientID:        s.ClientID,
		QoS:             byte(s.QoS),
		Seed:            s.Seed,
		Logger:          log,
	}, nil
}

// target is the broker shown in the run header.
func (s settings) target() string {
	return fmt.Sprintf("%s %s", s.Transport, strings.Join(s.Brokers, ","))
}

func newLogger(level string) (zerolog.Logger, error) {
	console := false
	if fi, err := os.Stderr.Stat(); err == nil {
		console = fi.Mode()&os.ModeCharDevice != 0
	}
	return logging.New(os.Stderr, level, console)
}

// session wires one run: publisher, observers and output.
type session struct {
	settings
	log zerolog.Logger

	useTUI    bool
	progress  bool
	outPrefix string
}

type driveFunc func(ctx context.Context, r *runner.Runner) (runner.Report, error)

func (s session) execute(ctx context.Context, base runner.Config, drive driveFunc) (runner.Report, error) {
	codec, err := record.NewCodec(s.Format)
	if err != nil {
		return runner.Report{}, fmt.Errorf("%w: %w", runner.ErrValidation, err)
	}
	pubCfg, err := s.publisherConfig(s.log)
	if err != nil {
		return runner.Report{}, err
	}
	open := func(ctx context.Context) (publisher.Publisher, error) {
		return publisher.Open(ctx, pubCfg)
	}

	observers := []runner.Observer{runner.NewLogObserver(s.log)}

	var recorder *cli.Recorder
	if s.outPrefix != "" {
		recorder = cli.NewRecorder()
		observers = append(observers, recorder)
	}

	if s.MetricsAddr != "" {
		m := metrics.New()
		observers = append(observers, m)
		go func() {
			if err := m.Serve(ctx, s.MetricsAddr, s.log); err != nil {
				s.log.Error().Err(err).Msg("metrics server stopped")
			}
		}()
	}

	if !s.NoHistory {
		if store, err := s.openHistory(); err != nil {
			s.log.Warn().Err(err).Msg("run history disabled")
		} else {
			defer store.Close()
			observers = append(observers, storage.NewObserver(store, s.log))
		}
	}

	build := func(extra ...runner.Observer) (*runner.Runner, error) {
		return runner.NewRunner(base, open,
			runner.WithLogger(s.log),
			runner.WithSeed(s.Seed),
			runner.WithCodec(codec),
			runner.WithObservers(append(observers, extra...)...),
		)
	}

	var rep runner.Report
	if s.useTUI {
		rep, err = tui.Run(ctx, base.Rate, func(ctx context.Context, obs runner.Observer) (runner.Report, error) {
			r, err := build(obs)
			if err != nil {
				return runner.Report{}, err
			}
			return drive(ctx, r)
		})
	} else {
		console := cli.NewConsole(os.Stdout, s.target())
		console.Verbose = s.Verbose
		console.Progress = s.progress
		var r *runner.Runner
		r, err = build(console)
		if err != nil {
			return runner.Report{}, err
		}
		rep, err = drive(ctx, r)
	}

	if recorder != nil && recorder.Report != nil {
		if xerr := recorder.Export(s.outPrefix); xerr != nil {
			s.log.Error().Err(xerr).Str("prefix", s.outPrefix).Msg("export failed")
		} else {
			fmt.Printf("\n💾 Reports saved to %s.{csv,json,_summary.json}\n", s.outPrefix)
		}
	}
	return rep, err
}

func (s settings) openHistory() (*storage.Store, error) {
	path := s.HistoryFile
	if path == "" {
		var err error
		if path, err = storage.DefaultPath(); err != nil {
			return nil, err
		}
	}
	return storage.Open(path, storage.DefaultLimit)
}
