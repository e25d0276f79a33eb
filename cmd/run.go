package cmd

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"kafkaload/internal/pacer"
	"kafkaload/internal/runner"
)

// preset is a canned load profile.
type preset struct {
	Count      int
	Rate       float64
	Duplicates float64
}

var presets = map[string]preset{
	"small":  {Count: 1000, Rate: 100, Duplicates: 0.1},
	"medium": {Count: 10000, Rate: 200, Duplicates: 0.1},
	"large":  {Count: 100000, Rate: 500, Duplicates: 0.1},
}

func presetNames() string {
	names := make([]string, 0, len(presets))
	for n := range presets {
		names = append(names, n)
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Publish a paced stream of records with injected duplicates",
	Example: `  kafkaload run --preset small
  kafkaload run -n 5000 -r 250 -d 0.05 --brokers kafka-1:9092,kafka-2:9092
  kafkaload run --transport sim --brokers sim://spike --tui`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := runConfig(cmd)
		if err != nil {
			return err
		}

		s := loadSettings(viper.GetViper())
		cfg.Topic = s.Topic
		cfg.PublishTimeout = s.PublishTimeout

		log, err := newLogger(s.LogLevel)
		if err != nil {
			return fmt.Errorf("%w: %w", runner.ErrValidation, err)
		}

		useTUI, _ := cmd.Flags().GetBool("tui")
		progress, _ := cmd.Flags().GetBool("progress")
		out, _ := cmd.Flags().GetString("out")

		sess := session{settings: s, log: log, useTUI: useTUI, progress: progress, outPrefix: out}
		_, err = sess.execute(cmd.Context(), cfg, func(ctx context.Context, r *runner.Runner) (runner.Report, error) {
			return r.Run(ctx)
		})
		return err
	},
}

// runConfig builds the loop configuration from flags, a preset filling in
// whatever was not set explicitly.
func runConfig(cmd *cobra.Command) (runner.Config, error) {
	f := cmd.Flags()

	count, _ := f.GetInt("count")
	rate, _ := f.GetFloat64("rate")
	dups, _ := f.GetFloat64("duplicates")
	every, _ := f.GetInt("checkpoint-every")
	pacing, _ := f.GetString("pacing")

	if name, _ := f.GetString("preset"); name != "" {
		p, ok := presets[strings.ToLower(name)]
		if !ok {
			return runner.Config{}, fmt.Errorf("%w: preset '%s' (must be one of %s)", runner.ErrValidation, name, presetNames())
		}
		if !f.Changed("count") {
			count = p.Count
		}
		if !f.Changed("rate") {
			rate = p.Rate
		}
		if !f.Changed("duplicates") {
			dups = p.Duplicates
		}
	}

	cfg := runner.Config{
		Count:                count,
		Rate:                 rate,
		DuplicateProbability: dups,
		CheckpointEvery:      every,
		Pacing:               pacer.Strategy(pacing),
	}
	if err := cfg.Validate(); err != nil {
		return runner.Config{}, err
	}
	return cfg, nil
}

func init() {
	addRunFlags(runCmd)
}

func addRunFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.IntP("count", "n", 1000, "number of records to publish")
	f.Float64P("rate", "r", 100, "target records per second")
	f.Float64P("duplicates", "d", 0.1, "probability in [0,1] that a record replays an earlier id")
	f.String("preset", "", "canned profile: "+presetNames())
	f.Int("checkpoint-every", runner.DefaultCheckpointEvery, "print progress every N records")
	f.String("pacing", string(pacer.StrategyCatchUp), "pacing strategy: catchup or smooth")
	f.Bool("tui", false, "show the live dashboard")
	f.Bool("progress", false, "draw a progress bar instead of checkpoint lines")
	f.StringP("out", "o", "", "write per-record CSV/JSON and a summary with this prefix")
}
