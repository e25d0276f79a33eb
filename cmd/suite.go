package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"kafkaload/internal/runner"
	"kafkaload/internal/suite"
)

var suiteCmd = &cobra.Command{
	Use:   "suite",
	Short: "Send a short fixed sequence that contains one known duplicate",
	RunE: func(cmd *cobra.Command, args []string) error {
		f := cmd.Flags()
		interval, _ := f.GetDuration("interval")
		path, _ := f.GetString("cases")

		cases := suite.Default()
		if path != "" {
			loaded, fileInterval, err := suite.Load(path)
			if err != nil {
				return fmt.Errorf("%w: %w", runner.ErrValidation, err)
			}
			cases = loaded
			if fileInterval > 0 && !f.Changed("interval") {
				interval = fileInterval
			}
		}
		if interval < 0 {
			return fmt.Errorf("%w: interval %s must not be negative", runner.ErrValidation, interval)
		}

		s := loadSettings(viper.GetViper())
		log, err := newLogger(s.LogLevel)
		if err != nil {
			return fmt.Errorf("%w: %w", runner.ErrValidation, err)
		}

		cfg := runner.Config{Topic: s.Topic, PublishTimeout: s.PublishTimeout}
		out, _ := f.GetString("out")
		sess := session{settings: s, log: log, outPrefix: out}

		rep, err := sess.execute(cmd.Context(), cfg, func(ctx context.Context, r *runner.Runner) (runner.Report, error) {
			return r.RunCases(ctx, cases, interval)
		})
		if err != nil {
			return err
		}

		want := uint64(suite.Duplicates(cases))
		if rep.Duplicated != want {
			return fmt.Errorf("expected %d duplicates, sent %d", want, rep.Duplicated)
		}
		if rep.Failed > 0 {
			return fmt.Errorf("%d of %d sends failed", rep.Failed, rep.Attempts())
		}
		fmt.Printf("\n✅ Smoke test passed: %d sends, %d duplicate(s)\n", rep.Attempts(), rep.Duplicated)
		return nil
	},
}

func init() {
	f := suiteCmd.Flags()
	f.Duration("interval", suite.DefaultInterval, "pause between sends")
	f.String("cases", "", "YAML file with the cases to send instead of the built-in list")
	f.StringP("out", "o", "", "write per-record CSV/JSON and a summary with this prefix")
}
