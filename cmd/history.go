package cmd

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"kafkaload/internal/cli"
	"kafkaload/internal/runner"
	"kafkaload/internal/tui"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List runs recorded on this machine",
	RunE: func(cmd *cobra.Command, args []string) error {
		s := loadSettings(viper.GetViper())

		store, err := s.openHistory()
		if err != nil {
			return err
		}
		defer store.Close()

		reports, err := store.List()
		if err != nil {
			return err
		}

		if limit, _ := cmd.Flags().GetInt("limit"); limit > 0 && len(reports) > limit {
			reports = reports[:limit]
		}

		if useTUI, _ := cmd.Flags().GetBool("tui"); useTUI {
			return tui.Browse(reports)
		}
		printHistory(os.Stdout, reports)
		return nil
	},
}

func printHistory(w io.Writer, reports []runner.Report) {
	if len(reports) == 0 {
		fmt.Fprintln(w, "No runs recorded yet.")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN\tSTARTED\tMODE\tSTATE\tTOPIC\tSENT\tDUP\tFAIL\tELAPSED\tRATE")
	for _, r := range reports {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%.1f/s\n",
			shortID(r.RunID),
			r.StartedAt.Local().Format(time.DateTime),
			r.Mode,
			r.State,
			r.Config.Topic,
			humanize.Comma(int64(r.Sent)),
			humanize.Comma(int64(r.Duplicated)),
			humanize.Comma(int64(r.Failed)),
			cli.FormatElapsed(r.Elapsed),
			r.AvgRate,
		)
	}
	tw.Flush()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func init() {
	historyCmd.Flags().Int("limit", 20, "show at most this many runs (0 for all)")
	historyCmd.Flags().Bool("tui", false, "browse runs interactively")
}
