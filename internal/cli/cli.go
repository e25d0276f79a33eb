// Package cli prints a run to the terminal: a header, per-record lines,
// progress and the final results block.
package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"kafkaload/internal/publisher"
	"kafkaload/internal/runner"
	"kafkaload/internal/stats"
)

const rule = "======================================================================"

// Console is a runner.Observer writing human-readable output.
type Console struct {
	w io.Writer

	// Verbose prints a line for every successful publish. Suites are always verbose.
	Verbose bool
	// Progress redraws a progress bar on every tick.
	Progress bool

	target  string
	mode    runner.Mode
	drawing bool
}

// NewConsole writes to w, or stdout when w is nil. target is the broker
// address shown in the header.
func NewConsole(w io.Writer, target string) *Console {
	if w == nil {
		w = os.Stdout
	}
	return &Console{w: w, target: target}
}

func (c *Console) Start(p runner.Plan) {
	c.mode = p.Mode
	if p.Mode == runner.ModeSuite {
		fmt.Fprintf(c.w, "\n🧪 RUNNING SMOKE TEST\n")
		fmt.Fprintf(c.w, "%s\n", rule)
		fmt.Fprintf(c.w, "Broker     : %s\n", c.target)
		fmt.Fprintf(c.w, "Topic      : %s\n", p.Config.Topic)
		fmt.Fprintf(c.w, "Cases      : %d\n", p.Total)
		fmt.Fprintf(c.w, "Run ID     : %s\n", p.RunID)
		fmt.Fprintf(c.w, "%s\n\n", rule)
		return
	}

	fmt.Fprintf(c.w, "\n🚀 STARTING LOAD TEST\n")
	fmt.Fprintf(c.w, "%s\n", rule)
	fmt.Fprintf(c.w, "Broker     : %s\n", c.target)
	fmt.Fprintf(c.w, "Topic      : %s\n", p.Config.Topic)
	fmt.Fprintf(c.w, "Messages   : %s\n", humanize.Comma(int64(p.Total)))
	fmt.Fprintf(c.w, "Target Rate: %s msg/s\n", humanize.CommafWithDigits(p.Config.Rate, 1))
	fmt.Fprintf(c.w, "Duplicates : %.1f%%\n", p.Config.DuplicateProbability*100)
	fmt.Fprintf(c.w, "Pacing     : %s\n", pacingName(p.Config))
	fmt.Fprintf(c.w, "Run ID     : %s\n", p.RunID)
	fmt.Fprintf(c.w, "%s\n\n", rule)
}

func pacingName(cfg runner.Config) string {
	if cfg.Pacing == "" {
		return "catchup"
	}
	return string(cfg.Pacing)
}

func (c *Console) Published(e runner.PublishEvent) {
	if e.Err != nil {
		c.line("✗ Error sending %s: %s (%s)", e.ID, e.Err, publisher.Kind(e.Err))
		return
	}
	if e.Duplicate && c.mode != runner.ModeSuite {
		c.line("⚠ Sending duplicate: %s", e.ID)
	}
	if c.Verbose || c.mode == runner.ModeSuite {
		dup := ""
		if e.Duplicate {
			dup = " (duplicate)"
		}
		c.line("✓ Sent: %s | Type: %s | %s%s", e.ID, e.Category, e.Ack, dup)
	}
}

func (c *Console) Tick(s stats.Snapshot) {
	if !c.Progress || c.mode == runner.ModeSuite {
		return
	}
	pct := 0.0
	if s.Total > 0 {
		pct = float64(s.Iterations) / float64(s.Total)
	}
	fmt.Fprintf(c.w, "\r%s %3.0f%% | %s/%s | Rate: %.1f msg/s | OK: %s | Dup: %s | Err: %s",
		progressBar(pct, 20), pct*100,
		humanize.Comma(int64(s.Iterations)), humanize.Comma(int64(s.Total)),
		s.Rate,
		humanize.Comma(int64(s.Sent)),
		humanize.Comma(int64(s.Duplicated)),
		humanize.Comma(int64(s.Failed)),
	)
	c.drawing = true
}

func (c *Console) Checkpoint(s stats.Snapshot) {
	if c.Progress {
		return
	}
	c.line("Progress: %s/%s messages | Rate: %.2f msg/s | Elapsed: %.2fs",
		humanize.Comma(int64(s.Iterations)), humanize.Comma(int64(s.Total)),
		s.Rate, s.Elapsed.Seconds())
}

func (c *Console) Finished(r runner.Report) {
	c.endDrawing()

	title := "📊 LOAD TEST RESULTS"
	if r.State == runner.Interrupted {
		title = "⛔ LOAD TEST INTERRUPTED (partial results)"
	}
	if r.Mode == runner.ModeSuite {
		title = "📊 SMOKE TEST RESULTS"
	}

	fmt.Fprintf(c.w, "\n%s\n", title)
	fmt.Fprintf(c.w, "%s\n", rule)
	fmt.Fprintf(c.w, "Total Duration : %.2fs\n", r.Elapsed.Seconds())
	fmt.Fprintf(c.w, "Attempts       : %s/%s\n", humanize.Comma(int64(r.Iterations)), humanize.Comma(int64(r.Total)))
	fmt.Fprintf(c.w, "Sent           : %s\n", humanize.Comma(int64(r.Sent)))
	fmt.Fprintf(c.w, "Duplicates     : %s\n", humanize.Comma(int64(r.Duplicated)))
	fmt.Fprintf(c.w, "Failures       : %s\n", humanize.Comma(int64(r.Failed)))
	fmt.Fprintf(c.w, "Average Rate   : %.2f msg/s\n", r.AvgRate)
	if r.Sent > 0 {
		fmt.Fprintf(c.w, "\n⏱️  PUBLISH LATENCY (ms) [Success Only]\n")
		fmt.Fprintf(c.w, "   Avg : %.2f\n", r.AvgLatencyMs)
		fmt.Fprintf(c.w, "   P50 : %.2f\n", r.P50LatencyMs)
		fmt.Fprintf(c.w, "   P90 : %.2f\n", r.P90LatencyMs)
		fmt.Fprintf(c.w, "   P99 : %.2f\n", r.P99LatencyMs)
		fmt.Fprintf(c.w, "   Max : %.2f\n", r.MaxLatencyMs)
	}
	fmt.Fprintf(c.w, "%s\n", rule)
}

// line prints a full line, first terminating a progress bar in flight.
func (c *Console) line(format string, args ...any) {
	c.endDrawing()
	fmt.Fprintf(c.w, format+"\n", args...)
}

func (c *Console) endDrawing() {
	if c.drawing {
		fmt.Fprintln(c.w)
		c.drawing = false
	}
}

func progressBar(pct float64, width int) string {
	filled := int(pct * float64(width))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	return "[" + strings.Repeat("█", filled) + strings.Repeat("-", width-filled) + "]"
}

// FormatElapsed renders a duration the way the results block does.
func FormatElapsed(d time.Duration) string {
	return fmt.Sprintf("%.2fs", d.Seconds())
}
