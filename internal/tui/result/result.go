// Package result renders a finished run.
package result

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"

	"kafkaload/internal/runner"
	"kafkaload/internal/tui/styles"
)

// View renders the report of a completed or interrupted run.
func View(r runner.Report) string {
	s := strings.Builder{}

	title := "📊 Run Complete"
	if r.State == runner.Interrupted {
		title = "⛔ Run Interrupted"
	}
	s.WriteString(styles.Title.Render(title))
	s.WriteString("\n\n")

	s.WriteString(styles.Active.Render("Overview"))
	s.WriteString("\n")
	overview := fmt.Sprintf(
		"Attempts:   %s/%s\nSent:       %s\nDuplicates: %s\nFailed:     %s\nElapsed:    %.2fs\nAvg Rate:   %.2f msg/s",
		humanize.Comma(int64(r.Iterations)), humanize.Comma(int64(r.Total)),
		humanize.Comma(int64(r.Sent)),
		humanize.Comma(int64(r.Duplicated)),
		humanize.Comma(int64(r.Failed)),
		r.Elapsed.Seconds(),
		r.AvgRate,
	)
	s.WriteString(styles.Box.Render(overview))
	s.WriteString("\n\n")

	s.WriteString(styles.Active.Render("Publish Latency"))
	s.WriteString("\n")
	latency := fmt.Sprintf(
		"Avg: %.2f ms\nP50: %.2f ms\nP90: %.2f ms\nP99: %.2f ms\nMax: %.2f ms",
		r.AvgLatencyMs, r.P50LatencyMs, r.P90LatencyMs, r.P99LatencyMs, r.MaxLatencyMs,
	)
	s.WriteString(styles.Box.Render(latency))
	s.WriteString("\n")

	return s.String()
}
