// Package live renders the in-progress view of a run.
package live

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"kafkaload/internal/stats"
	"kafkaload/internal/tui/components"
	"kafkaload/internal/tui/styles"
)

// SnapshotMsg carries a throttled snapshot from the running loop.
type SnapshotMsg stats.Snapshot

type Model struct {
	Stats    stats.Snapshot
	Target   float64
	Progress progress.Model

	RateLine    components.Sparkline
	LatencyLine components.Sparkline

	lastSent    uint64
	lastElapsed float64

	Width int
}

func NewModel(target float64) Model {
	return Model{
		Target:      target,
		Progress:    progress.New(progress.WithDefaultGradient()),
		RateLine:    components.NewSparkline(40, "Rate (msg/s)", styles.Active),
		LatencyLine: components.NewSparkline(40, "Latency P90 (ms)", styles.Warn),
	}
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case SnapshotMsg:
		s := stats.Snapshot(msg)

		// Instantaneous rate over the last interval, not the run average.
		elapsed := s.Elapsed.Seconds()
		if dt := elapsed - m.lastElapsed; dt > 0 && s.Sent >= m.lastSent {
			m.RateLine.Add(float64(s.Sent-m.lastSent) / dt)
		}
		m.LatencyLine.Add(s.P90Ms)
		m.lastSent = s.Sent
		m.lastElapsed = elapsed
		m.Stats = s

		pct := 0.0
		if s.Total > 0 {
			pct = float64(s.Iterations) / float64(s.Total)
		}
		return m, m.Progress.SetPercent(pct)

	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Progress.Width = max(msg.Width-4, 10)

		half := max(msg.Width/2-6, 10)
		m.RateLine.Width = half
		m.LatencyLine.Width = half
		return m, nil

	case progress.FrameMsg:
		prog, cmd := m.Progress.Update(msg)
		m.Progress = prog.(progress.Model)
		return m, cmd
	}

	return m, nil
}

func (m Model) ErrorRate() float64 {
	attempts := m.Stats.Sent + m.Stats.Failed
	if attempts == 0 {
		return 0
	}
	return float64(m.Stats.Failed) / float64(attempts) * 100
}

func (m Model) View() string {
	s := strings.Builder{}

	errRate := m.ErrorRate()

	col1 := fmt.Sprintf("SENT: %s\nDUP:  %s",
		humanize.Comma(int64(m.Stats.Sent)),
		humanize.Comma(int64(m.Stats.Duplicated)))
	col2 := fmt.Sprintf("ERR:  %.2f%%\nFAIL: %s", errRate, humanize.Comma(int64(m.Stats.Failed)))

	rateStyle := styles.Success
	if m.Target > 0 && m.Stats.Rate < m.Target*0.9 && m.Stats.Elapsed.Seconds() > 1 {
		rateStyle = styles.Warn
	}
	col3 := fmt.Sprintf("RATE: %s\nGOAL: %.1f msg/s",
		rateStyle.Render(fmt.Sprintf("%.1f msg/s", m.Stats.Rate)),
		m.Target)

	s.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		styles.Box.Render(col1),
		styles.Box.Render(styles.ErrorRate(errRate).Render(col2)),
		styles.Box.Render(col3),
	))
	s.WriteString("\n\n")

	s.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		styles.Box.Render(m.RateLine.View()),
		styles.Box.Render(m.LatencyLine.View()),
	))
	s.WriteString("\n\n")

	latencies := fmt.Sprintf(
		"P50: %.2f ms  |  P90: %.2f ms  |  P99: %.2f ms  |  Elapsed: %.1fs",
		m.Stats.P50Ms, m.Stats.P90Ms, m.Stats.P99Ms, m.Stats.Elapsed.Seconds(),
	)
	box := styles.Box
	if m.Width > 4 {
		box = box.Width(m.Width - 4)
	}
	s.WriteString(box.Render(latencies))
	s.WriteString("\n\n")

	s.WriteString(fmt.Sprintf("%s/%s  ",
		humanize.Comma(int64(m.Stats.Iterations)), humanize.Comma(int64(m.Stats.Total))))
	s.WriteString(m.Progress.View())

	return s.String()
}
