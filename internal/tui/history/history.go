// Package history is a table of past runs.
package history

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"kafkaload/internal/runner"
	"kafkaload/internal/tui/result"
	"kafkaload/internal/tui/styles"
)

type Model struct {
	Reports []runner.Report
	Table   table.Model

	// Selected is shown in detail when set.
	Selected *runner.Report

	Width  int
	Height int
}

func Columns() []table.Column {
	return []table.Column{
		{Title: "Started", Width: 20},
		{Title: "Mode", Width: 6},
		{Title: "State", Width: 12},
		{Title: "Topic", Width: 20},
		{Title: "Sent", Width: 10},
		{Title: "Dup", Width: 8},
		{Title: "Fail", Width: 8},
		{Title: "Rate", Width: 10},
	}
}

// Row renders one report as table cells.
func Row(r runner.Report) table.Row {
	return table.Row{
		r.StartedAt.Local().Format(time.DateTime),
		string(r.Mode),
		r.State.String(),
		r.Config.Topic,
		humanize.Comma(int64(r.Sent)),
		humanize.Comma(int64(r.Duplicated)),
		humanize.Comma(int64(r.Failed)),
		fmt.Sprintf("%.1f/s", r.AvgRate),
	}
}

func NewModel(reports []runner.Report) Model {
	t := table.New(
		table.WithColumns(Columns()),
		table.WithFocused(true),
		table.WithHeight(10),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(false)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)

	rows := make([]table.Row, len(reports))
	for i, r := range reports {
		rows[i] = Row(r)
	}
	t.SetRows(rows)

	return Model{Reports: reports, Table: t}
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.Table.SetWidth(msg.Width - 4)
		m.Table.SetHeight(max(msg.Height-6, 3))

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "enter":
			if i := m.Table.Cursor(); i >= 0 && i < len(m.Reports) {
				m.Selected = &m.Reports[i]
			}
			return m, nil
		case "esc":
			m.Selected = nil
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.Table, cmd = m.Table.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	if m.Selected != nil {
		return result.View(*m.Selected) + "\n" + styles.RenderKey("esc", "back") + "  " + styles.RenderKey("q", "quit") + "\n"
	}
	if len(m.Reports) == 0 {
		return styles.Subtle.Render("No runs recorded yet.") + "\n"
	}
	return styles.Box.Render(m.Table.View()) + "\n" +
		styles.RenderKey("enter", "details") + "  " + styles.RenderKey("q", "quit") + "\n"
}
