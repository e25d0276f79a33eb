// Package tui is the interactive dashboard shown while a run is in progress.
package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"kafkaload/internal/runner"
	"kafkaload/internal/stats"
	"kafkaload/internal/tui/history"
	"kafkaload/internal/tui/live"
	"kafkaload/internal/tui/result"
	"kafkaload/internal/tui/styles"
)

type (
	planMsg     runner.Plan
	finishedMsg runner.Report
	// doneMsg is sent once the run returned, with or without a report.
	doneMsg struct{ err error }
)

type Model struct {
	Plan   runner.Plan
	Live   live.Model
	Report *runner.Report
	Err    error

	stop     context.CancelFunc
	stopping bool
	Width    int
}

// NewModel builds the dashboard. stop cancels the run when the user quits.
func NewModel(target float64, stop context.CancelFunc) Model {
	return Model{
		Live: live.NewModel(target),
		stop: stop,
	}
}

func (m Model) Init() tea.Cmd {
	return m.Live.Init()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			if m.Report != nil || m.Err != nil {
				return m, tea.Quit
			}
			// The run flushes and reports before the program exits.
			m.stopping = true
			if m.stop != nil {
				m.stop()
			}
			return m, nil
		}

	case planMsg:
		m.Plan = runner.Plan(msg)
		m.Live.Target = msg.Config.Rate
		return m, nil

	case finishedMsg:
		r := runner.Report(msg)
		m.Report = &r
		return m, nil

	case doneMsg:
		m.Err = msg.err
		return m, tea.Quit

	case tea.WindowSizeMsg:
		m.Width = msg.Width
	}

	var cmd tea.Cmd
	m.Live, cmd = m.Live.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	if m.Report != nil {
		return result.View(*m.Report)
	}

	s := strings.Builder{}
	s.WriteString(styles.Title.Render("🚀 kafkaload"))
	s.WriteString("\n")
	cfg := m.Plan.Config
	s.WriteString(fmt.Sprintf("Topic: %s | Target: %.1f msg/s | Duplicates: %.1f%%\n",
		cfg.Topic, cfg.Rate, cfg.DuplicateProbability*100))
	s.WriteString(styles.Subtle.Render("Run " + m.Plan.RunID))
	s.WriteString("\n\n")
	s.WriteString(m.Live.View())
	s.WriteString("\n\n")
	if m.stopping {
		s.WriteString(styles.Warn.Render("Stopping, flushing pending messages..."))
	} else {
		s.WriteString(styles.RenderKey("q", "stop run"))
	}
	s.WriteString("\n")
	return s.String()
}

// Observer forwards run progress to a running program.
type Observer struct {
	prog *tea.Program
}

func NewObserver(p *tea.Program) *Observer {
	return &Observer{prog: p}
}

func (o *Observer) Start(p runner.Plan)           { o.prog.Send(planMsg(p)) }
func (o *Observer) Published(runner.PublishEvent) {}
func (o *Observer) Tick(s stats.Snapshot)         { o.prog.Send(live.SnapshotMsg(s)) }
func (o *Observer) Checkpoint(stats.Snapshot)     {}
func (o *Observer) Finished(r runner.Report)      { o.prog.Send(finishedMsg(r)) }

// RunFunc starts a run reporting to obs.
type RunFunc func(ctx context.Context, obs runner.Observer) (runner.Report, error)

// Run shows the dashboard for the duration of run. Quitting the dashboard
// cancels the run; the run's own result is returned.
func Run(ctx context.Context, target float64, run RunFunc, opts ...tea.ProgramOption) (runner.Report, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	prog := tea.NewProgram(NewModel(target, cancel), opts...)

	var (
		rep    runner.Report
		runErr error
		done   = make(chan struct{})
	)
	go func() {
		defer close(done)
		rep, runErr = run(ctx, NewObserver(prog))
		prog.Send(doneMsg{err: runErr})
	}()

	if _, err := prog.Run(); err != nil {
		cancel()
		<-done
		return rep, fmt.Errorf("dashboard: %w", err)
	}

	// The program may exit first when the user quits before the run ends.
	cancel()
	<-done
	return rep, runErr
}

// Browse shows a table of past runs.
func Browse(reports []runner.Report, opts ...tea.ProgramOption) error {
	_, err := tea.NewProgram(history.NewModel(reports), opts...).Run()
	return err
}
