package cli

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/alexanderramin/delegate/internal/cli/formatter"
	"github.com/alexanderramin/delegate/internal/domain"
)

type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// watchModel redraws a session timer once a second.
type watchModel struct {
	ctx       context.Context
	app       *App
	id        domain.WorkSessionID
	nodeTitle string

	spinner spinner.Model
	row     formatter.SessionRow
	err     error
}

func newWatchModel(ctx context.Context, app *App, id domain.WorkSessionID) *watchModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = formatter.StylePurple
	return &watchModel{ctx: ctx, app: app, id: id, spinner: sp}
}

// refresh reloads timing from the store.
func (m *watchModel) refresh() error {
	t, err := m.app.Store.SessionTiming(m.id)
	if err != nil {
		return err
	}
	m.row = formatter.SessionRow{Session: t.Session, Elapsed: t.Elapsed, Active: t.Active}
	if m.nodeTitle == "" && t.Session.TaskNodeID != nil {
		if n, ok := m.app.Store.FindTaskNode(*t.Session.TaskNodeID); ok {
			m.nodeTitle = n.Title
		}
	}
	return nil
}

func (m *watchModel) stopped() bool {
	return m.row.Session.State == domain.SessionStopped
}

func (m *watchModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, tick())
}

func (m *watchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		case "p", " ":
			m.toggle()
		case "s":
			_, m.err = m.app.Store.StopSession(m.ctx, m.id)
		}
		if err := m.refresh(); err != nil {
			m.err = err
		}
		if m.stopped() {
			return m, tea.Quit
		}
		return m, nil

	case tickMsg:
		if err := m.refresh(); err != nil {
			m.err = err
			return m, tea.Quit
		}
		if m.stopped() {
			return m, tea.Quit
		}
		return m, tick()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *watchModel) toggle() {
	switch m.row.Session.State {
	case domain.SessionRunning:
		_, m.err = m.app.Store.PauseSession(m.ctx, m.id)
	case domain.SessionPaused:
		_, m.err = m.app.Store.ResumeSession(m.ctx, m.id)
	}
}

func (m *watchModel) View() string {
	view := formatter.FormatTimer(m.row, m.nodeTitle) + "\n"
	if m.err != nil {
		view += formatter.StyleRed.Render(m.err.Error()) + "\n"
	}
	if m.row.Session.State == domain.SessionRunning {
		view += m.spinner.View() + " "
	}
	return view + formatter.Dim("p pause/resume · s stop · q quit")
}

func runWatch(cmd *cobra.Command, m *watchModel) error {
	p := tea.NewProgram(m, tea.WithContext(cmd.Context()), tea.WithOutput(cmd.OutOrStdout()))
	final, err := p.Run()
	if err != nil {
		return err
	}
	if wm, ok := final.(*watchModel); ok && wm.stopped() {
		printf(cmd, "Session %s stopped after %s active\n", wm.id, formatter.FormatClock(wm.row.Active))
	}
	return nil
}
