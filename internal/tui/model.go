package tui

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/muurk/bobil/internal/coordinator"
	"github.com/muurk/bobil/internal/heater"
)

// Source is the coordinator side the dashboard reads from.
type Source interface {
	Current() (*heater.Snapshot, bool)
	Refresh(ctx context.Context) (*heater.Snapshot, error)
	Subscribe() (<-chan coordinator.Update, func())
}

// Executor sends commands. *control.Controller implements it.
type Executor interface {
	Execute(ctx context.Context, cmd heater.Command) (*heater.Snapshot, error)
}

// Messages
type (
	updateMsg            coordinator.Update
	subscriptionEndedMsg struct{}
	commandDoneMsg       struct {
		cmd heater.Command
		err error
	}
	refreshDoneMsg struct{ err error }
)

// Model is the live dashboard for one heater.
type Model struct {
	ctx    context.Context
	host   string
	source Source
	exec   Executor

	updates     <-chan coordinator.Update
	unsubscribe func()

	snapshot *heater.Snapshot
	stale    bool
	lastErr  error

	// busy is the label of the command in flight, "" when idle
	busy string

	Width  int
	Height int

	spinner spinner.Model
	help    help.Model
	keys    keyMap
}

// New creates a dashboard model and subscribes to source. Call Close when
// the program exits.
func New(ctx context.Context, host string, source Source, exec Executor) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = spinnerStyle

	updates, unsubscribe := source.Subscribe()
	snapshot, _ := source.Current()

	return Model{
		ctx:         ctx,
		host:        host,
		source:      source,
		exec:        exec,
		updates:     updates,
		unsubscribe: unsubscribe,
		snapshot:    snapshot,
		spinner:     s,
		help:        help.New(),
		keys:        newKeyMap(),
	}
}

// Close releases the subscription
func (m Model) Close() {
	if m.unsubscribe != nil {
		m.unsubscribe()
	}
}

// Init implements tea.Model
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, waitForUpdate(m.updates), m.refresh())
}

// Update implements tea.Model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case updateMsg:
		m.apply(coordinator.Update(msg))
		return m, waitForUpdate(m.updates)

	case subscriptionEndedMsg:
		return m, tea.Quit

	case commandDoneMsg:
		m.busy = ""
		if msg.err != nil {
			m.lastErr = fmt.Errorf("%s: %w", msg.cmd, msg.err)
		}
		return m, nil

	case refreshDoneMsg:
		m.busy = ""
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m *Model) apply(u coordinator.Update) {
	if u.Err != nil {
		m.lastErr = u.Err
		return
	}
	m.snapshot = u.Snapshot
	m.stale = u.Stale
	m.lastErr = nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	}

	// One command at a time
	if m.busy != "" {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Refresh):
		m.busy = "Refreshing"
		return m, m.refresh()
	case key.Matches(msg, m.keys.Air):
		return m.toggle(heater.CircuitAir)
	case key.Matches(msg, m.keys.Water):
		return m.toggle(heater.CircuitWater)
	case key.Matches(msg, m.keys.Combined):
		return m.toggle(heater.CircuitCombined)
	case key.Matches(msg, m.keys.TempUp):
		return m.execute(heater.CommandTempUp)
	case key.Matches(msg, m.keys.TempDown):
		return m.execute(heater.CommandTempDown)
	}
	return m, nil
}

// toggle switches a circuit to the opposite of its displayed state.
func (m Model) toggle(c heater.Circuit) (tea.Model, tea.Cmd) {
	cmd, err := heater.SwitchCommand(c, !m.snapshot.HeatingOn(c))
	if err != nil {
		m.lastErr = err
		return m, nil
	}
	return m.execute(cmd)
}

func (m Model) execute(cmd heater.Command) (tea.Model, tea.Cmd) {
	m.busy = "Sending " + cmd.String()
	return m, executeCmd(m.ctx, m.exec, cmd)
}

func (m Model) refresh() tea.Cmd {
	ctx, source := m.ctx, m.source
	return func() tea.Msg {
		_, err := source.Refresh(ctx)
		return refreshDoneMsg{err: err}
	}
}

func waitForUpdate(updates <-chan coordinator.Update) tea.Cmd {
	return func() tea.Msg {
		u, ok := <-updates
		if !ok {
			return subscriptionEndedMsg{}
		}
		return updateMsg(u)
	}
}

func executeCmd(ctx context.Context, exec Executor, cmd heater.Command) tea.Cmd {
	return func() tea.Msg {
		_, err := exec.Execute(ctx, cmd)
		return commandDoneMsg{cmd: cmd, err: err}
	}
}

// Run starts the dashboard full-screen and blocks until the user quits or
// ctx is cancelled.
func Run(ctx context.Context, m Model) error {
	defer m.Close()
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
