// Package statusui provides the Bubble Tea terminal control panel.
package statusui

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"speedclicker/internal/core/autoclicker"
)

// PollInterval is how often the panel refreshes engine status.
const PollInterval = 100 * time.Millisecond

var (
	titleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	runningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#52C41A")).Bold(true)
	stoppedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C")).Bold(true)
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E")).Width(12)
	valueStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	cardStyle    = lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#4A4A4A"))
)

type keyMap struct {
	Start  key.Binding
	Stop   key.Binding
	Toggle key.Binding
	Quit   key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Start, k.Stop, k.Toggle, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

func defaultKeyMap() keyMap {
	return keyMap{
		Start:  key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "start")),
		Stop:   key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "stop")),
		Toggle: key.NewBinding(key.WithKeys(" ", "t"), key.WithHelp("space/t", "toggle")),
		Quit:   key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

type tickMsg time.Time

// Model implements the Bubble Tea status panel.
type Model struct {
	engine   autoclicker.Controller
	settings autoclicker.ConfigSource
	backend  string

	keys keyMap
	help help.Model

	status autoclicker.Status
	cfg    autoclicker.Config
	notice string
	width  int
}

// NewModel constructs a status panel driving engine. backend names the
// input backend shown in the header.
func NewModel(engine autoclicker.Controller, settings autoclicker.ConfigSource, backend string) *Model {
	m := &Model{
		engine:   engine,
		settings: settings,
		backend:  backend,
		keys:     defaultKeyMap(),
		help:     help.New(),
	}
	m.refresh()
	return m
}

func tick() tea.Cmd {
	return tea.Tick(PollInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return tick()
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		return m, nil
	case tickMsg:
		m.refresh()
		return m, tick()
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Start):
			m.apply("start", m.engine.Start())
		case key.Matches(msg, m.keys.Stop):
			m.apply("stop", m.engine.Stop())
		case key.Matches(msg, m.keys.Toggle):
			m.apply("toggle", m.engine.Toggle())
		}
		return m, nil
	}
	return m, nil
}

func (m *Model) apply(action string, err error) {
	switch {
	case err == nil:
		m.notice = ""
	case errors.Is(err, autoclicker.ErrAlreadyRunning):
		m.notice = "already running"
	case errors.Is(err, autoclicker.ErrNotRunning):
		m.notice = "not running"
	default:
		m.notice = fmt.Sprintf("%s failed: %v", action, err)
	}
	m.refresh()
}

func (m *Model) refresh() {
	m.status = m.engine.Status()
	m.cfg = m.settings.Snapshot()
}

// View implements tea.Model.
func (m *Model) View() string {
	state := stoppedStyle.Render("STOPPED")
	if m.status.Running {
		state = runningStyle.Render("RUNNING")
	}
	header := titleStyle.Render("speedclicker") + "  " + state
	if m.backend != "" {
		header += "  " + labelStyle.UnsetWidth().Render(m.backend)
	}

	limit := "off"
	if m.cfg.ClickLimit.Enabled {
		limit = fmt.Sprintf("%d clicks", m.cfg.ClickLimit.Count)
	}
	rows := [][2]string{
		{"Clicks", fmt.Sprintf("%d", m.status.Clicks)},
		{"Interval", fmt.Sprintf("%g ms (%.1f CPS)", m.cfg.IntervalMS, m.cfg.CPS())},
		{"Duty cycle", fmt.Sprintf("%g%%", m.cfg.DutyCyclePercent)},
		{"Button", string(m.cfg.Button)},
		{"Mode", string(m.cfg.ActivationMode)},
		{"Hotkey", m.cfg.Hotkey},
		{"Limit", limit},
	}
	lines := make([]string, 0, len(rows))
	for _, row := range rows {
		lines = append(lines, labelStyle.Render(row[0])+valueStyle.Render(row[1]))
	}

	var b strings.Builder
	b.WriteString(header)
	b.WriteString("\n")
	b.WriteString(cardStyle.Render(strings.Join(lines, "\n")))
	b.WriteString("\n")
	if m.status.Err != nil {
		b.WriteString(errorStyle.Render("Last error: " + m.status.Err.Error()))
		b.WriteString("\n")
	}
	if m.notice != "" {
		b.WriteString(errorStyle.Render(m.notice))
		b.WriteString("\n")
	}
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

// Run starts the panel on the current terminal and blocks until the user quits.
func Run(engine autoclicker.Controller, settings autoclicker.ConfigSource, backend string) error {
	program := tea.NewProgram(NewModel(engine, settings, backend), tea.WithAltScreen())
	_, err := program.Run()
	return err
}
