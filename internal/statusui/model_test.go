package statusui

import (
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"speedclicker/internal/core/autoclicker"
)

type fakeEngine struct {
	running  bool
	clicks   int64
	startErr error
	calls    []string
}

func (f *fakeEngine) Start() error {
	f.calls = append(f.calls, "start")
	if f.startErr != nil {
		return f.startErr
	}
	if f.running {
		return autoclicker.ErrAlreadyRunning
	}
	f.running = true
	return nil
}

func (f *fakeEngine) Stop() error {
	f.calls = append(f.calls, "stop")
	if !f.running {
		return autoclicker.ErrNotRunning
	}
	f.running = false
	return nil
}

func (f *fakeEngine) Toggle() error {
	f.calls = append(f.calls, "toggle")
	f.running = !f.running
	return nil
}

func (f *fakeEngine) Status() autoclicker.Status {
	return autoclicker.Status{Running: f.running, Clicks: f.clicks}
}

type staticConfig autoclicker.Config

func (c staticConfig) Snapshot() autoclicker.Config {
	return autoclicker.Config(c)
}

func runeKey(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func TestKeysDriveEngine(t *testing.T) {
	engine := &fakeEngine{}
	m := NewModel(engine, staticConfig(autoclicker.DefaultConfig()), "test")

	m.Update(runeKey('s'))
	if !engine.running {
		t.Fatalf("expected s to start the engine")
	}
	m.Update(runeKey('x'))
	if engine.running {
		t.Fatalf("expected x to stop the engine")
	}
	m.Update(tea.KeyMsg{Type: tea.KeySpace})
	m.Update(runeKey('t'))

	want := []string{"start", "stop", "toggle", "toggle"}
	if strings.Join(engine.calls, ",") != strings.Join(want, ",") {
		t.Fatalf("calls = %v, want %v", engine.calls, want)
	}
}

func TestQuitKeyReturnsQuitCommand(t *testing.T) {
	m := NewModel(&fakeEngine{}, staticConfig(autoclicker.DefaultConfig()), "")
	_, cmd := m.Update(runeKey('q'))
	if cmd == nil {
		t.Fatalf("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatalf("expected tea.QuitMsg")
	}
}

func TestTickRefreshesStatus(t *testing.T) {
	engine := &fakeEngine{}
	m := NewModel(engine, staticConfig(autoclicker.DefaultConfig()), "")

	engine.running = true
	engine.clicks = 1234
	_, cmd := m.Update(tickMsg(time.Now()))
	if cmd == nil {
		t.Fatalf("tick should schedule the next tick")
	}
	view := m.View()
	if !strings.Contains(view, "RUNNING") || !strings.Contains(view, "1234") {
		t.Fatalf("view missing refreshed status:\n%s", view)
	}
}

func TestViewShowsActionErrors(t *testing.T) {
	engine := &fakeEngine{startErr: errors.New("sink unavailable")}
	m := NewModel(engine, staticConfig(autoclicker.DefaultConfig()), "")

	m.Update(runeKey('s'))
	if view := m.View(); !strings.Contains(view, "sink unavailable") {
		t.Fatalf("view missing error:\n%s", view)
	}

	m.Update(runeKey('x'))
	if view := m.View(); !strings.Contains(view, "not running") {
		t.Fatalf("view missing notice:\n%s", view)
	}
}

func TestViewShowsConfiguration(t *testing.T) {
	cfg := autoclicker.DefaultConfig()
	cfg.IntervalMS = 20
	cfg.ClickLimit = autoclicker.ClickLimit{Enabled: true, Count: 50}
	m := NewModel(&fakeEngine{}, staticConfig(cfg), "")

	view := m.View()
	for _, want := range []string{"STOPPED", "20 ms", "50.0 CPS", "50 clicks", "f6"} {
		if !strings.Contains(view, want) {
			t.Fatalf("view missing %q:\n%s", want, view)
		}
	}
}
