package settings

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"speedclicker/internal/core/autoclicker"
)

func settingsPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "nested", "settings.yaml")
}

func TestOpenMissingFileWritesDefaults(t *testing.T) {
	path := settingsPath(t)

	store := Open(path, nil)
	if got, want := store.Snapshot(), autoclicker.DefaultConfig(); got != want {
		t.Fatalf("Snapshot() = %+v, want %+v", got, want)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("expected defaults to be written: %v", err)
	}
	if !strings.Contains(string(data), "interval_ms: 100") {
		t.Fatalf("unexpected settings file:\n%s", data)
	}
}

func TestOpenCorruptFileFallsBackToDefaults(t *testing.T) {
	path := settingsPath(t)
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("interval_ms: [oops\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	store := Open(path, nil)
	if got, want := store.Snapshot(), autoclicker.DefaultConfig(); got != want {
		t.Fatalf("Snapshot() = %+v, want %+v", got, want)
	}

	reopened := Open(path, nil)
	if got := reopened.Snapshot(); got != autoclicker.DefaultConfig() {
		t.Fatalf("corrupt file was not replaced, got %+v", got)
	}
}

func TestOpenFillsMissingFields(t *testing.T) {
	path := settingsPath(t)
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		t.Fatal(err)
	}
	raw := "interval_ms: 25\nbutton: right\nlast_position:\n  x: 10\n  y: 20\n"
	if err := os.WriteFile(path, []byte(raw), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg := Open(path, nil).Snapshot()
	if cfg.IntervalMS != 25 {
		t.Fatalf("IntervalMS = %v, want 25", cfg.IntervalMS)
	}
	if cfg.Button != autoclicker.ButtonSecondary {
		t.Fatalf("Button = %q, want secondary", cfg.Button)
	}
	if cfg.ClickLimit != autoclicker.DefaultConfig().ClickLimit {
		t.Fatalf("ClickLimit = %+v, want defaults", cfg.ClickLimit)
	}
	if cfg.DutyCyclePercent != autoclicker.DefaultDutyCyclePercent {
		t.Fatalf("DutyCyclePercent = %v, want default", cfg.DutyCyclePercent)
	}
}

func TestOpenReplacesInvalidSavedValues(t *testing.T) {
	path := settingsPath(t)
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		t.Fatal(err)
	}
	raw := "interval_ms: -4\nduty_cycle_percent: 100\nhotkey: f9\n"
	if err := os.WriteFile(path, []byte(raw), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg := Open(path, nil).Snapshot()
	if cfg.IntervalMS != autoclicker.DefaultIntervalMS || cfg.DutyCyclePercent != autoclicker.DefaultDutyCyclePercent {
		t.Fatalf("invalid values were accepted: %+v", cfg)
	}
	if cfg.Hotkey != "f9" {
		t.Fatalf("Hotkey = %q, want f9", cfg.Hotkey)
	}
}

func TestSettersRejectInvalidValues(t *testing.T) {
	store := Open(settingsPath(t), nil)
	before := store.Snapshot()

	checks := []struct {
		name string
		err  error
	}{
		{"zero interval", store.SetIntervalMS(0)},
		{"negative interval", store.SetIntervalMS(-10)},
		{"sub-nanosecond interval", store.SetIntervalMS(1e-7)},
		{"duty too high", store.SetDutyCycle(100)},
		{"duty too low", store.SetDutyCycle(0)},
		{"button", store.SetButton("thumb")},
		{"mode", store.SetActivationMode("sometimes")},
		{"hotkey", store.SetHotkey("  ")},
		{"limit", store.SetClickLimitCount(0)},
	}
	for _, check := range checks {
		if !errors.Is(check.err, ErrInvalidValue) {
			t.Fatalf("%s: err = %v, want ErrInvalidValue", check.name, check.err)
		}
	}
	if got := store.Snapshot(); got != before {
		t.Fatalf("rejected edits changed config: %+v", got)
	}
}

func TestEditsPersistAcrossReopen(t *testing.T) {
	path := settingsPath(t)
	store := Open(path, nil)

	if err := store.SetIntervalMS(12.5); err != nil {
		t.Fatalf("SetIntervalMS() error = %v", err)
	}
	if err := store.SetDutyCycle(30); err != nil {
		t.Fatalf("SetDutyCycle() error = %v", err)
	}
	if err := store.SetButton("middle"); err != nil {
		t.Fatalf("SetButton() error = %v", err)
	}
	if err := store.SetActivationMode(autoclicker.ModeHold); err != nil {
		t.Fatalf("SetActivationMode() error = %v", err)
	}
	if err := store.SetHotkey("F8"); err != nil {
		t.Fatalf("SetHotkey() error = %v", err)
	}
	if err := store.SetClickLimitEnabled(true); err != nil {
		t.Fatalf("SetClickLimitEnabled() error = %v", err)
	}
	if err := store.SetClickLimitCount(42); err != nil {
		t.Fatalf("SetClickLimitCount() error = %v", err)
	}

	want := autoclicker.Config{
		IntervalMS:       12.5,
		DutyCyclePercent: 30,
		Button:           autoclicker.ButtonTertiary,
		ActivationMode:   autoclicker.ModeHold,
		Hotkey:           "f8",
		ClickLimit:       autoclicker.ClickLimit{Enabled: true, Count: 42},
	}
	if got := Open(path, nil).Snapshot(); got != want {
		t.Fatalf("reopened config = %+v, want %+v", got, want)
	}
	if _, err := os.Stat(path + ".tmp"); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("temporary file left behind: %v", err)
	}
}

func TestSetByFieldName(t *testing.T) {
	store := Open(settingsPath(t), nil)

	edits := map[string]string{
		"interval_ms":         "5",
		"duty_cycle_percent":  "75",
		"button":              "right",
		"activation_mode":     "hold",
		"hotkey":              "Escape",
		"click_limit.enabled": "true",
		"click_limit.count":   "7",
	}
	for field, value := range edits {
		if err := store.Set(field, value); err != nil {
			t.Fatalf("Set(%q, %q) error = %v", field, value, err)
		}
	}

	cfg := store.Snapshot()
	if cfg.IntervalMS != 5 || cfg.DutyCyclePercent != 75 || cfg.Hotkey != "esc" {
		t.Fatalf("unexpected config after edits: %+v", cfg)
	}
	if cfg.Button != autoclicker.ButtonSecondary || cfg.ActivationMode != autoclicker.ModeHold {
		t.Fatalf("unexpected config after edits: %+v", cfg)
	}
	if !cfg.ClickLimit.Enabled || cfg.ClickLimit.Count != 7 {
		t.Fatalf("unexpected click limit: %+v", cfg.ClickLimit)
	}

	if err := store.Set("interval_ms", "fast"); !errors.Is(err, ErrInvalidValue) {
		t.Fatalf("Set(non-numeric) err = %v, want ErrInvalidValue", err)
	}
	if err := store.Set("click_limit.count", "1.5"); !errors.Is(err, ErrInvalidValue) {
		t.Fatalf("Set(fractional count) err = %v, want ErrInvalidValue", err)
	}
	if err := store.Set("colour", "blue"); err == nil {
		t.Fatalf("Set(unknown field) should fail")
	}
}

func TestWriteFailureKeepsInMemoryEdit(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	if err := os.WriteFile(blocker, []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}
	store := Open(filepath.Join(blocker, "settings.yaml"), nil)

	if err := store.SetIntervalMS(7); err != nil {
		t.Fatalf("SetIntervalMS() error = %v", err)
	}
	if got := store.Snapshot().IntervalMS; got != 7 {
		t.Fatalf("IntervalMS = %v, want 7", got)
	}
}
