// Package settings persists the clicker configuration as YAML, writing the
// whole record back after every field edit.
package settings

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"speedclicker/internal/core/autoclicker"

	"gopkg.in/yaml.v3"
)

const (
	appDirName       = "speedclicker"
	settingsFileName = "settings.yaml"

	MinDutyCycle = 1.0
	MaxDutyCycle = 99.0
)

// ErrInvalidValue is returned when an edit is rejected. The prior value is kept.
var ErrInvalidValue = errors.New("invalid setting value")

// Field names as they appear in the settings file.
const (
	FieldIntervalMS        = "interval_ms"
	FieldDutyCycle         = "duty_cycle_percent"
	FieldButton            = "button"
	FieldActivationMode    = "activation_mode"
	FieldHotkey            = "hotkey"
	FieldClickLimitEnabled = "click_limit.enabled"
	FieldClickLimitCount   = "click_limit.count"
)

type yamlClickLimit struct {
	Enabled *bool `yaml:"enabled"`
	Count   *int  `yaml:"count"`
}

type yamlPosition struct {
	X int `yaml:"x"`
	Y int `yaml:"y"`
}

type yamlSettings struct {
	IntervalMS       *float64        `yaml:"interval_ms"`
	DutyCyclePercent *float64        `yaml:"duty_cycle_percent"`
	Button           *string         `yaml:"button"`
	ActivationMode   *string         `yaml:"activation_mode"`
	Hotkey           *string         `yaml:"hotkey"`
	ClickLimit       *yamlClickLimit `yaml:"click_limit"`
	// Written by older builds; read and dropped.
	LastPosition *yamlPosition `yaml:"last_position,omitempty"`
}

// Store is the configuration source shared by the engine, the hotkey
// coordinator and the presentation layer.
type Store struct {
	path   string
	logger autoclicker.Logger

	mu  sync.RWMutex
	cfg autoclicker.Config

	saveMu sync.Mutex
}

// DefaultPath returns the settings file location under the user config dir.
func DefaultPath() string {
	configDir, err := os.UserConfigDir()
	if err != nil || configDir == "" {
		return filepath.Join(".", ".speedclicker-settings.yaml")
	}
	return filepath.Join(configDir, appDirName, settingsFileName)
}

// Open loads settings from path. It never fails: a missing or unreadable
// file yields defaults, which are written back.
func Open(path string, logger autoclicker.Logger) *Store {
	if strings.TrimSpace(path) == "" {
		path = DefaultPath()
	}
	if logger == nil {
		logger = discardLogger{}
	}
	s := &Store{
		path:   path,
		logger: logger,
		cfg:    autoclicker.DefaultConfig(),
	}

	cfg, writeBack, err := load(path, logger)
	if err != nil {
		logger.Warn("Failed to load settings, using defaults", "path", path, "err", err)
	}
	s.cfg = cfg
	if writeBack {
		s.persist(cfg)
	}
	return s
}

func load(path string, logger autoclicker.Logger) (autoclicker.Config, bool, error) {
	cfg := autoclicker.DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, true, nil
		}
		return cfg, true, fmt.Errorf("read settings file: %w", err)
	}

	var fileData yamlSettings
	if err := yaml.Unmarshal(data, &fileData); err != nil {
		return cfg, true, fmt.Errorf("parse settings yaml: %w", err)
	}

	rejected := applyYamlSettings(&cfg, fileData)
	for _, field := range rejected {
		logger.Warn("Ignoring invalid saved setting", "field", field)
	}
	return cfg, len(rejected) > 0, nil
}

// applyYamlSettings copies every valid field onto cfg and returns the names
// of fields that were present but invalid.
func applyYamlSettings(cfg *autoclicker.Config, fileData yamlSettings) []string {
	var rejected []string

	if v := fileData.IntervalMS; v != nil {
		if autoclicker.ValidInterval(*v) {
			cfg.IntervalMS = *v
		} else {
			rejected = append(rejected, FieldIntervalMS)
		}
	}
	if v := fileData.DutyCyclePercent; v != nil {
		if validDutyCycle(*v) {
			cfg.DutyCyclePercent = *v
		} else {
			rejected = append(rejected, FieldDutyCycle)
		}
	}
	if v := fileData.Button; v != nil {
		if button, err := autoclicker.ParseButton(*v); err == nil {
			cfg.Button = button
		} else {
			rejected = append(rejected, FieldButton)
		}
	}
	if v := fileData.ActivationMode; v != nil {
		if mode, err := autoclicker.ParseActivationMode(*v); err == nil {
			cfg.ActivationMode = mode
		} else {
			rejected = append(rejected, FieldActivationMode)
		}
	}
	if v := fileData.Hotkey; v != nil {
		if key := autoclicker.NormalizeKey(*v); key != "" {
			cfg.Hotkey = key
		} else {
			rejected = append(rejected, FieldHotkey)
		}
	}
	if limit := fileData.ClickLimit; limit != nil {
		if limit.Enabled != nil {
			cfg.ClickLimit.Enabled = *limit.Enabled
		}
		if limit.Count != nil {
			if *limit.Count > 0 {
				cfg.ClickLimit.Count = *limit.Count
			} else {
				rejected = append(rejected, FieldClickLimitCount)
			}
		}
	}
	return rejected
}

func (s *Store) Path() string {
	return s.path
}

// Snapshot returns a copy of the active configuration.
func (s *Store) Snapshot() autoclicker.Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

func (s *Store) SetIntervalMS(ms float64) error {
	if !autoclicker.ValidInterval(ms) {
		return fmt.Errorf("%w: interval must be a positive number of milliseconds", ErrInvalidValue)
	}
	return s.update(func(cfg *autoclicker.Config) { cfg.IntervalMS = ms })
}

func (s *Store) SetDutyCycle(percent float64) error {
	if !validDutyCycle(percent) {
		return fmt.Errorf("%w: duty cycle must be between %.0f and %.0f", ErrInvalidValue, MinDutyCycle, MaxDutyCycle)
	}
	return s.update(func(cfg *autoclicker.Config) { cfg.DutyCyclePercent = percent })
}

func (s *Store) SetButton(button autoclicker.Button) error {
	parsed, err := autoclicker.ParseButton(string(button))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidValue, err)
	}
	return s.update(func(cfg *autoclicker.Config) { cfg.Button = parsed })
}

func (s *Store) SetActivationMode(mode autoclicker.ActivationMode) error {
	parsed, err := autoclicker.ParseActivationMode(string(mode))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidValue, err)
	}
	return s.update(func(cfg *autoclicker.Config) { cfg.ActivationMode = parsed })
}

func (s *Store) SetHotkey(key string) error {
	normalized := autoclicker.NormalizeKey(key)
	if normalized == "" {
		return fmt.Errorf("%w: hotkey is empty", ErrInvalidValue)
	}
	return s.update(func(cfg *autoclicker.Config) { cfg.Hotkey = normalized })
}

func (s *Store) SetClickLimitEnabled(enabled bool) error {
	return s.update(func(cfg *autoclicker.Config) { cfg.ClickLimit.Enabled = enabled })
}

func (s *Store) SetClickLimitCount(count int) error {
	if count <= 0 {
		return fmt.Errorf("%w: click limit must be a positive integer", ErrInvalidValue)
	}
	return s.update(func(cfg *autoclicker.Config) { cfg.ClickLimit.Count = count })
}

// Set applies a text edit to the named field. Field names match the
// settings file, with click_limit members addressed as click_limit.enabled
// and click_limit.count.
func (s *Store) Set(field, raw string) error {
	value := strings.TrimSpace(raw)
	switch strings.ToLower(strings.TrimSpace(field)) {
	case FieldIntervalMS, "interval", "click_interval_ms":
		ms, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("%w: interval %q is not a number", ErrInvalidValue, raw)
		}
		return s.SetIntervalMS(ms)
	case FieldDutyCycle, "duty", "duty_cycle":
		percent, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("%w: duty cycle %q is not a number", ErrInvalidValue, raw)
		}
		return s.SetDutyCycle(percent)
	case FieldButton, "mouse_button":
		return s.SetButton(autoclicker.Button(value))
	case FieldActivationMode, "mode":
		return s.SetActivationMode(autoclicker.ActivationMode(value))
	case FieldHotkey:
		return s.SetHotkey(value)
	case FieldClickLimitEnabled:
		enabled, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%w: %q is not a boolean", ErrInvalidValue, raw)
		}
		return s.SetClickLimitEnabled(enabled)
	case FieldClickLimitCount:
		count, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%w: click limit %q is not an integer", ErrInvalidValue, raw)
		}
		return s.SetClickLimitCount(count)
	default:
		return fmt.Errorf("unknown setting %q", field)
	}
}

// Fields lists the editable field names in display order.
func Fields() []string {
	return []string{
		FieldIntervalMS,
		FieldDutyCycle,
		FieldButton,
		FieldActivationMode,
		FieldHotkey,
		FieldClickLimitEnabled,
		FieldClickLimitCount,
	}
}

// update mutates the in-memory config and writes the result through. A
// write failure is logged and the in-memory edit stays active.
func (s *Store) update(mutate func(*autoclicker.Config)) error {
	s.mu.Lock()
	mutate(&s.cfg)
	cfg := s.cfg
	s.mu.Unlock()

	s.persist(cfg)
	return nil
}

func (s *Store) persist(cfg autoclicker.Config) {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()
	if err := save(s.path, cfg); err != nil {
		s.logger.Error("Failed to save settings", "path", s.path, "err", err)
	}
}

func save(path string, cfg autoclicker.Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create settings dir: %w", err)
	}

	enabled := cfg.ClickLimit.Enabled
	count := cfg.ClickLimit.Count
	button := string(cfg.Button)
	mode := string(cfg.ActivationMode)
	fileData := yamlSettings{
		IntervalMS:       &cfg.IntervalMS,
		DutyCyclePercent: &cfg.DutyCyclePercent,
		Button:           &button,
		ActivationMode:   &mode,
		Hotkey:           &cfg.Hotkey,
		ClickLimit: &yamlClickLimit{
			Enabled: &enabled,
			Count:   &count,
		},
	}

	data, err := yaml.Marshal(fileData)
	if err != nil {
		return fmt.Errorf("marshal settings yaml: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("persist settings: %w", err)
	}
	return nil
}

type discardLogger struct{}

func (discardLogger) Debug(string, ...any) {}
func (discardLogger) Info(string, ...any)  {}
func (discardLogger) Warn(string, ...any)  {}
func (discardLogger) Error(string, ...any) {}

func validDutyCycle(percent float64) bool {
	return percent >= MinDutyCycle && percent <= MaxDutyCycle
}
