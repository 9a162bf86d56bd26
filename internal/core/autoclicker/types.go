package autoclicker

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

var (
	ErrAlreadyRunning = errors.New("clicker is already running")
	ErrNotRunning     = errors.New("clicker is not running")
	ErrBusy           = errors.New("previous click loop has not exited yet")
	ErrInvalidConfig  = errors.New("invalid click configuration")
)

type Button string

const (
	ButtonPrimary   Button = "primary"
	ButtonSecondary Button = "secondary"
	ButtonTertiary  Button = "tertiary"
)

// ParseButton accepts the canonical names and the left/right/middle aliases.
func ParseButton(value string) (Button, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "primary", "left":
		return ButtonPrimary, nil
	case "secondary", "right":
		return ButtonSecondary, nil
	case "tertiary", "middle":
		return ButtonTertiary, nil
	default:
		return "", fmt.Errorf("unknown button %q (expected primary|secondary|tertiary)", value)
	}
}

type ActivationMode string

const (
	ModeToggle ActivationMode = "toggle"
	ModeHold   ActivationMode = "hold"
)

func ParseActivationMode(value string) (ActivationMode, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "toggle":
		return ModeToggle, nil
	case "hold":
		return ModeHold, nil
	default:
		return "", fmt.Errorf("unknown activation mode %q (expected toggle|hold)", value)
	}
}

type ClickLimit struct {
	Enabled bool
	Count   int
}

type Config struct {
	IntervalMS       float64
	DutyCyclePercent float64
	Button           Button
	ActivationMode   ActivationMode
	Hotkey           string
	ClickLimit       ClickLimit
}

const (
	DefaultIntervalMS       = 100.0
	DefaultDutyCyclePercent = 50.0
	DefaultHotkey           = "f6"
	DefaultClickLimitCount  = 1000
)

func DefaultConfig() Config {
	return Config{
		IntervalMS:       DefaultIntervalMS,
		DutyCyclePercent: DefaultDutyCyclePercent,
		Button:           ButtonPrimary,
		ActivationMode:   ModeToggle,
		Hotkey:           DefaultHotkey,
		ClickLimit: ClickLimit{
			Enabled: false,
			Count:   DefaultClickLimitCount,
		},
	}
}

// Validate checks the invariants the timing loop depends on.
func (c Config) Validate() error {
	if !ValidInterval(c.IntervalMS) {
		return fmt.Errorf("%w: interval must be at least 1ns, got %vms", ErrInvalidConfig, c.IntervalMS)
	}
	if !(c.DutyCyclePercent > 0 && c.DutyCyclePercent < 100) {
		return fmt.Errorf("%w: duty cycle must be between 0 and 100, got %v", ErrInvalidConfig, c.DutyCyclePercent)
	}
	if _, err := ParseButton(string(c.Button)); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if c.ClickLimit.Enabled && c.ClickLimit.Count <= 0 {
		return fmt.Errorf("%w: click limit must be > 0, got %d", ErrInvalidConfig, c.ClickLimit.Count)
	}
	return nil
}

// ValidInterval reports whether ms is finite and still at least one
// nanosecond once converted to a time.Duration.
func ValidInterval(ms float64) bool {
	if math.IsNaN(ms) || math.IsInf(ms, 0) || !(ms > 0) {
		return false
	}
	return intervalDuration(ms) > 0
}

func intervalDuration(ms float64) time.Duration {
	return time.Duration(ms * float64(time.Millisecond))
}

// CPS is the click rate implied by the interval.
func (c Config) CPS() float64 {
	if c.IntervalMS <= 0 {
		return 0
	}
	return 1000 / c.IntervalMS
}

type Status struct {
	Running bool
	Clicks  int64
	Err     error
}

type StopReason string

const (
	StopReasonStopped StopReason = "stopped"
	StopReasonLimit   StopReason = "limit"
	StopReasonFailed  StopReason = "failed"
)

type RunSummary struct {
	StartedAt        time.Time
	EndedAt          time.Time
	Clicks           int64
	Reason           StopReason
	Button           Button
	IntervalMS       float64
	DutyCyclePercent float64
	Err              error
}

// InputSink injects synthetic button transitions.
type InputSink interface {
	Press(button Button) error
	Release(button Button) error
}

// KeyHandler receives normalized key tokens from a hotkey listener.
type KeyHandler interface {
	OnKeyDown(key string)
	OnKeyUp(key string)
}

// ConfigSource yields the current configuration.
type ConfigSource interface {
	Snapshot() Config
}

type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}
