package autoclicker

import (
	"errors"
	"fmt"
)

// Controller is the part of the Engine the Coordinator drives.
type Controller interface {
	Start() error
	Stop() error
	Toggle() error
	Status() Status
}

// Coordinator turns hotkey transitions into engine calls according to the
// configured activation mode.
type Coordinator struct {
	engine   Controller
	settings ConfigSource
	logger   Logger
}

var _ KeyHandler = (*Coordinator)(nil)

func NewCoordinator(engine Controller, settings ConfigSource, logger Logger) (*Coordinator, error) {
	if engine == nil {
		return nil, fmt.Errorf("engine is nil")
	}
	if settings == nil {
		return nil, fmt.Errorf("config source is nil")
	}
	if logger == nil {
		logger = nopLogger{}
	}
	return &Coordinator{engine: engine, settings: settings, logger: logger}, nil
}

func (c *Coordinator) OnKeyDown(key string) {
	cfg := c.settings.Snapshot()
	if !KeysEqual(key, cfg.Hotkey) {
		return
	}

	switch cfg.ActivationMode {
	case ModeToggle:
		c.report("toggle", c.engine.Toggle())
	case ModeHold:
		if !c.engine.Status().Running {
			c.report("start", c.engine.Start())
		}
	}
}

func (c *Coordinator) OnKeyUp(key string) {
	cfg := c.settings.Snapshot()
	if !KeysEqual(key, cfg.Hotkey) || cfg.ActivationMode != ModeHold {
		return
	}
	if c.engine.Status().Running {
		c.report("stop", c.engine.Stop())
	}
}

func (c *Coordinator) report(action string, err error) {
	switch {
	case err == nil:
	case errors.Is(err, ErrAlreadyRunning), errors.Is(err, ErrNotRunning):
		c.logger.Debug("Hotkey action ignored", "action", action, "err", err)
	default:
		c.logger.Warn("Hotkey action failed", "action", action, "err", err)
	}
}
