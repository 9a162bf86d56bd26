//go:build darwin

// Package robotinput drives clicks through robotgo and listens for the
// hotkey through gohook's global event stream.
package robotinput

import (
	"fmt"
	"sync"

	"speedclicker/internal/core/autoclicker"

	"github.com/go-vgo/robotgo"
	hook "github.com/robotn/gohook"
)

type Runtime struct {
	logger autoclicker.Logger

	mu      sync.Mutex
	started bool
	events  chan hook.Event
	done    chan struct{}
}

var _ autoclicker.InputSink = (*Runtime)(nil)

func NewRuntime(logger autoclicker.Logger) (*Runtime, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is nil")
	}
	return &Runtime{logger: logger, done: make(chan struct{})}, nil
}

func (r *Runtime) Press(button autoclicker.Button) error {
	name, err := buttonName(button)
	if err != nil {
		return err
	}
	return robotgo.Toggle(name, "down")
}

func (r *Runtime) Release(button autoclicker.Button) error {
	name, err := buttonName(button)
	if err != nil {
		return err
	}
	return robotgo.Toggle(name, "up")
}

func buttonName(button autoclicker.Button) (string, error) {
	switch button {
	case autoclicker.ButtonPrimary:
		return "left", nil
	case autoclicker.ButtonSecondary:
		return "right", nil
	case autoclicker.ButtonTertiary:
		return "center", nil
	default:
		return "", fmt.Errorf("unsupported button %q", button)
	}
}

// Start opens the global event stream. Accessibility permission is required
// for key events to arrive.
func (r *Runtime) Start(handler autoclicker.KeyHandler) error {
	if handler == nil {
		return fmt.Errorf("key handler is nil")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.started {
		return fmt.Errorf("hook already started")
	}
	r.started = true
	r.events = hook.Start()
	go r.eventLoop(r.events, handler)
	return nil
}

// SetHotkey accepts any token; gohook reports every key.
func (r *Runtime) SetHotkey(token string) error {
	if autoclicker.NormalizeKey(token) == "" {
		return fmt.Errorf("hotkey is empty")
	}
	return nil
}

func (r *Runtime) Stop() {
	r.mu.Lock()
	started := r.started
	r.started = false
	r.mu.Unlock()
	if !started {
		return
	}
	hook.End()
	<-r.done
}

func (r *Runtime) eventLoop(events chan hook.Event, handler autoclicker.KeyHandler) {
	defer close(r.done)

	held := make(map[uint16]bool)
	for ev := range events {
		var down bool
		switch ev.Kind {
		case hook.KeyHold:
			down = true
		case hook.KeyUp:
			down = false
		default:
			continue
		}
		// KeyHold repeats while the key stays down.
		if held[ev.Rawcode] == down {
			continue
		}
		held[ev.Rawcode] = down

		token := autoclicker.NormalizeKey(hook.RawcodetoKeychar(ev.Rawcode))
		if token == "" {
			continue
		}
		if down {
			handler.OnKeyDown(token)
		} else {
			handler.OnKeyUp(token)
		}
	}
}
