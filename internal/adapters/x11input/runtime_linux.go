//go:build linux

package x11input

import (
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"speedclicker/internal/core/autoclicker"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgb/xtest"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/keybind"
)

type DeviceInfo struct {
	Path      string
	Name      string
	IsVirtual bool
	IsPointer bool
}

// Runtime owns one X11 connection. It injects clicks through XTest and
// grabs the hotkey on the root window.
type Runtime struct {
	xu      *xgbutil.XUtil
	conn    *xgb.Conn
	rootWin xproto.Window
	logger  autoclicker.Logger

	mu          sync.RWMutex
	hotkey      string
	keyToToken  map[xproto.Keycode]string
	grabbedKeys []xproto.Keycode
	started     bool

	injectMu sync.Mutex

	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}
}

var _ autoclicker.InputSink = (*Runtime)(nil)

func NewRuntime(logger autoclicker.Logger) (*Runtime, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is nil")
	}

	xu, err := xgbutil.NewConn()
	if err != nil {
		return nil, err
	}
	conn := xu.Conn()
	if conn == nil {
		return nil, fmt.Errorf("failed to open X11 connection")
	}

	if err := xtest.Init(conn); err != nil {
		conn.Close()
		return nil, err
	}
	keybind.Initialize(xu)

	return &Runtime{
		xu:      xu,
		conn:    conn,
		rootWin: xu.RootWin(),
		logger:  logger,
		stopCh:  make(chan struct{}),
		doneCh:  make(chan struct{}),
	}, nil
}

func (r *Runtime) Press(button autoclicker.Button) error {
	return r.fakeButton(button, xproto.ButtonPress)
}

func (r *Runtime) Release(button autoclicker.Button) error {
	return r.fakeButton(button, xproto.ButtonRelease)
}

func (r *Runtime) fakeButton(button autoclicker.Button, eventType byte) error {
	detail, err := buttonIndex(button)
	if err != nil {
		return err
	}

	r.injectMu.Lock()
	defer r.injectMu.Unlock()

	if err := xtest.FakeInputChecked(
		r.conn,
		eventType,
		detail,
		xproto.TimeCurrentTime,
		r.rootWin,
		0,
		0,
		0,
	).Check(); err != nil {
		return err
	}
	r.conn.Sync()
	return nil
}

// Start grabs the current hotkey and begins forwarding its transitions.
func (r *Runtime) Start(handler autoclicker.KeyHandler) error {
	if handler == nil {
		return fmt.Errorf("key handler is nil")
	}
	r.mu.Lock()
	if r.started {
		r.mu.Unlock()
		return fmt.Errorf("x11 listener already started")
	}
	r.started = true
	r.mu.Unlock()

	go r.eventLoop(handler)
	return nil
}

// SetHotkey replaces the grabbed key. The old grab is kept if the new key
// cannot be resolved or grabbed.
func (r *Runtime) SetHotkey(token string) error {
	keycodes, err := r.resolveKeycodes(token)
	if err != nil {
		return err
	}
	normalized := autoclicker.NormalizeKey(token)

	r.mu.Lock()
	defer r.mu.Unlock()

	previous := r.grabbedKeys
	r.ungrabAllLocked()
	if err := r.grabAllLocked(keycodes); err != nil {
		r.ungrabAllLocked()
		if restoreErr := r.grabAllLocked(previous); restoreErr != nil {
			r.logger.Warn("Failed to restore previous hotkey grab", "err", restoreErr)
		}
		return fmt.Errorf("grab hotkey %q: %w", normalized, err)
	}

	keyToToken := make(map[xproto.Keycode]string, len(keycodes))
	for _, key := range keycodes {
		keyToToken[key] = normalized
	}
	r.hotkey = normalized
	r.keyToToken = keyToToken
	r.logger.Info("Grabbed hotkey", "hotkey", normalized, "keycodes", len(keycodes))
	return nil
}

func (r *Runtime) Stop() {
	r.stopOnce.Do(func() {
		close(r.stopCh)

		r.mu.Lock()
		started := r.started
		r.ungrabAllLocked()
		if r.conn != nil {
			r.conn.Close()
		}
		r.mu.Unlock()

		if started {
			<-r.doneCh
		}
	})
}

func (r *Runtime) eventLoop(handler autoclicker.KeyHandler) {
	defer close(r.doneCh)

	var pending xgb.Event
	for {
		event := pending
		pending = nil
		if event == nil {
			next, xerr := r.conn.WaitForEvent()
			if xerr != nil {
				select {
				case <-r.stopCh:
					return
				default:
				}
				r.logger.Warn("X11 event error", "err", xerr)
				continue
			}
			if next == nil {
				return
			}
			event = next
		}

		switch ev := event.(type) {
		case xproto.KeyPressEvent:
			if token, ok := r.lookupToken(ev.Detail); ok {
				handler.OnKeyDown(token)
			}
		case xproto.KeyReleaseEvent:
			token, ok := r.lookupToken(ev.Detail)
			if !ok {
				continue
			}
			next, _ := r.conn.PollForEvent()
			if isAutoRepeat(ev, next) {
				continue
			}
			pending = next
			handler.OnKeyUp(token)
		}
	}
}

// isAutoRepeat reports whether a release is half of a server-generated
// repeat, which arrives as a release immediately followed by a press of the
// same key with the same timestamp.
func isAutoRepeat(release xproto.KeyReleaseEvent, next xgb.Event) bool {
	press, ok := next.(xproto.KeyPressEvent)
	if !ok {
		return false
	}
	return press.Detail == release.Detail && press.Time == release.Time
}

func (r *Runtime) lookupToken(key xproto.Keycode) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	token, ok := r.keyToToken[key]
	return token, ok
}

func (r *Runtime) grabAllLocked(keys []xproto.Keycode) error {
	for _, key := range keys {
		if err := xproto.GrabKeyChecked(
			r.conn,
			false,
			r.rootWin,
			xproto.ModMaskAny,
			key,
			xproto.GrabModeAsync,
			xproto.GrabModeAsync,
		).Check(); err != nil {
			return err
		}
		r.grabbedKeys = append(r.grabbedKeys, key)
	}
	return nil
}

func (r *Runtime) ungrabAllLocked() {
	for _, key := range r.grabbedKeys {
		xproto.UngrabKey(r.conn, key, r.rootWin, xproto.ModMaskAny)
	}
	r.grabbedKeys = nil
}

func (r *Runtime) resolveKeycodes(token string) ([]xproto.Keycode, error) {
	keyName, ok := tokenToKeysym(token)
	if !ok {
		return nil, fmt.Errorf("unsupported X11 hotkey %q", token)
	}

	keycodes := keybind.StrToKeycodes(r.xu, keyName)
	if len(keycodes) == 0 {
		return nil, fmt.Errorf("failed to resolve X11 key %q", keyName)
	}

	uniq := make(map[xproto.Keycode]struct{}, len(keycodes))
	for _, keycode := range keycodes {
		uniq[keycode] = struct{}{}
	}
	result := make([]xproto.Keycode, 0, len(uniq))
	for key := range uniq {
		result = append(result, key)
	}
	sort.Slice(result, func(i, j int) bool { return result[i] < result[j] })
	return result, nil
}

// ListInputDevices reports the display itself: X11 delivers grabbed keys
// from every keyboard and XTest clicks go to the core pointer.
func ListInputDevices() ([]DeviceInfo, error) {
	display := os.Getenv("DISPLAY")
	if display == "" {
		return nil, fmt.Errorf("DISPLAY is not set")
	}
	return []DeviceInfo{{Path: display, Name: "X11 core keyboard and XTest pointer", IsPointer: true}}, nil
}

// CaptureNextKey grabs the keyboard and returns the token of the next key
// pressed.
func CaptureNextKey(timeout time.Duration) (string, error) {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	xu, err := xgbutil.NewConn()
	if err != nil {
		return "", err
	}
	conn := xu.Conn()
	root := xu.RootWin()
	keybind.Initialize(xu)

	defer conn.Close()
	defer xproto.UngrabKeyboard(conn, xproto.TimeCurrentTime)

	if reply, err := xproto.GrabKeyboard(
		conn,
		false,
		root,
		xproto.TimeCurrentTime,
		xproto.GrabModeAsync,
		xproto.GrabModeAsync,
	).Reply(); err != nil {
		return "", err
	} else if reply.Status != xproto.GrabStatusSuccess {
		return "", fmt.Errorf("failed to grab keyboard (status=%d)", reply.Status)
	}

	deadline := time.Now().Add(timeout)
	for {
		event, xerr := conn.PollForEvent()
		if xerr != nil {
			return "", xerr
		}
		if event == nil {
			if time.Now().After(deadline) {
				return "", fmt.Errorf("timed out waiting for a key press")
			}
			time.Sleep(2 * time.Millisecond)
			continue
		}

		if ev, ok := event.(xproto.KeyPressEvent); ok {
			// State 0 so shifted keys report their base keysym.
			lookup := keybind.LookupString(xu, 0, ev.Detail)
			if token := autoclicker.NormalizeKey(lookup); token != "" {
				return token, nil
			}
		}
	}
}
