//go:build windows

package wininput

import (
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"syscall"
	"time"
	"unsafe"

	"speedclicker/internal/core/autoclicker"
)

const (
	whKeyboardLL = 13

	wmQuit       = 0x0012
	wmKeyDown    = 0x0100
	wmKeyUp      = 0x0101
	wmSysKeyDown = 0x0104
	wmSysKeyUp   = 0x0105

	llkhfInjected        = 0x00000010
	llkhfLowerILInjected = 0x00000002

	inputMouse            = 0
	mouseeventfLeftDown   = 0x0002
	mouseeventfLeftUp     = 0x0004
	mouseeventfRightDown  = 0x0008
	mouseeventfRightUp    = 0x0010
	mouseeventfMiddleDown = 0x0020
	mouseeventfMiddleUp   = 0x0040

	keyQueueSize = 64
)

var (
	user32 = syscall.NewLazyDLL("user32.dll")

	procSetWindowsHookExW   = user32.NewProc("SetWindowsHookExW")
	procUnhookWindowsHookEx = user32.NewProc("UnhookWindowsHookEx")
	procCallNextHookEx      = user32.NewProc("CallNextHookEx")
	procGetMessageW         = user32.NewProc("GetMessageW")
	procTranslateMessage    = user32.NewProc("TranslateMessage")
	procDispatchMessageW    = user32.NewProc("DispatchMessageW")
	procPostThreadMessageW  = user32.NewProc("PostThreadMessageW")
	procSendInput           = user32.NewProc("SendInput")
	procGetAsyncKeyState    = user32.NewProc("GetAsyncKeyState")

	kernel32 = syscall.NewLazyDLL("kernel32.dll")

	procGetCurrentThreadID = kernel32.NewProc("GetCurrentThreadId")

	keyboardHookCallback = syscall.NewCallback(keyboardLLCallback)

	activeRuntime atomic.Pointer[Runtime]
)

type point struct {
	X int32
	Y int32
}

type keyboardLLHookStruct struct {
	VkCode      uint32
	ScanCode    uint32
	Flags       uint32
	Time        uint32
	DwExtraInfo uintptr
}

type message struct {
	Hwnd     uintptr
	Message  uint32
	WParam   uintptr
	LParam   uintptr
	Time     uint32
	Pt       point
	LPrivate uint32
}

type mouseInput struct {
	Dx          int32
	Dy          int32
	MouseData   uint32
	DwFlags     uint32
	Time        uint32
	DwExtraInfo uintptr
}

type input struct {
	Type uint32
	Mi   mouseInput
}

type DeviceInfo struct {
	Path      string
	Name      string
	IsVirtual bool
	IsPointer bool
}

type keyEvent struct {
	token string
	down  bool
}

// Runtime injects clicks with SendInput and reports hotkey transitions from
// a low-level keyboard hook. Only one Runtime can hook at a time.
type Runtime struct {
	logger autoclicker.Logger

	events  chan keyEvent
	dropped atomic.Int64
	// Touched only on the hook thread.
	held map[uint32]bool

	stopOnce sync.Once
	stopCh   chan struct{}

	threadID     atomic.Uint32
	loopDone     chan struct{}
	dispatchDone chan struct{}
	started      atomic.Bool
}

var _ autoclicker.InputSink = (*Runtime)(nil)

func NewRuntime(logger autoclicker.Logger) (*Runtime, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is nil")
	}
	return &Runtime{
		logger:       logger,
		events:       make(chan keyEvent, keyQueueSize),
		held:         make(map[uint32]bool),
		stopCh:       make(chan struct{}),
		loopDone:     make(chan struct{}),
		dispatchDone: make(chan struct{}),
	}, nil
}

func (r *Runtime) Press(button autoclicker.Button) error {
	flags, _, err := buttonFlags(button)
	if err != nil {
		return err
	}
	return sendMouse(flags)
}

func (r *Runtime) Release(button autoclicker.Button) error {
	_, flags, err := buttonFlags(button)
	if err != nil {
		return err
	}
	return sendMouse(flags)
}

func buttonFlags(button autoclicker.Button) (down, up uint32, err error) {
	switch button {
	case autoclicker.ButtonPrimary:
		return mouseeventfLeftDown, mouseeventfLeftUp, nil
	case autoclicker.ButtonSecondary:
		return mouseeventfRightDown, mouseeventfRightUp, nil
	case autoclicker.ButtonTertiary:
		return mouseeventfMiddleDown, mouseeventfMiddleUp, nil
	default:
		return 0, 0, fmt.Errorf("unsupported button %q", button)
	}
}

func sendMouse(flags uint32) error {
	inputs := []input{{Type: inputMouse, Mi: mouseInput{DwFlags: flags}}}
	sent, _, callErr := procSendInput.Call(
		uintptr(len(inputs)),
		uintptr(unsafe.Pointer(&inputs[0])),
		unsafe.Sizeof(inputs[0]),
	)
	if sent != uintptr(len(inputs)) {
		if callErr != nil && callErr != syscall.Errno(0) {
			return callErr
		}
		return fmt.Errorf("SendInput sent %d of %d inputs", sent, len(inputs))
	}
	return nil
}

// Start installs the keyboard hook and forwards every key transition to
// handler from a separate goroutine.
func (r *Runtime) Start(handler autoclicker.KeyHandler) error {
	if handler == nil {
		return fmt.Errorf("key handler is nil")
	}
	if !activeRuntime.CompareAndSwap(nil, r) {
		return fmt.Errorf("windows runtime is already active")
	}
	r.started.Store(true)

	go r.dispatchLoop(handler)

	ready := make(chan error, 1)
	go r.hookLoop(ready)

	if err := <-ready; err != nil {
		r.Stop()
		return err
	}
	return nil
}

// SetHotkey checks that token maps to a virtual key. The hook forwards all
// keys, so there is nothing to rebind.
func (r *Runtime) SetHotkey(token string) error {
	_, err := VKForToken(token)
	return err
}

func (r *Runtime) Stop() {
	r.stopOnce.Do(func() {
		close(r.stopCh)
		if !r.started.Load() {
			return
		}
		threadID := r.threadID.Load()
		if threadID != 0 {
			_, _, _ = procPostThreadMessageW.Call(uintptr(threadID), uintptr(wmQuit), 0, 0)
		}
		<-r.loopDone
		<-r.dispatchDone
		if dropped := r.dropped.Load(); dropped > 0 {
			r.logger.Warn("Dropped key events while the handler was busy", "count", dropped)
		}
	})
}

func (r *Runtime) dispatchLoop(handler autoclicker.KeyHandler) {
	defer close(r.dispatchDone)
	for {
		select {
		case <-r.stopCh:
			return
		case ev := <-r.events:
			if ev.down {
				handler.OnKeyDown(ev.token)
			} else {
				handler.OnKeyUp(ev.token)
			}
		}
	}
}

func (r *Runtime) hookLoop(ready chan<- error) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer close(r.loopDone)
	defer activeRuntime.CompareAndSwap(r, nil)

	threadID, _, _ := procGetCurrentThreadID.Call()
	r.threadID.Store(uint32(threadID))

	keyboardHook, _, keyboardErr := procSetWindowsHookExW.Call(uintptr(whKeyboardLL), keyboardHookCallback, 0, 0)
	if keyboardHook == 0 {
		ready <- fmt.Errorf("failed to install keyboard hook: %w", keyboardErr)
		return
	}
	defer func() {
		_, _, _ = procUnhookWindowsHookEx.Call(keyboardHook)
	}()

	ready <- nil

	var msg message
	for {
		ret, _, callErr := procGetMessageW.Call(uintptr(unsafe.Pointer(&msg)), 0, 0, 0)
		switch int32(ret) {
		case -1:
			r.logger.Warn("Windows message loop failed", "err", callErr)
			return
		case 0:
			return
		default:
			_, _, _ = procTranslateMessage.Call(uintptr(unsafe.Pointer(&msg)))
			_, _, _ = procDispatchMessageW.Call(uintptr(unsafe.Pointer(&msg)))
		}
	}
}

func keyboardLLCallback(code int, wParam uintptr, lParam uintptr) uintptr {
	if code >= 0 {
		if r := activeRuntime.Load(); r != nil {
			r.handleKeyboardHook(wParam, lParam)
		}
	}
	ret, _, _ := procCallNextHookEx.Call(0, uintptr(code), wParam, lParam)
	return ret
}

func (r *Runtime) handleKeyboardHook(wParam uintptr, lParam uintptr) {
	if lParam == 0 {
		return
	}

	event := (*keyboardLLHookStruct)(unsafe.Pointer(lParam))
	if event.Flags&llkhfInjected != 0 || event.Flags&llkhfLowerILInjected != 0 {
		return
	}

	token, ok := TokenFromVK(event.VkCode, event.Flags)
	if !ok {
		return
	}

	var down bool
	switch uint32(wParam) {
	case wmKeyDown, wmSysKeyDown:
		down = true
	case wmKeyUp, wmSysKeyUp:
		down = false
	default:
		return
	}

	// Windows repeats key-down while a key is held.
	if down == r.held[event.VkCode] {
		return
	}
	r.held[event.VkCode] = down

	select {
	case r.events <- keyEvent{token: token, down: down}:
	default:
		r.dropped.Add(1)
	}
}

// ListInputDevices has one entry: the hook sees every keyboard and
// SendInput drives the shared cursor.
func ListInputDevices() ([]DeviceInfo, error) {
	return []DeviceInfo{{Path: "hook", Name: "Low-level keyboard hook and SendInput pointer", IsPointer: true}}, nil
}

// CaptureNextKey polls key state until a mapped key goes down.
func CaptureNextKey(timeout time.Duration) (string, error) {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	vks := CaptureCandidateVKs()
	state := make(map[uint32]bool, len(vks))
	for _, vk := range vks {
		state[vk] = isVKDown(vk)
	}

	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(2 * time.Millisecond)
	defer ticker.Stop()

	for {
		for _, vk := range vks {
			down := isVKDown(vk)
			wasDown := state[vk]
			state[vk] = down
			if down && !wasDown {
				token, _ := TokenFromVK(vk, 0)
				return token, nil
			}
		}

		if time.Now().After(deadline) {
			return "", fmt.Errorf("timed out waiting for a key press")
		}

		<-ticker.C
	}
}

func isVKDown(vk uint32) bool {
	state, _, _ := procGetAsyncKeyState.Call(uintptr(vk))
	return uint16(state)&0x8000 != 0
}
