//go:build linux

package linuxinput

import (
	"errors"
	"fmt"
	"sync"
	"syscall"
	"time"

	"speedclicker/internal/core/autoclicker"

	evdev "github.com/holoplot/go-evdev"
)

const (
	keyReleased int32 = 0
	keyPressed  int32 = 1
	keyRepeated int32 = 2
)

// Listener reads physical keyboards and reports key transitions as tokens.
type Listener struct {
	devicePath string
	logger     autoclicker.Logger

	devices   []*evdev.InputDevice
	stopCh    chan struct{}
	stopOnce  sync.Once
	readersWG sync.WaitGroup
}

// NewListener prepares a listener. With an empty devicePath every
// non-virtual device exposing key events is read.
func NewListener(devicePath string, logger autoclicker.Logger) (*Listener, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is nil")
	}
	return &Listener{
		devicePath: devicePath,
		logger:     logger,
		stopCh:     make(chan struct{}),
	}, nil
}

func (l *Listener) Start(handler autoclicker.KeyHandler) error {
	if handler == nil {
		return fmt.Errorf("key handler is nil")
	}
	devices, err := openKeyDevices(l.devicePath)
	if err != nil {
		return err
	}
	l.devices = devices

	for _, dev := range devices {
		name, _ := dev.Name()
		l.logger.Info("Listening on input device", "path", dev.Path(), "name", name)
		l.readersWG.Add(1)
		go l.readLoop(dev, handler)
	}
	return nil
}

// SetHotkey checks that token names an evdev key. Every key is forwarded
// regardless, so nothing needs rebinding.
func (l *Listener) SetHotkey(token string) error {
	_, err := CodeForToken(token)
	return err
}

func (l *Listener) Stop() {
	l.stopOnce.Do(func() {
		close(l.stopCh)
		closeInputDevices(l.devices)
		l.readersWG.Wait()
	})
}

func (l *Listener) readLoop(dev *evdev.InputDevice, handler autoclicker.KeyHandler) {
	defer l.readersWG.Done()

	path := dev.Path()
	for {
		events, err := dev.ReadSlice(64)
		if err != nil {
			if l.stopped() || isDeviceClosedError(err) {
				return
			}
			if isWouldBlockError(err) {
				if !sleepWithStop(l.stopCh, 10*time.Millisecond) {
					return
				}
				continue
			}
			l.logger.Warn("Read failed", "path", path, "err", err)
			if !sleepWithStop(l.stopCh, 100*time.Millisecond) {
				return
			}
			continue
		}

		for _, event := range events {
			if event.Type != evdev.EV_KEY {
				continue
			}
			token := KeyToken(uint16(event.Code))
			if token == "" {
				continue
			}
			switch event.Value {
			case keyPressed:
				handler.OnKeyDown(token)
			case keyReleased:
				handler.OnKeyUp(token)
			case keyRepeated:
				// Held key; only transitions matter.
			}
		}
	}
}

func (l *Listener) stopped() bool {
	select {
	case <-l.stopCh:
		return true
	default:
		return false
	}
}

func sleepWithStop(stopCh <-chan struct{}, duration time.Duration) bool {
	timer := time.NewTimer(duration)
	defer timer.Stop()
	select {
	case <-stopCh:
		return false
	case <-timer.C:
		return true
	}
}

func isDeviceClosedError(err error) bool {
	return errors.Is(err, syscall.EBADF) || errors.Is(err, syscall.ENODEV)
}

func isWouldBlockError(err error) bool {
	return errors.Is(err, syscall.EAGAIN) || errors.Is(err, syscall.EWOULDBLOCK)
}
