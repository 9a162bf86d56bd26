//go:build linux

package linuxinput

import (
	"fmt"
	"sync"

	"speedclicker/internal/core/autoclicker"

	evdev "github.com/holoplot/go-evdev"
)

// VirtualDeviceName is the uinput device name. Discovery treats it as virtual
// so the listener never reads its own clicks.
const VirtualDeviceName = "speedclicker-pointer"

// Sink injects button transitions through a uinput virtual pointer.
type Sink struct {
	mu  sync.Mutex
	dev *evdev.InputDevice
}

var _ autoclicker.InputSink = (*Sink)(nil)

// NewSink creates the virtual pointer. It needs write access to /dev/uinput.
func NewSink() (*Sink, error) {
	id := evdev.InputID{
		BusType: uint16(evdev.BUS_VIRTUAL),
		Vendor:  0x1,
		Product: 0x1,
		Version: 1,
	}
	// REL_X/REL_Y make compositors classify the device as a mouse.
	capabilities := map[evdev.EvType][]evdev.EvCode{
		evdev.EV_KEY: {evdev.BTN_LEFT, evdev.BTN_RIGHT, evdev.BTN_MIDDLE},
		evdev.EV_REL: {evdev.REL_X, evdev.REL_Y},
	}

	dev, err := evdev.CreateDevice(VirtualDeviceName, id, capabilities)
	if err != nil {
		return nil, fmt.Errorf("create uinput device: %w", err)
	}
	return &Sink{dev: dev}, nil
}

func (s *Sink) Press(button autoclicker.Button) error {
	return s.write(button, 1)
}

func (s *Sink) Release(button autoclicker.Button) error {
	return s.write(button, 0)
}

func (s *Sink) write(button autoclicker.Button, value int32) error {
	code, err := buttonCode(button)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dev == nil {
		return fmt.Errorf("uinput device is closed")
	}

	events := []evdev.InputEvent{
		{Type: evdev.EV_KEY, Code: code, Value: value},
		{Type: evdev.EV_SYN, Code: evdev.SYN_REPORT, Value: 0},
	}
	for i := range events {
		if err := s.dev.WriteOne(&events[i]); err != nil {
			return err
		}
	}
	return nil
}

func (s *Sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dev == nil {
		return nil
	}
	err := s.dev.Close()
	s.dev = nil
	return err
}
