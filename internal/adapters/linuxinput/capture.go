//go:build linux

package linuxinput

import (
	"fmt"
	"time"

	evdev "github.com/holoplot/go-evdev"
)

// CaptureNextKey waits for the next key press and returns its token.
// If devicePath is empty, it listens on all non-virtual devices with key capabilities.
func CaptureNextKey(devicePath string, timeout time.Duration) (string, error) {
	devices, err := openKeyDevices(devicePath)
	if err != nil {
		return "", err
	}
	return captureNextFromDevices(devices, timeout)
}

func captureNextFromDevices(devices []*evdev.InputDevice, timeout time.Duration) (string, error) {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	defer closeInputDevices(devices)

	done := make(chan struct{})
	tokenCh := make(chan string, 1)
	for _, dev := range devices {
		go captureDeviceLoop(dev, done, tokenCh)
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case token := <-tokenCh:
		close(done)
		return token, nil
	case <-timer.C:
		close(done)
		return "", fmt.Errorf("timed out waiting for a key press")
	}
}

func captureDeviceLoop(dev *evdev.InputDevice, done <-chan struct{}, tokenCh chan<- string) {
	for {
		select {
		case <-done:
			return
		default:
		}

		event, err := dev.ReadOne()
		if err != nil {
			if isWouldBlockError(err) {
				if !sleepWithStop(done, 10*time.Millisecond) {
					return
				}
				continue
			}
			if isDeviceClosedError(err) {
				return
			}
			if !sleepWithStop(done, 25*time.Millisecond) {
				return
			}
			continue
		}
		if event == nil || event.Type != evdev.EV_KEY || event.Value != keyPressed {
			continue
		}
		token := KeyToken(uint16(event.Code))
		if token == "" {
			continue
		}
		select {
		case tokenCh <- token:
		default:
		}
		return
	}
}
