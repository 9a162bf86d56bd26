//go:build linux

package linuxinput

import (
	"fmt"
	"os"
	"sort"
	"strings"

	evdev "github.com/holoplot/go-evdev"
)

type DeviceInfo struct {
	Path       string
	Name       string
	IsVirtual  bool
	IsPointer  bool
	IsKeyboard bool
}

// virtualNameHints mark injector devices that must never be read as a
// keyboard, including our own pointer.
var virtualNameHints = []string{"virtual", "uinput", "ydotool", VirtualDeviceName}

// eachDevice opens every event node in path order and hands it to visit with
// its best-known name. visit owns the device: it must keep or close it.
func eachDevice(visit func(dev *evdev.InputDevice, path, name string)) error {
	paths, err := evdev.ListDevicePaths()
	if err != nil {
		return err
	}
	sort.Slice(paths, func(i, j int) bool { return paths[i].Path < paths[j].Path })

	for _, entry := range paths {
		dev, err := openInputDevice(entry.Path)
		if err != nil {
			continue
		}
		name := entry.Name
		if reported, err := dev.Name(); err == nil && reported != "" {
			name = reported
		}
		visit(dev, entry.Path, name)
	}
	return nil
}

func ListInputDevices() ([]DeviceInfo, error) {
	var devices []DeviceInfo
	err := eachDevice(func(dev *evdev.InputDevice, path, name string) {
		defer dev.Close()
		devices = append(devices, DeviceInfo{
			Path:       path,
			Name:       name,
			IsVirtual:  deviceIsVirtual(dev, name),
			IsPointer:  deviceIsPointer(dev),
			IsKeyboard: deviceIsKeyboard(dev),
		})
	})
	if err != nil {
		return nil, err
	}
	return devices, nil
}

// openKeyDevices opens devicePath, or every physical keyboard when it is
// empty, in nonblocking mode.
func openKeyDevices(devicePath string) ([]*evdev.InputDevice, error) {
	if devicePath != "" {
		dev, err := openInputDevice(devicePath)
		if err != nil {
			return nil, err
		}
		if len(dev.CapableEvents(evdev.EV_KEY)) == 0 {
			_ = dev.Close()
			return nil, fmt.Errorf("%s does not expose key events", devicePath)
		}
		if err := dev.NonBlock(); err != nil {
			_ = dev.Close()
			return nil, fmt.Errorf("set nonblocking mode for %s: %w", devicePath, err)
		}
		return []*evdev.InputDevice{dev}, nil
	}

	var keyboards []*evdev.InputDevice
	err := eachDevice(func(dev *evdev.InputDevice, _ string, name string) {
		if deviceIsVirtual(dev, name) || !deviceIsKeyboard(dev) || dev.NonBlock() != nil {
			_ = dev.Close()
			return
		}
		keyboards = append(keyboards, dev)
	})
	if err != nil {
		return nil, err
	}
	if len(keyboards) == 0 {
		return nil, fmt.Errorf("no readable keyboards found; use `speedclicker devices` and pass --device")
	}
	return keyboards, nil
}

func openInputDevice(path string) (*evdev.InputDevice, error) {
	return evdev.OpenWithFlags(path, os.O_RDONLY)
}

func closeInputDevices(devices []*evdev.InputDevice) {
	for _, dev := range devices {
		_ = dev.Close()
	}
}

func deviceIsVirtual(dev *evdev.InputDevice, name string) bool {
	if id, err := dev.InputID(); err == nil && id.BusType == uint16(evdev.BUS_VIRTUAL) {
		return true
	}
	lower := strings.ToLower(name)
	for _, hint := range virtualNameHints {
		if strings.Contains(lower, hint) {
			return true
		}
	}
	return false
}

func hasCodes(dev *evdev.InputDevice, evType evdev.EvType, want ...evdev.EvCode) bool {
	found := 0
	for _, code := range dev.CapableEvents(evType) {
		for _, w := range want {
			if code == w {
				found++
			}
		}
	}
	return found == len(want)
}

func deviceIsPointer(dev *evdev.InputDevice) bool {
	return hasCodes(dev, evdev.EV_REL, evdev.REL_X, evdev.REL_Y) || len(dev.CapableEvents(evdev.EV_ABS)) > 0
}

// deviceIsKeyboard looks for letter keys so power buttons and mice with a few
// extra buttons are skipped.
func deviceIsKeyboard(dev *evdev.InputDevice) bool {
	return hasCodes(dev, evdev.EV_KEY, evdev.KEY_A, evdev.KEY_Z)
}
