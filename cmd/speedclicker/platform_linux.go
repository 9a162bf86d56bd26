//go:build linux

package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"speedclicker/internal/adapters/linuxinput"
	"speedclicker/internal/adapters/x11input"
)

func parseBackendChoice(value string) (string, error) {
	backend := strings.ToLower(strings.TrimSpace(value))
	if backend == "" {
		backend = "auto"
	}
	switch backend {
	case "auto", "evdev", "wayland", "x11":
		return backend, nil
	default:
		return "", fmt.Errorf("invalid --backend %q (linux supports auto|evdev|x11)", value)
	}
}

func openInputBackend(choice, devicePath string, logger *slog.Logger) (*inputBackend, error) {
	switch resolveLinuxBackend(choice) {
	case "x11":
		if devicePath != "" {
			logger.Warn("--device is ignored on X11 backend")
		}
		runtime, err := x11input.NewRuntime(logger)
		if err != nil {
			return nil, err
		}
		return &inputBackend{name: "x11", sink: runtime, listener: runtime}, nil
	default:
		sink, err := linuxinput.NewSink()
		if err != nil {
			return nil, err
		}
		listener, err := linuxinput.NewListener(devicePath, logger)
		if err != nil {
			_ = sink.Close()
			return nil, err
		}
		return &inputBackend{
			name:     "evdev",
			sink:     sink,
			listener: listener,
			closeFn: func() {
				if err := sink.Close(); err != nil {
					logger.Warn("Failed to close virtual pointer", "err", err)
				}
			},
		}, nil
	}
}

func captureHotkey(choice, devicePath string, timeout time.Duration) (string, error) {
	switch resolveLinuxBackend(choice) {
	case "x11":
		return x11input.CaptureNextKey(timeout)
	default:
		return linuxinput.CaptureNextKey(devicePath, timeout)
	}
}

func listInputDevices(choice string, w io.Writer) error {
	switch resolveLinuxBackend(choice) {
	case "x11":
		devices, err := x11input.ListInputDevices()
		if err != nil {
			return err
		}
		for _, dev := range devices {
			printDevice(w, dev.Path, dev.Name, dev.IsVirtual, dev.IsPointer)
		}
		return nil
	default:
		devices, err := linuxinput.ListInputDevices()
		if err != nil {
			return err
		}
		for _, dev := range devices {
			tags := []string{}
			if dev.IsKeyboard {
				tags = append(tags, "keyboard")
			}
			printDevice(w, dev.Path, dev.Name, dev.IsVirtual, dev.IsPointer, tags...)
		}
		return nil
	}
}

func permissionDeniedHint() string {
	return "Permission denied opening input backend. Outside X11 speedclicker needs read access to /dev/input and write access to /dev/uinput (root or a udev rule). On X11 ensure DISPLAY is set."
}

func resolveLinuxBackend(configured string) string {
	choice := strings.ToLower(strings.TrimSpace(configured))
	if choice == "" {
		choice = "auto"
	}
	if choice == "wayland" {
		choice = "evdev"
	}
	if choice != "auto" {
		return choice
	}

	sessionType := strings.ToLower(strings.TrimSpace(os.Getenv("XDG_SESSION_TYPE")))
	switch sessionType {
	case "wayland":
		return "evdev"
	case "x11":
		return "x11"
	}

	if strings.TrimSpace(os.Getenv("WAYLAND_DISPLAY")) != "" {
		return "evdev"
	}
	if strings.TrimSpace(os.Getenv("DISPLAY")) != "" {
		return "x11"
	}
	return "evdev"
}
