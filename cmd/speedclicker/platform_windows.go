//go:build windows

package main

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"speedclicker/internal/adapters/wininput"
)

func parseBackendChoice(value string) (string, error) {
	backend := strings.ToLower(strings.TrimSpace(value))
	if backend == "" {
		backend = "auto"
	}
	switch backend {
	case "auto", "windows":
		return backend, nil
	default:
		return "", fmt.Errorf("invalid --backend %q (windows supports auto|windows)", value)
	}
}

func openInputBackend(_ string, devicePath string, logger *slog.Logger) (*inputBackend, error) {
	if devicePath != "" {
		logger.Warn("--device is ignored on Windows; using the global keyboard hook")
	}
	runtime, err := wininput.NewRuntime(logger)
	if err != nil {
		return nil, err
	}
	return &inputBackend{name: "windows", sink: runtime, listener: runtime}, nil
}

func captureHotkey(_ string, _ string, timeout time.Duration) (string, error) {
	return wininput.CaptureNextKey(timeout)
}

func listInputDevices(_ string, w io.Writer) error {
	devices, err := wininput.ListInputDevices()
	if err != nil {
		return err
	}
	for _, dev := range devices {
		printDevice(w, dev.Path, dev.Name, dev.IsVirtual, dev.IsPointer)
	}
	return nil
}

func permissionDeniedHint() string {
	return "Permission denied registering the global keyboard hook. Run as Administrator and ensure input hooking is allowed."
}
