//go:build darwin

package main

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"speedclicker/internal/adapters/robotinput"
)

func parseBackendChoice(value string) (string, error) {
	backend := strings.ToLower(strings.TrimSpace(value))
	if backend == "" {
		backend = "auto"
	}
	switch backend {
	case "auto", "robotgo":
		return backend, nil
	default:
		return "", fmt.Errorf("invalid --backend %q (macOS supports auto|robotgo)", value)
	}
}

func openInputBackend(_ string, devicePath string, logger *slog.Logger) (*inputBackend, error) {
	if devicePath != "" {
		logger.Warn("--device is ignored on macOS")
	}
	runtime, err := robotinput.NewRuntime(logger)
	if err != nil {
		return nil, err
	}
	return &inputBackend{name: "robotgo", sink: runtime, listener: runtime}, nil
}

func captureHotkey(_ string, _ string, _ time.Duration) (string, error) {
	return "", fmt.Errorf("hotkey capture is not supported on macOS; use `speedclicker config set hotkey <key>`")
}

func listInputDevices(_ string, w io.Writer) error {
	printDevice(w, "global", "macOS event tap", false, true)
	return nil
}

func permissionDeniedHint() string {
	return "Input access denied. Grant speedclicker Accessibility and Input Monitoring permission in System Settings."
}
