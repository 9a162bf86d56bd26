//go:build !linux && !windows && !darwin

package main

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"
)

func parseBackendChoice(value string) (string, error) {
	backend := strings.ToLower(strings.TrimSpace(value))
	if backend == "" || backend == "auto" {
		return "auto", nil
	}
	return "", fmt.Errorf("invalid --backend %q (unsupported platform)", value)
}

func openInputBackend(_ string, _ string, _ *slog.Logger) (*inputBackend, error) {
	return nil, fmt.Errorf("input backend is not supported on this platform")
}

func captureHotkey(_ string, _ string, _ time.Duration) (string, error) {
	return "", fmt.Errorf("hotkey capture is not supported on this platform")
}

func listInputDevices(_ string, _ io.Writer) error {
	return fmt.Errorf("input device listing is not supported on this platform")
}

func permissionDeniedHint() string {
	return "Permission denied opening input backend."
}
