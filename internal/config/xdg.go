// Package config provides XDG path helpers and the optional runtime config file.
package config

import (
	"os"
	"path/filepath"
)

const appDirName = "speedclicker"

// xdgPath joins name under $env/speedclicker, falling back to fallback
// below the home directory when env is unset.
func xdgPath(env, fallback, name string) string {
	base := os.Getenv(env)
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			home = "."
		}
		base = filepath.Join(home, fallback)
	}
	return filepath.Join(base, appDirName, name)
}

func DefaultConfigPath() string {
	return xdgPath("XDG_CONFIG_HOME", ".config", "config.toml")
}

// DefaultHistoryPath is where finished runs are recorded.
func DefaultHistoryPath() string {
	return xdgPath("XDG_DATA_HOME", filepath.Join(".local", "share"), "history.db")
}
