package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"syscall"

	"speedclicker/internal/config"
	"speedclicker/internal/history"
	"speedclicker/internal/settings"
	"speedclicker/internal/statusui"

	"github.com/spf13/cobra"
)

type options struct {
	configPath   string
	settingsPath string
	historyPath  string
	backend      string
	devicePath   string
	logLevelRaw  string
	cli          bool
	history      bool
	noHistory    bool

	logLevel slog.Level
}

type lineSinkWriter struct {
	sink  func(line string)
	mu    sync.Mutex
	lines bytes.Buffer
}

func (w *lineSinkWriter) Write(p []byte) (int, error) {
	if w.sink == nil {
		return len(p), nil
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	total := len(p)
	for len(p) > 0 {
		idx := bytes.IndexByte(p, '\n')
		if idx == -1 {
			_, _ = w.lines.Write(p)
			break
		}
		_, _ = w.lines.Write(p[:idx])
		line := strings.TrimSpace(w.lines.String())
		w.lines.Reset()
		if line != "" {
			w.sink(line)
		}
		p = p[idx+1:]
	}
	return total, nil
}

// newSlogLogger writes text records to out. With DEBUG=1 each line is also
// mirrored to sink.
func newSlogLogger(out io.Writer, level slog.Level, sink func(line string)) *slog.Logger {
	if sink != nil && debugLogsEnabled() {
		out = io.MultiWriter(out, &lineSinkWriter{sink: sink})
	}
	return slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{
		Level: level,
	}))
}

func debugLogsEnabled() bool {
	return strings.TrimSpace(os.Getenv("DEBUG")) == "1"
}

func parseLogLevel(value string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warning", "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid --log-level %q (expected debug|info|warning|error)", value)
	}
}

func isPermissionError(err error) bool {
	return errors.Is(err, os.ErrPermission) || errors.Is(err, syscall.EPERM) || errors.Is(err, syscall.EACCES)
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:          "speedclicker",
		Short:        "Hotkey-driven auto clicker with a desktop and terminal panel",
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.resolve(cmd); err != nil {
				return err
			}
			if opts.cli {
				return runCLI(cmd, *opts)
			}
			return runUI(*opts)
		},
	}

	opts.bindFlags(rootCmd)

	rootCmd.AddCommand(newConfigCmd(opts), newDevicesCmd(opts), newHistoryCmd(opts))
	return rootCmd
}

func (o *options) bindFlags(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()
	flags.StringVar(&o.configPath, "config", config.DefaultConfigPath(), "Runtime config file (TOML)")
	flags.StringVar(&o.settingsPath, "settings", settings.DefaultPath(), "Clicker settings file (YAML)")
	flags.StringVar(&o.historyPath, "history-db", config.DefaultHistoryPath(), "Run history database")
	flags.StringVar(&o.backend, "backend", "auto", "Input backend. Linux: auto|evdev|x11. Windows: auto|windows. macOS: auto|robotgo.")
	flags.StringVar(&o.devicePath, "device", "", "Keyboard event device to listen on, e.g. /dev/input/event4 (evdev only). Auto-detected if omitted.")
	flags.StringVar(&o.logLevelRaw, "log-level", "info", "Log verbosity: debug, info, warning, error")
	cmd.Flags().BoolVar(&o.cli, "cli", false, "Run the terminal status panel instead of the desktop window")
	cmd.Flags().BoolVar(&o.history, "history", true, "Record finished runs in the history database")
	cmd.Flags().BoolVar(&o.noHistory, "no-history", false, "Do not record finished runs")
}

// resolve layers the runtime config file under any flags the user set and
// validates the result.
func (o *options) resolve(cmd *cobra.Command) error {
	fileCfg, err := config.LoadConfig(o.configPath)
	if err != nil {
		return err
	}
	runtimeCfg := fileCfg.Runtime
	applyStringConfig(cmd, "backend", &o.backend, runtimeCfg.Backend)
	applyStringConfig(cmd, "device", &o.devicePath, runtimeCfg.Device)
	applyStringConfig(cmd, "log-level", &o.logLevelRaw, runtimeCfg.LogLevel)
	applyBoolConfig(cmd, "cli", &o.cli, runtimeCfg.CLI)
	applyBoolConfig(cmd, "history", &o.history, runtimeCfg.History)
	if o.noHistory {
		o.history = false
	}

	level, err := parseLogLevel(o.logLevelRaw)
	if err != nil {
		return err
	}
	o.logLevel = level

	backend, err := parseBackendChoice(o.backend)
	if err != nil {
		return err
	}
	o.backend = backend
	return nil
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if flagChanged(cmd, name) {
		return
	}
	*target = *value
}

func applyBoolConfig(cmd *cobra.Command, name string, target, value *bool) {
	if value == nil {
		return
	}
	if flagChanged(cmd, name) {
		return
	}
	*target = *value
}

func flagChanged(cmd *cobra.Command, name string) bool {
	flag := cmd.Flags().Lookup(name)
	return flag != nil && flag.Changed
}

func runCLI(cmd *cobra.Command, opts options) error {
	logOut := io.Discard
	if debugLogsEnabled() {
		logOut = cmd.ErrOrStderr()
	}
	logger := newSlogLogger(logOut, opts.logLevel, nil)

	store := settings.Open(opts.settingsPath, logger)
	sess, err := openSession(opts, store, logger)
	if err != nil {
		return describeBackendError(err)
	}
	defer sess.Close()

	return statusui.Run(sess.engine, store, sess.backend.name)
}

func describeBackendError(err error) error {
	if isPermissionError(err) {
		return fmt.Errorf("%s: %w", permissionDeniedHint(), err)
	}
	return err
}

func openHistory(opts options) (*history.Store, error) {
	return history.Open(opts.historyPath)
}
