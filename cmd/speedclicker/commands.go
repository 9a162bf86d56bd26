package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"speedclicker/internal/core/autoclicker"
	"speedclicker/internal/history"
	"speedclicker/internal/settings"

	"github.com/spf13/cobra"
)

const defaultCaptureTimeout = 10 * time.Second

func newConfigCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or edit clicker settings",
	}
	cmd.AddCommand(
		newConfigShowCmd(opts),
		newConfigSetCmd(opts),
		newConfigCaptureCmd(opts),
		newConfigInitCmd(opts),
	)
	return cmd
}

func newConfigShowCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the current settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := openSettingsOnly(cmd, opts)
			if err != nil {
				return err
			}
			return printSettings(cmd.OutOrStdout(), store.Path(), store.Snapshot())
		},
	}
}

func newConfigSetCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "set <field> <value>",
		Short: "Change one setting",
		Long:  "Change one setting. Fields: " + strings.Join(settings.Fields(), ", "),
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openSettingsOnly(cmd, opts)
			if err != nil {
				return err
			}
			if err := store.Set(args[0], args[1]); err != nil {
				return err
			}
			return printSettings(cmd.OutOrStdout(), store.Path(), store.Snapshot())
		},
	}
}

func newConfigCaptureCmd(opts *options) *cobra.Command {
	timeout := defaultCaptureTimeout
	cmd := &cobra.Command{
		Use:   "capture-hotkey",
		Short: "Store the next pressed key as the hotkey",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := openSettingsOnly(cmd, opts)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Press the key to use as hotkey (waiting %s)...\n", timeout)
			token, err := captureHotkey(opts.backend, opts.devicePath, timeout)
			if err != nil {
				return describeBackendError(err)
			}
			if err := store.SetHotkey(token); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Hotkey set to %s\n", store.Snapshot().Hotkey)
			return nil
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", defaultCaptureTimeout, "How long to wait for a key press")
	return cmd
}

func newConfigInitCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write a commented runtime config file if none exists",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := opts.configPath
			if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
				return fmt.Errorf("failed to create config directory: %w", err)
			}
			if _, err := os.Stat(path); err == nil {
				fmt.Fprintf(cmd.OutOrStdout(), "%s already exists\n", path)
				return nil
			} else if !os.IsNotExist(err) {
				return fmt.Errorf("failed to stat config: %w", err)
			}
			if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
				return fmt.Errorf("failed to write config: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
			return nil
		},
	}
}

func defaultConfigTemplate() string {
	return `# speedclicker runtime configuration
# Uncomment a value to enable it. CLI flags override config values.
# Clicker settings (interval, duty cycle, hotkey...) live in settings.yaml.

[runtime]
# backend = "auto"        # linux: auto|evdev|x11, windows: auto|windows, macOS: auto|robotgo
# device = ""             # keyboard event device for the evdev backend
# log-level = "info"      # debug|info|warning|error
# cli = false             # start the terminal panel instead of the window
# history = true          # record finished runs
`
}

func newDevicesCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "devices",
		Short: "List input devices visible to the selected backend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := opts.resolve(cmd); err != nil {
				return err
			}
			return describeBackendError(listInputDevices(opts.backend, cmd.OutOrStdout()))
		},
	}
}

func newHistoryCmd(opts *options) *cobra.Command {
	limit := history.DefaultRecentLimit
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent click runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := opts.resolve(cmd); err != nil {
				return err
			}
			if limit <= 0 {
				return fmt.Errorf("--limit must be > 0")
			}
			store, err := openHistory(*opts)
			if err != nil {
				return err
			}
			defer store.Close()

			runs, err := store.Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded yet.")
				return nil
			}
			return printRuns(cmd.OutOrStdout(), runs)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", history.DefaultRecentLimit, "Number of runs to show")
	return cmd
}

func openSettingsOnly(cmd *cobra.Command, opts *options) (*settings.Store, error) {
	if err := opts.resolve(cmd); err != nil {
		return nil, err
	}
	logger := newSlogLogger(cmd.ErrOrStderr(), opts.logLevel, nil)
	return settings.Open(opts.settingsPath, logger), nil
}

func printSettings(w io.Writer, path string, cfg autoclicker.Config) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "file\t%s\n", path)
	fmt.Fprintf(tw, "%s\t%g (%.1f CPS)\n", settings.FieldIntervalMS, cfg.IntervalMS, cfg.CPS())
	fmt.Fprintf(tw, "%s\t%g\n", settings.FieldDutyCycle, cfg.DutyCyclePercent)
	fmt.Fprintf(tw, "%s\t%s\n", settings.FieldButton, cfg.Button)
	fmt.Fprintf(tw, "%s\t%s\n", settings.FieldActivationMode, cfg.ActivationMode)
	fmt.Fprintf(tw, "%s\t%s\n", settings.FieldHotkey, cfg.Hotkey)
	fmt.Fprintf(tw, "%s\t%t\n", settings.FieldClickLimitEnabled, cfg.ClickLimit.Enabled)
	fmt.Fprintf(tw, "%s\t%d\n", settings.FieldClickLimitCount, cfg.ClickLimit.Count)
	return tw.Flush()
}

func printRuns(w io.Writer, runs []history.Run) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tENDED\tDURATION\tCLICKS\tBUTTON\tINTERVAL\tDUTY\tREASON")
	for _, run := range runs {
		reason := string(run.Reason)
		if run.Error != "" {
			reason += ": " + run.Error
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%s\t%gms\t%g%%\t%s\n",
			run.ID,
			run.EndedAt.Local().Format(time.DateTime),
			run.Duration().Round(time.Millisecond),
			run.Clicks,
			run.Button,
			run.IntervalMS,
			run.DutyCyclePercent,
			reason,
		)
	}
	return tw.Flush()
}

func printDevice(w io.Writer, path, name string, virtual, pointer bool, extra ...string) {
	virtualTag := "physical"
	if virtual {
		virtualTag = "virtual"
	}
	pointerTag := "non-pointer"
	if pointer {
		pointerTag = "pointer"
	}
	tags := append([]string{virtualTag, pointerTag}, extra...)
	fmt.Fprintf(w, "%s: %s [%s]\n", path, name, strings.Join(tags, ", "))
}
