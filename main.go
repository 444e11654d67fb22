package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/spf13/cobra"

	"github.com/smazurov/barspacing/cmd"
	"github.com/smazurov/barspacing/internal/app"
	"github.com/smazurov/barspacing/internal/config"
	"github.com/smazurov/barspacing/internal/logging"
	"github.com/smazurov/barspacing/internal/version"
)

// Options for the CLI - flat structure with toml mapping.
type Options struct {
	Config string `help:"Path to configuration file" short:"c" default:"barspacing.toml"`

	// Spacing settings
	Offset    int    `help:"Spacing offset to apply (0 restores defaults)" short:"o" default:"0" toml:"spacing.offset" env:"SPACING_OFFSET"`
	Store     string `help:"Spacing store (auto, defaults, toml)" default:"auto" toml:"spacing.store" env:"SPACING_STORE"`
	StorePath string `help:"File for the toml spacing store" default:"spacing.toml" toml:"spacing.path" env:"SPACING_PATH"`

	// Menu bar settings
	Snapshot string `help:"Menu bar item snapshot (YAML) written by a helper" toml:"menubar.snapshot" env:"MENUBAR_SNAPSHOT"`

	// Relaunch settings
	SettleDelay       string `help:"Pause after writing the configuration" default:"100ms" toml:"relaunch.settle_delay" env:"RELAUNCH_SETTLE_DELAY"`
	EscalationTimeout string `help:"Wait before forcing a process to quit" default:"1s" toml:"relaunch.escalation_timeout" env:"RELAUNCH_ESCALATION_TIMEOUT"`
	KillTimeout       string `help:"Wait after forcing before giving up (0 waits forever)" default:"5s" toml:"relaunch.kill_timeout" env:"RELAUNCH_KILL_TIMEOUT"`
	DeferredService   string `help:"Bundle id quit last and never relaunched" default:"com.apple.controlcenter" toml:"relaunch.deferred_service" env:"RELAUNCH_DEFERRED_SERVICE"`
	MaxConcurrency    int    `help:"Maximum processes relaunched at once (0 is unbounded)" default:"0" toml:"relaunch.max_concurrency" env:"RELAUNCH_MAX_CONCURRENCY"`

	// Metrics settings
	MetricsAddr     string `help:"Serve Prometheus metrics on this address" toml:"metrics.addr" env:"METRICS_ADDR"`
	MetricsTextfile string `help:"Write metrics to this textfile after each apply" toml:"metrics.textfile" env:"METRICS_TEXTFILE"`

	// Logging settings
	LoggingLevel  string `help:"Global logging level (debug, info, warn, error)" default:"info" toml:"logging.level" env:"LOGGING_LEVEL"`
	LoggingFormat string `help:"Logging format (text, json)" default:"text" toml:"logging.format" env:"LOGGING_FORMAT"`
}

// settings overlays the resolved options on the configuration file. Values
// only the file can express (lists, per-module log levels) come from the
// file.
func (o Options) settings() (config.Settings, error) {
	s, err := config.LoadSettings(o.Config)
	if errors.Is(err, fs.ErrNotExist) {
		s, err = config.DefaultSettings(), nil
	}
	if err != nil {
		return s, err
	}

	s.Spacing.Offset = o.Offset
	s.Spacing.Store = o.Store
	s.Spacing.Path = o.StorePath
	if o.Snapshot != "" {
		s.MenuBar.Snapshot = o.Snapshot
	}
	s.Relaunch.DeferredService = o.DeferredService
	s.Relaunch.MaxConcurrency = o.MaxConcurrency
	s.Metrics.Addr = o.MetricsAddr
	s.Metrics.Textfile = o.MetricsTextfile

	durations := []struct {
		name  string
		value string
		dst   *config.Duration
	}{
		{"settle-delay", o.SettleDelay, &s.Relaunch.SettleDelay},
		{"escalation-timeout", o.EscalationTimeout, &s.Relaunch.EscalationTimeout},
		{"kill-timeout", o.KillTimeout, &s.Relaunch.KillTimeout},
	}
	for _, d := range durations {
		parsed, parseErr := time.ParseDuration(d.value)
		if parseErr != nil {
			return s, fmt.Errorf("invalid %s %q: %w", d.name, d.value, parseErr)
		}
		d.dst.Duration = parsed
	}

	if s.Logging == nil {
		s.Logging = make(map[string]string)
	}
	s.Logging["level"] = o.LoggingLevel
	s.Logging["format"] = o.LoggingFormat

	return s, s.Validate()
}

func main() {
	var cli humacli.CLI

	cli = humacli.New(func(hooks humacli.Hooks, opts *Options) {
		root := cli.Root()

		// Load configuration automatically
		if loadErr := config.LoadConfig(opts, root); loadErr != nil {
			slog.Warn("Failed to load config", "error", loadErr)
		}

		s, err := opts.settings()
		if err != nil {
			slog.Error("Invalid configuration", "error", err)
			os.Exit(1)
		}
		logging.Initialize(s.LoggingConfig())
		logger := logging.GetLogger("main")

		// Reloads resolve the file again under the same CLI flags.
		base := *opts
		loader := func(path string) (config.Settings, error) {
			next := base
			next.Config = path
			if err := config.LoadConfig(&next, root); err != nil {
				return config.Settings{}, err
			}
			return next.settings()
		}

		ctx, cancel := context.WithCancel(context.Background())
		daemon := app.NewDaemon(opts.Config, loader)

		hooks.OnStart(func() {
			logger.Info("Starting barspacing", "version", version.Get().Version, "config", opts.Config)
			if runErr := daemon.Run(ctx); runErr != nil {
				logger.Error("Daemon failed", "error", runErr)
				os.Exit(1)
			}
		})

		hooks.OnStop(func() {
			logger.Info("Shutting down")
			cancel()
		})
	})

	root := cli.Root()
	root.Use = "barspacing"
	root.Short = "Apply menu bar item spacing and relaunch menu bar items"
	root.Long = `Runs as a daemon: applies the configured spacing offset on start and again ` +
		`whenever spacing.offset changes in the configuration file.`
	root.Version = version.Get().Version

	for _, create := range []func() *cobra.Command{
		cmd.CreateApplyCmd,
		cmd.CreateOwnersCmd,
		cmd.CreateVersionCmd,
	} {
		root.AddCommand(create())
	}

	// Run the CLI
	cli.Run()
}
