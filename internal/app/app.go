// Package app builds a relaunch orchestrator from settings.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"github.com/smazurov/barspacing/internal/config"
	"github.com/smazurov/barspacing/internal/events"
	"github.com/smazurov/barspacing/internal/logging"
	"github.com/smazurov/barspacing/internal/menubar"
	"github.com/smazurov/barspacing/internal/metrics/exporters"
	"github.com/smazurov/barspacing/internal/process"
	"github.com/smazurov/barspacing/internal/relaunch"
	"github.com/smazurov/barspacing/internal/spacing"
	"github.com/smazurov/barspacing/internal/spacing/store"
)

// ErrNoEnumerator means neither a menu-bar snapshot nor a helper command is
// configured.
var ErrNoEnumerator = errors.New("no menu bar item source configured: set menubar.snapshot or menubar.command")

// App is a wired orchestrator and the pieces around it.
type App struct {
	Settings     config.Settings
	Bus          *events.Bus
	Store        spacing.Store
	Orchestrator *relaunch.Orchestrator

	logger *slog.Logger
	detach func()
}

type buildOptions struct {
	goos       string
	runner     store.CommandRunner
	registry   process.Registry
	starter    process.Starter
	enumerator menubar.Enumerator
}

// Option overrides a host-facing component.
type Option func(*buildOptions)

// WithGOOS picks the store backend as if running on goos.
func WithGOOS(goos string) Option {
	return func(o *buildOptions) { o.goos = goos }
}

// WithCommandRunner replaces the runner used by the defaults store.
func WithCommandRunner(run store.CommandRunner) Option {
	return func(o *buildOptions) { o.runner = run }
}

// WithRegistry replaces the system process registry.
func WithRegistry(r process.Registry) Option {
	return func(o *buildOptions) { o.registry = r }
}

// WithStarter replaces the platform starter.
func WithStarter(s process.Starter) Option {
	return func(o *buildOptions) { o.starter = s }
}

// WithEnumerator replaces the configured menu-bar item source.
func WithEnumerator(e menubar.Enumerator) Option {
	return func(o *buildOptions) { o.enumerator = e }
}

// New wires an App from s. Close releases it.
func New(s config.Settings, opts ...Option) (*App, error) {
	bo := buildOptions{goos: runtime.GOOS}
	for _, opt := range opts {
		opt(&bo)
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}

	logger := logging.GetLogger("main")
	bus := events.New()

	st, err := NewStore(s.Spacing, bo.goos, bo.runner)
	if err != nil {
		return nil, err
	}

	enumerator := bo.enumerator
	if enumerator == nil {
		if enumerator, err = NewEnumerator(s.MenuBar); err != nil {
			return nil, err
		}
	}

	registry := bo.registry
	if registry == nil {
		registry = process.NewSystemRegistry(bus, logging.GetLogger("process"))
	}
	starter := bo.starter
	if starter == nil {
		starter = process.NewSystemStarter(logging.GetLogger("process"))
	}

	processLogger := logging.GetLogger("process")
	orch, err := relaunch.New(relaunch.Options{
		Writer:             spacing.NewWriter(st, logging.GetLogger("spacing")),
		Enumerator:         enumerator,
		Registry:           registry,
		Starter:            starter,
		SettleDelay:        nonZero(s.Relaunch.SettleDelay),
		EscalationTimeout:  s.Relaunch.EscalationTimeout.Duration,
		KillTimeout:        nonZero(s.Relaunch.KillTimeout),
		DeferredServiceID:  s.Relaunch.DeferredService,
		SelfRelaunchingIDs: s.Relaunch.SelfRelaunching,
		MaxConcurrency:     s.Relaunch.MaxConcurrency,
		Bus:                bus,
		OnStateChange: func(d *process.Descriptor, from, to process.State, err error) {
			processLogger.Debug("Process state changed", "process", d, "from", from, "to", to, "error", err)
		},
	})
	if err != nil {
		return nil, err
	}

	return &App{
		Settings:     s,
		Bus:          bus,
		Store:        st,
		Orchestrator: orch,
		logger:       logger,
		detach:       exporters.Attach(bus),
	}, nil
}

// nonZero maps an explicit zero duration from the file to "disabled" for
// options where zero otherwise means "use the default".
func nonZero(d config.Duration) time.Duration {
	if d.Duration == 0 {
		return -1
	}
	return d.Duration
}

// Apply applies offset and refreshes the metrics textfile if configured.
func (a *App) Apply(ctx context.Context, offset int) error {
	err := a.Orchestrator.ApplyOffset(ctx, offset)

	if path := a.Settings.Metrics.Textfile; path != "" {
		if writeErr := exporters.WriteTextfile(path); writeErr != nil {
			a.logger.Warn("Failed to write metrics textfile", "path", path, "error", writeErr)
		}
	}
	return err
}

// Owners lists the processes Apply would relaunch.
func (a *App) Owners(ctx context.Context) ([]*process.Descriptor, error) {
	return a.Orchestrator.Owners(ctx)
}

// Close detaches the metrics from the bus.
func (a *App) Close() {
	if a.detach != nil {
		a.detach()
		a.detach = nil
	}
}

// NewStore picks the spacing store. "auto" uses the system defaults
// database on macOS and the TOML file elsewhere.
func NewStore(s config.SpacingSettings, goos string, run store.CommandRunner) (spacing.Store, error) {
	backend := s.Store
	if backend == "" || backend == config.StoreAuto {
		backend = config.StoreTOML
		if goos == "darwin" {
			backend = config.StoreDefaults
		}
	}

	switch backend {
	case config.StoreDefaults:
		return store.NewDefaults(run), nil
	case config.StoreTOML:
		return store.NewTOML(s.Path), nil
	default:
		return nil, fmt.Errorf("unknown spacing store %q", s.Store)
	}
}

// NewEnumerator builds the menu-bar item source. A helper command wins over
// a snapshot file.
func NewEnumerator(s config.MenuBarSettings) (menubar.Enumerator, error) {
	logger := logging.GetLogger("menubar")
	switch {
	case len(s.Command) > 0:
		return menubar.NewCommandEnumerator(s.Command, logger), nil
	case s.Snapshot != "":
		return menubar.NewSnapshotEnumerator(s.Snapshot, logger), nil
	default:
		return nil, ErrNoEnumerator
	}
}
