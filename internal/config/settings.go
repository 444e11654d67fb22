package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/smazurov/barspacing/internal/logging"
)

// Spacing store backends.
const (
	StoreAuto     = "auto"
	StoreDefaults = "defaults"
	StoreTOML     = "toml"
)

// Duration is a time.Duration written as a string ("1s", "250ms") in TOML.
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Settings is the configuration file document.
type Settings struct {
	Spacing  SpacingSettings   `toml:"spacing"`
	Relaunch RelaunchSettings  `toml:"relaunch"`
	MenuBar  MenuBarSettings   `toml:"menubar"`
	Metrics  MetricsSettings   `toml:"metrics"`
	Logging  map[string]string `toml:"logging"`
}

// SpacingSettings selects the offset and where it is stored.
type SpacingSettings struct {
	Offset int    `toml:"offset"`
	Store  string `toml:"store"`           // auto, defaults or toml
	Path   string `toml:"path,omitempty"` // toml store file
}

// RelaunchSettings tunes the relaunch workflow.
type RelaunchSettings struct {
	SettleDelay       Duration `toml:"settle_delay"`
	EscalationTimeout Duration `toml:"escalation_timeout"`
	KillTimeout       Duration `toml:"kill_timeout"`
	DeferredService   string   `toml:"deferred_service"`
	SelfRelaunching   []string `toml:"self_relaunching"`
	MaxConcurrency    int      `toml:"max_concurrency"`
}

// MenuBarSettings selects the menu-bar item source. Command wins over
// Snapshot when both are set.
type MenuBarSettings struct {
	Snapshot string   `toml:"snapshot,omitempty"`
	Command  []string `toml:"command,omitempty"`
}

// MetricsSettings controls metric export. Empty values disable it.
type MetricsSettings struct {
	Addr     string `toml:"addr,omitempty"`
	Textfile string `toml:"textfile,omitempty"`
}

// DefaultSettings returns the settings used when the file leaves a value
// out.
func DefaultSettings() Settings {
	return Settings{
		Spacing: SpacingSettings{
			Store: StoreAuto,
			Path:  "spacing.toml",
		},
		Relaunch: RelaunchSettings{
			SettleDelay:       Duration{100 * time.Millisecond},
			EscalationTimeout: Duration{1 * time.Second},
			KillTimeout:       Duration{5 * time.Second},
			DeferredService:   "com.apple.controlcenter",
			SelfRelaunching:   []string{"com.apple.SystemUIServer"},
		},
		Logging: map[string]string{
			"level":  "info",
			"format": "text",
		},
	}
}

// LoadSettings reads path over DefaultSettings. Unknown keys are an error
// so typos do not silently fall back to defaults.
func LoadSettings(path string) (Settings, error) {
	s := DefaultSettings()

	data, err := os.ReadFile(path)
	if err != nil {
		return s, fmt.Errorf("failed to read settings: %w", err)
	}

	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&s); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return s, fmt.Errorf("failed to parse settings: %s", strict.String())
		}
		return s, fmt.Errorf("failed to parse settings: %w", err)
	}

	if err := s.Validate(); err != nil {
		return s, err
	}
	return s, nil
}

// Save writes s to path.
func (s Settings) Save(path string) error {
	data, err := toml.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// Validate checks values the decoder cannot.
func (s Settings) Validate() error {
	switch s.Spacing.Store {
	case StoreAuto, StoreDefaults, StoreTOML:
	default:
		return fmt.Errorf("invalid spacing.store %q: want %s, %s or %s", s.Spacing.Store, StoreAuto, StoreDefaults, StoreTOML)
	}
	if s.Spacing.Store == StoreTOML && s.Spacing.Path == "" {
		return errors.New("spacing.path is required for the toml store")
	}
	if s.Relaunch.MaxConcurrency < 0 {
		return fmt.Errorf("invalid relaunch.max_concurrency %d", s.Relaunch.MaxConcurrency)
	}
	if s.Relaunch.EscalationTimeout.Duration < 0 {
		return errors.New("relaunch.escalation_timeout must not be negative")
	}
	return nil
}

// LoggingConfig splits the [logging] table into global and per-module
// levels.
func (s Settings) LoggingConfig() logging.Config {
	cfg := logging.Config{
		Level:   "info",
		Format:  "text",
		Modules: make(map[string]string),
	}
	for key, value := range s.Logging {
		switch key {
		case "level":
			cfg.Level = value
		case "format":
			cfg.Format = value
		default:
			cfg.Modules[key] = value
		}
	}
	return cfg
}
