package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func defaultOptions(configPath string) Options {
	return Options{
		Config:            configPath,
		Store:             "toml",
		StorePath:         "spacing.toml",
		SettleDelay:       "100ms",
		EscalationTimeout: "1s",
		KillTimeout:       "5s",
		DeferredService:   "com.apple.controlcenter",
		LoggingLevel:      "info",
		LoggingFormat:     "text",
	}
}

func TestOptionsSettingsWithoutFile(t *testing.T) {
	opts := defaultOptions(filepath.Join(t.TempDir(), "missing.toml"))
	opts.Offset = 6
	opts.KillTimeout = "250ms"

	s, err := opts.settings()
	if err != nil {
		t.Fatalf("settings: %v", err)
	}
	if s.Spacing.Offset != 6 {
		t.Errorf("offset = %d, want 6", s.Spacing.Offset)
	}
	if s.Relaunch.KillTimeout.Duration != 250*time.Millisecond {
		t.Errorf("kill timeout = %v, want 250ms", s.Relaunch.KillTimeout.Duration)
	}
	if len(s.Relaunch.SelfRelaunching) == 0 {
		t.Error("self-relaunching defaults should survive the overlay")
	}
}

func TestOptionsSettingsKeepsFileOnlyValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "barspacing.toml")
	content := `
[menubar]
command = ["menubar-helper", "--yaml"]

[logging]
relaunch = "debug"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	s, err := defaultOptions(path).settings()
	if err != nil {
		t.Fatalf("settings: %v", err)
	}
	if len(s.MenuBar.Command) != 2 {
		t.Errorf("menubar command = %v, want file value", s.MenuBar.Command)
	}
	if s.Logging["relaunch"] != "debug" {
		t.Errorf("module log level lost: %v", s.Logging)
	}
	if s.Logging["level"] != "info" {
		t.Errorf("global level = %q, want info", s.Logging["level"])
	}
}

func TestOptionsSettingsRejectsBadDuration(t *testing.T) {
	opts := defaultOptions(filepath.Join(t.TempDir(), "missing.toml"))
	opts.SettleDelay = "soon"

	if _, err := opts.settings(); err == nil {
		t.Fatal("expected error for invalid settle delay")
	}
}
