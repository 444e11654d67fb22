// Package logging provides structured logging with per-module log level configuration.
//
// # Overview
//
// The logging system uses Go's slog package with automatic output routing:
//   - Logs to the systemd journal when available
//   - Logs to stdout when a terminal, pipe, or file is connected
//   - Logs to both when both are available
//
// # Usage
//
// Initialize once at startup:
//
//	logging.Initialize(logging.Config{
//		Level:  "info",
//		Format: "text",
//		Modules: map[string]string{
//			"relaunch": "debug",
//			"process":  "warn",
//		},
//	})
//
// Get a logger for your module and add context:
//
//	logger := logging.GetLogger("process").With("pid", pid)
//	logger.Info("Signaling process to quit")
//
// Levels can be changed at runtime, for instance after the settings file is
// reloaded:
//
//	_ = logging.SetModuleLevel("relaunch", "debug")
//
// # Journal
//
// Entries carry SYSLOG_IDENTIFIER=barspacing and upper-cased attributes:
//
//	journalctl -t barspacing MODULE=relaunch
//	journalctl -t barspacing BUNDLE_ID=com.apple.SystemUIServer
//
// # Configuration
//
//	[logging]
//	level = "info"
//	format = "text"
//
//	[logging.modules]
//	relaunch = "debug"
package logging
