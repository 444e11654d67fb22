//go:build darwin

package process

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
)

// OpenStarter launches applications with open(1).
type OpenStarter struct {
	logger *slog.Logger
}

// NewSystemStarter returns the platform starter.
func NewSystemStarter(logger *slog.Logger) Starter {
	return &OpenStarter{logger: logger}
}

// Start implements Starter. -g keeps the app in the background; without -n
// open reuses a running instance. open(1) never adds to recent items and
// has no prompting of its own, so AddToRecents and PromptsUser are ignored.
func (s *OpenStarter) Start(ctx context.Context, d *Descriptor, opts LaunchOptions) error {
	var args []string
	if !opts.Activate {
		args = append(args, "-g")
	}
	if opts.CreateNewInstance {
		args = append(args, "-n")
	}
	args = append(args, d.Location)

	out, err := exec.CommandContext(ctx, "open", args...).CombinedOutput()
	if err != nil {
		if msg := bytes.TrimSpace(out); len(msg) > 0 {
			return fmt.Errorf("open %s: %w: %s", d.Location, err, msg)
		}
		return fmt.Errorf("open %s: %w", d.Location, err)
	}
	if s.logger != nil {
		s.logger.Debug("open(1) accepted launch", "location", d.Location)
	}
	return nil
}
