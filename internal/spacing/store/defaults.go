package store

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"

	"github.com/smazurov/barspacing/internal/spacing"
)

// CommandRunner runs a command and returns its combined output.
type CommandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

// ExecRunner runs commands with os/exec.
func ExecRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// Defaults stores settings in the macOS per-host global defaults domain
// through the defaults(1) command.
type Defaults struct {
	run CommandRunner
}

var _ spacing.Store = (*Defaults)(nil)

// NewDefaults creates a defaults(1) backed store. A nil runner uses ExecRunner.
func NewDefaults(run CommandRunner) *Defaults {
	if run == nil {
		run = ExecRunner
	}
	return &Defaults{run: run}
}

// Write runs `defaults -currentHost write -globalDomain key -int value`.
func (d *Defaults) Write(ctx context.Context, key string, value int) error {
	out, err := d.run(ctx, "defaults", "-currentHost", "write", "-globalDomain", key, "-int", strconv.Itoa(value))
	if err != nil {
		return commandError("write", key, out, err)
	}
	return nil
}

// Remove runs `defaults -currentHost delete -globalDomain key`. A key that
// does not exist counts as removed.
func (d *Defaults) Remove(ctx context.Context, key string) error {
	out, err := d.run(ctx, "defaults", "-currentHost", "delete", "-globalDomain", key)
	if err != nil {
		if bytes.Contains(out, []byte("does not exist")) {
			return nil
		}
		return commandError("delete", key, out, err)
	}
	return nil
}

func commandError(verb, key string, out []byte, err error) error {
	if msg := bytes.TrimSpace(out); len(msg) > 0 {
		return fmt.Errorf("defaults %s %s: %w: %s", verb, key, err, msg)
	}
	return fmt.Errorf("defaults %s %s: %w", verb, key, err)
}
