//go:build !darwin

package process

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"syscall"
)

// ExecStarter spawns the executable at d.Location in its own process group
// so it outlives us.
type ExecStarter struct {
	logger *slog.Logger
}

// NewSystemStarter returns the platform starter.
func NewSystemStarter(logger *slog.Logger) Starter {
	return &ExecStarter{logger: logger}
}

// Start implements Starter. The child is not tied to ctx: cancelling the
// relaunch must not kill the relaunched process.
func (s *ExecStarter) Start(_ context.Context, d *Descriptor, _ LaunchOptions) error {
	cmd := exec.Command(d.Location)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", d.Location, err)
	}

	pid := cmd.Process.Pid
	if s.logger != nil {
		s.logger.Debug("Process started", "location", d.Location, "new_pid", pid)
	}

	// Reap the child if it exits while we are still alive.
	go func() { _ = cmd.Wait() }()
	return nil
}
