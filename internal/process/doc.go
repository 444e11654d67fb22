// Package process drives desktop processes through quit, escalation and
// relaunch.
//
// The package offers three pieces:
//
// Registry is the host's view of running processes:
//   - Lookup by pid, search by bundle identifier
//   - Cooperative quit (SIGTERM) and forced termination (SIGKILL)
//   - WatchTermination returns a Subscription resolved exactly once
//
// Controller takes one process to a confirmed terminated state:
//   - Fast path when the process is already gone
//   - Cooperative quit, escalation timer, single forced termination
//   - Bounded wait after escalation (KillTimeout)
//
// Launcher starts a process again from its on-disk location:
//   - No-op when an instance with the same bundle id is running
//   - Starter abstracts the platform launch (open(1) on macOS, detached exec elsewhere)
//
// Example usage:
//
//	registry := process.NewSystemRegistry(bus, logger)
//	ctrl := process.NewController(registry, process.WithEscalationTimeout(time.Second))
//	launcher := process.NewLauncher(registry, process.NewSystemStarter(logger))
//
//	d, _ := registry.Lookup(ctx, pid)
//	if err := ctrl.Terminate(ctx, d); err == nil {
//	    err = launcher.Launch(ctx, d)
//	}
package process
