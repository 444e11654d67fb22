// Package relaunch applies a menu-bar spacing offset and restarts every
// process that owns a visible menu-bar item so the new spacing takes effect.
//
// Orchestrator.ApplyOffset persists the offset, discovers the owning
// processes, quits and relaunches each of them concurrently and reports the
// processes that did not come back as a single *GroupedFailure. The
// system-managed deferred service is quit last and never relaunched; the OS
// restarts it.
package relaunch
