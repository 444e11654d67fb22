package menubar

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"

	"gopkg.in/yaml.v3"

	"github.com/smazurov/barspacing/internal/logging"
)

// Snapshot is the YAML document produced by the menu-bar helper:
//
//	items:
//	  - title: Clock
//	    owner_pid: 412
//	    owner_name: ControlCenter
//	    bounds: [1650, 0, 74, 24]
//	    on_screen: true
//	    active_space: true
type Snapshot struct {
	Items []Item `yaml:"items"`
}

// ParseSnapshot decodes a snapshot document.
func ParseSnapshot(data []byte) (*Snapshot, error) {
	var snap Snapshot
	if len(bytes.TrimSpace(data)) == 0 {
		return &snap, nil
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&snap); err != nil {
		return nil, fmt.Errorf("failed to parse menu bar snapshot: %w", err)
	}
	return &snap, nil
}

// SnapshotEnumerator reads a snapshot file on every call, so it always
// reflects the helper's latest write.
type SnapshotEnumerator struct {
	path   string
	logger *slog.Logger
}

// NewSnapshotEnumerator creates an enumerator over the snapshot at path.
func NewSnapshotEnumerator(path string, logger *slog.Logger) *SnapshotEnumerator {
	if logger == nil {
		logger = logging.GetLogger("menubar")
	}
	return &SnapshotEnumerator{path: path, logger: logger}
}

// Items implements Enumerator.
func (e *SnapshotEnumerator) Items(_ context.Context, opts ListOptions) ([]Item, error) {
	data, err := os.ReadFile(e.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read menu bar snapshot: %w", err)
	}
	snap, err := ParseSnapshot(data)
	if err != nil {
		return nil, err
	}
	items := Filter(snap.Items, opts)
	e.logger.Debug("Loaded menu bar snapshot", "path", e.path, "total", len(snap.Items), "matched", len(items))
	return items, nil
}

// CommandEnumerator runs a helper that prints a snapshot document on stdout.
// The filter flags are passed through so the helper can skip work.
type CommandEnumerator struct {
	command []string
	logger  *slog.Logger
}

// NewCommandEnumerator creates an enumerator that runs command.
func NewCommandEnumerator(command []string, logger *slog.Logger) *CommandEnumerator {
	if logger == nil {
		logger = logging.GetLogger("menubar")
	}
	return &CommandEnumerator{command: command, logger: logger}
}

// Items implements Enumerator.
func (e *CommandEnumerator) Items(ctx context.Context, opts ListOptions) ([]Item, error) {
	if len(e.command) == 0 {
		return nil, fmt.Errorf("menu bar helper command is empty")
	}

	args := append([]string{}, e.command[1:]...)
	if opts.OnScreenOnly {
		args = append(args, "--on-screen-only")
	}
	if opts.ActiveSpaceOnly {
		args = append(args, "--active-space-only")
	}

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, e.command[0], args...)
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		e.logger.Warn("Menu bar helper failed", "command", e.command[0], "stderr", stderr.String())
		return nil, fmt.Errorf("menu bar helper %s: %w", e.command[0], err)
	}

	snap, err := ParseSnapshot(out)
	if err != nil {
		return nil, err
	}
	// The helper may ignore the flags; filter again.
	return Filter(snap.Items, opts), nil
}
