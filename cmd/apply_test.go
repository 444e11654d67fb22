package cmd

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/smazurov/barspacing/internal/app"
	"github.com/smazurov/barspacing/internal/menubar"
	"github.com/smazurov/barspacing/internal/process/processtest"
	"github.com/smazurov/barspacing/internal/spacing"
	"github.com/smazurov/barspacing/internal/spacing/store"
)

const clockID = "com.example.Clock"

// testEnv is a configuration file plus a fake host with one menu bar item.
type testEnv struct {
	flags     commonFlags
	storePath string
	registry  *processtest.Registry
	starter   *processtest.Starter
	items     menubar.Static
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()
	env := &testEnv{
		storePath: filepath.Join(dir, "spacing.toml"),
		registry:  processtest.NewRegistry(),
	}
	env.starter = processtest.NewStarter(env.registry)

	configPath := filepath.Join(dir, "barspacing.toml")
	content := fmt.Sprintf(`[spacing]
offset = 3
store = "toml"
path = %q

[relaunch]
settle_delay = "0s"
escalation_timeout = "20ms"
kill_timeout = "50ms"

[logging]
level = "error"
`, env.storePath)
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	env.flags = commonFlags{configFile: configPath}

	pid := env.registry.Add(processtest.Proc{BundleID: clockID, Name: "Clock", Location: "/Applications/Clock.app"})
	env.items = menubar.Static{{Title: "Clock", OwnerPID: pid, ActiveSpace: true}}
	return env
}

func (e *testEnv) options() []app.Option {
	return []app.Option{
		app.WithRegistry(e.registry),
		app.WithStarter(e.starter),
		app.WithEnumerator(e.items),
	}
}

func testCommand() (*cobra.Command, *bytes.Buffer, *bytes.Buffer) {
	var out, errOut bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	return cmd, &out, &errOut
}

func TestRunApplyUsesConfiguredOffset(t *testing.T) {
	env := newTestEnv(t)
	cmd, out, _ := testCommand()

	if code := runApply(cmd, &env.flags, nil, env.options()...); code != exitOK {
		t.Fatalf("exit code = %d, want %d", code, exitOK)
	}
	if !strings.Contains(out.String(), "Applied spacing offset 3") {
		t.Errorf("output = %q", out.String())
	}

	v, ok, err := store.NewTOML(env.storePath).Read(spacing.KeySpacing)
	if err != nil || !ok || v != 19 {
		t.Errorf("%s = %d (present %v, err %v), want 19", spacing.KeySpacing, v, ok, err)
	}
	if len(env.starter.Starts()) != 1 {
		t.Errorf("starts = %v, want one", env.starter.Starts())
	}
}

func TestRunApplyOffsetArgument(t *testing.T) {
	env := newTestEnv(t)
	cmd, _, _ := testCommand()

	if code := runApply(cmd, &env.flags, []string{"0"}, env.options()...); code != exitOK {
		t.Fatalf("exit code = %d, want %d", code, exitOK)
	}
	if _, ok, _ := store.NewTOML(env.storePath).Read(spacing.KeySpacing); ok {
		t.Error("offset 0 should remove the spacing key")
	}
}

func TestRunApplyExitCodes(t *testing.T) {
	t.Run("partial failure", func(t *testing.T) {
		env := newTestEnv(t)
		env.starter.FailFor(clockID, nil)
		cmd, _, errOut := testCommand()

		if code := runApply(cmd, &env.flags, nil, env.options()...); code != exitPartialFailure {
			t.Fatalf("exit code = %d, want %d", code, exitPartialFailure)
		}
		if !strings.Contains(errOut.String(), "Clock") || !strings.Contains(errOut.String(), "log out") {
			t.Errorf("stderr = %q", errOut.String())
		}
	})

	t.Run("invalid offset", func(t *testing.T) {
		env := newTestEnv(t)
		cmd, _, _ := testCommand()
		if code := runApply(cmd, &env.flags, []string{"wide"}, env.options()...); code != exitError {
			t.Errorf("exit code = %d, want %d", code, exitError)
		}
	})

	t.Run("no menu bar source", func(t *testing.T) {
		env := newTestEnv(t)
		cmd, _, _ := testCommand()
		opts := []app.Option{app.WithRegistry(env.registry), app.WithStarter(env.starter)}
		if code := runApply(cmd, &env.flags, nil, opts...); code != exitError {
			t.Errorf("exit code = %d, want %d", code, exitError)
		}
	})
}

func TestRunOwners(t *testing.T) {
	env := newTestEnv(t)
	cmd, out, _ := testCommand()

	if code := runOwners(cmd, &env.flags, "yaml", env.options()...); code != exitOK {
		t.Fatalf("exit code = %d, want %d", code, exitOK)
	}
	if !strings.Contains(out.String(), "bundle_id: "+clockID) {
		t.Errorf("output = %q", out.String())
	}

	cmd, _, _ = testCommand()
	if code := runOwners(cmd, &env.flags, "xml", env.options()...); code != exitError {
		t.Errorf("exit code = %d for unknown format, want %d", code, exitError)
	}
	if len(env.starter.Starts()) != 0 {
		t.Error("owners must not relaunch anything")
	}
}
