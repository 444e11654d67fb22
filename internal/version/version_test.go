package version

import (
	"runtime"
	"strings"
	"testing"
)

func TestGet(t *testing.T) {
	info := Get()
	if info.Version != Version {
		t.Errorf("Version = %q, want %q", info.Version, Version)
	}
	if info.GoVersion != runtime.Version() {
		t.Errorf("GoVersion = %q", info.GoVersion)
	}
	if want := runtime.GOOS + "/" + runtime.GOARCH; info.Platform != want {
		t.Errorf("Platform = %q, want %q", info.Platform, want)
	}
}

func TestInjectedCommitWins(t *testing.T) {
	old := GitCommit
	GitCommit = "abc1234"
	defer func() { GitCommit = old }()

	if got := Get().GitCommit; got != "abc1234" {
		t.Errorf("GitCommit = %q, want abc1234", got)
	}
}

func TestInfoString(t *testing.T) {
	s := Info{Version: "1.2.0", GitCommit: "abc", BuildDate: "2026-01-01", GoVersion: "go1.24", Platform: "darwin/arm64"}.String()
	for _, want := range []string{"barspacing 1.2.0", "commit abc", "darwin/arm64"} {
		if !strings.Contains(s, want) {
			t.Errorf("String() = %q, missing %q", s, want)
		}
	}
}
