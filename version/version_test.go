package version

import (
	"strings"
	"testing"
)

func saveAndRestore() func() {
	origVersion, origCommit, origBuildTime := Version, GitCommit, BuildTime
	return func() {
		Version = origVersion
		GitCommit = origCommit
		BuildTime = origBuildTime
	}
}

func TestGetDefaults(t *testing.T) {
	defer saveAndRestore()()
	Version = "dev"
	GitCommit = ""
	BuildTime = ""

	info := Get()
	if info == nil {
		t.Fatal("expected non-nil Info")
	}
	if info.Version != "dev" {
		t.Errorf("expected version 'dev', got %q", info.Version)
	}
}

func TestShortWithCommit(t *testing.T) {
	info := &Info{Version: "1.0.0", GitCommit: "abc1234"}
	if got := info.Short(); got != "1.0.0-abc1234" {
		t.Errorf("expected '1.0.0-abc1234', got %q", got)
	}
}

func TestShortDirty(t *testing.T) {
	info := &Info{Version: "1.0.0", GitCommit: "abc1234", IsDirty: true}
	if got := info.Short(); got != "1.0.0-abc1234-dirty" {
		t.Errorf("expected dirty suffix, got %q", got)
	}
}

func TestShortNoCommit(t *testing.T) {
	info := &Info{Version: "dev"}
	if got := info.Short(); got != "dev" {
		t.Errorf("expected 'dev', got %q", got)
	}
}

func TestStringContainsBuildInfo(t *testing.T) {
	info := &Info{
		Version:   "1.0.0",
		GitCommit: "abc1234",
		BuildTime: "2026-01-15T10:30:00Z",
		GoVersion: "go1.26.0",
	}
	s := info.String()
	for _, want := range []string{"1.0.0", "abc1234", "built", "go1.26.0"} {
		if !strings.Contains(s, want) {
			t.Errorf("expected %q in version string, got %q", want, s)
		}
	}
}
