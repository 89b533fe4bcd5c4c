package version

import (
	"strings"
	"testing"
)

func stashBuildVars() func() {
	v, c, b, bt := Version, Commit, Branch, BuildTime
	return func() {
		Version, Commit, Branch, BuildTime = v, c, b, bt
	}
}

func TestGet_DevDefaults(t *testing.T) {
	defer stashBuildVars()()
	Version = "dev"
	Commit = ""
	Branch = ""
	BuildTime = ""

	info := Get()
	if info.Version != "dev" {
		t.Errorf("expected version 'dev', got %q", info.Version)
	}
	if info.Release {
		t.Error("dev build should not be a release")
	}
}

func TestGet_LinkedBuildIdentity(t *testing.T) {
	defer stashBuildVars()()
	Version = "1.2.0"
	Commit = "abc1234"
	Branch = "main"
	BuildTime = "2026-03-01T09:00:00Z"

	info := Get()
	if !info.Release {
		t.Error("1.2.0 should be a release")
	}
	if info.Commit != "abc1234" {
		t.Errorf("expected commit 'abc1234', got %q", info.Commit)
	}
	if info.BuildDate.Year() != 2026 {
		t.Errorf("expected build year 2026, got %d", info.BuildDate.Year())
	}
	if info.GoVersion == "" {
		t.Error("expected Go version from build info")
	}
}

func TestGet_DirtyVersionIsNotRelease(t *testing.T) {
	defer stashBuildVars()()
	Version = "1.2.0-dirty"

	if Get().Release {
		t.Error("dirty version should not be a release")
	}
}

func TestShort(t *testing.T) {
	defer stashBuildVars()()
	Version = "1.2.0"
	Commit = "abc1234"
	Branch = ""
	BuildTime = ""

	if got := Short(); got != "1.2.0-abc1234" {
		t.Errorf("expected '1.2.0-abc1234', got %q", got)
	}
}

func TestShort_NoCommitFallsBackToVersion(t *testing.T) {
	defer stashBuildVars()()
	Version = "dev"
	Commit = ""
	Branch = ""
	BuildTime = ""

	if got := Short(); !strings.HasPrefix(got, "dev") {
		t.Errorf("expected short version to start with 'dev', got %q", got)
	}
}

func TestFull(t *testing.T) {
	defer stashBuildVars()()
	Version = "1.2.0"
	Commit = "abc1234"
	Branch = "main"
	BuildTime = "2026-03-01T09:00:00Z"

	got := Full()
	if !strings.Contains(got, "1.2.0") || !strings.Contains(got, "abc1234") {
		t.Errorf("expected version and commit in %q", got)
	}
	if strings.Contains(got, "main") {
		t.Errorf("main branch should be elided, got %q", got)
	}
	if !strings.Contains(got, "built") {
		t.Errorf("expected build date in %q", got)
	}
}

func TestFull_FeatureBranchIncluded(t *testing.T) {
	defer stashBuildVars()()
	Version = "1.2.0"
	Commit = "abc1234"
	Branch = "feature/adaptive-window"
	BuildTime = ""

	if got := Full(); !strings.Contains(got, "feature/adaptive-window") {
		t.Errorf("expected branch in %q", got)
	}
}
