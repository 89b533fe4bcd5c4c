package logger

import (
	"testing"
)

func TestFields_BuildsMapFromPairs(t *testing.T) {
	m := Fields("dependency", "github", "attempt", 2)

	if m["dependency"] != "github" {
		t.Errorf("expected github, got %v", m["dependency"])
	}
	if m["attempt"] != 2 {
		t.Errorf("expected 2, got %v", m["attempt"])
	}
}

func TestFields_IgnoresDanglingValue(t *testing.T) {
	m := Fields("key", "value", "dangling")

	if len(m) != 1 {
		t.Errorf("expected 1 entry, got %d", len(m))
	}
}

func TestFields_SkipsNonStringKeys(t *testing.T) {
	m := Fields(42, "value", "ok", true)

	if _, found := m["ok"]; !found {
		t.Error("expected string-keyed pair to survive")
	}
	if len(m) != 1 {
		t.Errorf("expected 1 entry, got %d", len(m))
	}
}

func TestConfig_ApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	if cfg.Level != "info" {
		t.Errorf("expected info, got %s", cfg.Level)
	}
	if cfg.Format != "console" {
		t.Errorf("expected console, got %s", cfg.Format)
	}
	if !cfg.Timestamp {
		t.Error("expected timestamp on by default")
	}
}

func TestConfig_Validate(t *testing.T) {
	cfg := Config{Level: "info", Format: "json"}
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected valid config, got %v", err)
	}

	cfg = Config{Level: "verbose", Format: "json"}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for unknown level")
	}

	cfg = Config{Level: "info", Format: "xml"}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestWithComponent_TagsChildLogger(t *testing.T) {
	l := NewDefault("")
	child := l.WithComponent("circuit_breaker")

	if child.component != "circuit_breaker" {
		t.Errorf("expected component tag, got %s", child.component)
	}
}

func TestGetGlobalLogger_LazyInit(t *testing.T) {
	globalLogger = nil
	l := GetGlobalLogger()
	if l == nil {
		t.Fatal("expected lazily created global logger")
	}
}
