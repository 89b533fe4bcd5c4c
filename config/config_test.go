package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/guardkit/guardkit/resilience"
)

func TestApplyDefaults(t *testing.T) {
	t.Run("empty environment defaults to development", func(t *testing.T) {
		cfg := Config{Name: "app"}
		cfg.ApplyDefaults()
		if cfg.Environment != "development" {
			t.Errorf("expected 'development', got %q", cfg.Environment)
		}
		if !cfg.Debug {
			t.Error("expected debug=true for development")
		}
	})

	t.Run("production environment keeps debug false", func(t *testing.T) {
		cfg := Config{Name: "app", Environment: "production"}
		cfg.ApplyDefaults()
		if cfg.Debug {
			t.Error("expected debug=false for production")
		}
	})

	t.Run("resilience defaults", func(t *testing.T) {
		var cfg Config
		cfg.ApplyDefaults()

		d := cfg.Defaults
		if d.CircuitBreaker.FailureThreshold != 5 || d.CircuitBreaker.SuccessThreshold != 3 {
			t.Errorf("unexpected breaker defaults: %+v", d.CircuitBreaker)
		}
		if d.CircuitBreaker.RecoveryTimeout != 60*time.Second {
			t.Errorf("expected 60s recovery timeout, got %v", d.CircuitBreaker.RecoveryTimeout)
		}
		if d.Retry.MaxAttempts != 3 || d.Retry.Strategy != "exponential" {
			t.Errorf("unexpected retry defaults: %+v", d.Retry)
		}
		if d.Retry.BaseDelay != time.Second || d.Retry.MaxDelay != 60*time.Second || d.Retry.BackoffFactor != 2.0 {
			t.Errorf("unexpected retry delay defaults: %+v", d.Retry)
		}
		if d.RateLimit.RequestsPerPeriod != 60 || d.RateLimit.Period != 60*time.Second {
			t.Errorf("unexpected rate limit defaults: %+v", d.RateLimit)
		}
		if d.RateLimit.Adaptive.MinLimit != 10 || d.RateLimit.Adaptive.MaxLimit != 200 {
			t.Errorf("unexpected adaptive defaults: %+v", d.RateLimit.Adaptive)
		}
		if d.Bulkhead.MaxConcurrent != 10 {
			t.Errorf("expected 10 max concurrent, got %d", d.Bulkhead.MaxConcurrent)
		}
		if d.Cache.MaxSize != 128 || d.Cache.DefaultTTL != 5*time.Minute {
			t.Errorf("unexpected cache defaults: %+v", d.Cache)
		}
	})
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		var cfg Config
		cfg.Name = "app"
		cfg.ApplyDefaults()
		return cfg
	}

	t.Run("defaults pass", func(t *testing.T) {
		cfg := valid()
		if err := cfg.Validate(); err != nil {
			t.Errorf("expected valid, got %v", err)
		}
	})

	t.Run("invalid environment", func(t *testing.T) {
		cfg := valid()
		cfg.Environment = "sandbox"
		err := cfg.Validate()
		if err == nil || !strings.Contains(err.Error(), "environment") {
			t.Errorf("expected environment error, got %v", err)
		}
	})

	t.Run("invalid strategy", func(t *testing.T) {
		cfg := valid()
		cfg.Defaults.Retry.Strategy = "quadratic"
		err := cfg.Validate()
		if err == nil || !strings.Contains(err.Error(), "strategy") {
			t.Errorf("expected strategy error, got %v", err)
		}
	})

	t.Run("max_delay below base_delay", func(t *testing.T) {
		cfg := valid()
		cfg.Defaults.Retry.BaseDelay = 2 * time.Minute
		err := cfg.Validate()
		if err == nil || !strings.Contains(err.Error(), "max_delay") {
			t.Errorf("expected max_delay error, got %v", err)
		}
	})

	t.Run("invalid dependency override", func(t *testing.T) {
		cfg := valid()
		cfg.Dependencies = map[string]DependencySettings{
			"github": {
				CircuitBreaker: &CircuitBreakerSettings{
					FailureThreshold: 0,
					SuccessThreshold: 3,
					RecoveryTimeout:  time.Minute,
				},
			},
		}
		err := cfg.Validate()
		if err == nil || !strings.Contains(err.Error(), "dependencies.github") {
			t.Errorf("expected dependency error, got %v", err)
		}
	})

	t.Run("adaptive factors", func(t *testing.T) {
		cfg := valid()
		cfg.Defaults.RateLimit.Adaptive.Enabled = true
		cfg.Defaults.RateLimit.Adaptive.DecreaseFactor = 1.5
		err := cfg.Validate()
		if err == nil || !strings.Contains(err.Error(), "decrease_factor") {
			t.Errorf("expected decrease_factor error, got %v", err)
		}
	})
}

func TestPerDependencyOverrides(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()
	cfg.Dependencies = map[string]DependencySettings{
		"github": {
			CircuitBreaker: &CircuitBreakerSettings{
				FailureThreshold: 10,
				SuccessThreshold: 2,
				RecoveryTimeout:  30 * time.Second,
			},
		},
	}

	overridden := cfg.CircuitBreakerFor("github")
	if overridden.FailureThreshold != 10 {
		t.Errorf("expected override threshold 10, got %d", overridden.FailureThreshold)
	}
	if overridden.Name != "github" {
		t.Errorf("expected name github, got %q", overridden.Name)
	}

	fallback := cfg.CircuitBreakerFor("gitlab")
	if fallback.FailureThreshold != 5 {
		t.Errorf("expected default threshold 5, got %d", fallback.FailureThreshold)
	}

	// A dependency with only a breaker override still gets default retry.
	retryCfg, err := cfg.RetryFor("github")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if retryCfg.MaxAttempts != 3 {
		t.Errorf("expected default retry attempts, got %d", retryCfg.MaxAttempts)
	}
}

func TestRetrySettingsBuild(t *testing.T) {
	t.Run("strategy parsed", func(t *testing.T) {
		s := RetrySettings{MaxAttempts: 3, Strategy: "linear", BaseDelay: time.Second}
		cfg, err := s.Build()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.Strategy != resilience.StrategyLinear {
			t.Errorf("expected linear, got %v", cfg.Strategy)
		}
		if !cfg.Jitter {
			t.Error("expected jitter on when unset")
		}
	})

	t.Run("jitter can be disabled", func(t *testing.T) {
		off := false
		s := RetrySettings{Jitter: &off}
		cfg, err := s.Build()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.Jitter {
			t.Error("expected jitter off")
		}
	})

	t.Run("unknown strategy rejected", func(t *testing.T) {
		s := RetrySettings{Strategy: "quadratic"}
		if _, err := s.Build(); err == nil {
			t.Error("expected error for unknown strategy")
		}
	})
}

func TestLoadWithYAML(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yml")

	yamlContent := `
name: test-app
environment: staging
defaults:
  retry:
    max_attempts: 5
dependencies:
  github:
    bulkhead:
      max_concurrent: 3
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load("test-app", WithConfigFile(configPath))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Environment != "staging" {
		t.Errorf("expected staging, got %q", cfg.Environment)
	}
	if cfg.Defaults.Retry.MaxAttempts != 5 {
		t.Errorf("expected file value 5, got %d", cfg.Defaults.Retry.MaxAttempts)
	}
	// Unset file values still get defaults.
	if cfg.Defaults.Retry.Strategy != "exponential" {
		t.Errorf("expected default strategy, got %q", cfg.Defaults.Retry.Strategy)
	}
	if got := cfg.BulkheadFor("github").MaxConcurrent; got != 3 {
		t.Errorf("expected override 3, got %d", got)
	}
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yml")

	yamlContent := `
name: test-app
defaults:
  retry:
    max_attempts: 5
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("GUARDKIT_DEFAULTS_RETRY_MAX_ATTEMPTS", "7")

	cfg, err := Load("test-app", WithConfigFile(configPath))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Defaults.Retry.MaxAttempts != 7 {
		t.Errorf("expected env override 7, got %d", cfg.Defaults.Retry.MaxAttempts)
	}
}

func TestLoadWithDotEnv(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")

	if err := os.WriteFile(envPath, []byte("GUARDKIT_ENVIRONMENT=production\n"), 0644); err != nil {
		t.Fatal(err)
	}
	defer os.Unsetenv("GUARDKIT_ENVIRONMENT")

	cfg, err := Load("test-app", WithEnvFile(envPath))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Environment != "production" {
		t.Errorf("expected production from .env, got %q", cfg.Environment)
	}
}

func TestLoadValidatesResult(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yml")

	yamlContent := `
name: test-app
environment: sandbox
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := Load("test-app", WithConfigFile(configPath))
	if err == nil {
		t.Fatal("expected validation error for bad environment")
	}
	if !strings.Contains(err.Error(), "environment") {
		t.Errorf("expected environment in error, got %v", err)
	}
}

func TestLoadMissingFilesUsesDefaults(t *testing.T) {
	fs := &fakeFS{}
	cfg, err := Load("test-app", WithFileSystem(fs))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Name != "test-app" {
		t.Errorf("expected app name, got %q", cfg.Name)
	}
	if cfg.Defaults.CircuitBreaker.FailureThreshold != 5 {
		t.Errorf("expected defaults, got %+v", cfg.Defaults.CircuitBreaker)
	}
}

type fakeFS struct{}

func (f *fakeFS) Exists(string) bool   { return false }
func (f *fakeFS) LoadEnv(string) error { return nil }
