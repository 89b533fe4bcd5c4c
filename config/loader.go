package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// envPrefix is the prefix recognized on environment variable overrides,
// e.g. GUARDKIT_DEFAULTS_RETRY_MAX_ATTEMPTS.
const envPrefix = "GUARDKIT"

// FileSystem interface for file operations (useful for testing).
type FileSystem interface {
	Exists(path string) bool
	LoadEnv(path string) error
}

// RealFileSystem implements FileSystem using actual file operations.
type RealFileSystem struct{}

func (rfs *RealFileSystem) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func (rfs *RealFileSystem) LoadEnv(path string) error {
	return godotenv.Load(path)
}

// LoaderConfig holds dependencies and optional file overrides.
type LoaderConfig struct {
	FileSystem FileSystem
	ConfigFile string // Direct config file path (optional)
	EnvFile    string // Direct .env file path (optional)
}

// LoaderOption is a functional option for Load.
type LoaderOption func(*LoaderConfig)

// WithFileSystem sets a custom filesystem for the loader.
func WithFileSystem(fs FileSystem) LoaderOption {
	return func(lc *LoaderConfig) { lc.FileSystem = fs }
}

// WithConfigFile sets an explicit config file path.
func WithConfigFile(path string) LoaderOption {
	return func(lc *LoaderConfig) { lc.ConfigFile = path }
}

// WithEnvFile sets an explicit .env file path.
func WithEnvFile(path string) LoaderOption {
	return func(lc *LoaderConfig) { lc.EnvFile = path }
}

// Load reads configuration for an application. It searches for a config
// file and a .env file in standard locations (unless explicit paths are
// given), binds GUARDKIT_ environment variables over the file values,
// applies defaults, and validates the result.
func Load(appName string, opts ...LoaderOption) (*Config, error) {
	var lc LoaderConfig
	for _, opt := range opts {
		opt(&lc)
	}
	if lc.FileSystem == nil {
		lc.FileSystem = &RealFileSystem{}
	}

	if lc.ConfigFile == "" {
		lc.ConfigFile = findConfigFile(lc.FileSystem, appName)
	}
	if lc.EnvFile == "" {
		lc.EnvFile = findEnvFile(lc.FileSystem, appName)
	}

	cfg := &Config{Name: appName}
	if err := load(cfg, lc); err != nil {
		return nil, err
	}
	if cfg.Name == "" {
		cfg.Name = appName
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func load(cfg *Config, lc LoaderConfig) error {
	v := viper.New()

	// 1. .env overlay first so its variables are visible to AutomaticEnv.
	if lc.EnvFile != "" && lc.FileSystem.Exists(lc.EnvFile) {
		if err := lc.FileSystem.LoadEnv(lc.EnvFile); err != nil {
			return fmt.Errorf("failed to load env file %s: %w", lc.EnvFile, err)
		}
	}

	// 2. File values form the base.
	if lc.ConfigFile != "" && lc.FileSystem.Exists(lc.ConfigFile) {
		v.SetConfigFile(lc.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config file %s: %w", lc.ConfigFile, err)
		}
	}

	// 3. GUARDKIT_ environment variables override file values.
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnvOverrides(v)

	if err := v.Unmarshal(cfg); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return nil
}

// findConfigFile searches for a config file in standard locations.
func findConfigFile(fs FileSystem, appName string) string {
	searchPaths := []string{
		fmt.Sprintf("./config/%s.yml", appName),
		fmt.Sprintf("./config/%s.yaml", appName),
		"./config/config.yml",
		"./config/config.yaml",
		"./config.yml",
		"./config.yaml",
	}
	for _, path := range searchPaths {
		if fs.Exists(path) {
			return path
		}
	}
	return ""
}

// findEnvFile searches for a .env file in standard locations.
func findEnvFile(fs FileSystem, appName string) string {
	searchPaths := []string{
		fmt.Sprintf(".env.%s", appName),
		".env",
		"config/.env",
	}
	for _, path := range searchPaths {
		if fs.Exists(path) {
			return path
		}
	}
	return ""
}

// bindEnvOverrides binds prefixed environment variables to viper keys.
// AutomaticEnv only resolves keys viper already knows about, so variables
// targeting unset nested keys (e.g. a dependency override that exists in
// no file) are bound explicitly from the process environment.
func bindEnvOverrides(v *viper.Viper) {
	prefix := envPrefix + "_"
	for _, env := range os.Environ() {
		pair := strings.SplitN(env, "=", 2)
		if len(pair) != 2 || !strings.HasPrefix(pair[0], prefix) {
			continue
		}

		key := strings.ToLower(strings.TrimPrefix(pair[0], prefix))
		for _, variant := range nestedKeyVariants(key) {
			v.Set(variant, pair[1])
		}
	}
}

// nestedKeyVariants expands an underscore-separated key into the nested
// forms it could address. DEFAULTS_RETRY_MAX_ATTEMPTS maps to both
// defaults.retry.max.attempts and defaults.retry.max_attempts, among
// others, because underscores are ambiguous between nesting and
// multi-word field names.
func nestedKeyVariants(key string) []string {
	parts := strings.Split(key, "_")
	if len(parts) <= 1 {
		return []string{key}
	}

	variants := []string{
		key,
		strings.ReplaceAll(key, "_", "."),
	}
	for i := 1; i < len(parts); i++ {
		variants = append(variants, strings.Join(parts[:i], ".")+"."+strings.Join(parts[i:], "_"))
	}

	seen := make(map[string]bool, len(variants))
	out := variants[:0]
	for _, variant := range variants {
		if !seen[variant] {
			seen[variant] = true
			out = append(out, variant)
		}
	}
	return out
}
