// Package config provides configuration loading and validation for
// guardkit applications.
//
// It uses Viper to load configuration from files and environment
// variables, supporting YAML, JSON, and TOML files plus .env overlays.
//
// # Usage
//
//	cfg, err := config.Load("myapp")
//
// Environment variables override file values using the GUARDKIT_ prefix
// with underscore-separated paths (e.g., GUARDKIT_DEFAULTS_RETRY_MAX_ATTEMPTS).
//
// Per-dependency overrides live under the dependencies key:
//
//	defaults:
//	  circuit_breaker:
//	    failure_threshold: 5
//	dependencies:
//	  github:
//	    circuit_breaker:
//	      failure_threshold: 10
package config
