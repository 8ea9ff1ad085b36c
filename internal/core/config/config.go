// Package config provides configuration management for the geocss tools.
package config

import (
	"fmt"

	"github.com/dietrichf/geocss/internal/types"
)

// CompilerConfig holds configuration for the stylesheet compiler CLI.
type CompilerConfig struct {
	// DBURL is the catalog connection string, sqlite:// or postgres://.
	// Empty disables catalog commands.
	DBURL string

	// LogLevel is the zap level name: debug, info, warn, error.
	LogLevel string

	// MaxRules caps how many rules one stylesheet may carry into cascade
	// unification. Cannot exceed the engine limit.
	MaxRules int
}

// DefaultCompilerConfig returns configuration with default values.
func DefaultCompilerConfig() *CompilerConfig {
	return &CompilerConfig{
		DBURL:    "sqlite://geocss.db",
		LogLevel: "info",
		MaxRules: types.MaxCascadeRules,
	}
}

// validateConfig checks the log level name and the rule cap.
func validateConfig(cfg *CompilerConfig) error {
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level must be one of debug, info, warn, error, got %q", cfg.LogLevel)
	}
	if cfg.MaxRules <= 0 {
		return fmt.Errorf("max_rules must be positive, got %d", cfg.MaxRules)
	}
	if cfg.MaxRules > types.MaxCascadeRules {
		return fmt.Errorf("max_rules must be at most %d, got %d", types.MaxCascadeRules, cfg.MaxRules)
	}
	return nil
}
