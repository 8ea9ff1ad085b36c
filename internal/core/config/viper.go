package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// LoadConfig loads configuration from file using viper.
// CLI flags > environment > config file > defaults precedence.
func LoadConfig(configPath string) (*CompilerConfig, error) {
	v := viper.New()

	// Set defaults matching DefaultCompilerConfig
	v.SetDefault("compiler.db_url", "sqlite://geocss.db")
	v.SetDefault("compiler.log_level", "info")
	v.SetDefault("compiler.max_rules", DefaultCompilerConfig().MaxRules)

	// Bind environment variables with GEOCSS_ prefix
	v.SetEnvPrefix("GEOCSS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Load config file if provided
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &CompilerConfig{
		DBURL:    v.GetString("compiler.db_url"),
		LogLevel: v.GetString("compiler.log_level"),
		MaxRules: v.GetInt("compiler.max_rules"),
	}

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}
