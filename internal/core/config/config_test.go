package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/dietrichf/geocss/internal/types"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.DBURL != "sqlite://geocss.db" {
		t.Errorf("DBURL = %q", cfg.DBURL)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q", cfg.LogLevel)
	}
	if cfg.MaxRules != types.MaxCascadeRules {
		t.Errorf("MaxRules = %d", cfg.MaxRules)
	}
}

func TestLoadConfig_EnvOverride(t *testing.T) {
	t.Setenv("GEOCSS_COMPILER_LOG_LEVEL", "debug")
	t.Setenv("GEOCSS_COMPILER_MAX_RULES", "8")

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want env override", cfg.LogLevel)
	}
	if cfg.MaxRules != 8 {
		t.Errorf("MaxRules = %d, want env override", cfg.MaxRules)
	}
}

func TestLoadConfig_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "geocss.yaml")
	content := "compiler:\n  db_url: postgres://localhost/styles\n  log_level: warn\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.DBURL != "postgres://localhost/styles" {
		t.Errorf("DBURL = %q", cfg.DBURL)
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("LogLevel = %q", cfg.LogLevel)
	}
}

func TestLoadConfig_Validation(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"bad log level", "GEOCSS_COMPILER_LOG_LEVEL", "verbose"},
		{"zero rule cap", "GEOCSS_COMPILER_MAX_RULES", "0"},
		{"rule cap above engine limit", "GEOCSS_COMPILER_MAX_RULES", "100"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			if _, err := LoadConfig(""); err == nil {
				t.Fatal("LoadConfig() succeeded, want validation error")
			}
		})
	}
}

func TestNewLogger(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error"} {
		if _, err := NewLogger(level); err != nil {
			t.Errorf("NewLogger(%q) error = %v", level, err)
		}
	}
	if _, err := NewLogger("chatty"); err == nil {
		t.Error("NewLogger should reject unknown levels")
	}
}
