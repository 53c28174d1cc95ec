package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("LoadConfig error: %v", err)
	}
	if cfg.RateLimit.RPM != 30 {
		t.Errorf("RPM = %d, want default 30", cfg.RateLimit.RPM)
	}
	if cfg.Storage.Driver != "none" {
		t.Errorf("Storage.Driver = %q, want default %q", cfg.Storage.Driver, "none")
	}
}

func TestLoadConfigOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
rate_limit:
  rpm: 120
observability:
  log_level: debug
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig error: %v", err)
	}
	if cfg.RateLimit.RPM != 120 {
		t.Errorf("RPM = %d, want 120", cfg.RateLimit.RPM)
	}
	if cfg.Observability.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want debug", cfg.Observability.LogLevel)
	}
	// Sections absent from the file keep their defaults.
	if cfg.HTTP.UserAgent == "" {
		t.Error("UserAgent default was lost")
	}
}

func TestLoadConfigInvalidYAML(t *testing.T) {
	path := writeConfig(t, "rate_limit: [not a mapping")
	if _, err := LoadConfig(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestLoadConfigValidation(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"zero rpm", "rate_limit:\n  rpm: 0\n"},
		{"bad storage driver", "storage:\n  driver: postgres\n"},
		{"mssql without dsn", "storage:\n  driver: mssql\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, tt.content)
			if _, err := LoadConfig(path); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestDurationGetters(t *testing.T) {
	cfg := Default()
	if got := cfg.GetTotalTimeout(); got != 30*time.Second {
		t.Errorf("GetTotalTimeout = %v, want 30s", got)
	}
	if got := cfg.GetRobotsCacheTTL(); got != 12*time.Hour {
		t.Errorf("GetRobotsCacheTTL = %v, want 12h", got)
	}
	if got := cfg.GetCommandTimeout(); got != 5*time.Second {
		t.Errorf("GetCommandTimeout = %v, want 5s", got)
	}
}
