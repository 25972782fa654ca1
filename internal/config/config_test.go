package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultsMatchSpecTable(t *testing.T) {
	cfg := defaults()

	if cfg.MLLP.BindPort != 2575 {
		t.Errorf("MLLP.BindPort = %d, want 2575", cfg.MLLP.BindPort)
	}
	if cfg.Web.BindPort != 8080 {
		t.Errorf("Web.BindPort = %d, want 8080", cfg.Web.BindPort)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want info", cfg.LogLevel)
	}
	if cfg.Store.MaxMessages != 10_000 {
		t.Errorf("Store.MaxMessages = %d, want 10000", cfg.Store.MaxMessages)
	}
	if cfg.Store.MaxMemoryMB != 512 {
		t.Errorf("Store.MaxMemoryMB = %d, want 512", cfg.Store.MaxMemoryMB)
	}
	if cfg.MLLP.MaxMessageSizeMB != 10 {
		t.Errorf("MLLP.MaxMessageSizeMB = %d, want 10", cfg.MLLP.MaxMessageSizeMB)
	}
	if cfg.MLLP.ReadTimeoutSecs != 60 {
		t.Errorf("MLLP.ReadTimeoutSecs = %d, want 60", cfg.MLLP.ReadTimeoutSecs)
	}
	if cfg.MLLP.WriteTimeoutSecs != 30 {
		t.Errorf("MLLP.WriteTimeoutSecs = %d, want 30", cfg.MLLP.WriteTimeoutSecs)
	}
}

func TestLoadOverridesDefaultsFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := "mllp:\n  bind_port: 2576\nlog_level: debug\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write temp config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.MLLP.BindPort != 2576 {
		t.Errorf("MLLP.BindPort = %d, want 2576", cfg.MLLP.BindPort)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want debug", cfg.LogLevel)
	}
	// Unset fields retain their defaults.
	if cfg.Web.BindPort != 8080 {
		t.Errorf("Web.BindPort = %d, want default 8080", cfg.Web.BindPort)
	}
}

func TestLoadExpandsEnvVars(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("log_level: ${HL7FORGE_TEST_LOG_LEVEL}\n"), 0o644); err != nil {
		t.Fatalf("write temp config: %v", err)
	}

	os.Setenv("HL7FORGE_TEST_LOG_LEVEL", "warn")
	defer os.Unsetenv("HL7FORGE_TEST_LOG_LEVEL")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("LogLevel = %q, want warn", cfg.LogLevel)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/path/config.yaml"); err == nil {
		t.Fatal("expected an error for a missing config file")
	}
}

func TestLoadFromEnv(t *testing.T) {
	os.Setenv("MLLP_BIND_PORT", "9999")
	os.Setenv("STORE_MAX_MESSAGES", "500")
	defer os.Unsetenv("MLLP_BIND_PORT")
	defer os.Unsetenv("STORE_MAX_MESSAGES")

	cfg := LoadFromEnv()

	if cfg.MLLP.BindPort != 9999 {
		t.Errorf("MLLP.BindPort = %d, want 9999", cfg.MLLP.BindPort)
	}
	if cfg.Store.MaxMessages != 500 {
		t.Errorf("Store.MaxMessages = %d, want 500", cfg.Store.MaxMessages)
	}
	// Untouched vars keep their defaults.
	if cfg.Web.BindPort != 8080 {
		t.Errorf("Web.BindPort = %d, want default 8080", cfg.Web.BindPort)
	}
}
