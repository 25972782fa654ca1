// Package config loads hl7forge's runtime configuration either from a YAML
// file or from environment variables, in both cases layered over built-in
// defaults (spec.md §6). A file load does not consult the environment
// variables read by LoadFromEnv.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for hl7forge.
type Config struct {
	MLLP     MLLPConfig  `yaml:"mllp"`
	Web      WebConfig   `yaml:"web"`
	Store    StoreConfig `yaml:"store"`
	LogLevel string      `yaml:"log_level"`
}

// MLLPConfig configures the TCP ingest listener.
type MLLPConfig struct {
	BindPort        int `yaml:"bind_port"`
	MaxMessageSizeMB int `yaml:"max_message_size_mb"`
	ReadTimeoutSecs int `yaml:"read_timeout_secs"`
	WriteTimeoutSecs int `yaml:"write_timeout_secs"`
}

// WebConfig configures the read-side HTTP/WebSocket adapter.
type WebConfig struct {
	BindPort int `yaml:"bind_port"`
}

// StoreConfig bounds the in-memory message store.
type StoreConfig struct {
	MaxMessages int `yaml:"max_messages"`
	MaxMemoryMB int `yaml:"max_memory_mb"`
}

// defaults mirrors the table in spec.md §6.
func defaults() Config {
	return Config{
		MLLP: MLLPConfig{
			BindPort:         2575,
			MaxMessageSizeMB: 10,
			ReadTimeoutSecs:  60,
			WriteTimeoutSecs: 30,
		},
		Web: WebConfig{
			BindPort: 8080,
		},
		Store: StoreConfig{
			MaxMessages: 10_000,
			MaxMemoryMB: 512,
		},
		LogLevel: "info",
	}
}

// Load reads a YAML config file at path, expanding ${VAR} environment
// references before unmarshaling, and layers it over the built-in
// defaults. A field missing from the file keeps its default; a field set
// explicitly in the file, even to zero, replaces it.
func Load(path string) (*Config, error) {
	cfg := defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	expanded := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	return &cfg, nil
}

// LoadFromEnv builds a Config from environment variables, falling back to
// the built-in defaults for anything unset.
func LoadFromEnv() *Config {
	cfg := defaults()

	cfg.MLLP.BindPort = getEnvInt("MLLP_BIND_PORT", cfg.MLLP.BindPort)
	cfg.MLLP.MaxMessageSizeMB = getEnvInt("MLLP_MAX_MESSAGE_SIZE_MB", cfg.MLLP.MaxMessageSizeMB)
	cfg.MLLP.ReadTimeoutSecs = getEnvInt("MLLP_READ_TIMEOUT_SECS", cfg.MLLP.ReadTimeoutSecs)
	cfg.MLLP.WriteTimeoutSecs = getEnvInt("MLLP_WRITE_TIMEOUT_SECS", cfg.MLLP.WriteTimeoutSecs)

	cfg.Web.BindPort = getEnvInt("WEB_BIND_PORT", cfg.Web.BindPort)

	cfg.Store.MaxMessages = getEnvInt("STORE_MAX_MESSAGES", cfg.Store.MaxMessages)
	cfg.Store.MaxMemoryMB = getEnvInt("STORE_MAX_MEMORY_MB", cfg.Store.MaxMemoryMB)

	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)

	return &cfg
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}
