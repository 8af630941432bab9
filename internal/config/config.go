// Package config loads sdcritic configuration from YAML with environment
// overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all sdcritic configuration.
type Config struct {
	// Reasoning service configuration
	Reasoning ReasoningConfig `yaml:"reasoning"`

	// Embedding configuration (optional; enables semantic finding matching)
	Embedding EmbeddingConfig `yaml:"embedding"`

	// Pipeline defaults
	Pipeline PipelineConfig `yaml:"pipeline"`

	// Report archive
	Store StoreConfig `yaml:"store"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// ReasoningConfig configures the reasoning service client.
type ReasoningConfig struct {
	APIKey          string `yaml:"api_key"`
	Model           string `yaml:"model"`
	BaseURL         string `yaml:"base_url"`
	Timeout         string `yaml:"timeout"`
	MaxOutputTokens int    `yaml:"max_output_tokens"`
}

// EmbeddingConfig configures the optional embedding engine.
type EmbeddingConfig struct {
	Enabled bool   `yaml:"enabled"`
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`
}

// PipelineConfig sets per-run defaults the CLI can override per invocation.
type PipelineConfig struct {
	Mode       string `yaml:"mode"`        // AUTO or REVIEW
	MultiAgent bool   `yaml:"multi_agent"` // triage/dispatch instead of flat batch
}

// StoreConfig configures the report archive.
type StoreConfig struct {
	DatabasePath string `yaml:"database_path"`
}

// LoggingConfig configures category file logging.
type LoggingConfig struct {
	DebugMode bool   `yaml:"debug_mode"`
	Workspace string `yaml:"workspace"`
}

// DefaultConfig returns the defaults a fresh install starts from.
func DefaultConfig() *Config {
	return &Config{
		Reasoning: ReasoningConfig{
			Model:           "gemini-2.5-flash",
			Timeout:         "120s",
			MaxOutputTokens: 8192,
		},
		Embedding: EmbeddingConfig{
			Model: "gemini-embedding-001",
		},
		Pipeline: PipelineConfig{
			Mode: "AUTO",
		},
		Store: StoreConfig{
			DatabasePath: ".sdcritic/reports.db",
		},
		Logging: LoggingConfig{
			Workspace: ".",
		},
	}
}

// Load loads configuration from a YAML file. A missing file yields the
// defaults; environment variables override either way.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save writes the configuration to a YAML file.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if key := os.Getenv("SDCRITIC_GEMINI_API_KEY"); key != "" {
		c.Reasoning.APIKey = key
		if c.Embedding.APIKey == "" {
			c.Embedding.APIKey = key
		}
	}
	if key := os.Getenv("GEMINI_API_KEY"); key != "" && c.Reasoning.APIKey == "" {
		c.Reasoning.APIKey = key
		if c.Embedding.APIKey == "" {
			c.Embedding.APIKey = key
		}
	}
	if model := os.Getenv("SDCRITIC_MODEL"); model != "" {
		c.Reasoning.Model = model
	}
	if mode := os.Getenv("SDCRITIC_MODE"); mode != "" {
		c.Pipeline.Mode = mode
	}
	if path := os.Getenv("SDCRITIC_DB"); path != "" {
		c.Store.DatabasePath = path
	}
}

// ReasoningTimeout returns the reasoning timeout as a duration.
func (c *Config) ReasoningTimeout() time.Duration {
	d, err := time.ParseDuration(c.Reasoning.Timeout)
	if err != nil {
		return 120 * time.Second
	}
	return d
}
