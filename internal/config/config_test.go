package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Reasoning.Model != "gemini-2.5-flash" {
		t.Errorf("model = %q", cfg.Reasoning.Model)
	}
	if cfg.Pipeline.Mode != "AUTO" {
		t.Errorf("mode = %q", cfg.Pipeline.Mode)
	}
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
reasoning:
  model: gemini-2.5-pro
  timeout: 60s
pipeline:
  mode: REVIEW
  multi_agent: true
store:
  database_path: /tmp/sdcritic-test.db
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Reasoning.Model != "gemini-2.5-pro" {
		t.Errorf("model = %q", cfg.Reasoning.Model)
	}
	if cfg.ReasoningTimeout() != 60*time.Second {
		t.Errorf("timeout = %v", cfg.ReasoningTimeout())
	}
	if cfg.Pipeline.Mode != "REVIEW" || !cfg.Pipeline.MultiAgent {
		t.Errorf("pipeline = %+v", cfg.Pipeline)
	}
	if cfg.Store.DatabasePath != "/tmp/sdcritic-test.db" {
		t.Errorf("db path = %q", cfg.Store.DatabasePath)
	}
	// Unspecified fields keep their defaults.
	if cfg.Reasoning.MaxOutputTokens != 8192 {
		t.Errorf("max output tokens = %d", cfg.Reasoning.MaxOutputTokens)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("SDCRITIC_GEMINI_API_KEY", "test-key")
	t.Setenv("SDCRITIC_MODEL", "gemini-2.5-pro")
	t.Setenv("SDCRITIC_MODE", "REVIEW")
	t.Setenv("SDCRITIC_DB", "/tmp/override.db")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Reasoning.APIKey != "test-key" {
		t.Errorf("api key = %q", cfg.Reasoning.APIKey)
	}
	if cfg.Embedding.APIKey != "test-key" {
		t.Error("embedding key should inherit the reasoning key")
	}
	if cfg.Reasoning.Model != "gemini-2.5-pro" {
		t.Errorf("model = %q", cfg.Reasoning.Model)
	}
	if cfg.Pipeline.Mode != "REVIEW" {
		t.Errorf("mode = %q", cfg.Pipeline.Mode)
	}
	if cfg.Store.DatabasePath != "/tmp/override.db" {
		t.Errorf("db path = %q", cfg.Store.DatabasePath)
	}
}

func TestInvalidTimeoutFallsBack(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Reasoning.Timeout = "not-a-duration"
	if cfg.ReasoningTimeout() != 120*time.Second {
		t.Errorf("timeout = %v", cfg.ReasoningTimeout())
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := DefaultConfig()
	cfg.Pipeline.MultiAgent = true
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !got.Pipeline.MultiAgent {
		t.Error("multi_agent lost in round trip")
	}
}
