// Package reasoning wraps the external reasoning service behind a small
// client interface. The service is treated as an opaque "generate structured
// output from a prompt" capability with its own failure modes; retry policy
// and error classification live here so every caller shares them.
package reasoning

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Client defines the interface for reasoning-service providers.
type Client interface {
	// Complete sends a prompt and returns the raw text completion.
	Complete(ctx context.Context, prompt string) (string, error)

	// GenerateStructured sends a prompt with a JSON output schema and
	// returns the raw structured output. The schema follows the JSON
	// Schema subset the provider accepts.
	GenerateStructured(ctx context.Context, systemPrompt, userPrompt string, schema map[string]interface{}) (json.RawMessage, error)
}

// Config holds configuration for the reasoning client.
type Config struct {
	APIKey          string
	BaseURL         string
	Model           string
	Timeout         time.Duration
	MaxOutputTokens int
}

// DefaultConfig returns sensible defaults.
func DefaultConfig(apiKey string) Config {
	return Config{
		APIKey:          apiKey,
		BaseURL:         "https://generativelanguage.googleapis.com/v1beta",
		Model:           "gemini-2.5-flash",
		Timeout:         120 * time.Second,
		MaxOutputTokens: 8192,
	}
}

// ParseJSON decodes a completion into out, tolerating markdown code fences
// around the payload. Parse failures are non-retryable by definition; the
// per-critic boundary converts them to fail-open results.
func ParseJSON(completion string, out interface{}) error {
	s := strings.TrimSpace(completion)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		if idx := strings.LastIndex(s, "```"); idx >= 0 {
			s = s[:idx]
		}
		s = strings.TrimSpace(s)
	}
	if err := json.Unmarshal([]byte(s), out); err != nil {
		return fmt.Errorf("failed to parse structured output: %w", err)
	}
	return nil
}
