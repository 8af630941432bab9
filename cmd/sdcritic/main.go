package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"sdcritic/internal/config"
	"sdcritic/internal/critique/agents"
	"sdcritic/internal/critique/critics"
	"sdcritic/internal/embedding"
	"sdcritic/internal/logging"
	"sdcritic/internal/reasoning"
)

var (
	// Global flags
	verbose    bool
	apiKey     string
	configPath string
	workspace  string

	// Loaded configuration
	cfg *config.Config

	// Logger
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "sdcritic",
	Short: "sdcritic - critique pipeline for surgical outcome extractions",
	Long: `sdcritic validates structured data extracted from studies of suboccipital
decompressive craniectomy for cerebellar stroke.

Every record passes three layers: deterministic checks (arithmetic, ranges,
completeness), semantic critics backed by a reasoning service, and evidence
verification against the paper's own text. Runs in AUTO mode apply safe
corrections; REVIEW mode suspends on critical issues until a human decides.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zcfg := zap.NewProductionConfig()
		if verbose {
			zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zcfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		if apiKey != "" {
			cfg.Reasoning.APIKey = apiKey
		}
		if workspace != "" {
			cfg.Logging.Workspace = workspace
		}

		if err := logging.Initialize(cfg.Logging.Workspace); err != nil {
			logger.Warn("category logging unavailable", zap.Error(err))
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logging.CloseAll()
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&apiKey, "api-key", "", "Gemini API key (or set SDCRITIC_GEMINI_API_KEY env)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", ".sdcritic/config.yaml", "Path to configuration file")
	rootCmd.PersistentFlags().StringVar(&workspace, "workspace", "", "Workspace directory for logs and archive")
}

// buildRegistry assembles the critic registry from configuration. Without an
// API key the reasoning-backed critics fail open, so require it up front.
func buildRegistry() (*critics.Registry, error) {
	if cfg.Reasoning.APIKey == "" {
		return nil, fmt.Errorf("no API key configured: pass --api-key or set SDCRITIC_GEMINI_API_KEY")
	}

	client := reasoning.NewGeminiClientWithConfig(reasoning.Config{
		APIKey:          cfg.Reasoning.APIKey,
		BaseURL:         cfg.Reasoning.BaseURL,
		Model:           cfg.Reasoning.Model,
		Timeout:         cfg.ReasoningTimeout(),
		MaxOutputTokens: cfg.Reasoning.MaxOutputTokens,
	})
	return critics.NewDefaultRegistry(client, reasoning.DefaultRetryPolicy()), nil
}

// buildMatcher creates the finding matcher, with embeddings when configured.
func buildMatcher(cmd *cobra.Command) *agents.Matcher {
	if !cfg.Embedding.Enabled || cfg.Embedding.APIKey == "" {
		return agents.NewMatcher(nil)
	}
	engine, err := embedding.NewGenAIEngine(cmd.Context(), cfg.Embedding.APIKey, cfg.Embedding.Model)
	if err != nil {
		logger.Warn("embedding engine unavailable, using lexical matching", zap.Error(err))
		return agents.NewMatcher(nil)
	}
	return agents.NewMatcher(engine)
}

func main() {
	start := time.Now()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if logger != nil {
			logger.Error("command failed", zap.Error(err), zap.Duration("elapsed", time.Since(start)))
		}
		os.Exit(1)
	}
}
