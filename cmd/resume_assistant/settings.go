package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/resume-assistant/internal/config"
	"github.com/jonathan/resume-assistant/internal/db"
	"github.com/jonathan/resume-assistant/internal/llm"
	"github.com/jonathan/resume-assistant/internal/logging"
)

// settings and logger are populated by loadSettings before any command runs.
var (
	settings *config.Config
	logger   *slog.Logger
)

// getenv is replaced in tests.
var getenv = os.Getenv

// loadSettings resolves configuration in order: defaults, config file,
// environment, then root flags.
func loadSettings(cmd *cobra.Command, _ []string) error {
	var cfg config.Config
	if rootConfigPath != "" {
		loaded, err := config.LoadConfig(rootConfigPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		cfg = *loaded
	}
	cfg = cfg.MergeWithDefaults(config.Defaults())
	cfg.ApplyEnv(getenv)

	if cmd.Flags().Changed("log-level") {
		cfg.Log.Level = rootLogLevel
	}
	if cmd.Flags().Changed("log-format") {
		cfg.Log.Format = rootLogFormat
	}
	if rootVerbose {
		cfg.Verbose = true
		cfg.Log.Level = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	l, err := logging.New(cmd.ErrOrStderr(), cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}
	settings = &cfg
	logger = l
	slog.SetDefault(l)

	if rootConfigPath != "" {
		logger.Debug("loaded config", "path", rootConfigPath)
	}
	return nil
}

// newGeminiClient builds the generation client, honouring the model override.
func newGeminiClient(ctx context.Context, cfg *config.Config) (*llm.GeminiClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY environment variable or api_key config is required")
	}
	llmCfg := llm.DefaultConfig().WithModel(llm.TierStandard, cfg.Model)
	return llm.NewClient(ctx, llmCfg, cfg.APIKey)
}

// openLedger connects to the merge-run ledger. It returns nil when no database
// is configured or the database is unreachable; the latter is logged.
func openLedger(ctx context.Context, cfg *config.Config) *db.DB {
	if cfg.DatabaseURL == "" {
		return nil
	}
	database, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Warn("merge run ledger disabled", "error", err)
		return nil
	}
	return database
}
