// ABOUTME: Shared helpers for CLI commands
// ABOUTME: Loads configuration, builds the logger and agent, formats output
package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/harper/jarvis/internal/app"
	"github.com/harper/jarvis/internal/config"
	"github.com/harper/jarvis/internal/logging"
)

// loadConfig reads .env, then the YAML file and environment
func loadConfig() (*config.Config, error) {
	_ = godotenv.Load()

	path := configPath
	if path == "" {
		path = os.Getenv("JARVIS_CONFIG")
	}
	cfg, err := config.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

// newLogger honors --verbose and --quiet over the configured level
func newLogger(cfg *config.Config, w io.Writer) (*log.Logger, error) {
	level := cfg.LogLevel
	switch {
	case verbose:
		level = "debug"
	case quiet:
		level = "error"
	}
	return logging.New(level, cfg.LogFormat, w)
}

// setup builds the agent and loads document (or the configured one)
func setup(ctx context.Context, cmd *cobra.Command, document string) (*app.Agent, *log.Logger, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	logger, err := newLogger(cfg, cmd.ErrOrStderr())
	if err != nil {
		return nil, nil, err
	}

	agent, err := app.New(cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	if document == "" {
		document = cfg.Document
	}
	if document != "" {
		if _, err := agent.LoadDocument(ctx, document); err != nil {
			return nil, nil, fmt.Errorf("loading document: %w", err)
		}
	} else {
		logger.Warn("no document loaded; lookups will fail until one is given with --document or JARVIS_DOCUMENT")
	}
	return agent, logger, nil
}

// writeJSON prints v as indented JSON
func writeJSON(w io.Writer, v interface{}) error {
	jsonData, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	fmt.Fprintf(w, "%s\n", jsonData)
	return nil
}

// truncate shortens a string to maxLen, adding "..." if truncated
func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return string(runes[:maxLen-3]) + "..."
}

// validatePositiveInt returns error if n is not positive
func validatePositiveInt(n int, name string) error {
	if n <= 0 {
		return fmt.Errorf("%s must be positive, got %d", name, n)
	}
	return nil
}
