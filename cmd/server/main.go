// ABOUTME: Standalone MCP server binary with stdio transport
// ABOUTME: Configured entirely from the environment for MCP clients that launch it directly
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/harper/jarvis/internal/app"
	"github.com/harper/jarvis/internal/config"
	"github.com/harper/jarvis/internal/logging"
	"github.com/harper/jarvis/internal/mcp"
)

var version = "dev"

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		// stdout belongs to the protocol
		os.Stderr.WriteString("invalid configuration: " + err.Error() + "\n")
		os.Exit(2)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat, os.Stderr)
	if err != nil {
		os.Stderr.WriteString("invalid logging configuration: " + err.Error() + "\n")
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	agent, err := app.New(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to create agent", "err", err)
	}

	if cfg.Document != "" {
		if _, err := agent.LoadDocument(ctx, cfg.Document); err != nil {
			logger.Fatal("Failed to load document", "source", cfg.Document, "err", err)
		}
	} else {
		logger.Warn("JARVIS_DOCUMENT not set; use the load_document tool before asking about a document")
	}

	server := mcpserver.NewMCPServer("Jarvis", version)
	mcp.RegisterTools(server, agent, logger)

	logger.Info("Jarvis MCP server starting on stdio")
	if err := mcpserver.ServeStdio(server); err != nil {
		logger.Fatal("Server error", "err", err)
	}
}
