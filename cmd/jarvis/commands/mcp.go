// ABOUTME: MCP command starts Model Context Protocol server
// ABOUTME: Lets LLM agents ask questions about a document via stdio
package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/harper/jarvis/internal/mcp"
)

var mcpDocument string

// NewMCPCmd creates the MCP command
func NewMCPCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start MCP server for LLM agents",
		Long: `Start MCP server for LLM agents

Runs Jarvis as an MCP (Model Context Protocol) server, letting LLM
agents ask questions about a document, search it, and load a new one
via stdio. Logs go to stderr; stdout carries the protocol.`,
		RunE: runMCP,
		Example: `  # Start MCP server (typically launched by an MCP client)
  jarvis mcp --document manual.pdf

  # Client configuration:
  # {
  #   "mcpServers": {
  #     "jarvis": {
  #       "command": "jarvis",
  #       "args": ["mcp", "--document", "/path/to/manual.pdf"]
  #     }
  #   }
  # }`,
	}

	cmd.Flags().StringVar(&mcpDocument, "document", "", "PDF, text file or URL to serve (default JARVIS_DOCUMENT)")

	return cmd
}

func runMCP(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	agent, logger, err := setup(ctx, cmd, mcpDocument)
	if err != nil {
		return err
	}

	server := mcpserver.NewMCPServer("Jarvis", versionInfo.Version)
	mcp.RegisterTools(server, agent, logger)

	logger.Info("MCP server starting on stdio")

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- mcpserver.ServeStdio(server)
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}
	return nil
}
