// ABOUTME: Serve command starts the HTTP query server
// ABOUTME: Serves the chat page and /chat endpoint until interrupted
package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/harper/jarvis/internal/server"
	"github.com/harper/jarvis/internal/telemetry"
)

var (
	serveDocument string
	serveAddr     string
)

// NewServeCmd creates the serve command
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Long: `Start the HTTP server.

Endpoints:
  GET  /health                        liveness check
  GET  /                              chat page
  GET  /chat?question=...&session=... answer as JSON
  POST /chat                          {"question": "...", "session": "..."}
  DELETE /sessions/:id                forget a session

Spans are exported when OTEL_EXPORTER_OTLP_ENDPOINT is set.`,
		Example: `  jarvis serve --document manual.pdf
  jarvis serve --addr :8080`,
		Args: cobra.NoArgs,
		RunE: runServe,
	}

	cmd.Flags().StringVar(&serveDocument, "document", "", "PDF, text file or URL to serve (default JARVIS_DOCUMENT)")
	cmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default JARVIS_LISTEN_ADDR or :5000)")

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	agent, logger, err := setup(ctx, cmd, serveDocument)
	if err != nil {
		return err
	}
	cfg := agent.Config()

	shutdown, err := telemetry.InitTracer(ctx, cfg.OTLPEndpoint, "jarvis", versionInfo.Version, logger)
	if err != nil {
		return err
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(flushCtx); err != nil {
			logger.Warn("failed to flush traces", "err", err)
		}
	}()

	metrics, err := telemetry.InitMetrics("jarvis")
	if err != nil {
		return err
	}

	addr := serveAddr
	if addr == "" {
		addr = cfg.ListenAddr
	}

	srv := server.New(agent, server.Options{
		ServiceName: "jarvis",
		CORSOrigins: cfg.CORSOrigins,
	}, logger, metrics)
	return srv.Run(ctx, addr)
}
