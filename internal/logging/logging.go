// ABOUTME: Builds the structured logger shared by the CLI, server and agent
// ABOUTME: Level and format come from configuration or command-line flags
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"
)

// New returns a logger writing to w at the given level and format.
// Format is one of text, json or logfmt.
func New(level, format string, w io.Writer) (*log.Logger, error) {
	if w == nil {
		w = os.Stderr
	}

	lvl := log.InfoLevel
	if level != "" {
		parsed, err := log.ParseLevel(strings.ToLower(level))
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", level, err)
		}
		lvl = parsed
	}

	opts := log.Options{
		Level:           lvl,
		Prefix:          "jarvis",
		ReportTimestamp: true,
	}

	switch strings.ToLower(format) {
	case "", "text", "auto":
		opts.Formatter = log.TextFormatter
	case "json":
		opts.Formatter = log.JSONFormatter
	case "logfmt":
		opts.Formatter = log.LogfmtFormatter
	default:
		return nil, fmt.Errorf("invalid log format %q", format)
	}

	return log.NewWithOptions(w, opts), nil
}

// Discard returns a logger that drops everything, for tests and quiet runs
func Discard() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{Level: log.FatalLevel})
}
