// ABOUTME: CLI command to index a document and report its structure
// ABOUTME: Shows page, chunk and window counts plus the window size spread
package commands

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/harper/jarvis/internal/models"
)

// indexStats summarizes a built index
type indexStats struct {
	Source        string  `json:"source"`
	Pages         int     `json:"pages"`
	Chunks        int     `json:"chunks"`
	Windows       int     `json:"windows"`
	AvgWindowLen  float64 `json:"avg_window_chars"`
	MaxWindowLen  int     `json:"max_window_chars"`
	EmptyPages    int     `json:"empty_pages"`
	ElapsedMillis int64   `json:"elapsed_ms"`
}

// NewIndexCmd creates the index command
func NewIndexCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "index <document>",
		Short: "Index a document and show statistics",
		Long: `Load, chunk and embed a document, then report what was built.

Chunks are sentences; windows join each chunk with the two that follow
it and are what questions are matched against.

Examples:
  jarvis index manual.pdf
  jarvis index --format json https://example.com/paper.pdf`,
		Args: cobra.ExactArgs(1),
		RunE: runIndex,
	}

	return cmd
}

func runIndex(cmd *cobra.Command, args []string) error {
	start := time.Now()
	agent, _, err := setup(cmd.Context(), cmd, args[0])
	if err != nil {
		return err
	}

	stats := statsFor(agent.Index())
	stats.ElapsedMillis = time.Since(start).Milliseconds()
	if doc := agent.Document(); doc != nil {
		for _, p := range doc.Pages {
			if len(p) == 0 {
				stats.EmptyPages++
			}
		}
	}

	if outputFormat == "json" {
		return writeJSON(cmd.OutOrStdout(), stats)
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Source:\t%s\n", stats.Source)
	fmt.Fprintf(w, "Pages:\t%d (%d empty)\n", stats.Pages, stats.EmptyPages)
	fmt.Fprintf(w, "Chunks:\t%d\n", stats.Chunks)
	fmt.Fprintf(w, "Windows:\t%d\n", stats.Windows)
	fmt.Fprintf(w, "Window size:\tavg %.0f chars, max %d chars\n", stats.AvgWindowLen, stats.MaxWindowLen)
	fmt.Fprintf(w, "Elapsed:\t%s\n", time.Duration(stats.ElapsedMillis)*time.Millisecond)
	w.Flush()
	return nil
}

func statsFor(index *models.Index) indexStats {
	if index == nil {
		return indexStats{}
	}
	stats := indexStats{
		Source:  index.Source,
		Pages:   index.Pages,
		Chunks:  len(index.Chunks),
		Windows: len(index.Windows),
	}
	total := 0
	for _, w := range index.Windows {
		n := len(w.Sentence)
		total += n
		if n > stats.MaxWindowLen {
			stats.MaxWindowLen = n
		}
	}
	if len(index.Windows) > 0 {
		stats.AvgWindowLen = float64(total) / float64(len(index.Windows))
	}
	return stats
}
