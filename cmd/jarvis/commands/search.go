// ABOUTME: CLI command to search a document without asking the model
// ABOUTME: Shows the most similar windows with their scores and pages
package commands

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/harper/jarvis/internal/core"
)

var (
	searchDocument string
	searchTopK     int
)

// searchResult is the JSON shape of one hit
type searchResult struct {
	Score    float64 `json:"score"`
	Page     int     `json:"page"`
	Window   int     `json:"window"`
	Sentence string  `json:"sentence"`
}

// NewSearchCmd creates search command
func NewSearchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search a document",
		Long: `Search a document for the passages most similar to a query.

Uses the same embeddings and cosine similarity as the lookup action,
but skips the model entirely. Useful for tuning the relevance threshold.

Examples:
  jarvis search --document manual.pdf "battery replacement"
  jarvis search --top-k 10 --document notes.txt "deadline"
  jarvis search --format json --document manual.pdf "warranty"`,
		Args: cobra.MinimumNArgs(1),
		RunE: runSearch,
	}

	cmd.Flags().StringVar(&searchDocument, "document", "", "PDF, text file or URL to search (default JARVIS_DOCUMENT)")
	cmd.Flags().IntVar(&searchTopK, "top-k", core.DefaultTopK, "Maximum results to return")

	return cmd
}

func runSearch(cmd *cobra.Command, args []string) error {
	if err := validatePositiveInt(searchTopK, "top-k"); err != nil {
		return err
	}
	query := strings.Join(args, " ")

	ctx := cmd.Context()
	agent, _, err := setup(ctx, cmd, searchDocument)
	if err != nil {
		return err
	}

	matches, err := agent.Search(ctx, query, searchTopK)
	if err != nil {
		return fmt.Errorf("searching document: %w", err)
	}

	if outputFormat == "json" {
		results := make([]searchResult, len(matches))
		for i, m := range matches {
			results[i] = searchResult{
				Score:    m.Score,
				Page:     m.Window.Page + 1,
				Window:   m.Window.Index,
				Sentence: m.Window.Sentence,
			}
		}
		return writeJSON(cmd.OutOrStdout(), results)
	}

	threshold := agent.Config().RelevanceThreshold
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "SCORE\tPAGE\tWINDOW\tPREVIEW\n")
	fmt.Fprintf(w, "-----\t----\t------\t-------\n")
	for _, m := range matches {
		marker := ""
		if m.Score < threshold {
			marker = " (below threshold)"
		}
		fmt.Fprintf(w, "%.3f\t%d\t%d\t%s%s\n",
			m.Score,
			m.Window.Page+1,
			m.Window.Index,
			truncate(m.Window.Sentence, 60),
			marker)
	}
	w.Flush()

	if !quiet {
		fmt.Fprintf(cmd.OutOrStdout(), "\nFound %d result(s), threshold %.2f\n", len(matches), threshold)
	}
	return nil
}
