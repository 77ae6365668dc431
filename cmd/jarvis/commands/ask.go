// ABOUTME: CLI command to answer one question about a document
// ABOUTME: Prints the answer with its page citation and supporting passage
package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var (
	askDocument string
	askSession  string
)

// askOutput is the JSON shape of an answer
type askOutput struct {
	Question  string `json:"question"`
	Answer    string `json:"answer"`
	Source    string `json:"source,omitempty"`
	Reference string `json:"reference,omitempty"`
	Path      string `json:"path"`
	Session   string `json:"session"`
}

// NewAskCmd creates the ask command
func NewAskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Answer one question",
		Long: `Answer one question about a document.

The model decides whether to answer directly, look the answer up in the
document, or convert currencies. Answers from the document are followed
by their page citation and the passage used.

Examples:
  jarvis ask --document manual.pdf "How do I reset the device?"
  jarvis ask "What is the exchange rate from USD to EUR?"
  jarvis ask --format json --document notes.txt "Who wrote the report?"`,
		Args: cobra.MinimumNArgs(1),
		RunE: runAsk,
	}

	cmd.Flags().StringVar(&askDocument, "document", "", "PDF, text file or URL to answer from (default JARVIS_DOCUMENT)")
	cmd.Flags().StringVar(&askSession, "session", "", "Session ID to attach the question to")

	return cmd
}

func runAsk(cmd *cobra.Command, args []string) error {
	question := strings.TrimSpace(strings.Join(args, " "))
	if question == "" {
		return fmt.Errorf("question cannot be empty")
	}

	ctx := cmd.Context()
	agent, _, err := setup(ctx, cmd, askDocument)
	if err != nil {
		return err
	}

	reply, sessionID, err := agent.Ask(ctx, askSession, question)
	if err != nil {
		return fmt.Errorf("answering question: %w", err)
	}

	out := cmd.OutOrStdout()
	if outputFormat == "json" {
		return writeJSON(out, askOutput{
			Question:  question,
			Answer:    reply.Answer,
			Source:    reply.Source(),
			Reference: reply.Reference(),
			Path:      string(reply.Path),
			Session:   sessionID,
		})
	}

	fmt.Fprintln(out, reply.Answer)
	if quiet {
		return nil
	}
	if src := reply.Source(); src != "" {
		fmt.Fprintf(out, "\nSource:    %s\n", src)
	}
	if ref := reply.Reference(); ref != "" && !reply.Retrieval.FromMemory() {
		fmt.Fprintf(out, "Reference: %s\n", truncate(ref, 300))
	}
	return nil
}
