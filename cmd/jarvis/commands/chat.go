// ABOUTME: CLI command for an interactive chat about a document
// ABOUTME: Runs the Bubble Tea interface over one session
package commands

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/harper/jarvis/internal/tui"
)

var chatDocument string

// NewChatCmd creates the chat command
func NewChatCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Chat about a document in the terminal",
		Long: `Chat about a document in an interactive terminal interface.

Questions share one session, so the last few answers are remembered
as context. Type /reset to start over, Esc or Ctrl+C to quit.

Examples:
  jarvis chat --document manual.pdf
  jarvis chat --document https://example.com/paper.pdf`,
		Args: cobra.NoArgs,
		RunE: runChat,
	}

	cmd.Flags().StringVar(&chatDocument, "document", "", "PDF, text file or URL to chat about (default JARVIS_DOCUMENT)")

	return cmd
}

func runChat(cmd *cobra.Command, args []string) error {
	agent, _, err := setup(cmd.Context(), cmd, chatDocument)
	if err != nil {
		return err
	}

	summary := "No document loaded."
	if index := agent.Index(); index != nil {
		summary = fmt.Sprintf("%s: %d pages, %d windows", index.Source, index.Pages, index.Len())
	}

	model := tui.New(agent, summary, agent.Config().Timeout*3)
	if _, err := tea.NewProgram(model, tea.WithAltScreen()).Run(); err != nil {
		return fmt.Errorf("running chat: %w", err)
	}
	return nil
}
