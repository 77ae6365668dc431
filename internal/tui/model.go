// ABOUTME: Bubble Tea chat interface for asking questions about a document
// ABOUTME: Answers arrive asynchronously with their page citation under them
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/harper/jarvis/internal/models"
)

// Agent is the TUI-facing subset of the pipeline
type Agent interface {
	Ask(ctx context.Context, sessionID, question string) (*models.Reply, string, error)
	ResetSession(sessionID string) bool
}

type entry struct {
	question string
	answer   string
	source   string
	err      error
}

// answerMsg carries a finished question back into Update
type answerMsg struct {
	reply   *models.Reply
	session string
	err     error
	elapsed time.Duration
}

// Model is the Bubble Tea model for the chat
type Model struct {
	agent    Agent
	timeout  time.Duration
	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model
	entries  []entry
	session  string
	summary  string
	status   string
	waiting  bool
	ready    bool
}

// New creates a chat model. summary describes the loaded document.
func New(agent Agent, summary string, timeout time.Duration) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask a question, /reset to start over"
	ti.Focus()
	ti.CharLimit = 0

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return Model{
		agent:    agent,
		timeout:  timeout,
		input:    ti,
		viewport: viewport.New(0, 0),
		spinner:  sp,
		summary:  summary,
		status:   "Ready.",
	}
}

// Init starts the cursor blink
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles keys, window size and answers
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, bh := transcriptStyle.GetFrameSize()
		_, qh := queryBoxStyle.GetFrameSize()
		reserved := 2 + 1 + qh + 1 // header, summary, status, input, spacer
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, msg.Height-reserved-bh)
		m.refresh()
		return m, nil

	case answerMsg:
		m.waiting = false
		last := &m.entries[len(m.entries)-1]
		if msg.err != nil {
			last.err = msg.err
			m.status = "Error: " + msg.err.Error()
		} else {
			last.answer = msg.reply.Answer
			last.source = msg.reply.Source()
			m.session = msg.session
			m.status = fmt.Sprintf("Answered via %s in %s", msg.reply.Path, msg.elapsed.Round(10*time.Millisecond))
		}
		m.refresh()
		return m, nil

	case spinner.TickMsg:
		if !m.waiting {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD || msg.Type == tea.KeyEsc {
			return m, tea.Quit
		}
		if msg.Type == tea.KeyEnter {
			return m.submit()
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) submit() (tea.Model, tea.Cmd) {
	q := strings.TrimSpace(m.input.Value())
	if q == "" || m.waiting {
		return m, nil
	}
	m.input.SetValue("")

	if q == "/reset" {
		if m.session != "" {
			m.agent.ResetSession(m.session)
		}
		m.session = ""
		m.entries = nil
		m.status = "Conversation reset."
		m.refresh()
		return m, nil
	}

	m.entries = append(m.entries, entry{question: q})
	m.waiting = true
	m.status = "Thinking..."
	m.refresh()
	return m, tea.Batch(m.spinner.Tick, m.ask(m.session, q))
}

func (m Model) ask(sessionID, question string) tea.Cmd {
	agent, timeout := m.agent, m.timeout
	return func() tea.Msg {
		ctx := context.Background()
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}
		start := time.Now()
		reply, session, err := agent.Ask(ctx, sessionID, question)
		return answerMsg{reply: reply, session: session, err: err, elapsed: time.Since(start)}
	}
}

func (m *Model) refresh() {
	m.viewport.SetContent(m.renderTranscript())
	m.viewport.GotoBottom()
}

// View renders the layout
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := headerStyle.Render("Jarvis")
	summary := summaryStyle.Render(m.summary)
	transcript := transcriptStyle.Render(m.viewport.View())
	input := queryBoxStyle.Render(m.input.View())
	status := statusStyle.Render(m.status)
	if m.waiting {
		status = m.spinner.View() + " " + status
	}
	return header + "\n" + summary + "\n" + transcript + "\n" + input + "\n" + status
}

func (m Model) renderTranscript() string {
	if len(m.entries) == 0 {
		return "No questions yet."
	}
	var sb strings.Builder
	for i, e := range m.entries {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(questionStyle.Render("Q: " + e.question))
		sb.WriteString("\n")
		switch {
		case e.err != nil:
			sb.WriteString(errorStyle.Render("Error: " + e.err.Error()))
		case e.answer == "":
			sb.WriteString(summaryStyle.Render("..."))
		default:
			sb.WriteString("A: " + e.answer)
			if e.source != "" {
				sb.WriteString("\n")
				sb.WriteString(sourceStyle.Render("   " + e.source))
			}
		}
	}
	return sb.String()
}

var (
	headerStyle     = lipgloss.NewStyle().Bold(true)
	summaryStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	statusStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	questionStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	sourceStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	errorStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	transcriptStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	queryBoxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)
