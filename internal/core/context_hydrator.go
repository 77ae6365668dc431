// ABOUTME: ContextHydrator assembles the prompts sent to the completion model
// ABOUTME: Builds the ReAct reasoning prompt, passage prompt, and final observation prompt
package core

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/harper/jarvis/internal/models"
)

const historyMessage = "Before formulating a thought, consider the following conversation history."

const systemMessage = `You run in a process of Question, Thought, Action, Observation.

Use Thought to describe your thoughts about the question you have been asked.
Observation will be the result of running those actions.

If you can not answer the question from your memory, use Action to run one of these actions available to you:
%s
Here are some sample sessions.

Question: What is capital of france?
Thought: This is about geography, I can recall the answer from my memory.
Action: lookup: capital of France.
Observation: Paris is the capital of France.
Answer: The capital of France is Paris.

Question: Who painted Mona Lisa?
Thought: This is about general knowledge, I can recall the answer from my memory.
Action: lookup: painter of Mona Lisa.
Observation: Mona Lisa was painted by Leonardo da Vinci .
Answer: Leonardo da Vinci painted Mona Lisa.
%s`

const exchangeSample = `
Question: What is the exchange rate from USD to EUR?
Thought: This is about currency exchange, I need to check the current rate.
Action: exchange: USD EUR
Observation: 0.8276 EUR for 1 USD.
Answer: The current exchange rate is 0.8276 EUR for 1 USD.
`

// DefaultMaxPassageTokens bounds the passage handed to the model (4 chars ≈ 1 token)
const DefaultMaxPassageTokens = 1500

// ContextHydrator assembles prompts for the reasoning loop
type ContextHydrator struct {
	exchangeEnabled  bool
	maxPassageTokens int
}

// NewContextHydrator creates a new ContextHydrator
func NewContextHydrator(exchangeEnabled bool) *ContextHydrator {
	return &ContextHydrator{
		exchangeEnabled:  exchangeEnabled,
		maxPassageTokens: DefaultMaxPassageTokens,
	}
}

// SystemMessage returns the ReAct instructions with the enabled actions listed
func (ch *ContextHydrator) SystemMessage() string {
	actions := "- lookup: terms\n"
	sample := ""
	if ch.exchangeEnabled {
		actions += "- exchange: from to\n"
		sample = exchangeSample
	}
	return fmt.Sprintf(systemMessage, actions, sample)
}

// Inquiry formats the question the way the model sees it
func Inquiry(question string) string {
	return "Question: " + question
}

// HydrateReasoning assembles the first-pass prompt:
// system message, optional history, then the current question
func (ch *ContextHydrator) HydrateReasoning(history []models.Turn, question string) string {
	sections := []string{
		ch.SystemMessage(),
		ch.formatHistory(history),
		"Now let's answer some question!",
		Inquiry(question),
	}
	return strings.Join(sections, "\n\n")
}

// HydratePassage assembles the prompt that answers strictly from a retrieved passage
func (ch *ContextHydrator) HydratePassage(passage, question string) string {
	var sb strings.Builder
	sb.WriteString("Use only the following passage to answer the question. ")
	sb.WriteString("Answer in a single sentence.\n\n")
	sb.WriteString("Passage: ")
	sb.WriteString(ch.limitTokens(passage))
	sb.WriteString("\n\n")
	sb.WriteString(Inquiry(question))
	sb.WriteString("\nThought: I will answer using only the passage.\nAnswer:")
	return sb.String()
}

// HydrateFinal assembles the second-pass prompt once an observation is known
func (ch *ContextHydrator) HydrateFinal(question, observation string) string {
	return fmt.Sprintf("%s\nObservation: %s\nThought: Now I have the answer.\nAnswer:", Inquiry(question), observation)
}

// formatHistory renders prior turns as Label: value lines
func (ch *ContextHydrator) formatHistory(history []models.Turn) string {
	if len(history) == 0 {
		return ""
	}

	var lines []string
	for _, turn := range history {
		for _, f := range turn.Fields() {
			lines = append(lines, fmt.Sprintf("%s: %s", f[0], f[1]))
		}
	}

	return historyMessage + "\n\n" + strings.Join(lines, "\n")
}

// limitTokens truncates the passage at a word boundary when over budget
func (ch *ContextHydrator) limitTokens(passage string) string {
	maxChars := ch.maxPassageTokens * 4
	if len(passage) <= maxChars {
		return passage
	}

	cut := strings.LastIndexByte(passage[:maxChars], ' ')
	if cut <= 0 {
		// no space to break on; back up to the start of a rune
		cut = maxChars
		for cut > 0 && !utf8.RuneStart(passage[cut]) {
			cut--
		}
	}
	return passage[:cut] + " ... [truncated]"
}
