// ABOUTME: Turn is one completed question/answer pass through the reasoner
// ABOUTME: History keeps the most recent turns of a session for prompt context
package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultHistorySize is how many turns a session remembers
const DefaultHistorySize = 3

// Turn represents a single conversation turn
type Turn struct {
	TurnID      string    `json:"turn_id"`
	Timestamp   time.Time `json:"timestamp"`
	Question    string    `json:"question"`
	Thought     string    `json:"thought,omitempty"`
	Action      string    `json:"action,omitempty"`
	Observation string    `json:"observation,omitempty"`
	Answer      string    `json:"answer"`
}

// NewTurn creates a new Turn with validation
func NewTurn(question string) (*Turn, error) {
	if strings.TrimSpace(question) == "" {
		return nil, ErrEmptyQuestion
	}
	return &Turn{
		TurnID:    generateTurnID(),
		Timestamp: time.Now().UTC(),
		Question:  question,
	}, nil
}

// Fields returns the non-empty turn fields in prompt order
func (t Turn) Fields() [][2]string {
	all := [][2]string{
		{"Question", t.Question},
		{"Thought", t.Thought},
		{"Action", t.Action},
		{"Observation", t.Observation},
		{"Answer", t.Answer},
	}
	out := make([][2]string, 0, len(all))
	for _, f := range all {
		if f[1] != "" {
			out = append(out, f)
		}
	}
	return out
}

// generateTurnID generates a unique turn identifier
func generateTurnID() string {
	return fmt.Sprintf("turn_%s_%s", time.Now().Format("20060102_150405"), uuid.New().String()[:8])
}

// History is a bounded, oldest-first list of turns. Not safe for concurrent use.
type History struct {
	capacity int
	turns    []Turn
}

// NewHistory creates a history holding at most capacity turns
func NewHistory(capacity int) *History {
	if capacity <= 0 {
		capacity = DefaultHistorySize
	}
	return &History{capacity: capacity}
}

// Append adds a turn, dropping the oldest beyond capacity
func (h *History) Append(t Turn) {
	h.turns = append(h.turns, t)
	if over := len(h.turns) - h.capacity; over > 0 {
		h.turns = append([]Turn(nil), h.turns[over:]...)
	}
}

// Turns returns a copy of the stored turns, oldest first
func (h *History) Turns() []Turn {
	if h == nil {
		return nil
	}
	return append([]Turn(nil), h.turns...)
}

// Len returns the number of stored turns
func (h *History) Len() int {
	if h == nil {
		return 0
	}
	return len(h.turns)
}

// Capacity returns the maximum number of turns kept
func (h *History) Capacity() int {
	return h.capacity
}
