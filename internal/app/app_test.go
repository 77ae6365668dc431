// ABOUTME: Tests for agent wiring
// ABOUTME: Runs the full pipeline with a scripted model and the TF-IDF embedder
package app

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/harper/jarvis/internal/config"
	"github.com/harper/jarvis/internal/document"
	"github.com/harper/jarvis/internal/llm"
	"github.com/harper/jarvis/internal/logging"
	"github.com/harper/jarvis/internal/models"
)

// stageCompleter answers by recognizing which prompt it was given
type stageCompleter struct {
	mu        sync.Mutex
	reasoning string
	passage   string
	final     string
	prompts   []string
}

func (s *stageCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prompts = append(s.prompts, prompt)
	switch {
	case strings.HasSuffix(prompt, "I will answer using only the passage.\nAnswer:"):
		return s.passage, nil
	case strings.HasSuffix(prompt, "Now I have the answer.\nAnswer:"):
		return s.final, nil
	default:
		return s.reasoning, nil
	}
}

func testAgent(t *testing.T, completer *stageCompleter) *Agent {
	t.Helper()
	cfg := config.Defaults()
	cfg.RelevanceThreshold = -1
	cfg.ExchangeEnabled = false
	return NewWithBackends(cfg, Backends{
		Completer: completer,
		Embedder:  llm.NewTFIDFEmbedder(),
	}, logging.Discard())
}

func testDocument() *document.Document {
	return document.FromPages("atlas.txt", []string{
		"Paris is the capital of France. The Seine flows through Paris.",
		"Berlin is the capital of Germany. The Spree flows through Berlin.",
	})
}

func TestAgent_AskBeforeDocument(t *testing.T) {
	agent := testAgent(t, &stageCompleter{
		reasoning: "Thought: I need to look up the capital.\nAction: lookup: capital France\nAnswer: Paris",
	})

	_, _, err := agent.Ask(context.Background(), "", "What is the capital of France?")
	if !errors.Is(err, models.ErrEmptyIndex) {
		t.Errorf("Ask() error = %v, want ErrEmptyIndex", err)
	}

	if _, err := agent.Search(context.Background(), "capital", 3); !errors.Is(err, models.ErrEmptyIndex) {
		t.Errorf("Search() error = %v, want ErrEmptyIndex", err)
	}
}

func TestAgent_LookupPath(t *testing.T) {
	completer := &stageCompleter{
		reasoning: "Thought: I need to look up the capital.\nAction: lookup: capital France\nAnswer: Paris",
		passage:   " Paris is the capital of France.",
		final:     " The capital of France is Paris.",
	}
	agent := testAgent(t, completer)

	index, err := agent.IndexDocument(context.Background(), testDocument())
	if err != nil {
		t.Fatalf("IndexDocument() error = %v", err)
	}
	if index.Len() != 4 {
		t.Errorf("index windows = %d, want 4", index.Len())
	}
	if agent.Document() == nil || agent.Document().Source != "atlas.txt" {
		t.Errorf("Document() = %+v, want atlas.txt", agent.Document())
	}

	reply, sessionID, err := agent.Ask(context.Background(), "", "What is the capital of France?")
	if err != nil {
		t.Fatalf("Ask() error = %v", err)
	}
	if sessionID == "" {
		t.Error("Ask() returned empty session ID")
	}
	if reply.Path != models.ActionLookup {
		t.Errorf("Path = %q, want lookup", reply.Path)
	}
	if reply.Answer != "The capital of France is Paris." {
		t.Errorf("Answer = %q", reply.Answer)
	}
	if reply.Retrieval == nil || reply.Retrieval.Result != "Paris is the capital of France." {
		t.Errorf("Retrieval = %+v", reply.Retrieval)
	}
	if !strings.HasPrefix(reply.Source(), "page ") {
		t.Errorf("Source() = %q, want page citation", reply.Source())
	}

	history := agent.Sessions().History(sessionID)
	if len(history) != 1 || history[0].Answer != reply.Answer {
		t.Errorf("History = %+v, want the answered turn", history)
	}
}

func TestAgent_DirectAnswer(t *testing.T) {
	agent := testAgent(t, &stageCompleter{
		reasoning: "Thought: I know this.\nAction: none\nAnswer: Four.",
	})
	if _, err := agent.IndexDocument(context.Background(), testDocument()); err != nil {
		t.Fatalf("IndexDocument() error = %v", err)
	}

	reply, _, err := agent.Ask(context.Background(), "s1", "What is two plus two?")
	if err != nil {
		t.Fatalf("Ask() error = %v", err)
	}
	if reply.Path != models.ActionNone {
		t.Errorf("Path = %q, want none", reply.Path)
	}
	if reply.Answer != "Four." {
		t.Errorf("Answer = %q, want Four.", reply.Answer)
	}
	if reply.Source() != "" {
		t.Errorf("Source() = %q, want empty for direct answers", reply.Source())
	}
}

func TestAgent_Search(t *testing.T) {
	agent := testAgent(t, &stageCompleter{})
	if _, err := agent.IndexDocument(context.Background(), testDocument()); err != nil {
		t.Fatalf("IndexDocument() error = %v", err)
	}

	matches, err := agent.Search(context.Background(), "Spree Berlin", 2)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("len(matches) = %d, want 2", len(matches))
	}
	if matches[0].Score < matches[1].Score {
		t.Errorf("matches not sorted: %v then %v", matches[0].Score, matches[1].Score)
	}
	if !strings.Contains(matches[0].Window.Sentence, "Spree") {
		t.Errorf("best window = %q, want the Spree sentence", matches[0].Window.Sentence)
	}
}

func TestAgent_FailedReloadKeepsCurrentDocument(t *testing.T) {
	agent := testAgent(t, &stageCompleter{})
	ctx := context.Background()
	if _, err := agent.IndexDocument(ctx, testDocument()); err != nil {
		t.Fatalf("IndexDocument() error = %v", err)
	}

	stopwords := document.FromPages("noise.txt", []string{"It is. It was. So it is."})
	if _, err := agent.IndexDocument(ctx, stopwords); err == nil {
		t.Fatal("IndexDocument() of a stopword-only document should fail")
	}

	if got := agent.Document().Source; got != "atlas.txt" {
		t.Errorf("Document().Source = %q, want atlas.txt", got)
	}
	matches, err := agent.Search(ctx, "Spree Berlin", 1)
	if err != nil {
		t.Fatalf("Search() after failed reload error = %v", err)
	}
	if !strings.Contains(matches[0].Window.Sentence, "Spree") {
		t.Errorf("best window = %q, want the Spree sentence", matches[0].Window.Sentence)
	}
}

func TestNewBackends(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*config.Config)
		exchange bool
		wantErr  bool
	}{
		{"ollama defaults", func(c *config.Config) {}, true, false},
		{"tfidf without exchange", func(c *config.Config) { c.Embedder = "tfidf"; c.ExchangeEnabled = false }, false, false},
		{"openai with key", func(c *config.Config) { c.Provider = "openai"; c.OpenAIKey = "sk-test" }, true, false},
		{"openai without key", func(c *config.Config) { c.Provider = "openai" }, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Defaults()
			tt.mutate(cfg)

			b, err := NewBackends(cfg, logging.Discard())
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewBackends() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if b.Completer == nil || b.Embedder == nil {
				t.Error("NewBackends() left a nil client")
			}
			if (b.Exchange != nil) != tt.exchange {
				t.Errorf("Exchange set = %v, want %v", b.Exchange != nil, tt.exchange)
			}
		})
	}
}
