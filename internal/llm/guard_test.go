// ABOUTME: Tests for the Guard wrappers around model backends
// ABOUTME: Verifies error tagging, timeouts, breaker trips, and Prepare forwarding
package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/harper/jarvis/internal/models"
	"github.com/sony/gobreaker"
)

type stubCompleter struct {
	calls int
	delay time.Duration
	err   error
}

func (s *stubCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	s.calls++
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if s.err != nil {
		return "", s.err
	}
	return "echo: " + prompt, nil
}

func TestGuardedCompleter_PassesThrough(t *testing.T) {
	g := NewGuardedCompleter(&stubCompleter{}, GuardConfig{Name: "test"})

	got, err := g.Complete(context.Background(), "hi")
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if got != "echo: hi" {
		t.Errorf("Complete() = %q", got)
	}
}

func TestGuardedCompleter_TagsFailures(t *testing.T) {
	boom := errors.New("connection refused")
	g := NewGuardedCompleter(&stubCompleter{err: boom}, GuardConfig{Name: "test"})

	_, err := g.Complete(context.Background(), "hi")
	if !errors.Is(err, models.ErrModelUnavailable) {
		t.Errorf("error = %v, want ErrModelUnavailable", err)
	}
	if !errors.Is(err, boom) {
		t.Errorf("error = %v, should keep the cause", err)
	}
}

func TestGuardedCompleter_Timeout(t *testing.T) {
	g := NewGuardedCompleter(&stubCompleter{delay: time.Second}, GuardConfig{Name: "test", Timeout: 10 * time.Millisecond})

	_, err := g.Complete(context.Background(), "slow")
	if !errors.Is(err, models.ErrModelUnavailable) {
		t.Errorf("error = %v, want ErrModelUnavailable", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("error = %v, want DeadlineExceeded cause", err)
	}
}

func TestGuardedCompleter_BreakerOpens(t *testing.T) {
	stub := &stubCompleter{err: errors.New("down")}
	g := NewGuardedCompleter(stub, GuardConfig{Name: "test"})

	for i := 0; i < 5; i++ {
		_, _ = g.Complete(context.Background(), "x")
	}

	_, err := g.Complete(context.Background(), "x")
	if !errors.Is(err, gobreaker.ErrOpenState) {
		t.Errorf("error = %v, want open breaker", err)
	}
	if !errors.Is(err, models.ErrModelUnavailable) {
		t.Errorf("error = %v, want ErrModelUnavailable", err)
	}
	if stub.calls != 5 {
		t.Errorf("backend calls = %d, want 5 (open breaker short-circuits)", stub.calls)
	}
}

func TestGuardedEmbedder_ForwardsPrepare(t *testing.T) {
	tfidf := NewTFIDFEmbedder()
	g := NewGuardedEmbedder(tfidf, GuardConfig{Name: "tfidf"})

	g.Prepare([]string{"alpha beta gamma"})
	if tfidf.Dimension() != 3 {
		t.Errorf("Dimension() = %d, want 3 after forwarded Prepare", tfidf.Dimension())
	}

	v, err := g.Embed(context.Background(), "alpha")
	if err != nil {
		t.Fatalf("Embed() error = %v", err)
	}
	if len(v) != 3 {
		t.Errorf("len(Embed()) = %d, want 3", len(v))
	}
}

func TestGuardedCompleter_RateLimitCancelled(t *testing.T) {
	g := NewGuardedCompleter(&stubCompleter{}, GuardConfig{Name: "test", RateLimit: 0.001})

	// first call consumes the single token
	if _, err := g.Complete(context.Background(), "a"); err != nil {
		t.Fatalf("first Complete() error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := g.Complete(ctx, "b")
	if !errors.Is(err, models.ErrModelUnavailable) {
		t.Errorf("error = %v, want ErrModelUnavailable while rate limited", err)
	}
}

func TestGuardedEmbedder_ForwardsRestore(t *testing.T) {
	tfidf := NewTFIDFEmbedder()
	g := NewGuardedEmbedder(tfidf, GuardConfig{Name: "tfidf"})

	restore := g.Prepare([]string{"alpha beta"})
	restore()
	if tfidf.Dimension() != 0 {
		t.Errorf("Dimension() = %d after restore, want 0", tfidf.Dimension())
	}

	// backends without corpus preparation get a harmless restore
	plain := NewGuardedEmbedder(NewOllamaClient(DefaultOllamaConfig()), GuardConfig{Name: "ollama"})
	plain.Prepare([]string{"alpha"})()
}
