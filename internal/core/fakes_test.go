// ABOUTME: Test doubles for the model-facing interfaces in core
// ABOUTME: Scripted completer, keyed embedder, and counting lookup/exchange fakes
package core

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/harper/jarvis/internal/models"
)

// scriptedCompleter returns responses in order and records every prompt
type scriptedCompleter struct {
	mu        sync.Mutex
	responses []string
	prompts   []string
	err       error
}

func (c *scriptedCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.prompts = append(c.prompts, prompt)
	if c.err != nil {
		return "", c.err
	}
	if len(c.responses) == 0 {
		return "", errors.New("scriptedCompleter: no response left")
	}
	resp := c.responses[0]
	c.responses = c.responses[1:]
	return resp, nil
}

func (c *scriptedCompleter) calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.prompts)
}

// keyedEmbedder returns a fixed vector for texts containing a key, else fallback
type keyedEmbedder struct {
	mu       sync.Mutex
	keys     []string
	vectors  map[string][]float32
	fallback []float32
	queries  []string
	err      error
}

func (e *keyedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.queries = append(e.queries, text)
	if e.err != nil {
		return nil, e.err
	}
	for _, k := range e.keys {
		if strings.Contains(text, k) {
			return e.vectors[k], nil
		}
	}
	return e.fallback, nil
}

// letterEmbedder embeds text as a 26-dimension letter histogram
type letterEmbedder struct{}

func (letterEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	v := make([]float32, 26)
	for _, r := range strings.ToLower(text) {
		if r >= 'a' && r <= 'z' {
			v[r-'a']++
		}
	}
	return v, nil
}

// countingLookup records Retrieve calls
type countingLookup struct {
	mu     sync.Mutex
	calls  int
	hints  []string
	result models.RetrievalResult
	err    error
}

func (l *countingLookup) Retrieve(ctx context.Context, index *models.Index, question, hint string) (models.RetrievalResult, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls++
	l.hints = append(l.hints, hint)
	if l.err != nil {
		return models.RetrievalResult{}, l.err
	}
	return l.result, nil
}

// fakeExchange answers every pair with a fixed sentence
type fakeExchange struct {
	calls    int
	from, to string
	err      error
}

func (f *fakeExchange) Convert(ctx context.Context, from, to string) (string, error) {
	f.calls++
	f.from, f.to = from, to
	if f.err != nil {
		return "", f.err
	}
	return "As per today, 1 " + from + " equal to 2 " + to + ".", nil
}
