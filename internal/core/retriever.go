// ABOUTME: Retriever ranks windows against a query and answers from the best passages
// ABOUTME: Falls back to model memory when nothing in the document is relevant enough
package core

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/harper/jarvis/internal/models"
)

const (
	// DefaultTopK is how many windows a search keeps
	DefaultTopK = 3

	// DefaultRelevanceThreshold is the lowest best-match score that still
	// proceeds to document lookup
	DefaultRelevanceThreshold = 0.4
)

// Completer produces a text continuation for a prompt
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Retriever searches an index and answers questions from matched passages
type Retriever struct {
	embedder  Embedder
	completer Completer
	hydrator  *ContextHydrator
	topK      int
	threshold float64
	logger    *log.Logger
}

// RetrieverOption configures a Retriever
type RetrieverOption func(*Retriever)

// WithTopK sets the number of windows kept per search
func WithTopK(k int) RetrieverOption {
	return func(r *Retriever) {
		if k > 0 {
			r.topK = k
		}
	}
}

// WithThreshold sets the relevance threshold
func WithThreshold(threshold float64) RetrieverOption {
	return func(r *Retriever) { r.threshold = threshold }
}

// WithRetrieverLogger sets the logger
func WithRetrieverLogger(logger *log.Logger) RetrieverOption {
	return func(r *Retriever) {
		if logger != nil {
			r.logger = logger.WithPrefix("retriever")
		}
	}
}

// NewRetriever creates a new Retriever
func NewRetriever(embedder Embedder, completer Completer, hydrator *ContextHydrator, opts ...RetrieverOption) *Retriever {
	if hydrator == nil {
		hydrator = NewContextHydrator(false)
	}
	r := &Retriever{
		embedder:  embedder,
		completer: completer,
		hydrator:  hydrator,
		topK:      DefaultTopK,
		threshold: DefaultRelevanceThreshold,
		logger:    log.Default().WithPrefix("retriever"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Search embeds query and returns the topK windows by cosine similarity,
// highest first. Equal scores keep their window order.
func (r *Retriever) Search(ctx context.Context, query string, windows []models.Window, topK int) ([]models.Match, error) {
	if topK <= 0 {
		topK = DefaultTopK
	}
	if len(windows) == 0 {
		return nil, nil
	}

	vec, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	matches := make([]models.Match, len(windows))
	for i, w := range windows {
		matches[i] = models.Match{Window: w, Score: cosineSimilarity(vec, w.Vector)}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})

	if len(matches) > topK {
		matches = matches[:topK]
	}
	return matches, nil
}

// Retrieve answers question from the indexed document. hint carries the
// model's own recollection; it is returned as-is when the best match scores
// below the threshold.
func (r *Retriever) Retrieve(ctx context.Context, index *models.Index, question, hint string) (models.RetrievalResult, error) {
	if index.Empty() {
		return models.RetrievalResult{}, models.ErrEmptyIndex
	}

	matches, err := r.Search(ctx, strings.TrimSpace(question+" "+hint), index.Windows, r.topK)
	if err != nil {
		return models.RetrievalResult{}, err
	}

	best := matches[0]
	if best.Score < r.threshold {
		r.logger.Debug("no relevant passage, answering from memory", "score", best.Score, "threshold", r.threshold)
		return models.RetrievalResult{
			Result:    hint,
			Source:    models.SourceMemory,
			Reference: models.SourceMemory,
		}, nil
	}

	passage := assemblePassage(index.Chunks, matches)

	prompt := r.hydrator.HydratePassage(passage, question)
	response, err := r.completer.Complete(ctx, prompt)
	if err != nil {
		return models.RetrievalResult{}, modelUnavailable("passage completion", err)
	}
	answer := Parse(prompt + " " + response)["answer"]

	citeWith := answer
	if citeWith == "" {
		citeWith = hint
	}
	windows := make([]models.Window, len(matches))
	for i, m := range matches {
		windows[i] = m.Window
	}
	cited, err := r.Search(ctx, citeWith, windows, 1)
	if err != nil {
		return models.RetrievalResult{}, err
	}

	source := formatSource(cited[0])
	r.logger.Debug("answered from document", "source", source, "windows", len(matches))

	return models.RetrievalResult{
		Result:    answer,
		Source:    source,
		Reference: passage,
	}, nil
}

// assemblePassage joins the text of every chunk covered by the matches,
// each chunk once, in document order
func assemblePassage(chunks []models.Chunk, matches []models.Match) string {
	seen := make(map[int]bool)
	var ids []int
	for _, m := range matches {
		for i := m.Window.Index; i < m.Window.End && i < len(chunks); i++ {
			if !seen[i] {
				seen[i] = true
				ids = append(ids, i)
			}
		}
	}
	sort.Ints(ids)

	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = chunks[id].Text
	}
	return strings.Join(parts, " ")
}

func formatSource(m models.Match) string {
	return fmt.Sprintf("page %d (relevance %d%%)", m.Window.Page+1, int(math.Round(m.Score*100)))
}

// modelUnavailable tags a model failure with ErrModelUnavailable unless it already is one
func modelUnavailable(what string, err error) error {
	if errors.Is(err, models.ErrModelUnavailable) {
		return fmt.Errorf("%s: %w", what, err)
	}
	return fmt.Errorf("%s: %w: %w", what, models.ErrModelUnavailable, err)
}
