// ABOUTME: Indexer turns document text into embedded, page-attributed windows
// ABOUTME: Each window spans a chunk and the two that follow it
package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/harper/jarvis/internal/models"
	"golang.org/x/sync/errgroup"
)

// WindowSize is the number of consecutive chunks joined into one window
const WindowSize = 3

// DefaultIndexWorkers bounds concurrent embedding calls during a build
const DefaultIndexWorkers = 4

// Embedder produces a vector for a piece of text
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Preparer is implemented by embedders that need corpus statistics before
// use. The returned func undoes the preparation and is called when the build
// fails, so the index already being served keeps working.
type Preparer interface {
	Prepare(corpus []string) (restore func())
}

// Indexer builds an Index from document text
type Indexer struct {
	chunker  *ChunkEngine
	embedder Embedder
	workers  int
	logger   *log.Logger
}

// NewIndexer creates a new Indexer
func NewIndexer(embedder Embedder, workers int, logger *log.Logger) *Indexer {
	if workers <= 0 {
		workers = DefaultIndexWorkers
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Indexer{
		chunker:  NewChunkEngine(),
		embedder: embedder,
		workers:  workers,
		logger:   logger.WithPrefix("indexer"),
	}
}

// Build chunks text, groups chunks into windows, embeds every window and
// assigns pages from cumulative page lengths. Text without chunks yields an
// empty index, not an error.
func (ix *Indexer) Build(ctx context.Context, source, text string, pageLengths []int) (_ *models.Index, err error) {
	chunks := ix.chunker.Split(text)
	index := &models.Index{
		Source: source,
		Chunks: chunks,
		Pages:  len(pageLengths),
	}
	if len(chunks) == 0 {
		ix.logger.Warn("document produced no chunks", "source", source)
		return index, nil
	}

	windows := buildWindows(chunks, pageLengths)

	if p, ok := ix.embedder.(Preparer); ok {
		corpus := make([]string, len(windows))
		for i, w := range windows {
			corpus[i] = w.Sentence
		}
		restore := p.Prepare(corpus)
		defer func() {
			if err != nil {
				restore()
			}
		}()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(ix.workers)
	for i := range windows {
		g.Go(func() error {
			vec, err := ix.embedder.Embed(gctx, windows[i].Sentence)
			if err != nil {
				return fmt.Errorf("failed to embed window %d: %w", i, err)
			}
			windows[i].Vector = normalize(vec)
			return nil
		})
	}
	if err = g.Wait(); err != nil {
		return nil, err
	}

	index.Windows = windows
	ix.logger.Info("document indexed", "source", source, "chunks", len(chunks), "windows", len(windows), "pages", len(pageLengths))
	return index, nil
}

// buildWindows creates one unembedded window per chunk
func buildWindows(chunks []models.Chunk, pageLengths []int) []models.Window {
	windows := make([]models.Window, len(chunks))
	for i, c := range chunks {
		end := min(i+WindowSize, len(chunks))
		parts := make([]string, 0, end-i)
		for _, next := range chunks[i:end] {
			parts = append(parts, next.Text)
		}
		windows[i] = models.Window{
			Index:    i,
			End:      end,
			Offset:   c.Offset,
			Sentence: strings.Join(parts, " "),
			Page:     pageFor(c.Offset, pageLengths),
		}
	}
	return windows
}

// pageFor returns the first page whose cumulative length exceeds offset,
// the last page when none does, and 0 without page information.
func pageFor(offset int, pageLengths []int) int {
	for i, cumulative := range pageLengths {
		if cumulative > offset {
			return i
		}
	}
	if len(pageLengths) == 0 {
		return 0
	}
	return len(pageLengths) - 1
}
