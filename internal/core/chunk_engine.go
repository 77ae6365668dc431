// ABOUTME: ChunkEngine splits document text into sentence-bounded chunks
// ABOUTME: Each chunk keeps the byte offset where it starts in the source
package core

import (
	"strings"

	"github.com/harper/jarvis/internal/models"
)

// ChunkEngine handles sentence-level text chunking
type ChunkEngine struct{}

// NewChunkEngine creates a new ChunkEngine instance
func NewChunkEngine() *ChunkEngine {
	return &ChunkEngine{}
}

// Split cuts text after every '.', '!' or '?' that is followed by whitespace.
// The terminator stays with the closing chunk; trailing text without a
// terminator becomes the last chunk. Whitespace-only fragments are skipped.
// Offsets point at the first non-space byte of each chunk.
func (ce *ChunkEngine) Split(text string) []models.Chunk {
	var chunks []models.Chunk

	start := 0
	for i := 0; i < len(text)-1; i++ {
		if isTerminal(text[i]) && isBoundarySpace(text[i+1]) {
			chunks = appendChunk(chunks, text, start, i+1)
			start = i + 1
		}
	}
	chunks = appendChunk(chunks, text, start, len(text))

	return chunks
}

func appendChunk(chunks []models.Chunk, text string, start, end int) []models.Chunk {
	if start >= end {
		return chunks
	}
	raw := text[start:end]
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return chunks
	}
	lead := strings.Index(raw, trimmed)
	return append(chunks, models.Chunk{Offset: start + lead, Text: trimmed})
}

func isTerminal(b byte) bool {
	return b == '.' || b == '!' || b == '?'
}

func isBoundarySpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}
