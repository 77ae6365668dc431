// ABOUTME: TF-IDF embedder for offline use without an embedding model
// ABOUTME: Vocabulary and IDF weights come from the indexed windows themselves
package llm

import (
	"context"
	"errors"
	"math"
	"regexp"
	"sort"
	"strings"
	"sync"
)

var tokenPattern = regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*|\p{N}+`)

// TFIDFEmbedder vectorizes text over a vocabulary learned by Prepare
type TFIDFEmbedder struct {
	mu         sync.RWMutex
	vocabulary map[string]int
	idf        []float64
	stopwords  map[string]struct{}
}

// NewTFIDFEmbedder creates an unprepared embedder
func NewTFIDFEmbedder() *TFIDFEmbedder {
	return &TFIDFEmbedder{stopwords: defaultStopwords()}
}

// Prepare learns the vocabulary and smoothed IDF weights from corpus. The
// returned func puts back the vocabulary that was in place before.
func (e *TFIDFEmbedder) Prepare(corpus []string) (restore func()) {
	df := make(map[string]int)
	for _, text := range corpus {
		seen := make(map[string]bool)
		for _, tok := range e.tokenize(text) {
			if !seen[tok] {
				seen[tok] = true
				df[tok]++
			}
		}
	}

	terms := make([]string, 0, len(df))
	for term := range df {
		terms = append(terms, term)
	}
	sort.Strings(terms)

	vocabulary := make(map[string]int, len(terms))
	idf := make([]float64, len(terms))
	n := float64(len(corpus))
	for i, term := range terms {
		vocabulary[term] = i
		idf[i] = math.Log((1+n)/(1+float64(df[term]))) + 1.0
	}

	e.mu.Lock()
	prevVocabulary, prevIDF := e.vocabulary, e.idf
	e.vocabulary = vocabulary
	e.idf = idf
	e.mu.Unlock()

	return func() {
		e.mu.Lock()
		e.vocabulary = prevVocabulary
		e.idf = prevIDF
		e.mu.Unlock()
	}
}

// Dimension returns the vocabulary size, 0 before Prepare
func (e *TFIDFEmbedder) Dimension() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.idf)
}

// Embed returns the L2-normalized TF-IDF vector of text
func (e *TFIDFEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if len(e.vocabulary) == 0 {
		return nil, errors.New("tfidf embedder not prepared")
	}

	tf := make(map[int]int)
	total := 0
	for _, tok := range e.tokenize(text) {
		if idx, ok := e.vocabulary[tok]; ok {
			tf[idx]++
			total++
		}
	}

	vec := make([]float32, len(e.idf))
	if total == 0 {
		return vec, nil
	}

	var norm float64
	weights := make(map[int]float64, len(tf))
	for idx, count := range tf {
		w := float64(count) / float64(total) * e.idf[idx]
		weights[idx] = w
		norm += w * w
	}
	norm = math.Sqrt(norm)
	for idx, w := range weights {
		vec[idx] = float32(w / norm)
	}
	return vec, nil
}

func (e *TFIDFEmbedder) tokenize(text string) []string {
	raw := tokenPattern.FindAllString(strings.ToLower(text), -1)
	out := raw[:0]
	for _, t := range raw {
		if _, stop := e.stopwords[t]; !stop {
			out = append(out, t)
		}
	}
	return out
}

func defaultStopwords() map[string]struct{} {
	words := []string{
		"a", "an", "the", "and", "or", "but", "if", "then", "else", "for", "to", "of", "in", "on", "at", "by",
		"with", "as", "is", "are", "was", "were", "be", "been", "being", "it", "this", "that", "these", "those",
		"from", "up", "down", "over", "under", "again", "further", "than", "so", "such", "into", "about",
		"between", "through", "during", "before", "after", "above", "below", "out", "off", "own", "same",
		"too", "very", "can", "will", "just", "don", "should", "now", "what", "who", "which", "how", "do", "does",
	}
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}
