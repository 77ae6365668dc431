// ABOUTME: Chunk and Window are the retrieval units built from a document
// ABOUTME: Index holds the immutable window sequence for one ingested document
package models

// Chunk is a sentence-bounded slice of the source text
type Chunk struct {
	Offset int    `json:"offset"` // byte offset of the chunk start in the source
	Text   string `json:"text"`
}

// Window is an embedded, page-attributed group of consecutive chunks.
// It covers chunk indices [Index, End).
type Window struct {
	Index    int       `json:"index"`
	End      int       `json:"end"`
	Offset   int       `json:"offset"`
	Sentence string    `json:"sentence"`
	Vector   []float32 `json:"-"`
	Page     int       `json:"page"` // 0-indexed
}

// Index is the searchable form of one document. It is never mutated after build.
type Index struct {
	Source  string   `json:"source"`
	Chunks  []Chunk  `json:"chunks"`
	Windows []Window `json:"windows"`
	Pages   int      `json:"pages"`
}

// Len returns the number of windows
func (idx *Index) Len() int {
	if idx == nil {
		return 0
	}
	return len(idx.Windows)
}

// Empty reports whether there is nothing to search
func (idx *Index) Empty() bool {
	return idx.Len() == 0
}

// Match is a window scored against a query
type Match struct {
	Window Window  `json:"window"`
	Score  float64 `json:"score"`
}
