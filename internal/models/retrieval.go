// ABOUTME: RetrievalResult and Reply carry answers back out of the reasoner
// ABOUTME: Provenance is either a page citation or the memory sentinel
package models

// SourceMemory marks an answer that did not come from the document
const SourceMemory = "from memory"

// RetrievalResult is the outcome of a document lookup
type RetrievalResult struct {
	Result    string `json:"result"`
	Source    string `json:"source"`
	Reference string `json:"reference"`
}

// FromMemory reports whether the lookup fell back to model memory
func (r RetrievalResult) FromMemory() bool {
	return r.Source == SourceMemory
}

// Reply is what one pass through the reasoning loop produces
type Reply struct {
	Answer    string           `json:"answer"`
	Turn      Turn             `json:"turn"`
	Path      ActionKind       `json:"path"`
	Fallback  bool             `json:"fallback,omitempty"`
	Retrieval *RetrievalResult `json:"retrieval,omitempty"`
}

// Source returns the provenance string, empty when no lookup happened
func (r *Reply) Source() string {
	if r == nil || r.Retrieval == nil {
		return ""
	}
	return r.Retrieval.Source
}

// Reference returns the passage used, empty when no lookup happened
func (r *Reply) Reference() string {
	if r == nil || r.Retrieval == nil {
		return ""
	}
	return r.Retrieval.Reference
}
