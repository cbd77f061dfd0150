package models

// Fragment is a bounded-size slice of a source document, the unit indexed
// for similarity search. ParentID is set only in hierarchical mode and
// references a Document stored verbatim in the document store.
type Fragment struct {
	ID       string            `json:"id"`        // frag_{uuid}
	ParentID string            `json:"parent_id"` // "" in flat mode
	Text     string            `json:"text"`
	Tags     map[string]string `json:"tags"` // inherited from the parent document
}

// RetrievalUnit is one ranked entry of a RetrievalResult: a fragment in flat
// mode, a full parent document in hierarchical mode.
type RetrievalUnit struct {
	// Exactly one of Fragment/Document is set, depending on retrieval mode.
	Fragment *Fragment `json:"fragment,omitempty"`
	Document *Document `json:"document,omitempty"`
	Score    float64   `json:"score"`
}

// Text returns the context text of the unit regardless of mode.
func (u RetrievalUnit) Text() string {
	if u.Document != nil {
		return u.Document.Content
	}
	if u.Fragment != nil {
		return u.Fragment.Text
	}
	return ""
}

// Tags returns the provenance tags of the unit regardless of mode.
func (u RetrievalUnit) Tags() map[string]string {
	if u.Document != nil {
		return u.Document.Tags
	}
	if u.Fragment != nil {
		return u.Fragment.Tags
	}
	return nil
}

// RetrievalResult is an ordered sequence of retrieval units, most relevant
// first, with non-increasing scores and length bounded by the configured k.
type RetrievalResult []RetrievalUnit
