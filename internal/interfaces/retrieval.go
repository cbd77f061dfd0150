package interfaces

import (
	"context"
	"errors"

	"github.com/ternarybob/lumen/internal/models"
)

// ErrRetrievalUnavailable is returned when the embedding service or the
// vector index cannot serve a request. Ingestion and query paths surface it
// rather than silently dropping work.
var ErrRetrievalUnavailable = errors.New("retrieval unavailable")

// TagFilter scopes a vector query to fragments whose tags satisfy the
// predicate. A nil filter matches everything.
type TagFilter func(tags map[string]string) bool

// Retriever turns a question into ranked answer-grounding context. Two
// strategies exist: flat (matched fragments returned directly) and
// hierarchical (children matched, parents returned).
type Retriever interface {
	// Build ingests the corpus: chunk, embed, index, and (hierarchical)
	// store parents. One-shot and single-writer; calling it again performs
	// an idempotent rebuild from scratch.
	Build(ctx context.Context) error

	// Retrieve runs a top-k similarity search for the question. The filter
	// may scope results to one jurisdiction; nil means all.
	Retrieve(ctx context.Context, question string, filter TagFilter) (models.RetrievalResult, error)

	// Strategy names the variant ("flat" or "hierarchical").
	Strategy() string
}
