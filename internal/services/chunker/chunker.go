package chunker

import (
	"fmt"

	"github.com/ternarybob/lumen/internal/common"
	"github.com/ternarybob/lumen/internal/models"
)

// Chunker splits source documents into overlapping fragments bounded by a
// maximum size. One chunker serves both granularities: flat retrieval uses a
// large size/overlap pair, the hierarchical child layer a small one, both
// selected by the caller's configuration.
type Chunker struct {
	maxSize int
	overlap int
}

// New creates a chunker for the given granularity. Overlap must be strictly
// smaller than maxSize or every step would revisit the same text.
func New(maxSize, overlap int) (*Chunker, error) {
	if maxSize <= 0 {
		return nil, fmt.Errorf("max chunk size must be positive, got %d", maxSize)
	}
	if overlap < 0 || overlap >= maxSize {
		return nil, fmt.Errorf("overlap must be in [0, %d), got %d", maxSize, overlap)
	}
	return &Chunker{maxSize: maxSize, overlap: overlap}, nil
}

// Split produces the document's fragments. Deterministic for fixed inputs:
// fragments are at most maxSize runes, consecutive fragments share exactly
// overlap runes (the final fragment may be shorter), and together they cover
// every rune of the source text. Fragments inherit the document's tags;
// parentID is recorded only when the caller operates in hierarchical mode.
func (c *Chunker) Split(doc *models.Document, parentID string) []models.Fragment {
	runes := []rune(doc.Content)
	if len(runes) == 0 {
		return nil
	}

	step := c.maxSize - c.overlap
	fragments := make([]models.Fragment, 0, (len(runes)+step-1)/step)

	for start := 0; ; start += step {
		end := start + c.maxSize
		if end > len(runes) {
			end = len(runes)
		}

		fragments = append(fragments, models.Fragment{
			ID:       common.NewFragmentID(),
			ParentID: parentID,
			Text:     string(runes[start:end]),
			Tags:     doc.CloneTags(),
		})

		if end == len(runes) {
			break
		}
	}

	return fragments
}

// MaxSize returns the configured fragment size bound.
func (c *Chunker) MaxSize() int { return c.maxSize }

// Overlap returns the configured overlap between consecutive fragments.
func (c *Chunker) Overlap() int { return c.overlap }
