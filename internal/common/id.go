package common

import (
	"github.com/google/uuid"
)

// NewDocumentID generates a unique document ID with the "doc_" prefix
// Format: doc_<uuid>
func NewDocumentID() string {
	return "doc_" + uuid.New().String()
}

// NewFragmentID generates a unique fragment ID with the "frag_" prefix
// Format: frag_<uuid>
func NewFragmentID() string {
	return "frag_" + uuid.New().String()
}
