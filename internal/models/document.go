package models

import (
	"time"
)

// TagMunicipality is the tag key carrying a document's originating
// jurisdiction. Every corpus document must carry it; fragments inherit it
// and retrieval can be scoped by it.
const TagMunicipality = "municipality"

// Document represents an unmodified source document from the regulation
// corpus. Bodies are owned exclusively by the document store; the vector
// index only ever holds derived fragments.
type Document struct {
	// Identity
	ID       string `json:"id"`        // doc_{uuid}
	SourceID string `json:"source_id"` // Original path/ID from the corpus

	// Content
	Title   string `json:"title"`
	Content string `json:"content"`

	// Tags carry provenance (municipality at minimum)
	Tags map[string]string `json:"tags"`

	// Timestamps
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Municipality returns the document's jurisdiction tag, or "" if untagged.
func (d *Document) Municipality() string {
	if d.Tags == nil {
		return ""
	}
	return d.Tags[TagMunicipality]
}

// CloneTags returns a copy of the document's tags safe for a fragment to own.
func (d *Document) CloneTags() map[string]string {
	tags := make(map[string]string, len(d.Tags))
	for k, v := range d.Tags {
		tags[k] = v
	}
	return tags
}

// DocumentStats summarizes the stored corpus for the status endpoint.
type DocumentStats struct {
	TotalDocuments          int            `json:"total_documents"`
	DocumentsByJurisdiction map[string]int `json:"documents_by_jurisdiction"`
	LastUpdated             time.Time      `json:"last_updated"`
}
