package interfaces

import (
	"errors"

	"github.com/ternarybob/lumen/internal/models"
)

// ErrNotFound is returned by DocumentStorage.GetDocument for an absent id
// and by KeyValueStorage.Get for an absent key.
var ErrNotFound = errors.New("not found")

// DocumentStorage persists full source documents. Hierarchical retrieval is
// its only read path at query time: it resolves a matched child fragment's
// parent id back to the verbatim source text.
type DocumentStorage interface {
	SaveDocument(doc *models.Document) error
	SaveDocuments(docs []*models.Document) error

	// GetDocument returns ErrNotFound (wrapped) when the id is absent.
	GetDocument(id string) (*models.Document, error)

	CountDocuments() (int, error)
	GetStats() (*models.DocumentStats, error)

	// ClearAll removes every stored document. Used by the idempotent
	// rebuild-from-scratch ingestion policy.
	ClearAll() error
}

// KeyValueStorage stores small settings such as API keys.
type KeyValueStorage interface {
	Get(key string) (string, error)
	Set(key, value string) error
	Delete(key string) error
}

// StorageManager provides access to all storage services
type StorageManager interface {
	DocumentStorage() DocumentStorage
	KeyValueStorage() KeyValueStorage
	Close() error
}
