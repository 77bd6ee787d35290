package db

import "github.com/kailas-cloud/esmem/internal/domain/document"

// Store is the document store facade combining all sub-interfaces.
// Implementations are not required to be safe for concurrent use; callers serialize access.
type Store interface {
	IndexManager
	DocumentStore
	Iterator
}

// IndexManager provides index lifecycle operations.
type IndexManager interface {
	// CreateIndex creates an empty index. Creating an existing index is a no-op.
	CreateIndex(name string) error
	// DeleteIndex drops the index and its documents. Reports whether it existed.
	DeleteIndex(name string) bool
	IndexExists(name string) bool
	// Indices returns index names in creation order.
	Indices() []string
}

// DocumentStore provides per-document operations. An empty docType matches any type.
type DocumentStore interface {
	Append(index string, doc document.Document) error
	Replace(index string, doc document.Document) error
	Remove(index, id, docType string) bool
	Find(index, id, docType string) (document.Document, bool)
}

// Iterator walks documents across indices.
type Iterator interface {
	// Iterate returns documents of the named indices in index then insertion order.
	// A nil slice means every index. Missing indices are skipped; callers validate existence.
	Iterate(indices []string, docType string) []document.Document
	Count(indices []string, docType string) int
}
