package document

import domdoc "github.com/kailas-cloud/esmem/internal/domain/document"

// Store defines the storage contract for documents.
type Store interface {
	CreateIndex(name string) error
	IndexExists(name string) bool
	Append(index string, doc domdoc.Document) error
	Replace(index string, doc domdoc.Document) error
	Remove(index, id, docType string) bool
	Find(index, id, docType string) (domdoc.Document, bool)
}

// IDGenerator produces identifiers for documents written without one.
type IDGenerator interface {
	NewID() string
}
