package search

import (
	domdoc "github.com/kailas-cloud/esmem/internal/domain/document"
	"github.com/kailas-cloud/esmem/internal/usecase/scroll"
)

// Store defines the read contract for search operations.
type Store interface {
	IndexExists(name string) bool
	Indices() []string
	Iterate(indices []string, docType string) []domdoc.Document
}

// Cursors keeps scroll paging state between calls.
type Cursors interface {
	Open(c scroll.Cursor) string
	Take(id string) (scroll.Cursor, error)
}
