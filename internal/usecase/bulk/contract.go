package bulk

import (
	"context"

	domdoc "github.com/kailas-cloud/esmem/internal/domain/document"
)

// DocumentWriter applies single-document writes.
type DocumentWriter interface {
	Index(ctx context.Context, index, docType, id string, source map[string]any) (domdoc.Document, bool, error)
	Create(ctx context.Context, index, docType, id string, source map[string]any) (domdoc.Document, error)
	Update(ctx context.Context, index, id string, source map[string]any) (domdoc.Document, error)
	Delete(ctx context.Context, index, id, docType string) (domdoc.Document, error)
}

// IDGenerator produces identifiers for index and create actions without one.
type IDGenerator interface {
	NewID() string
}
