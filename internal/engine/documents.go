package engine

import (
	"context"
	"io"
	"net/http"

	"github.com/kailas-cloud/esmem/internal/domain"
	dombulk "github.com/kailas-cloud/esmem/internal/domain/bulk"
	domdoc "github.com/kailas-cloud/esmem/internal/domain/document"
)

// DocRequest addresses one document. Type and ID are optional where the operation allows.
type DocRequest struct {
	Index string
	Type  string
	ID    string
	Body  map[string]any
}

// BulkRequest carries an NDJSON bulk body and the defaults for actions that omit index or type.
type BulkRequest struct {
	Body  io.Reader
	Index string
	Type  string
}

// Index writes a document, overwriting any document with the same id at version+1.
func (e *Engine) Index(ctx context.Context, req DocRequest, opts ...CallOption) (map[string]any, error) {
	body, err := call(ctx, e, OpIndex, func(ctx context.Context) (map[string]any, error) {
		e.mu.Lock()
		defer e.mu.Unlock()

		doc, created, err := e.docs.Index(ctx, req.Index, req.Type, req.ID, req.Body)
		if err != nil {
			return nil, err
		}
		result := dombulk.ResultCreated
		if !created {
			result = dombulk.ResultUpdated
		}
		return writeBody(doc, result), nil
	})
	if err != nil {
		return newCallOptions(opts).suppress(err, nil)
	}
	return body, nil
}

// Create writes a document only if its id is unused.
func (e *Engine) Create(ctx context.Context, req DocRequest, opts ...CallOption) (map[string]any, error) {
	body, err := call(ctx, e, OpCreate, func(ctx context.Context) (map[string]any, error) {
		e.mu.Lock()
		defer e.mu.Unlock()

		doc, err := e.docs.Create(ctx, req.Index, req.Type, req.ID, req.Body)
		if err != nil {
			return nil, err
		}
		return writeBody(doc, dombulk.ResultCreated), nil
	})
	if err != nil {
		return newCallOptions(opts).suppress(err, nil)
	}
	return body, nil
}

// Update replaces the source of an existing document with the body's "doc" field,
// or the body itself when it has none. With "doc_as_upsert" or "upsert" a missing
// document is created instead.
func (e *Engine) Update(ctx context.Context, req DocRequest, opts ...CallOption) (map[string]any, error) {
	body, err := call(ctx, e, OpUpdate, func(ctx context.Context) (map[string]any, error) {
		e.mu.Lock()
		defer e.mu.Unlock()

		partial := req.Body
		if doc, ok := req.Body["doc"].(map[string]any); ok {
			partial = doc
		}

		doc, err := e.docs.Update(ctx, req.Index, req.ID, partial)
		if err == nil {
			return writeBody(doc, dombulk.ResultUpdated), nil
		}
		upsert, ok := upsertSource(req.Body, partial)
		if domain.StatusOf(err) != http.StatusNotFound || !ok {
			return nil, err
		}
		doc, err = e.docs.Create(ctx, req.Index, req.Type, req.ID, upsert)
		if err != nil {
			return nil, err
		}
		return writeBody(doc, dombulk.ResultCreated), nil
	})
	if err != nil {
		return newCallOptions(opts).suppress(err, nil)
	}
	return body, nil
}

// Get fetches a document. A missing document is NotFound unless Ignore(404) is set.
func (e *Engine) Get(ctx context.Context, req DocRequest, opts ...CallOption) (map[string]any, error) {
	body, err := call(ctx, e, OpGet, func(ctx context.Context) (map[string]any, error) {
		e.mu.RLock()
		defer e.mu.RUnlock()

		doc, err := e.docs.Get(ctx, req.Index, req.ID, req.Type)
		if err != nil {
			return nil, err
		}
		return map[string]any{
			"_index":   doc.Index(),
			"_type":    doc.Type(),
			"_id":      doc.ID(),
			"_version": doc.Version(),
			"found":    true,
			"_source":  doc.Source(),
		}, nil
	})
	if err != nil {
		return newCallOptions(opts).suppress(err, notFoundBody(req))
	}
	return body, nil
}

// GetSource returns a copy of the document's source alone.
func (e *Engine) GetSource(ctx context.Context, req DocRequest, opts ...CallOption) (map[string]any, error) {
	body, err := call(ctx, e, OpGetSource, func(ctx context.Context) (map[string]any, error) {
		e.mu.RLock()
		defer e.mu.RUnlock()

		doc, err := e.docs.Get(ctx, req.Index, req.ID, req.Type)
		if err != nil {
			return nil, err
		}
		return domdoc.CloneMap(doc.Source()), nil
	})
	if err != nil {
		return newCallOptions(opts).suppress(err, nil)
	}
	return body, nil
}

// Exists reports whether Get would find the document.
func (e *Engine) Exists(ctx context.Context, req DocRequest) (bool, error) {
	return call(ctx, e, OpExists, func(ctx context.Context) (bool, error) {
		e.mu.RLock()
		defer e.mu.RUnlock()
		return e.docs.Exists(ctx, req.Index, req.ID, req.Type), nil
	})
}

// Delete removes a document. A missing document is NotFound unless Ignore(404) is set.
func (e *Engine) Delete(ctx context.Context, req DocRequest, opts ...CallOption) (map[string]any, error) {
	body, err := call(ctx, e, OpDelete, func(ctx context.Context) (map[string]any, error) {
		e.mu.Lock()
		defer e.mu.Unlock()

		doc, err := e.docs.Delete(ctx, req.Index, req.ID, req.Type)
		if err != nil {
			return nil, err
		}
		return map[string]any{
			"found":    true,
			"_index":   doc.Index(),
			"_type":    doc.Type(),
			"_id":      doc.ID(),
			"_version": 1,
			"result":   dombulk.ResultDeleted,
			"_shards":  writeShards(),
		}, nil
	})
	if err != nil {
		return newCallOptions(opts).suppress(err, notFoundBody(req))
	}
	return body, nil
}

// Bulk applies an NDJSON body of index, create, update and delete actions.
// A malformed body fails as a whole; per-item failures are reported in the items.
func (e *Engine) Bulk(ctx context.Context, req BulkRequest, opts ...CallOption) (map[string]any, error) {
	body, err := call(ctx, e, OpBulk, func(ctx context.Context) (map[string]any, error) {
		e.mu.Lock()
		defer e.mu.Unlock()

		resp, err := e.bulk.Run(ctx, req.Body, req.Index, req.Type)
		if err != nil {
			return nil, err
		}
		return resp.Body(), nil
	})
	if err != nil {
		return newCallOptions(opts).suppress(err, nil)
	}
	return body, nil
}

func writeBody(doc domdoc.Document, result string) map[string]any {
	return map[string]any{
		"_index":   doc.Index(),
		"_type":    doc.Type(),
		"_id":      doc.ID(),
		"_version": doc.Version(),
		"created":  true,
		"result":   result,
		"_shards":  writeShards(),
	}
}

func writeShards() map[string]any {
	return map[string]any{"total": 1, "successful": 1, "failed": 0}
}

func notFoundBody(req DocRequest) func(se *domain.StatusError) map[string]any {
	return func(se *domain.StatusError) map[string]any {
		if se.Status != http.StatusNotFound {
			return nil
		}
		docType := req.Type
		if docType == "" {
			docType = domdoc.DefaultType
		}
		return map[string]any{
			"_index": req.Index,
			"_type":  docType,
			"_id":    req.ID,
			"found":  false,
		}
	}
}

func upsertSource(body, partial map[string]any) (map[string]any, bool) {
	if up, ok := body["upsert"].(map[string]any); ok {
		return up, true
	}
	if asUpsert, _ := body["doc_as_upsert"].(bool); asUpsert {
		return partial, true
	}
	return nil, false
}
