package engine

import (
	"context"
	"net/http"

	searchuc "github.com/kailas-cloud/esmem/internal/usecase/search"
)

// SearchRequest selects and pages documents for Search and Count.
type SearchRequest = searchuc.Request

// Search evaluates the request's query and returns one page of hits. A request with
// Scroll set returns a _scroll_id for the next page while the page is not empty.
func (e *Engine) Search(ctx context.Context, req SearchRequest, opts ...CallOption) (map[string]any, error) {
	co := newCallOptions(opts)
	if co.ignores(http.StatusNotFound) {
		req.IgnoreUnavailable = true
	}

	body, err := call(ctx, e, OpSearch, func(ctx context.Context) (map[string]any, error) {
		// opening a cursor mutates the cursor table
		if req.Scroll != "" {
			e.mu.Lock()
			defer e.mu.Unlock()
		} else {
			e.mu.RLock()
			defer e.mu.RUnlock()
		}

		resp, err := e.search.Search(ctx, req)
		if err != nil {
			return nil, err
		}
		return resp.Body(), nil
	})
	if err != nil {
		return co.suppress(err, nil)
	}
	return body, nil
}

// Scroll consumes a scroll id and returns the next page.
func (e *Engine) Scroll(ctx context.Context, scrollID string, opts ...CallOption) (map[string]any, error) {
	body, err := call(ctx, e, OpScroll, func(ctx context.Context) (map[string]any, error) {
		e.mu.Lock()
		defer e.mu.Unlock()

		resp, err := e.search.Scroll(ctx, scrollID)
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

// ClearScroll drops scroll cursors. "_all" drops every cursor.
func (e *Engine) ClearScroll(ctx context.Context, scrollIDs ...string) (map[string]any, error) {
	return call(ctx, e, OpClearScroll, func(_ context.Context) (map[string]any, error) {
		e.mu.Lock()
		defer e.mu.Unlock()

		var n int
		if len(scrollIDs) == 1 && scrollIDs[0] == "_all" {
			n = e.cursors.ClearAll()
		} else {
			n = e.cursors.Clear(scrollIDs...)
		}
		return map[string]any{"succeeded": true, "num_freed": n}, nil
	})
}

// Count returns the number of documents matching the request's query.
func (e *Engine) Count(ctx context.Context, req SearchRequest, opts ...CallOption) (map[string]any, error) {
	co := newCallOptions(opts)
	if co.ignores(http.StatusNotFound) {
		req.IgnoreUnavailable = true
	}

	body, err := call(ctx, e, OpCount, func(ctx context.Context) (map[string]any, error) {
		e.mu.RLock()
		defer e.mu.RUnlock()

		resp, err := e.search.Count(ctx, req)
		if err != nil {
			return nil, err
		}
		return resp.Body(), nil
	})
	if err != nil {
		return co.suppress(err, nil)
	}
	return body, nil
}

// Suggest renders term suggestions for body over the selected indices. Named indices
// must exist unless Ignore(404) is set.
func (e *Engine) Suggest(ctx context.Context, indices []string, body map[string]any, opts ...CallOption) (map[string]any, error) {
	req := SearchRequest{
		Indices:           indices,
		Body:              map[string]any{"suggest": body, "size": 0},
		IgnoreUnavailable: newCallOptions(opts).ignores(http.StatusNotFound),
	}
	if body == nil {
		req.Body["suggest"] = map[string]any{}
	}

	out, err := call(ctx, e, OpSuggest, func(ctx context.Context) (map[string]any, error) {
		e.mu.RLock()
		defer e.mu.RUnlock()

		resp, err := e.search.Search(ctx, req)
		if err != nil {
			return nil, err
		}
		return resp.Suggest, nil
	})
	if err != nil {
		return newCallOptions(opts).suppress(err, nil)
	}
	return out, nil
}
