package engine

import (
	"context"

	"github.com/kailas-cloud/esmem/internal/domain"
)

// CreateIndex creates an empty index. Creating an existing index is acknowledged without change.
func (e *Engine) CreateIndex(ctx context.Context, name string, opts ...CallOption) (map[string]any, error) {
	body, err := call(ctx, e, OpCreateIndex, func(_ context.Context) (map[string]any, error) {
		e.mu.Lock()
		defer e.mu.Unlock()

		if err := e.store.CreateIndex(name); err != nil {
			return nil, domain.NewValidation(err.Error())
		}
		return map[string]any{"acknowledged": true, "shards_acknowledged": true, "index": name}, nil
	})
	if err != nil {
		return newCallOptions(opts).suppress(err, nil)
	}
	return body, nil
}

// DeleteIndex drops an index and its documents. Deleting a missing index is acknowledged.
func (e *Engine) DeleteIndex(ctx context.Context, name string) (map[string]any, error) {
	return call(ctx, e, OpDeleteIndex, func(_ context.Context) (map[string]any, error) {
		e.mu.Lock()
		defer e.mu.Unlock()

		e.store.DeleteIndex(name)
		return map[string]any{"acknowledged": true}, nil
	})
}

// IndexExists reports whether the index is present.
func (e *Engine) IndexExists(ctx context.Context, name string) (bool, error) {
	return call(ctx, e, OpIndexExists, func(_ context.Context) (bool, error) {
		e.mu.RLock()
		defer e.mu.RUnlock()
		return e.store.IndexExists(name), nil
	})
}

// Refresh is a no-op; writes are visible immediately.
func (e *Engine) Refresh(ctx context.Context, name string) (map[string]any, error) {
	return call(ctx, e, OpRefresh, func(_ context.Context) (map[string]any, error) {
		return map[string]any{"_shards": writeShards()}, nil
	})
}

// Indices returns index names in creation order.
func (e *Engine) Indices() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.store.Indices()
}

// ClusterHealth reports the health of the single in-process node.
func (e *Engine) ClusterHealth(ctx context.Context) (map[string]any, error) {
	return call(ctx, e, OpClusterHealth, func(ctx context.Context) (map[string]any, error) {
		e.mu.RLock()
		defer e.mu.RUnlock()
		return e.health.Check(ctx).Body(), nil
	})
}
