package engine

import (
	"context"
	"fmt"
)

// Op names a public engine operation.
type Op string

// Engine operations.
const (
	OpIndex         Op = "index"
	OpCreate        Op = "create"
	OpUpdate        Op = "update"
	OpGet           Op = "get"
	OpGetSource     Op = "get_source"
	OpExists        Op = "exists"
	OpDelete        Op = "delete"
	OpBulk          Op = "bulk"
	OpSearch        Op = "search"
	OpScroll        Op = "scroll"
	OpClearScroll   Op = "clear_scroll"
	OpCount         Op = "count"
	OpSuggest       Op = "suggest"
	OpCreateIndex   Op = "indices.create"
	OpDeleteIndex   Op = "indices.delete"
	OpIndexExists   Op = "indices.exists"
	OpRefresh       Op = "indices.refresh"
	OpClusterHealth Op = "cluster.health"
)

// Handler runs one operation.
type Handler func(ctx context.Context) (any, error)

// Interceptor wraps every operation at the dispatch boundary. It may short-circuit
// by returning without calling next.
type Interceptor func(ctx context.Context, op Op, next Handler) (any, error)

// call runs fn through the interceptor chain; the first interceptor is outermost.
func call[T any](ctx context.Context, e *Engine, op Op, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T

	h := func(ctx context.Context) (any, error) { return fn(ctx) }
	for i := len(e.interceptors) - 1; i >= 0; i-- {
		ic, next := e.interceptors[i], h
		h = func(ctx context.Context) (any, error) { return ic(ctx, op, next) }
	}

	v, err := h(ctx)
	if err != nil {
		return zero, err
	}
	t, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("engine: %s returned %T", op, v)
	}
	return t, nil
}
