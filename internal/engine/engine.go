// Package engine is the in-memory search engine: one explicitly constructed object
// that owns the document store and scroll cursors and serializes access to them.
package engine

import (
	"errors"
	"slices"
	"sync"

	"go.uber.org/zap"

	"github.com/kailas-cloud/esmem/internal/db/memory"
	"github.com/kailas-cloud/esmem/internal/domain"
	bulkuc "github.com/kailas-cloud/esmem/internal/usecase/bulk"
	docuc "github.com/kailas-cloud/esmem/internal/usecase/document"
	healthuc "github.com/kailas-cloud/esmem/internal/usecase/health"
	"github.com/kailas-cloud/esmem/internal/usecase/scroll"
	searchuc "github.com/kailas-cloud/esmem/internal/usecase/search"
)

// Engine serves document, search and index operations over process memory.
// Writes, cursor creation and cursor consumption take the exclusive lock;
// reads share it. Every returned document is a copy.
type Engine struct {
	mu      sync.RWMutex
	store   *memory.Store
	cursors *scroll.Manager
	docs    *docuc.Service
	bulk    *bulkuc.Service
	search  *searchuc.Service
	health  *healthuc.Service

	interceptors []Interceptor
}

type options struct {
	ids             IDGenerator
	logger          *zap.Logger
	interceptors    []Interceptor
	defaultPageSize int
	clusterName     string
}

// Option configures an Engine.
type Option func(*options)

// WithIDGenerator replaces the random document and scroll id generator.
func WithIDGenerator(g IDGenerator) Option {
	return func(o *options) { o.ids = g }
}

// WithLogger logs every operation at debug level and failures at warn level.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithInterceptors appends interceptors to the dispatch chain, outermost first.
func WithInterceptors(ics ...Interceptor) Option {
	return func(o *options) { o.interceptors = append(o.interceptors, ics...) }
}

// WithDefaultPageSize sets the search page size used when a request sets none.
func WithDefaultPageSize(n int) Option {
	return func(o *options) { o.defaultPageSize = n }
}

// WithClusterName sets the cluster name reported by health.
func WithClusterName(name string) Option {
	return func(o *options) { o.clusterName = name }
}

// New creates an empty engine.
func New(opts ...Option) *Engine {
	o := options{ids: RandomIDs{}, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}

	store := memory.New()
	cursors := scroll.New(o.ids)
	docs := docuc.New(store, o.ids)

	e := &Engine{
		store:   store,
		cursors: cursors,
		docs:    docs,
		bulk:    bulkuc.New(docs, o.ids),
		search:  searchuc.New(store, cursors).WithDefaultPageSize(o.defaultPageSize),
		health:  healthuc.New(store).WithClusterName(o.clusterName),
	}
	e.interceptors = append(e.interceptors, o.interceptors...)
	e.interceptors = append(e.interceptors, logging(o.logger))
	return e
}

// CallOption adjusts a single call.
type CallOption func(*callOptions)

type callOptions struct {
	ignore []int
}

// Ignore turns errors with the given statuses into responses instead of errors.
// Ignore(404) makes get and delete report found:false and lets search and count skip missing indices.
func Ignore(statuses ...int) CallOption {
	return func(c *callOptions) { c.ignore = append(c.ignore, statuses...) }
}

func newCallOptions(opts []CallOption) callOptions {
	var c callOptions
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

func (c callOptions) ignores(status int) bool {
	return slices.Contains(c.ignore, status)
}

// suppress converts an ignored status error into its response body. Other errors pass through.
func (c callOptions) suppress(err error, fallback func(se *domain.StatusError) map[string]any) (map[string]any, error) {
	var se *domain.StatusError
	if !errors.As(err, &se) || !c.ignores(se.Status) {
		return nil, err
	}
	if fallback != nil {
		if body := fallback(se); body != nil {
			return body, nil
		}
	}
	return map[string]any{"error": se.Body(), "status": se.Status}, nil
}

// Reset drops every index and scroll cursor.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, name := range e.store.Indices() {
		e.store.DeleteIndex(name)
	}
	e.cursors.ClearAll()
}
