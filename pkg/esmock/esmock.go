package esmock

import (
	"context"
	"fmt"
	"net/http"

	"github.com/elastic/go-elasticsearch/v8"

	"github.com/kailas-cloud/esmem/internal/engine"
	"github.com/kailas-cloud/esmem/internal/fault"
	"github.com/kailas-cloud/esmem/internal/metrics"
	chiTransport "github.com/kailas-cloud/esmem/internal/transport/chi"
)

// defaultAddress is the base URL clients built by NewClient send requests to.
// The in-process transport never resolves it.
const defaultAddress = "http://esmock.local:9200"

type (
	// DocRequest addresses one document.
	DocRequest = engine.DocRequest
	// BulkRequest carries an NDJSON bulk body.
	BulkRequest = engine.BulkRequest
	// SearchRequest selects and pages documents for Search and Count.
	SearchRequest = engine.SearchRequest
	// CallOption adjusts a single call.
	CallOption = engine.CallOption
	// IDGenerator produces document and scroll identifiers.
	IDGenerator = engine.IDGenerator
)

// Ignore turns errors with the given statuses into responses instead of errors.
func Ignore(statuses ...int) CallOption { return engine.Ignore(statuses...) }

// Mock is an in-memory Elasticsearch. Engine methods (Index, Get, Search, Bulk ...)
// are called directly; NewClient returns an official client bound to the same data.
type Mock struct {
	*engine.Engine

	failure *fault.ServerFailure
	handler http.Handler
}

// New creates an empty Mock.
func New(opts ...Option) (*Mock, error) {
	cfg := &mockConfig{}
	for _, o := range opts {
		o.apply(cfg)
	}

	failure := fault.NewServerFailure(cfg.serverFailure)
	var interceptors []engine.Interceptor
	if cfg.metricsReg != nil {
		m, err := metrics.NewEngine(cfg.metricsReg)
		if err != nil {
			return nil, fmt.Errorf("esmock: %w", err)
		}
		interceptors = append(interceptors, m.Interceptor())
	}
	interceptors = append(interceptors, failure.Interceptor())

	engOpts := []engine.Option{
		engine.WithInterceptors(interceptors...),
		engine.WithClusterName(cfg.clusterName),
		engine.WithDefaultPageSize(cfg.defaultPageSize),
	}
	if cfg.logger != nil {
		engOpts = append(engOpts, engine.WithLogger(cfg.logger))
	}
	if cfg.ids != nil {
		engOpts = append(engOpts, engine.WithIDGenerator(cfg.ids))
	}
	eng := engine.New(engOpts...)

	// indices are created before a configured failure can reject them
	failing := failure.Enabled()
	failure.Disable()
	for _, name := range cfg.indices {
		if _, err := eng.CreateIndex(context.Background(), name); err != nil {
			return nil, fmt.Errorf("esmock: create index %q: %w", name, err)
		}
	}
	if failing {
		failure.Enable()
	}

	return &Mock{
		Engine:  eng,
		failure: failure,
		handler: chiTransport.NewServer(eng, chiTransport.Config{
			ClusterName: cfg.clusterName,
			Failure:     failure,
		}, cfg.logger).Router(),
	}, nil
}

// EnableServerFailure makes every operation fail with 500 Internal Server Error.
func (m *Mock) EnableServerFailure() { m.failure.Enable() }

// DisableServerFailure restores normal operation.
func (m *Mock) DisableServerFailure() { m.failure.Disable() }

// ServerFailing reports whether server failure mode is on.
func (m *Mock) ServerFailing() bool { return m.failure.Enabled() }

// Handler returns the REST API over the mock's data.
func (m *Mock) Handler() http.Handler { return m.handler }

// Transport returns a RoundTripper that serves requests from the mock in-process.
func (m *Mock) Transport() http.RoundTripper { return chiTransport.NewTransport(m.handler) }

// NewClient returns an official client whose requests are served by the mock.
// Fields set in cfg are kept except Transport; Addresses default to a placeholder.
func (m *Mock) NewClient(cfg ...elasticsearch.Config) (*elasticsearch.Client, error) {
	c, err := elasticsearch.NewClient(m.clientConfig(cfg))
	if err != nil {
		return nil, fmt.Errorf("esmock: new client: %w", err)
	}
	return c, nil
}

// NewTypedClient is NewClient for the typed API.
func (m *Mock) NewTypedClient(cfg ...elasticsearch.Config) (*elasticsearch.TypedClient, error) {
	c, err := elasticsearch.NewTypedClient(m.clientConfig(cfg))
	if err != nil {
		return nil, fmt.Errorf("esmock: new typed client: %w", err)
	}
	return c, nil
}

func (m *Mock) clientConfig(cfg []elasticsearch.Config) elasticsearch.Config {
	var c elasticsearch.Config
	if len(cfg) > 0 {
		c = cfg[0]
	}
	if len(c.Addresses) == 0 && c.CloudID == "" {
		c.Addresses = []string{defaultAddress}
	}
	c.Transport = m.Transport()
	return c
}
