package esmock

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Option configures the Mock.
type Option interface {
	apply(*mockConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*mockConfig)

func (f optionFunc) apply(c *mockConfig) { f(c) }

type mockConfig struct {
	indices         []string
	clusterName     string
	defaultPageSize int
	serverFailure   bool
	ids             IDGenerator

	logger     *zap.Logger
	metricsReg prometheus.Registerer
}

// WithIndices creates the named indices up front.
func WithIndices(names ...string) Option {
	return optionFunc(func(c *mockConfig) {
		c.indices = append(c.indices, names...)
	})
}

// WithClusterName sets the cluster name reported by health and the root endpoint.
// Default: "testcluster".
func WithClusterName(name string) Option {
	return optionFunc(func(c *mockConfig) {
		c.clusterName = name
	})
}

// WithDefaultPageSize sets the number of hits returned when a search sets no size.
// Default: 10.
func WithDefaultPageSize(n int) Option {
	return optionFunc(func(c *mockConfig) {
		c.defaultPageSize = n
	})
}

// WithServerFailure starts the mock in server failure mode.
func WithServerFailure() Option {
	return optionFunc(func(c *mockConfig) {
		c.serverFailure = true
	})
}

// WithIDGenerator replaces the random document and scroll id generator,
// for tests that assert on generated ids.
func WithIDGenerator(g IDGenerator) Option {
	return optionFunc(func(c *mockConfig) {
		c.ids = g
	})
}

// WithLogger logs every operation at debug level and failures at warn level.
// Pass nil to disable (default).
func WithLogger(l *zap.Logger) Option {
	return optionFunc(func(c *mockConfig) {
		c.logger = l
	})
}

// WithPrometheus registers operation counts and durations
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *mockConfig) {
		c.metricsReg = reg
	})
}
