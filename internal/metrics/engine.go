// Package metrics exposes prometheus instrumentation for the engine and the REST surface.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kailas-cloud/esmem/internal/domain"
	"github.com/kailas-cloud/esmem/internal/engine"
)

const namespace = "esmem"

// StatusOK labels operations that returned without error.
const StatusOK = "ok"

// Engine holds per-operation counters and latencies.
type Engine struct {
	operations *prometheus.CounterVec
	duration   *prometheus.HistogramVec
}

// NewEngine registers engine metrics on reg, reusing collectors already registered there.
func NewEngine(reg prometheus.Registerer) (*Engine, error) {
	m := &Engine{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "operations_total",
			Help:      "Total engine operations by operation and outcome.",
		}, []string{"operation", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "operation_duration_seconds",
			Help:      "Engine operation duration in seconds.",
			Buckets:   []float64{0.00001, 0.0001, 0.001, 0.01, 0.1, 1},
		}, []string{"operation"}),
	}
	if err := registerOrReuse(reg, &m.operations); err != nil {
		return nil, err
	}
	if err := registerOrReuse(reg, &m.duration); err != nil {
		return nil, err
	}
	return m, nil
}

// Interceptor records every operation. Failures are labelled with their error type.
func (m *Engine) Interceptor() engine.Interceptor {
	return func(ctx context.Context, op engine.Op, next engine.Handler) (any, error) {
		start := time.Now()
		v, err := next(ctx)

		m.operations.WithLabelValues(string(op), outcome(err)).Inc()
		m.duration.WithLabelValues(string(op)).Observe(time.Since(start).Seconds())
		return v, err
	}
}

func outcome(err error) string {
	if err == nil {
		return StatusOK
	}
	var se *domain.StatusError
	if errors.As(err, &se) {
		return se.Type
	}
	return "error"
}

// registerOrReuse registers a collector or reuses an existing one.
func registerOrReuse[T prometheus.Collector](reg prometheus.Registerer, c *T) error {
	if err := reg.Register(*c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			existing, ok := are.ExistingCollector.(T)
			if !ok {
				return fmt.Errorf("metrics: already registered with incompatible type: %T", are.ExistingCollector)
			}
			*c = existing
			return nil
		}
		return fmt.Errorf("metrics: register: %w", err)
	}
	return nil
}
