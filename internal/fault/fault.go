// Package fault simulates server-side failures at the engine dispatch boundary.
package fault

import (
	"context"
	"sync/atomic"

	"github.com/kailas-cloud/esmem/internal/domain"
	"github.com/kailas-cloud/esmem/internal/engine"
)

// ServerFailure makes every engine operation fail with status 500 while enabled.
// The zero value is disabled and ready to use.
type ServerFailure struct {
	enabled atomic.Bool
}

// NewServerFailure creates a toggle in the given state.
func NewServerFailure(enabled bool) *ServerFailure {
	f := &ServerFailure{}
	f.enabled.Store(enabled)
	return f
}

// Enable starts failing operations.
func (f *ServerFailure) Enable() { f.enabled.Store(true) }

// Disable stops failing operations.
func (f *ServerFailure) Disable() { f.enabled.Store(false) }

// Enabled reports whether operations currently fail.
func (f *ServerFailure) Enabled() bool { return f.enabled.Load() }

// Interceptor returns the engine interceptor that applies the toggle.
func (f *ServerFailure) Interceptor() engine.Interceptor {
	return func(ctx context.Context, _ engine.Op, next engine.Handler) (any, error) {
		if f.enabled.Load() {
			return nil, domain.NewServerFailure()
		}
		return next(ctx)
	}
}
