package engine

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/esmem/internal/logger"
)

// logging prefers the request-scoped logger carried by ctx over base.
func logging(base *zap.Logger) Interceptor {
	return func(ctx context.Context, op Op, next Handler) (any, error) {
		start := time.Now()
		v, err := next(ctx)
		dur := time.Since(start)

		l := logger.FromContext(ctx, base)
		if err != nil {
			l.Warn("operation failed",
				zap.String("op", string(op)),
				zap.Duration("duration", dur),
				zap.Error(err),
			)
		} else {
			l.Debug("operation completed",
				zap.String("op", string(op)),
				zap.Duration("duration", dur),
			)
		}
		return v, err
	}
}
