// Package async runs work that must outlive the request that triggered it,
// such as writing a freshly built report to the cache after the response is sent.
package async

import (
	"context"
	"runtime/debug"
	"time"

	"github.com/richxcame/rental-insights/pkg/logger"
	"go.uber.org/zap"
)

// Detach returns a context that keeps ctx's values (correlation ID, active
// span) but is not cancelled with it.
func Detach(ctx context.Context) context.Context {
	return context.WithoutCancel(ctx)
}

// GoWithTimeout runs fn in its own goroutine on a detached context bounded by
// timeout. A panic in fn is logged instead of crashing the process.
func GoWithTimeout(ctx context.Context, task string, timeout time.Duration, fn func(ctx context.Context)) {
	taskCtx, cancel := context.WithTimeout(Detach(ctx), timeout)
	started := time.Now()

	go func() {
		defer cancel()
		defer func() {
			if r := recover(); r != nil {
				logger.ErrorContext(taskCtx, "background task panicked",
					zap.String("task", task),
					zap.Any("panic", r),
					zap.ByteString("stack", debug.Stack()),
				)
			}
		}()

		fn(taskCtx)

		if taskCtx.Err() != nil {
			logger.WarnContext(taskCtx, "background task ran past its deadline",
				zap.String("task", task),
				zap.Duration("timeout", timeout),
			)
			return
		}
		logger.DebugContext(taskCtx, "background task finished",
			zap.String("task", task),
			zap.Duration("took", time.Since(started)),
		)
	}()
}
