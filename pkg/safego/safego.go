package safego

import (
	"context"
	"fmt"
	"runtime/debug"

	"gitlab.com/timkado/api/openim-client/internal/domain"
)

// Execute runs fn in a new goroutine. A panic inside fn is recovered and
// logged under name with a stack trace instead of crashing the process.
func Execute(ctx context.Context, logger domain.Logger, name string, fn func()) {
	go func() {
		defer Recover(ctx, logger, name)
		fn()
	}()
}

// Recover must be deferred. It logs a recovered panic with its stack.
func Recover(ctx context.Context, logger domain.Logger, name string) {
	r := recover()
	if r == nil {
		return
	}
	logCtx := ctx
	if ctx.Err() != nil {
		logCtx = context.Background()
	}
	logger.Error(logCtx, fmt.Sprintf("Panic recovered in goroutine: %s", name),
		"panic_info", fmt.Sprintf("%v", r),
		"stacktrace", string(debug.Stack()),
	)
}
