package utils

import (
	"context"
	"time"

	"github.com/pingcap/log"
	"go.uber.org/zap"
)

// GoWithRecovery wraps goroutine startup call with force recovery.
// it will dump current goroutine stack into log if catch any recover result.
//   exec:      execute logic function.
//   recoverFn: handler will be called after recover and before dump stack, passing `nil` means noop.
func GoWithRecovery(exec func(), recoverFn func(r interface{})) {
	defer func() {
		r := recover()
		if recoverFn != nil {
			recoverFn(r)
		}
		if r != nil {
			log.Error("panic in the recoverable goroutine",
				zap.Reflect("r", r),
				zap.Stack("stack trace"))
		}
	}()
	exec()
}

// WithRetryBackoff runs f until it reports done, maxTimes attempts are
// used up or ctx is done. The wait between attempts starts at
// firstDuration and doubles each time. f receives the attempt number,
// starting from 1.
func WithRetryBackoff(ctx context.Context, maxTimes uint, firstDuration time.Duration, f func(uint) bool) {
	duration := firstDuration
	for attempt := uint(1); attempt <= maxTimes; attempt++ {
		if done := f(attempt); done {
			return
		}
		if attempt == maxTimes {
			return
		}
		select {
		case <-time.After(duration):
		case <-ctx.Done():
			return
		}
		duration *= 2
	}
}
