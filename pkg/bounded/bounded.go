// Package bounded wraps latency-sensitive lookups with a hard deadline so a
// slow dependency surfaces as a retryable error instead of hanging a request.
package bounded

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/rinksidehq/rinkside-backend/pkg/errors"
)

// Call runs fn under a deadline derived from ctx. A deadline overrun maps to
// a retryable dependency error; other failures pass through untouched.
func Call(ctx context.Context, timeout time.Duration, op string, fn func(ctx context.Context) error) error {
	if timeout <= 0 {
		return fn(ctx)
	}

	bounded, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	err := fn(bounded)
	if err == nil {
		return nil
	}
	if stderrors.Is(err, context.DeadlineExceeded) {
		return errors.New(errors.CodeDependency, op+" timed out").WithDetails(map[string]any{
			"timeout": timeout.String(),
		})
	}
	return err
}

// Lookup is the generic variant for callers that need a value back.
func Lookup[T any](ctx context.Context, timeout time.Duration, op string, fn func(ctx context.Context) (T, error)) (T, error) {
	var out T
	err := Call(ctx, timeout, op, func(ctx context.Context) error {
		var innerErr error
		out, innerErr = fn(ctx)
		return innerErr
	})
	return out, err
}
