package resilience

import (
	"context"
	"time"
)

// Guard bounds every call to one provider with a timeout and routes it
// through that provider's circuit breaker. A guarded call is attempted at
// most once.
type Guard struct {
	breaker *CircuitBreaker
	timeout time.Duration
}

// NewGuard creates a guard. A zero timeout leaves the caller's deadline as is.
func NewGuard(breaker *CircuitBreaker, timeout time.Duration) *Guard {
	return &Guard{breaker: breaker, timeout: timeout}
}

// Name returns the guarded provider name.
func (g *Guard) Name() string { return g.breaker.Name() }

// Timeout returns the per-call timeout.
func (g *Guard) Timeout() time.Duration { return g.timeout }

// Call runs fn under the guard's timeout and breaker.
func Call[T any](ctx context.Context, g *Guard, fn func(ctx context.Context) (T, error)) (T, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}
	return ExecuteVal(ctx, g.breaker, fn)
}
