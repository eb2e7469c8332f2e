package resilience

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errUpstream = errors.New("upstream 503")

func fail(_ context.Context) (float64, error) { return 0, errUpstream }

func ok(_ context.Context) (float64, error) { return 0.85, nil }

func tripped(t *testing.T, threshold int, reset time.Duration) (*CircuitBreaker, *time.Time) {
	t.Helper()
	now := time.Now()
	cb := NewCircuitBreaker("price", CircuitBreakerConfig{FailureThreshold: threshold, ResetTimeout: reset})
	cb.nowFunc = func() time.Time { return now }
	for i := 0; i < threshold; i++ {
		_, _ = ExecuteVal(context.Background(), cb, fail)
	}
	require.Equal(t, CircuitOpen, cb.State())
	return cb, &now
}

func TestCircuitBreaker_ClosedPassesThrough(t *testing.T) {
	t.Parallel()
	cb := NewCircuitBreaker("price", DefaultCircuitBreakerConfig())

	v, err := ExecuteVal(context.Background(), cb, ok)
	require.NoError(t, err)
	assert.InDelta(t, 0.85, v, 1e-9)
	assert.Equal(t, CircuitClosed, cb.State())
	assert.Equal(t, "price", cb.Name())
}

func TestCircuitBreaker_OpenRejectsWithoutCalling(t *testing.T) {
	t.Parallel()
	cb, _ := tripped(t, 3, time.Minute)

	called := false
	_, err := ExecuteVal(context.Background(), cb, func(context.Context) (float64, error) {
		called = true
		return 1, nil
	})
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.False(t, called)
}

func TestCircuitBreaker_SuccessResetsCount(t *testing.T) {
	t.Parallel()
	cb := NewCircuitBreaker("emission", CircuitBreakerConfig{FailureThreshold: 3, ResetTimeout: time.Minute})

	for i := 0; i < 2; i++ {
		_, _ = ExecuteVal(context.Background(), cb, fail)
	}
	assert.Equal(t, 2, cb.Failures())

	_, err := ExecuteVal(context.Background(), cb, ok)
	require.NoError(t, err)
	assert.Zero(t, cb.Failures())
	assert.Equal(t, CircuitClosed, cb.State())
}

func TestCircuitBreaker_HalfOpenProbeCloses(t *testing.T) {
	t.Parallel()
	cb, now := tripped(t, 2, 100*time.Millisecond)

	later := now.Add(200 * time.Millisecond)
	cb.nowFunc = func() time.Time { return later }
	assert.Equal(t, CircuitHalfOpen, cb.State())

	_, err := ExecuteVal(context.Background(), cb, ok)
	require.NoError(t, err)
	assert.Equal(t, CircuitClosed, cb.State())
}

func TestCircuitBreaker_HalfOpenFailureReopens(t *testing.T) {
	t.Parallel()
	cb, now := tripped(t, 2, 100*time.Millisecond)

	later := now.Add(200 * time.Millisecond)
	cb.nowFunc = func() time.Time { return later }

	_, err := ExecuteVal(context.Background(), cb, fail)
	assert.ErrorIs(t, err, errUpstream)
	assert.Equal(t, CircuitOpen, cb.State())
	assert.Equal(t, 3, cb.Failures())
}

func TestCircuitBreaker_CancellationDoesNotTrip(t *testing.T) {
	t.Parallel()
	cb := NewCircuitBreaker("price", CircuitBreakerConfig{FailureThreshold: 1, ResetTimeout: time.Minute})

	_, err := ExecuteVal(context.Background(), cb, func(context.Context) (float64, error) {
		return 0, context.Canceled
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, CircuitClosed, cb.State())
}

func TestCircuitBreaker_OnStateChange(t *testing.T) {
	t.Parallel()

	type change struct {
		name     string
		from, to CircuitState
	}
	var changes []change
	cb := NewCircuitBreaker("emission", CircuitBreakerConfig{
		FailureThreshold: 2,
		ResetTimeout:     time.Minute,
		OnStateChange: func(name string, from, to CircuitState) {
			changes = append(changes, change{name, from, to})
		},
	})

	for i := 0; i < 2; i++ {
		_, _ = ExecuteVal(context.Background(), cb, fail)
	}
	cb.Reset()

	require.Len(t, changes, 2)
	assert.Equal(t, change{"emission", CircuitClosed, CircuitOpen}, changes[0])
	assert.Equal(t, change{"emission", CircuitOpen, CircuitClosed}, changes[1])
}

func TestCircuitBreaker_ConcurrentAccess(t *testing.T) {
	t.Parallel()
	cb := NewCircuitBreaker("price", CircuitBreakerConfig{FailureThreshold: 100, ResetTimeout: time.Minute})

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if i%2 == 0 {
				_, _ = ExecuteVal(context.Background(), cb, fail)
				return
			}
			_, _ = ExecuteVal(context.Background(), cb, ok)
		}()
	}
	wg.Wait()
}

func TestServiceBreakers(t *testing.T) {
	t.Parallel()
	sb := NewServiceBreakers(CircuitBreakerConfig{FailureThreshold: 1, ResetTimeout: time.Hour})

	price := sb.Get("price")
	assert.Same(t, price, sb.Get("price"))
	emission := sb.Get("emission")
	assert.NotSame(t, price, emission)

	_, _ = ExecuteVal(context.Background(), price, fail)

	states := sb.States()
	assert.Equal(t, CircuitOpen, states["price"])
	assert.Equal(t, CircuitClosed, states["emission"])
}

func TestFromCircuitConfig(t *testing.T) {
	t.Parallel()

	cfg := FromCircuitConfig(0, 0)
	assert.Equal(t, 5, cfg.FailureThreshold)
	assert.Equal(t, 30*time.Second, cfg.ResetTimeout)

	cfg = FromCircuitConfig(2, 60)
	assert.Equal(t, 2, cfg.FailureThreshold)
	assert.Equal(t, time.Minute, cfg.ResetTimeout)

	require.NotNil(t, cfg.ShouldTrip)
	assert.True(t, cfg.ShouldTrip(NewTransientError(errUpstream, 503)))
	assert.False(t, cfg.ShouldTrip(errUpstream))
}

func TestCircuitState_String(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "closed", CircuitClosed.String())
	assert.Equal(t, "open", CircuitOpen.String())
	assert.Equal(t, "half-open", CircuitHalfOpen.String())
	assert.Equal(t, "unknown", CircuitState(99).String())
}
