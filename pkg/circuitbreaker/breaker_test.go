package circuitbreaker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestBreaker(resetTimeout time.Duration) *CircuitBreaker {
	return New(Config{
		FailureThreshold: 3,
		ResetTimeout:     resetTimeout,
		HalfOpenMaxCalls: 2,
	})
}

func TestBreakerStartsClosed(t *testing.T) {
	t.Parallel()

	cb := newTestBreaker(time.Minute)

	require.Equal(t, StateClosed, cb.GetState())
	require.True(t, cb.Allow())
}

func TestBreakerOpensAtFailureThreshold(t *testing.T) {
	t.Parallel()

	cb := newTestBreaker(time.Minute)

	cb.Failure()
	cb.Failure()
	require.Equal(t, StateClosed, cb.GetState())

	cb.Failure()
	require.Equal(t, StateOpen, cb.GetState())
	require.False(t, cb.Allow())
}

func TestBreakerSuccessResetsFailureCount(t *testing.T) {
	t.Parallel()

	cb := newTestBreaker(time.Minute)

	cb.Failure()
	cb.Failure()
	cb.Success()

	cb.Failure()
	cb.Failure()
	require.Equal(t, StateClosed, cb.GetState())
}

func TestBreakerHalfOpensAfterResetTimeout(t *testing.T) {
	t.Parallel()

	cb := newTestBreaker(10 * time.Millisecond)

	cb.Failure()
	cb.Failure()
	cb.Failure()
	require.Equal(t, StateOpen, cb.GetState())

	time.Sleep(20 * time.Millisecond)

	// First probe after the timeout is let through
	require.True(t, cb.Allow())
	require.Equal(t, StateHalfOpen, cb.GetState())
}

func TestBreakerClosesOnSuccessfulProbe(t *testing.T) {
	t.Parallel()

	cb := newTestBreaker(10 * time.Millisecond)

	cb.Failure()
	cb.Failure()
	cb.Failure()

	time.Sleep(20 * time.Millisecond)
	require.True(t, cb.Allow())

	cb.Success()
	require.Equal(t, StateClosed, cb.GetState())
	require.True(t, cb.Allow())
}

func TestBreakerReopensOnFailedProbe(t *testing.T) {
	t.Parallel()

	cb := newTestBreaker(10 * time.Millisecond)

	cb.Failure()
	cb.Failure()
	cb.Failure()

	time.Sleep(20 * time.Millisecond)
	require.True(t, cb.Allow())

	cb.Failure()
	require.Equal(t, StateOpen, cb.GetState())
	require.False(t, cb.Allow())
}

func TestBreakerHalfOpenCallBudget(t *testing.T) {
	t.Parallel()

	cb := newTestBreaker(10 * time.Millisecond)

	cb.Failure()
	cb.Failure()
	cb.Failure()

	time.Sleep(20 * time.Millisecond)

	require.True(t, cb.Allow())
	require.True(t, cb.Allow())
	require.False(t, cb.Allow())
}

func TestBreakerReset(t *testing.T) {
	t.Parallel()

	cb := newTestBreaker(time.Minute)

	cb.Failure()
	cb.Failure()
	cb.Failure()
	require.Equal(t, StateOpen, cb.GetState())

	cb.Reset()

	require.Equal(t, StateClosed, cb.GetState())
	require.True(t, cb.Allow())
}
