package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/retailworks/pos-backoffice/pkg/logger"
)

var errTransient = errors.New("transient failure")

func testConfig(maxAttempts int, retryable ...error) *RetryConfig {
	return &RetryConfig{
		MaxAttempts:     maxAttempts,
		BackoffStrategy: &ConstantBackoff{Interval: time.Millisecond},
		Logger:          logger.NewLogger("error"),
		RetryableErrors: retryable,
	}
}

func TestRetrySucceedsFirstAttempt(t *testing.T) {
	t.Parallel()

	calls := 0

	err := Retry(context.Background(), func() error {
		calls++
		return nil
	}, testConfig(3))

	require.NoError(t, err)
	require.Equal(t, 1, calls)
}

func TestRetryRecoversAfterFailures(t *testing.T) {
	t.Parallel()

	calls := 0

	err := Retry(context.Background(), func() error {
		calls++
		if calls < 3 {
			return errTransient
		}
		return nil
	}, testConfig(5))

	require.NoError(t, err)
	require.Equal(t, 3, calls)
}

func TestRetryExhaustsAttempts(t *testing.T) {
	t.Parallel()

	calls := 0

	err := Retry(context.Background(), func() error {
		calls++
		return errTransient
	}, testConfig(3))

	require.Error(t, err)
	require.ErrorIs(t, err, errTransient)
	require.Equal(t, 3, calls)
}

func TestRetryStopsOnNonRetryableError(t *testing.T) {
	t.Parallel()

	permanent := errors.New("permanent failure")
	calls := 0

	err := Retry(context.Background(), func() error {
		calls++
		return permanent
	}, testConfig(5, errTransient))

	require.ErrorIs(t, err, permanent)
	require.Equal(t, 1, calls)
}

func TestRetryHonorsCancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0

	err := Retry(ctx, func() error {
		calls++
		return errTransient
	}, testConfig(3))

	require.Error(t, err)
	require.ErrorIs(t, err, context.Canceled)
	require.Zero(t, calls)
}

func TestConstantBackoff(t *testing.T) {
	t.Parallel()

	b := &ConstantBackoff{Interval: 250 * time.Millisecond}

	require.Equal(t, 250*time.Millisecond, b.NextBackoff(1))
	require.Equal(t, 250*time.Millisecond, b.NextBackoff(10))
}

func TestExponentialBackoffGrowth(t *testing.T) {
	t.Parallel()

	b := &ExponentialBackoff{
		InitialInterval: 100 * time.Millisecond,
		MaxInterval:     10 * time.Second,
		Multiplier:      2.0,
	}

	require.Equal(t, 100*time.Millisecond, b.NextBackoff(1))
	require.Equal(t, 200*time.Millisecond, b.NextBackoff(2))
	require.Equal(t, 400*time.Millisecond, b.NextBackoff(3))
}

func TestExponentialBackoffCapsAtMax(t *testing.T) {
	t.Parallel()

	b := &ExponentialBackoff{
		InitialInterval: time.Second,
		MaxInterval:     5 * time.Second,
		Multiplier:      3.0,
	}

	require.Equal(t, 5*time.Second, b.NextBackoff(10))
}

func TestExponentialBackoffJitterStaysBounded(t *testing.T) {
	t.Parallel()

	b := &ExponentialBackoff{
		InitialInterval: 100 * time.Millisecond,
		MaxInterval:     10 * time.Second,
		Multiplier:      2.0,
		JitterFactor:    0.2,
	}

	for i := 0; i < 50; i++ {
		backoff := b.NextBackoff(2)
		require.GreaterOrEqual(t, backoff, 200*time.Millisecond)
		require.LessOrEqual(t, backoff, 240*time.Millisecond)
	}
}
