package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTokenBucketAllowsUpToCapacity(t *testing.T) {
	t.Parallel()

	tb := NewTokenBucket(3, 0)

	require.True(t, tb.Allow())
	require.True(t, tb.Allow())
	require.True(t, tb.Allow())
	require.False(t, tb.Allow())
}

func TestTokenBucketAllowN(t *testing.T) {
	t.Parallel()

	tb := NewTokenBucket(10, 0)

	require.True(t, tb.AllowN(7))
	require.False(t, tb.AllowN(5))
	require.True(t, tb.AllowN(3))
}

func TestTokenBucketRefills(t *testing.T) {
	t.Parallel()

	tb := NewTokenBucket(1, 100)

	require.True(t, tb.Allow())
	require.False(t, tb.Allow())

	time.Sleep(50 * time.Millisecond)

	require.True(t, tb.Allow())
}

func TestTokenBucketRefillCapsAtMax(t *testing.T) {
	t.Parallel()

	tb := NewTokenBucket(2, 1000)

	time.Sleep(20 * time.Millisecond)

	require.LessOrEqual(t, tb.Available(), 2.0)
}

func TestTokenBucketReset(t *testing.T) {
	t.Parallel()

	tb := NewTokenBucket(2, 0)

	require.True(t, tb.AllowN(2))
	require.False(t, tb.Allow())

	tb.Reset()

	require.True(t, tb.AllowN(2))
}
