package approval

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRequiresApprovalSmallChangeOnLargeOrder(t *testing.T) {
	t.Parallel()

	// $50 change on a $1000 order: under both thresholds
	require.False(t, RequiresApproval(5000, 100000))
}

func TestRequiresApprovalLargeAbsoluteChange(t *testing.T) {
	t.Parallel()

	// $500 change trips the absolute threshold regardless of the base
	require.True(t, RequiresApproval(50000, 1000000))
}

func TestRequiresApprovalLargeRelativeChange(t *testing.T) {
	t.Parallel()

	// $15 decrease on a $100 order is only 15% of the base
	require.True(t, RequiresApproval(-1500, 10000))
}

func TestRequiresApprovalSignIndependence(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		diff     int64
		previous int64
	}{
		{"absolute threshold", 20000, 1000000},
		{"relative threshold", 5000, 40000},
		{"under both", 500, 100000},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			require.Equal(t,
				RequiresApproval(tc.diff, tc.previous),
				RequiresApproval(-tc.diff, tc.previous))
		})
	}
}

func TestRequiresApprovalExactThresholdBoundaries(t *testing.T) {
	t.Parallel()

	// Exactly $100 and exactly 10% do not require approval; the gate only
	// opens strictly above the thresholds.
	require.False(t, RequiresApproval(10000, 1000000))
	require.False(t, RequiresApproval(1000, 10000))

	require.True(t, RequiresApproval(10001, 1000000))
	require.True(t, RequiresApproval(1001, 10000))
}

func TestRequiresApprovalZeroPreviousTotal(t *testing.T) {
	t.Parallel()

	// A zero-total order clamps the relative base so any change is measured
	// against one cent
	require.True(t, RequiresApproval(1, 0))
	require.False(t, RequiresApproval(0, 0))
}

func TestRequiresApprovalMonotonicInDifference(t *testing.T) {
	t.Parallel()

	const previous = int64(200000)

	gated := false

	for diff := int64(0); diff <= 30000; diff += 500 {
		result := RequiresApproval(diff, previous)

		if gated {
			require.True(t, result, "approval requirement must not flip back off as the difference grows (diff=%d)", diff)
		}

		gated = gated || result
	}

	require.True(t, gated)
}
