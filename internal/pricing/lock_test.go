package pricing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestQuotePricingAppliesUnlocked(t *testing.T) {
	t.Parallel()

	now := time.Now()
	until := now.Add(24 * time.Hour)

	require.False(t, QuotePricingApplies(false, nil, now))
	require.False(t, QuotePricingApplies(false, &until, now))
}

func TestQuotePricingAppliesLockedWithoutExpiry(t *testing.T) {
	t.Parallel()

	require.True(t, QuotePricingApplies(true, nil, time.Now()))
}

func TestQuotePricingAppliesExpiredLock(t *testing.T) {
	t.Parallel()

	now := time.Now()
	past := now.Add(-time.Minute)

	// A stale locked flag does not win against an expired deadline
	require.False(t, QuotePricingApplies(true, &past, now))
}

func TestQuotePricingAppliesFutureExpiry(t *testing.T) {
	t.Parallel()

	now := time.Now()
	future := now.Add(time.Minute)

	require.True(t, QuotePricingApplies(true, &future, now))
}

func TestResolveUnitPricePrefersQuoteOnlyWhenRequested(t *testing.T) {
	t.Parallel()

	quote := int64(899)

	require.Equal(t, int64(899), ResolveUnitPrice(1099, &quote, true))
	require.Equal(t, int64(1099), ResolveUnitPrice(1099, &quote, false))
}

func TestResolveUnitPriceWithoutCapturedQuote(t *testing.T) {
	t.Parallel()

	// Quote pricing requested but no quote price was captured for the line
	require.Equal(t, int64(1099), ResolveUnitPrice(1099, nil, true))
}
