// Package pricing resolves which price applies to an order line: the price
// captured at quote time or the current catalog price.
package pricing

import (
	"time"
)

// QuotePricingApplies reports whether quote-time pricing currently applies to
// an order. An expired lock defeats the stored flag; persisting that
// transition is the caller's responsibility, this is a pure predicate.
func QuotePricingApplies(locked bool, until *time.Time, now time.Time) bool {
	if !locked {
		return false
	}

	if until != nil && until.Before(now) {
		return false
	}

	return true
}

// ResolveUnitPrice picks the price for an existing order line. The cached
// quote price wins only when quote pricing is requested and a quote price was
// actually captured; otherwise the line keeps its current price.
func ResolveUnitPrice(currentPriceCents int64, quotePriceCents *int64, useQuotePrices bool) int64 {
	if useQuotePrices && quotePriceCents != nil {
		return *quotePriceCents
	}

	return currentPriceCents
}
