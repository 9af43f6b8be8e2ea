package models

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func itemWithCounters(quantity, fulfilled, backordered, cancelled int) *OrderItem {
	item := NewOrderItem("ord-1", "prod-1", "Widget", quantity, 1000, nil)
	item.QuantityFulfilled = fulfilled
	item.QuantityBackordered = backordered
	item.QuantityCancelled = cancelled
	return item
}

func TestBuildFulfillmentSummaryPartial(t *testing.T) {
	t.Parallel()

	// 2 of 5 units shipped: 40% partial
	summary := BuildFulfillmentSummary("ord-1", []*OrderItem{
		itemWithCounters(5, 2, 0, 0),
	})

	require.Equal(t, 5, summary.TotalQuantity)
	require.Equal(t, 2, summary.QuantityFulfilled)
	require.Equal(t, 3, summary.QuantityPending)
	require.Equal(t, 40, summary.FulfillmentPercent)
	require.Equal(t, FulfillmentStatusPartial, summary.Status)
}

func TestBuildFulfillmentSummaryComplete(t *testing.T) {
	t.Parallel()

	summary := BuildFulfillmentSummary("ord-1", []*OrderItem{
		itemWithCounters(3, 3, 0, 0),
		itemWithCounters(2, 2, 0, 0),
	})

	require.Equal(t, 100, summary.FulfillmentPercent)
	require.Zero(t, summary.QuantityPending)
	require.Equal(t, FulfillmentStatusComplete, summary.Status)
}

func TestBuildFulfillmentSummaryPending(t *testing.T) {
	t.Parallel()

	summary := BuildFulfillmentSummary("ord-1", []*OrderItem{
		itemWithCounters(4, 0, 0, 0),
	})

	require.Zero(t, summary.FulfillmentPercent)
	require.Equal(t, FulfillmentStatusPending, summary.Status)
}

func TestBuildFulfillmentSummaryNoItems(t *testing.T) {
	t.Parallel()

	summary := BuildFulfillmentSummary("ord-1", nil)

	require.Zero(t, summary.ItemCount)
	require.Zero(t, summary.FulfillmentPercent)
	require.Equal(t, FulfillmentStatusPending, summary.Status)
}

func TestBuildFulfillmentSummaryZeroQuantityLine(t *testing.T) {
	t.Parallel()

	// A line with nothing ordered contributes no units; the percent must
	// not divide by the zero total.
	summary := BuildFulfillmentSummary("ord-1", []*OrderItem{
		itemWithCounters(0, 0, 0, 0),
	})

	require.Equal(t, 1, summary.ItemCount)
	require.Zero(t, summary.TotalQuantity)
	require.Zero(t, summary.FulfillmentPercent)
	require.Equal(t, FulfillmentStatusPending, summary.Status)
}

func TestBuildFulfillmentSummaryRoundsPercent(t *testing.T) {
	t.Parallel()

	// 1 of 3 units is 33.33...%, rounded to 33
	oneOfThree := BuildFulfillmentSummary("ord-1", []*OrderItem{itemWithCounters(3, 1, 0, 0)})
	require.Equal(t, 33, oneOfThree.FulfillmentPercent)

	// 2 of 3 units is 66.67%, rounded to 67
	twoOfThree := BuildFulfillmentSummary("ord-1", []*OrderItem{itemWithCounters(3, 2, 0, 0)})
	require.Equal(t, 67, twoOfThree.FulfillmentPercent)
}

func TestBuildFulfillmentSummaryCountsBackorders(t *testing.T) {
	t.Parallel()

	summary := BuildFulfillmentSummary("ord-1", []*OrderItem{
		itemWithCounters(5, 2, 2, 1),
	})

	require.Equal(t, 2, summary.QuantityBackordered)
	require.Equal(t, 1, summary.QuantityCancelled)
	require.Zero(t, summary.QuantityPending)
	require.Equal(t, FulfillmentStatusPartial, summary.Status)
}

func TestCanAllocateInvariant(t *testing.T) {
	t.Parallel()

	item := itemWithCounters(5, 2, 1, 0)

	require.True(t, item.CanAllocate(2))
	require.False(t, item.CanAllocate(3))
	require.True(t, item.CanAllocate(0))
}

func TestHasPriceChange(t *testing.T) {
	t.Parallel()

	quote := int64(900)
	drifted := NewOrderItem("ord-1", "prod-1", "Widget", 1, 1000, &quote)
	require.True(t, drifted.HasPriceChange())

	same := int64(1000)
	stable := NewOrderItem("ord-1", "prod-1", "Widget", 1, 1000, &same)
	require.False(t, stable.HasPriceChange())

	noQuote := NewOrderItem("ord-1", "prod-1", "Widget", 1, 1000, nil)
	require.False(t, noQuote.HasPriceChange())
}

func TestApplyTotals(t *testing.T) {
	t.Parallel()

	order := NewOrder("SO-1", "cust-1", "US-NY")
	order.DiscountCents = 500

	order.ApplyTotals(10000, 850)

	require.Equal(t, int64(10000), order.SubtotalCents)
	require.Equal(t, int64(850), order.TaxCents)
	require.Equal(t, int64(10350), order.TotalCents)
}
