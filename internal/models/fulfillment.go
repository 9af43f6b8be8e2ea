package models

import (
	"math"
)

// FulfillmentStatus is the aggregate fulfillment state of an order
type FulfillmentStatus string

const (
	FulfillmentStatusComplete FulfillmentStatus = "complete"
	FulfillmentStatusPartial  FulfillmentStatus = "partial"
	FulfillmentStatusPending  FulfillmentStatus = "pending"
)

// FulfillmentSummary aggregates the fulfillment counters of an order
type FulfillmentSummary struct {
	OrderID             string            `json:"order_id"`
	ItemCount           int               `json:"item_count"`
	TotalQuantity       int               `json:"total_quantity"`
	QuantityFulfilled   int               `json:"quantity_fulfilled"`
	QuantityBackordered int               `json:"quantity_backordered"`
	QuantityCancelled   int               `json:"quantity_cancelled"`
	QuantityPending     int               `json:"quantity_pending"`
	FulfillmentPercent  int               `json:"fulfillment_percent"`
	Status              FulfillmentStatus `json:"status"`
}

// BuildFulfillmentSummary derives the aggregate fulfillment state from the
// order's items. Status is complete when every ordered unit has shipped,
// pending when nothing has shipped, otherwise partial.
func BuildFulfillmentSummary(orderID string, items []*OrderItem) *FulfillmentSummary {
	summary := &FulfillmentSummary{
		OrderID:   orderID,
		ItemCount: len(items),
	}

	for _, item := range items {
		summary.TotalQuantity += item.Quantity
		summary.QuantityFulfilled += item.QuantityFulfilled
		summary.QuantityBackordered += item.QuantityBackordered
		summary.QuantityCancelled += item.QuantityCancelled
	}

	summary.QuantityPending = summary.TotalQuantity - summary.QuantityFulfilled - summary.QuantityBackordered - summary.QuantityCancelled

	if summary.TotalQuantity > 0 {
		summary.FulfillmentPercent = int(math.Round(float64(summary.QuantityFulfilled) / float64(summary.TotalQuantity) * 100))
	}

	switch {
	case summary.TotalQuantity > 0 && summary.QuantityFulfilled == summary.TotalQuantity:
		summary.Status = FulfillmentStatusComplete
	case summary.QuantityFulfilled == 0:
		summary.Status = FulfillmentStatusPending
	default:
		summary.Status = FulfillmentStatusPartial
	}

	return summary
}
