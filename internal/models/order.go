package models

import (
	"time"
)

// OrderStatus represents the status of an order
type OrderStatus string

const (
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// Order is the aggregate root owned by the amendment engine. All monetary
// values are integer minor-currency units (cents).
type Order struct {
	ID             string     `db:"id" json:"id"`
	OrderNumber    string     `db:"order_number" json:"order_number"`
	CustomerID     string     `db:"customer_id" json:"customer_id"`
	Status         string     `db:"status" json:"status"`
	SubtotalCents  int64      `db:"subtotal_cents" json:"subtotal_cents"`
	DiscountCents  int64      `db:"discount_cents" json:"discount_cents"`
	TaxCents       int64      `db:"tax_cents" json:"tax_cents"`
	TotalCents     int64      `db:"total_cents" json:"total_cents"`
	PriceLocked    bool       `db:"price_locked" json:"price_locked"`
	PriceLockUntil *time.Time `db:"price_lock_until" json:"price_lock_until,omitempty"`
	QuoteID        *string    `db:"quote_id" json:"quote_id,omitempty"`
	Jurisdiction   string     `db:"jurisdiction" json:"jurisdiction"`
	CurrentVersion int        `db:"current_version" json:"current_version"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updated_at"`
}

// OrderItem is a single line on an order. The fulfillment counters must never
// exceed the ordered quantity in sum.
type OrderItem struct {
	ID                  string    `db:"id" json:"id"`
	OrderID             string    `db:"order_id" json:"order_id"`
	ProductID           string    `db:"product_id" json:"product_id"`
	ProductName         string    `db:"product_name" json:"product_name"`
	Quantity            int       `db:"quantity" json:"quantity"`
	UnitPriceCents      int64     `db:"unit_price_cents" json:"unit_price_cents"`
	LineTotalCents      int64     `db:"line_total_cents" json:"line_total_cents"`
	QuotePriceCents     *int64    `db:"quote_price_cents" json:"quote_price_cents,omitempty"`
	QuantityFulfilled   int       `db:"quantity_fulfilled" json:"quantity_fulfilled"`
	QuantityBackordered int       `db:"quantity_backordered" json:"quantity_backordered"`
	QuantityCancelled   int       `db:"quantity_cancelled" json:"quantity_cancelled"`
	CreatedAt           time.Time `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time `db:"updated_at" json:"updated_at"`
}

// NewOrder creates a confirmed order with zeroed totals
func NewOrder(orderNumber, customerID, jurisdiction string) *Order {
	now := GetCurrentTime()

	return &Order{
		ID:             GenerateID("ord"),
		OrderNumber:    orderNumber,
		CustomerID:     customerID,
		Status:         string(OrderStatusConfirmed),
		Jurisdiction:   jurisdiction,
		CurrentVersion: 0,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// NewOrderItem creates an order item with its line total derived from
// quantity and unit price
func NewOrderItem(orderID, productID, productName string, quantity int, unitPriceCents int64, quotePriceCents *int64) *OrderItem {
	now := GetCurrentTime()

	return &OrderItem{
		ID:              GenerateID("itm"),
		OrderID:         orderID,
		ProductID:       productID,
		ProductName:     productName,
		Quantity:        quantity,
		UnitPriceCents:  unitPriceCents,
		LineTotalCents:  int64(quantity) * unitPriceCents,
		QuotePriceCents: quotePriceCents,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// SubtotalFromItems sums the line totals of the given items
func SubtotalFromItems(items []*OrderItem) int64 {
	var subtotal int64

	for _, item := range items {
		subtotal += item.LineTotalCents
	}

	return subtotal
}

// ApplyTotals sets the order's monetary fields from a recomputed subtotal and
// tax amount. Total = subtotal - discount + tax.
func (o *Order) ApplyTotals(subtotalCents, taxCents int64) {
	o.SubtotalCents = subtotalCents
	o.TaxCents = taxCents
	o.TotalCents = subtotalCents - o.DiscountCents + taxCents
}

// HasPriceChange reports whether the item's current unit price differs from
// the price cached at quote time. Items without a cached quote price never
// report a change.
func (i *OrderItem) HasPriceChange() bool {
	if i.QuotePriceCents == nil {
		return false
	}

	return *i.QuotePriceCents != i.UnitPriceCents
}

// SetQuantity updates the quantity and unit price, recomputing the line total
func (i *OrderItem) SetQuantity(quantity int, unitPriceCents int64) {
	i.Quantity = quantity
	i.UnitPriceCents = unitPriceCents
	i.LineTotalCents = int64(quantity) * unitPriceCents
	i.UpdatedAt = GetCurrentTime()
}

// CanAllocate reports whether delta more units can be fulfilled, backordered
// or cancelled without the counters exceeding the ordered quantity
func (i *OrderItem) CanAllocate(delta int) bool {
	return i.QuantityFulfilled+i.QuantityBackordered+i.QuantityCancelled+delta <= i.Quantity
}
