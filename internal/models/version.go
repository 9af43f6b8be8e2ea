package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// VersionItem is the point-in-time copy of one order line inside a snapshot
type VersionItem struct {
	ProductID      string `json:"product_id"`
	ProductName    string `json:"product_name"`
	Quantity       int    `json:"quantity"`
	UnitPriceCents int64  `json:"unit_price_cents"`
}

// VersionItems is stored as a JSONB column
type VersionItems []VersionItem

// Value implements driver.Valuer for JSONB storage
func (v VersionItems) Value() (driver.Value, error) {
	return json.Marshal(v)
}

// Scan implements sql.Scanner for JSONB storage
func (v *VersionItems) Scan(src interface{}) error {
	if src == nil {
		*v = nil
		return nil
	}

	data, ok := src.([]byte)

	if !ok {
		return fmt.Errorf("cannot scan %T into VersionItems", src)
	}

	return json.Unmarshal(data, v)
}

// OrderVersion is an immutable snapshot of an order's item list and totals.
// Version numbers increase monotonically per order and are never reused.
type OrderVersion struct {
	ID            string       `db:"id" json:"id"`
	OrderID       string       `db:"order_id" json:"order_id"`
	VersionNumber int          `db:"version_number" json:"version_number"`
	Items         VersionItems `db:"items" json:"items"`
	SubtotalCents int64        `db:"subtotal_cents" json:"subtotal_cents"`
	DiscountCents int64        `db:"discount_cents" json:"discount_cents"`
	TaxCents      int64        `db:"tax_cents" json:"tax_cents"`
	TotalCents    int64        `db:"total_cents" json:"total_cents"`
	ChangeSummary string       `db:"change_summary" json:"change_summary"`
	CreatedBy     string       `db:"created_by" json:"created_by"`
	CreatedAt     time.Time    `db:"created_at" json:"created_at"`
}

// NewOrderVersion captures the order and its items as an immutable snapshot
func NewOrderVersion(order *Order, items []*OrderItem, versionNumber int, changeSummary, createdBy string) *OrderVersion {
	snapshot := make(VersionItems, 0, len(items))

	for _, item := range items {
		snapshot = append(snapshot, VersionItem{
			ProductID:      item.ProductID,
			ProductName:    item.ProductName,
			Quantity:       item.Quantity,
			UnitPriceCents: item.UnitPriceCents,
		})
	}

	return &OrderVersion{
		ID:            GenerateID("ver"),
		OrderID:       order.ID,
		VersionNumber: versionNumber,
		Items:         snapshot,
		SubtotalCents: order.SubtotalCents,
		DiscountCents: order.DiscountCents,
		TaxCents:      order.TaxCents,
		TotalCents:    order.TotalCents,
		ChangeSummary: changeSummary,
		CreatedBy:     createdBy,
		CreatedAt:     GetCurrentTime(),
	}
}

// VersionChangeType classifies one entry of a version diff
type VersionChangeType string

const (
	VersionChangeAdded    VersionChangeType = "added"
	VersionChangeRemoved  VersionChangeType = "removed"
	VersionChangeModified VersionChangeType = "modified"
)

// VersionChange describes how one product moved between two snapshots
type VersionChange struct {
	ProductID        string            `json:"product_id"`
	ProductName      string            `json:"product_name"`
	ChangeType       VersionChangeType `json:"change_type"`
	PreviousQuantity int               `json:"previous_quantity"`
	NewQuantity      int               `json:"new_quantity"`
}

// VersionDiff is the classified comparison of two snapshots of one order
type VersionDiff struct {
	OrderID              string          `json:"order_id"`
	FromVersion          int             `json:"from_version"`
	ToVersion            int             `json:"to_version"`
	Changes              []VersionChange `json:"changes"`
	TotalDifferenceCents int64           `json:"total_difference_cents"`
}

// DiffVersions compares two snapshots of the same order. A product carried
// on several lines counts as one entry with the quantities summed, so split
// lines never mask a change. Products present in both snapshots with
// differing total quantity are modified, products only in "to" are added,
// products only in "from" are removed. Swapping the arguments reverses the
// previous/new roles and negates the total difference.
func DiffVersions(from, to *OrderVersion) *VersionDiff {
	fromQty := aggregateQuantities(from.Items)
	toQty := aggregateQuantities(to.Items)

	changes := make([]VersionChange, 0)
	seen := make(map[string]bool, len(to.Items))

	for _, item := range to.Items {
		if seen[item.ProductID] {
			continue
		}
		seen[item.ProductID] = true

		newQuantity := toQty[item.ProductID]
		prevQuantity, existed := fromQty[item.ProductID]

		if !existed {
			changes = append(changes, VersionChange{
				ProductID:   item.ProductID,
				ProductName: item.ProductName,
				ChangeType:  VersionChangeAdded,
				NewQuantity: newQuantity,
			})
			continue
		}

		if prevQuantity != newQuantity {
			changes = append(changes, VersionChange{
				ProductID:        item.ProductID,
				ProductName:      item.ProductName,
				ChangeType:       VersionChangeModified,
				PreviousQuantity: prevQuantity,
				NewQuantity:      newQuantity,
			})
		}
	}

	for _, item := range from.Items {
		if seen[item.ProductID] {
			continue
		}
		seen[item.ProductID] = true

		changes = append(changes, VersionChange{
			ProductID:        item.ProductID,
			ProductName:      item.ProductName,
			ChangeType:       VersionChangeRemoved,
			PreviousQuantity: fromQty[item.ProductID],
		})
	}

	return &VersionDiff{
		OrderID:              from.OrderID,
		FromVersion:          from.VersionNumber,
		ToVersion:            to.VersionNumber,
		Changes:              changes,
		TotalDifferenceCents: to.TotalCents - from.TotalCents,
	}
}

// aggregateQuantities sums the quantities of lines sharing a product
func aggregateQuantities(items VersionItems) map[string]int {
	totals := make(map[string]int, len(items))

	for _, item := range items {
		totals[item.ProductID] += item.Quantity
	}

	return totals
}
