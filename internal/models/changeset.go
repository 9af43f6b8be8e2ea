package models

import (
	"fmt"
)

// AddItemChange adds a product to the order
type AddItemChange struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// RemoveItemChange removes an existing order item
type RemoveItemChange struct {
	OrderItemID string `json:"order_item_id"`
	Reason      string `json:"reason,omitempty"`
}

// ModifyItemChange re-quantifies an existing order item
type ModifyItemChange struct {
	OrderItemID string `json:"order_item_id"`
	NewQuantity int    `json:"new_quantity"`
}

// ChangeSet is the proposed set of line changes for one amendment. An empty
// change set is valid; it records a checkpoint amendment with no item deltas.
type ChangeSet struct {
	AddItems    []AddItemChange    `json:"add_items,omitempty"`
	RemoveItems []RemoveItemChange `json:"remove_items,omitempty"`
	ModifyItems []ModifyItemChange `json:"modify_items,omitempty"`
}

// Count returns the number of individual item changes
func (c *ChangeSet) Count() int {
	return len(c.AddItems) + len(c.RemoveItems) + len(c.ModifyItems)
}

// IsEmpty reports whether the change set carries no item changes
func (c *ChangeSet) IsEmpty() bool {
	return c.Count() == 0
}

// Validate checks every change entry exhaustively at the boundary
func (c *ChangeSet) Validate() error {
	for i, add := range c.AddItems {
		if add.ProductID == "" {
			return fmt.Errorf("add_items[%d]: product_id is required", i)
		}
		if add.Quantity <= 0 {
			return fmt.Errorf("add_items[%d]: quantity must be positive, got %d", i, add.Quantity)
		}
	}

	for i, rm := range c.RemoveItems {
		if rm.OrderItemID == "" {
			return fmt.Errorf("remove_items[%d]: order_item_id is required", i)
		}
	}

	for i, mod := range c.ModifyItems {
		if mod.OrderItemID == "" {
			return fmt.Errorf("modify_items[%d]: order_item_id is required", i)
		}
		if mod.NewQuantity <= 0 {
			return fmt.Errorf("modify_items[%d]: new_quantity must be positive, got %d", i, mod.NewQuantity)
		}
	}

	return nil
}

// DeriveAmendmentType classifies a change set when the caller does not name a
// type explicitly
func (c *ChangeSet) DeriveAmendmentType() AmendmentType {
	hasAdd := len(c.AddItems) > 0
	hasRemove := len(c.RemoveItems) > 0
	hasModify := len(c.ModifyItems) > 0

	switch {
	case hasAdd && !hasRemove && !hasModify:
		return AmendmentTypeItemAdded
	case hasRemove && !hasAdd && !hasModify:
		return AmendmentTypeItemRemoved
	case hasModify && !hasAdd && !hasRemove:
		return AmendmentTypeItemModified
	default:
		return AmendmentTypeMultiChange
	}
}
