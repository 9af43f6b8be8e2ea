package service

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/retailworks/pos-backoffice/internal/models"
	"github.com/retailworks/pos-backoffice/pkg/errors"
)

func lineWithCounters(quantity, fulfilled, backordered, cancelled int) *models.OrderItem {
	item := models.NewOrderItem("ord-1", "prod-1", "Espresso Machine", quantity, 45000, nil)
	item.QuantityFulfilled = fulfilled
	item.QuantityBackordered = backordered
	item.QuantityCancelled = cancelled
	return item
}

func TestGuardRecordedChangeRemoveAfterShipment(t *testing.T) {
	t.Parallel()

	// The line had nothing fulfilled when the removal was recorded, but a
	// shipment landed before apply. The removal must now be refused.
	item := lineWithCounters(5, 2, 0, 0)
	itemID := item.ID
	change := &models.AmendmentItem{
		OrderItemID: &itemID,
		ChangeType:  string(models.AmendmentItemRemove),
	}

	err := guardRecordedChange(item, change)

	require.ErrorIs(t, err, errors.ErrConflict)
}

func TestGuardRecordedChangeModifyBelowAllocation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		item        *models.OrderItem
		newQuantity int
		wantErr     bool
	}{
		{
			name:        "reduce below fulfilled",
			item:        lineWithCounters(10, 4, 0, 0),
			newQuantity: 3,
			wantErr:     true,
		},
		{
			name:        "reduce below fulfilled plus backordered",
			item:        lineWithCounters(10, 2, 3, 0),
			newQuantity: 4,
			wantErr:     true,
		},
		{
			name:        "reduce to exactly the allocated count",
			item:        lineWithCounters(10, 2, 3, 1),
			newQuantity: 6,
			wantErr:     false,
		},
		{
			name:        "increase is always allowed",
			item:        lineWithCounters(10, 10, 0, 0),
			newQuantity: 12,
			wantErr:     false,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			itemID := tc.item.ID
			change := &models.AmendmentItem{
				OrderItemID: &itemID,
				ChangeType:  string(models.AmendmentItemModify),
				NewQuantity: tc.newQuantity,
			}

			err := guardRecordedChange(tc.item, change)

			if tc.wantErr {
				require.ErrorIs(t, err, errors.ErrConflict)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestGuardRecordedChangeRemoveUntouchedLine(t *testing.T) {
	t.Parallel()

	item := lineWithCounters(5, 0, 2, 0)
	itemID := item.ID
	change := &models.AmendmentItem{
		OrderItemID: &itemID,
		ChangeType:  string(models.AmendmentItemRemove),
	}

	// Backordered units do not block a removal, only fulfilled units do.
	require.NoError(t, guardRecordedChange(item, change))
}
