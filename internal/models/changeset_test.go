package models

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestChangeSetValidate(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		changes ChangeSet
		wantErr string
	}{
		{
			name:    "empty set is a valid checkpoint",
			changes: ChangeSet{},
		},
		{
			name: "valid mixed set",
			changes: ChangeSet{
				AddItems:    []AddItemChange{{ProductID: "prod-1", Quantity: 2}},
				RemoveItems: []RemoveItemChange{{OrderItemID: "itm-1"}},
				ModifyItems: []ModifyItemChange{{OrderItemID: "itm-2", NewQuantity: 5}},
			},
		},
		{
			name:    "add without product",
			changes: ChangeSet{AddItems: []AddItemChange{{Quantity: 2}}},
			wantErr: "product_id is required",
		},
		{
			name:    "add with zero quantity",
			changes: ChangeSet{AddItems: []AddItemChange{{ProductID: "prod-1"}}},
			wantErr: "quantity must be positive",
		},
		{
			name:    "remove without item reference",
			changes: ChangeSet{RemoveItems: []RemoveItemChange{{}}},
			wantErr: "order_item_id is required",
		},
		{
			name:    "modify to zero quantity",
			changes: ChangeSet{ModifyItems: []ModifyItemChange{{OrderItemID: "itm-1", NewQuantity: 0}}},
			wantErr: "new_quantity must be positive",
		},
		{
			name:    "modify to negative quantity",
			changes: ChangeSet{ModifyItems: []ModifyItemChange{{OrderItemID: "itm-1", NewQuantity: -3}}},
			wantErr: "new_quantity must be positive",
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			err := tc.changes.Validate()

			if tc.wantErr == "" {
				require.NoError(t, err)
			} else {
				require.ErrorContains(t, err, tc.wantErr)
			}
		})
	}
}

func TestChangeSetCount(t *testing.T) {
	t.Parallel()

	changes := ChangeSet{
		AddItems:    []AddItemChange{{ProductID: "prod-1", Quantity: 1}, {ProductID: "prod-2", Quantity: 1}},
		ModifyItems: []ModifyItemChange{{OrderItemID: "itm-1", NewQuantity: 3}},
	}

	require.Equal(t, 3, changes.Count())
	require.False(t, changes.IsEmpty())
	require.True(t, (&ChangeSet{}).IsEmpty())
}

func TestDeriveAmendmentType(t *testing.T) {
	t.Parallel()

	add := ChangeSet{AddItems: []AddItemChange{{ProductID: "p", Quantity: 1}}}
	remove := ChangeSet{RemoveItems: []RemoveItemChange{{OrderItemID: "i"}}}
	modify := ChangeSet{ModifyItems: []ModifyItemChange{{OrderItemID: "i", NewQuantity: 2}}}
	mixed := ChangeSet{
		AddItems:    add.AddItems,
		RemoveItems: remove.RemoveItems,
	}

	require.Equal(t, AmendmentTypeItemAdded, add.DeriveAmendmentType())
	require.Equal(t, AmendmentTypeItemRemoved, remove.DeriveAmendmentType())
	require.Equal(t, AmendmentTypeItemModified, modify.DeriveAmendmentType())
	require.Equal(t, AmendmentTypeMultiChange, mixed.DeriveAmendmentType())
	require.Equal(t, AmendmentTypeMultiChange, (&ChangeSet{}).DeriveAmendmentType())
}
