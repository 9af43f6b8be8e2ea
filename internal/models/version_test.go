package models

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func snapshotWith(orderID string, number int, totalCents int64, items ...VersionItem) *OrderVersion {
	return &OrderVersion{
		ID:            GenerateID("ver"),
		OrderID:       orderID,
		VersionNumber: number,
		Items:         items,
		TotalCents:    totalCents,
	}
}

func TestNewOrderVersionCapturesItems(t *testing.T) {
	t.Parallel()

	order := NewOrder("SO-1001", "cust-1", "US-CA")
	items := []*OrderItem{
		NewOrderItem(order.ID, "prod-1", "Espresso Machine", 2, 45000, nil),
		NewOrderItem(order.ID, "prod-2", "Grinder", 1, 12000, nil),
	}
	order.ApplyTotals(SubtotalFromItems(items), 8200)

	version := NewOrderVersion(order, items, 3, "amendment 2 applied", "clerk-7")

	require.Equal(t, order.ID, version.OrderID)
	require.Equal(t, 3, version.VersionNumber)
	require.Len(t, version.Items, 2)
	require.Equal(t, "prod-1", version.Items[0].ProductID)
	require.Equal(t, 2, version.Items[0].Quantity)
	require.Equal(t, int64(45000), version.Items[0].UnitPriceCents)
	require.Equal(t, order.TotalCents, version.TotalCents)
	require.Equal(t, "amendment 2 applied", version.ChangeSummary)
}

func TestNewOrderVersionKeepsPreImage(t *testing.T) {
	t.Parallel()

	order := NewOrder("SO-1002", "cust-1", "US-CA")
	items := []*OrderItem{
		NewOrderItem(order.ID, "prod-1", "Espresso Machine", 2, 45000, nil),
	}

	before := NewOrderVersion(order, items, 1, "before amendment 1", "clerk-7")

	// Mutations after the snapshot must not leak into it. The apply flow
	// relies on this: the before snapshot is taken from the same item
	// structs that are changed moments later in the same transaction.
	items[0].SetQuantity(5, 45000)
	after := NewOrderVersion(order, items, 2, "amendment 1 applied", "clerk-7")

	require.Equal(t, 2, before.Items[0].Quantity)
	require.Equal(t, 5, after.Items[0].Quantity)

	diff := DiffVersions(before, after)
	require.Len(t, diff.Changes, 1)
	require.Equal(t, VersionChangeModified, diff.Changes[0].ChangeType)
}

func TestDiffVersionsClassifiesChanges(t *testing.T) {
	t.Parallel()

	from := snapshotWith("ord-1", 1, 100000,
		VersionItem{ProductID: "prod-1", ProductName: "Espresso Machine", Quantity: 1, UnitPriceCents: 45000},
		VersionItem{ProductID: "prod-2", ProductName: "Grinder", Quantity: 2, UnitPriceCents: 12000},
	)
	to := snapshotWith("ord-1", 2, 121000,
		VersionItem{ProductID: "prod-1", ProductName: "Espresso Machine", Quantity: 3, UnitPriceCents: 45000},
		VersionItem{ProductID: "prod-3", ProductName: "Kettle", Quantity: 1, UnitPriceCents: 4000},
	)

	diff := DiffVersions(from, to)

	require.Equal(t, "ord-1", diff.OrderID)
	require.Equal(t, 1, diff.FromVersion)
	require.Equal(t, 2, diff.ToVersion)
	require.Equal(t, int64(21000), diff.TotalDifferenceCents)
	require.Len(t, diff.Changes, 3)

	byProduct := make(map[string]VersionChange)

	for _, c := range diff.Changes {
		byProduct[c.ProductID] = c
	}

	modified := byProduct["prod-1"]
	require.Equal(t, VersionChangeModified, modified.ChangeType)
	require.Equal(t, 1, modified.PreviousQuantity)
	require.Equal(t, 3, modified.NewQuantity)

	added := byProduct["prod-3"]
	require.Equal(t, VersionChangeAdded, added.ChangeType)
	require.Equal(t, 1, added.NewQuantity)

	removed := byProduct["prod-2"]
	require.Equal(t, VersionChangeRemoved, removed.ChangeType)
	require.Equal(t, 2, removed.PreviousQuantity)
}

func TestDiffVersionsAggregatesSplitLines(t *testing.T) {
	t.Parallel()

	// Two lines of the same product in "from", one line in "to": the
	// quantities must be summed per product before comparing, otherwise
	// the dropped line would vanish from the diff.
	from := snapshotWith("ord-1", 1, 90000,
		VersionItem{ProductID: "prod-1", ProductName: "Espresso Machine", Quantity: 1, UnitPriceCents: 45000},
		VersionItem{ProductID: "prod-1", ProductName: "Espresso Machine", Quantity: 1, UnitPriceCents: 45000},
	)
	to := snapshotWith("ord-1", 2, 45000,
		VersionItem{ProductID: "prod-1", ProductName: "Espresso Machine", Quantity: 1, UnitPriceCents: 45000},
	)

	diff := DiffVersions(from, to)

	require.NotEmpty(t, diff.Changes)
	require.Len(t, diff.Changes, 1)
	require.Equal(t, VersionChangeModified, diff.Changes[0].ChangeType)
	require.Equal(t, 2, diff.Changes[0].PreviousQuantity)
	require.Equal(t, 1, diff.Changes[0].NewQuantity)
	require.Equal(t, int64(-45000), diff.TotalDifferenceCents)

	// Removing the product entirely reports the aggregated quantity once.
	empty := snapshotWith("ord-1", 3, 0)
	gone := DiffVersions(from, empty)

	require.Len(t, gone.Changes, 1)
	require.Equal(t, VersionChangeRemoved, gone.Changes[0].ChangeType)
	require.Equal(t, 2, gone.Changes[0].PreviousQuantity)
}

func TestDiffVersionsIdenticalSnapshots(t *testing.T) {
	t.Parallel()

	item := VersionItem{ProductID: "prod-1", ProductName: "Grinder", Quantity: 2, UnitPriceCents: 12000}
	from := snapshotWith("ord-1", 1, 24000, item)
	to := snapshotWith("ord-1", 2, 24000, item)

	diff := DiffVersions(from, to)

	require.Empty(t, diff.Changes)
	require.Zero(t, diff.TotalDifferenceCents)
}

func TestDiffVersionsSwappedArgumentsMirror(t *testing.T) {
	t.Parallel()

	from := snapshotWith("ord-1", 1, 45000,
		VersionItem{ProductID: "prod-1", ProductName: "Espresso Machine", Quantity: 1, UnitPriceCents: 45000},
	)
	to := snapshotWith("ord-1", 2, 57000,
		VersionItem{ProductID: "prod-1", ProductName: "Espresso Machine", Quantity: 1, UnitPriceCents: 45000},
		VersionItem{ProductID: "prod-2", ProductName: "Grinder", Quantity: 1, UnitPriceCents: 12000},
	)

	forward := DiffVersions(from, to)
	backward := DiffVersions(to, from)

	require.Equal(t, forward.TotalDifferenceCents, -backward.TotalDifferenceCents)
	require.Len(t, forward.Changes, 1)
	require.Len(t, backward.Changes, 1)
	require.Equal(t, VersionChangeAdded, forward.Changes[0].ChangeType)
	require.Equal(t, VersionChangeRemoved, backward.Changes[0].ChangeType)
}
