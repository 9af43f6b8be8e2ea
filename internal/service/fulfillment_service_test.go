package service

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/retailworks/pos-backoffice/pkg/errors"
)

func TestBackorderUnitsPartial(t *testing.T) {
	t.Parallel()

	item := lineWithCounters(10, 3, 0, 0)

	require.NoError(t, backorderUnits(item, 4))
	require.Equal(t, 4, item.QuantityBackordered)
	require.Equal(t, 3, item.QuantityFulfilled)

	// A second partial move on the same line stays within the order.
	require.NoError(t, backorderUnits(item, 3))
	require.Equal(t, 7, item.QuantityBackordered)
}

func TestBackorderUnitsRejectsOverAllocation(t *testing.T) {
	t.Parallel()

	item := lineWithCounters(10, 6, 2, 0)

	err := backorderUnits(item, 3)

	require.ErrorIs(t, err, errors.ErrConflict)
	require.Equal(t, 2, item.QuantityBackordered)
}

func TestBackorderUnitsExactRemainder(t *testing.T) {
	t.Parallel()

	item := lineWithCounters(10, 6, 2, 1)

	require.NoError(t, backorderUnits(item, 1))
	require.Equal(t, 3, item.QuantityBackordered)

	err := backorderUnits(item, 1)
	require.ErrorIs(t, err, errors.ErrConflict)
}
