package repository

import (
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/retailworks/pos-backoffice/internal/database"
	"github.com/retailworks/pos-backoffice/pkg/logger"
)

// Sequence names maintained per order
const (
	SequenceAmendment = "amendment"
	SequenceShipment  = "shipment"
	SequenceVersion   = "version"
)

// SequenceRepository maintains per-order counters for amendment, shipment and
// version numbers. Counters advance transactionally so numbers are gapless
// and collision-free when terminals race on the same order.
type SequenceRepository struct {
	db     *database.Database
	logger logger.Logger
}

// NewSequenceRepository creates a new SequenceRepository
func NewSequenceRepository(db *database.Database, logger logger.Logger) *SequenceRepository {
	return &SequenceRepository{
		db:     db,
		logger: logger,
	}
}

// NextValueInTx advances the named counter for an order and returns the new
// value. Must be called with the order row already locked so concurrent
// allocations for the same order serialize.
func (r *SequenceRepository) NextValueInTx(tx *sqlx.Tx, orderID, sequenceName string) (int, error) {
	query := `
		INSERT INTO order_sequences (order_id, sequence_name, last_value)
		VALUES ($1, $2, 1)
		ON CONFLICT (order_id, sequence_name)
		DO UPDATE SET last_value = order_sequences.last_value + 1
		RETURNING last_value
	`

	var value int
	err := tx.QueryRow(query, orderID, sequenceName).Scan(&value)

	if err != nil {
		return 0, fmt.Errorf("failed to advance %s sequence for order %s: %w", sequenceName, orderID, err)
	}

	return value, nil
}
