package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/retailworks/pos-backoffice/internal/database"
	"github.com/retailworks/pos-backoffice/internal/models"
	"github.com/retailworks/pos-backoffice/pkg/logger"
)

// ShipmentRepository handles database operations for shipments
type ShipmentRepository struct {
	db     *database.Database
	logger logger.Logger
}

// NewShipmentRepository creates a new ShipmentRepository
func NewShipmentRepository(db *database.Database, logger logger.Logger) *ShipmentRepository {
	return &ShipmentRepository{
		db:     db,
		logger: logger,
	}
}

// CreateInTx inserts a shipment and its line items within a transaction
func (r *ShipmentRepository) CreateInTx(tx *sqlx.Tx, shipment *models.Shipment, items []*models.ShipmentItem) error {
	query := `
		INSERT INTO shipments (id, order_id, shipment_number, carrier, tracking_number,
			status, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := tx.Exec(
		query,
		shipment.ID,
		shipment.OrderID,
		shipment.ShipmentNumber,
		shipment.Carrier,
		shipment.TrackingNumber,
		shipment.Status,
		shipment.CreatedBy,
		shipment.CreatedAt,
		shipment.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create shipment in transaction: %w", err)
	}

	itemQuery := `
		INSERT INTO shipment_items (id, shipment_id, order_item_id, quantity_shipped, serial_numbers)
		VALUES ($1, $2, $3, $4, $5)
	`

	for _, item := range items {
		_, err := tx.Exec(
			itemQuery,
			item.ID,
			item.ShipmentID,
			item.OrderItemID,
			item.QuantityShipped,
			item.SerialNumbers,
		)

		if err != nil {
			return fmt.Errorf("failed to create shipment item in transaction: %w", err)
		}
	}

	return nil
}

// GetByOrderID retrieves all shipments of an order
func (r *ShipmentRepository) GetByOrderID(ctx context.Context, orderID string) ([]*models.Shipment, error) {
	query := `
		SELECT id, order_id, shipment_number, carrier, tracking_number, status,
			created_by, created_at, updated_at
		FROM shipments
		WHERE order_id = $1
		ORDER BY shipment_number ASC
	`

	var shipments []*models.Shipment
	err := r.db.DB.SelectContext(ctx, &shipments, query, orderID)

	if err != nil {
		r.logger.Error("Failed to get shipments by order", "error", err, "orderID", orderID)
		return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return shipments, nil
}

// GetItems retrieves the line items of a shipment
func (r *ShipmentRepository) GetItems(ctx context.Context, shipmentID string) ([]*models.ShipmentItem, error) {
	query := `
		SELECT id, shipment_id, order_item_id, quantity_shipped, serial_numbers
		FROM shipment_items
		WHERE shipment_id = $1
	`

	var items []*models.ShipmentItem
	err := r.db.DB.SelectContext(ctx, &items, query, shipmentID)

	if err != nil {
		r.logger.Error("Failed to get shipment items", "error", err, "shipmentID", shipmentID)
		return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return items, nil
}
