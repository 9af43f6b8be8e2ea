package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/retailworks/pos-backoffice/internal/database"
	"github.com/retailworks/pos-backoffice/internal/models"
	"github.com/retailworks/pos-backoffice/pkg/logger"
)

var (
	ErrNotFound = errors.New("record not found")
	ErrDatabase = errors.New("database error")
)

const orderColumns = `id, order_number, customer_id, status, subtotal_cents, discount_cents,
		tax_cents, total_cents, price_locked, price_lock_until, quote_id, jurisdiction,
		current_version, created_at, updated_at`

const orderItemColumns = `id, order_id, product_id, product_name, quantity, unit_price_cents,
		line_total_cents, quote_price_cents, quantity_fulfilled, quantity_backordered,
		quantity_cancelled, created_at, updated_at`

// OrderRepository handles database operations for orders and their items
type OrderRepository struct {
	db     *database.Database
	logger logger.Logger
}

// NewOrderRepository creates a new OrderRepository
func NewOrderRepository(db *database.Database, logger logger.Logger) *OrderRepository {
	return &OrderRepository{
		db:     db,
		logger: logger,
	}
}

// GetByID retrieves an order by its ID without locking
func (r *OrderRepository) GetByID(ctx context.Context, id string) (*models.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	var order models.Order
	err := r.db.DB.GetContext(ctx, &order, query, id)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		r.logger.Error("Failed to get order by ID", "error", err, "orderID", id)
		return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return &order, nil
}

// GetByIDForUpdate retrieves an order inside a transaction with a row lock.
// Concurrent multi-statement operations on the same order serialize here.
func (r *OrderRepository) GetByIDForUpdate(tx *sqlx.Tx, id string) (*models.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1 FOR UPDATE`

	var order models.Order
	err := tx.Get(&order, query, id)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return &order, nil
}

// GetAll retrieves orders with limit and offset
func (r *OrderRepository) GetAll(ctx context.Context, limit, offset int) ([]*models.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders ORDER BY created_at DESC LIMIT $1 OFFSET $2`

	var orders []*models.Order
	err := r.db.DB.SelectContext(ctx, &orders, query, limit, offset)

	if err != nil {
		r.logger.Error("Failed to get all orders", "error", err, "limit", limit, "offset", offset)
		return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return orders, nil
}

// Count counts the total number of orders
func (r *OrderRepository) Count(ctx context.Context) (int, error) {
	var count int

	err := r.db.DB.GetContext(ctx, &count, `SELECT COUNT(*) FROM orders`)

	if err != nil {
		r.logger.Error("Failed to count orders", "error", err)
		return 0, fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return count, nil
}

// CreateInTx inserts a new order within a transaction
func (r *OrderRepository) CreateInTx(tx *sqlx.Tx, order *models.Order) error {
	query := `
		INSERT INTO orders (id, order_number, customer_id, status, subtotal_cents, discount_cents,
			tax_cents, total_cents, price_locked, price_lock_until, quote_id, jurisdiction,
			current_version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`

	_, err := tx.Exec(
		query,
		order.ID,
		order.OrderNumber,
		order.CustomerID,
		order.Status,
		order.SubtotalCents,
		order.DiscountCents,
		order.TaxCents,
		order.TotalCents,
		order.PriceLocked,
		order.PriceLockUntil,
		order.QuoteID,
		order.Jurisdiction,
		order.CurrentVersion,
		order.CreatedAt,
		order.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create order in transaction: %w", err)
	}

	return nil
}

// UpdateInTx updates an order's totals, lock state and version in a transaction
func (r *OrderRepository) UpdateInTx(tx *sqlx.Tx, order *models.Order) error {
	query := `
		UPDATE orders
		SET status = $1, subtotal_cents = $2, discount_cents = $3, tax_cents = $4,
			total_cents = $5, price_locked = $6, price_lock_until = $7, quote_id = $8,
			current_version = $9, updated_at = $10
		WHERE id = $11
	`

	result, err := tx.Exec(
		query,
		order.Status,
		order.SubtotalCents,
		order.DiscountCents,
		order.TaxCents,
		order.TotalCents,
		order.PriceLocked,
		order.PriceLockUntil,
		order.QuoteID,
		order.CurrentVersion,
		models.GetCurrentTime(),
		order.ID,
	)

	if err != nil {
		return fmt.Errorf("failed to update order in transaction: %w", err)
	}

	rowsAffected, err := result.RowsAffected()

	if err != nil {
		return fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// GetItems retrieves all items of an order without locking
func (r *OrderRepository) GetItems(ctx context.Context, orderID string) ([]*models.OrderItem, error) {
	query := `SELECT ` + orderItemColumns + ` FROM order_items WHERE order_id = $1 ORDER BY created_at ASC`

	var items []*models.OrderItem
	err := r.db.DB.SelectContext(ctx, &items, query, orderID)

	if err != nil {
		r.logger.Error("Failed to get order items", "error", err, "orderID", orderID)
		return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return items, nil
}

// GetItemsInTx retrieves all items of an order within a transaction
func (r *OrderRepository) GetItemsInTx(tx *sqlx.Tx, orderID string) ([]*models.OrderItem, error) {
	query := `SELECT ` + orderItemColumns + ` FROM order_items WHERE order_id = $1 ORDER BY created_at ASC`

	var items []*models.OrderItem
	err := tx.Select(&items, query, orderID)

	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return items, nil
}

// InsertItemInTx inserts an order item within a transaction
func (r *OrderRepository) InsertItemInTx(tx *sqlx.Tx, item *models.OrderItem) error {
	query := `
		INSERT INTO order_items (id, order_id, product_id, product_name, quantity,
			unit_price_cents, line_total_cents, quote_price_cents, quantity_fulfilled,
			quantity_backordered, quantity_cancelled, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err := tx.Exec(
		query,
		item.ID,
		item.OrderID,
		item.ProductID,
		item.ProductName,
		item.Quantity,
		item.UnitPriceCents,
		item.LineTotalCents,
		item.QuotePriceCents,
		item.QuantityFulfilled,
		item.QuantityBackordered,
		item.QuantityCancelled,
		item.CreatedAt,
		item.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to insert order item in transaction: %w", err)
	}

	return nil
}

// UpdateItemInTx updates an order item's quantity, pricing and fulfillment
// counters within a transaction
func (r *OrderRepository) UpdateItemInTx(tx *sqlx.Tx, item *models.OrderItem) error {
	query := `
		UPDATE order_items
		SET quantity = $1, unit_price_cents = $2, line_total_cents = $3,
			quantity_fulfilled = $4, quantity_backordered = $5, quantity_cancelled = $6,
			updated_at = $7
		WHERE id = $8
	`

	result, err := tx.Exec(
		query,
		item.Quantity,
		item.UnitPriceCents,
		item.LineTotalCents,
		item.QuantityFulfilled,
		item.QuantityBackordered,
		item.QuantityCancelled,
		models.GetCurrentTime(),
		item.ID,
	)

	if err != nil {
		return fmt.Errorf("failed to update order item in transaction: %w", err)
	}

	rowsAffected, err := result.RowsAffected()

	if err != nil {
		return fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// DeleteItemInTx removes an order item within a transaction
func (r *OrderRepository) DeleteItemInTx(tx *sqlx.Tx, itemID string) error {
	result, err := tx.Exec(`DELETE FROM order_items WHERE id = $1`, itemID)

	if err != nil {
		return fmt.Errorf("failed to delete order item in transaction: %w", err)
	}

	rowsAffected, err := result.RowsAffected()

	if err != nil {
		return fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}
