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

const amendmentColumns = `id, order_id, amendment_number, amendment_type, status,
		previous_total_cents, new_total_cents, difference_cents, use_quote_prices,
		requires_approval, item_changes, reason, rejection_reason, approval_notes,
		created_by, approved_by, created_at, approved_at, applied_at`

// AmendmentRepository handles database operations for amendments
type AmendmentRepository struct {
	db     *database.Database
	logger logger.Logger
}

// NewAmendmentRepository creates a new AmendmentRepository
func NewAmendmentRepository(db *database.Database, logger logger.Logger) *AmendmentRepository {
	return &AmendmentRepository{
		db:     db,
		logger: logger,
	}
}

// CreateInTx inserts an amendment and its items within a transaction
func (r *AmendmentRepository) CreateInTx(tx *sqlx.Tx, amendment *models.Amendment, items []*models.AmendmentItem) error {
	query := `
		INSERT INTO amendments (id, order_id, amendment_number, amendment_type, status,
			previous_total_cents, new_total_cents, difference_cents, use_quote_prices,
			requires_approval, item_changes, reason, rejection_reason, approval_notes,
			created_by, approved_by, created_at, approved_at, applied_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
	`

	_, err := tx.Exec(
		query,
		amendment.ID,
		amendment.OrderID,
		amendment.AmendmentNumber,
		amendment.AmendmentType,
		amendment.Status,
		amendment.PreviousCents,
		amendment.NewCents,
		amendment.DifferenceCents,
		amendment.UseQuotePrices,
		amendment.RequiresApproval,
		amendment.ItemChanges,
		amendment.Reason,
		amendment.RejectionReason,
		amendment.ApprovalNotes,
		amendment.CreatedBy,
		amendment.ApprovedBy,
		amendment.CreatedAt,
		amendment.ApprovedAt,
		amendment.AppliedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create amendment in transaction: %w", err)
	}

	itemQuery := `
		INSERT INTO amendment_items (id, amendment_id, order_item_id, product_id, product_name,
			change_type, previous_quantity, new_quantity, unit_price_cents, reason)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	for _, item := range items {
		_, err := tx.Exec(
			itemQuery,
			item.ID,
			item.AmendmentID,
			item.OrderItemID,
			item.ProductID,
			item.ProductName,
			item.ChangeType,
			item.PreviousQuantity,
			item.NewQuantity,
			item.UnitPriceCents,
			item.Reason,
		)

		if err != nil {
			return fmt.Errorf("failed to create amendment item in transaction: %w", err)
		}
	}

	return nil
}

// GetByID retrieves an amendment by its ID
func (r *AmendmentRepository) GetByID(ctx context.Context, id string) (*models.Amendment, error) {
	query := `SELECT ` + amendmentColumns + ` FROM amendments WHERE id = $1`

	var amendment models.Amendment
	err := r.db.DB.GetContext(ctx, &amendment, query, id)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		r.logger.Error("Failed to get amendment", "error", err, "amendmentID", id)
		return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return &amendment, nil
}

// GetByIDForUpdate retrieves an amendment inside a transaction with a row
// lock, serializing concurrent decisions on the same amendment
func (r *AmendmentRepository) GetByIDForUpdate(tx *sqlx.Tx, id string) (*models.Amendment, error) {
	query := `SELECT ` + amendmentColumns + ` FROM amendments WHERE id = $1 FOR UPDATE`

	var amendment models.Amendment
	err := tx.Get(&amendment, query, id)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return &amendment, nil
}

// UpdateStatusInTx persists a state transition within a transaction
func (r *AmendmentRepository) UpdateStatusInTx(tx *sqlx.Tx, amendment *models.Amendment) error {
	query := `
		UPDATE amendments
		SET status = $1, rejection_reason = $2, approval_notes = $3,
			approved_by = $4, approved_at = $5, applied_at = $6
		WHERE id = $7
	`

	result, err := tx.Exec(
		query,
		amendment.Status,
		amendment.RejectionReason,
		amendment.ApprovalNotes,
		amendment.ApprovedBy,
		amendment.ApprovedAt,
		amendment.AppliedAt,
		amendment.ID,
	)

	if err != nil {
		return fmt.Errorf("failed to update amendment status in transaction: %w", err)
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

// GetByOrderID retrieves all amendments of an order, newest first
func (r *AmendmentRepository) GetByOrderID(ctx context.Context, orderID string) ([]*models.Amendment, error) {
	query := `SELECT ` + amendmentColumns + ` FROM amendments WHERE order_id = $1 ORDER BY amendment_number DESC`

	var amendments []*models.Amendment
	err := r.db.DB.SelectContext(ctx, &amendments, query, orderID)

	if err != nil {
		r.logger.Error("Failed to get amendments by order", "error", err, "orderID", orderID)
		return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return amendments, nil
}

// GetPending retrieves the global queue of amendments awaiting approval
func (r *AmendmentRepository) GetPending(ctx context.Context, limit int) ([]*models.Amendment, error) {
	query := `SELECT ` + amendmentColumns + ` FROM amendments WHERE status = $1 ORDER BY created_at ASC LIMIT $2`

	var amendments []*models.Amendment
	err := r.db.DB.SelectContext(ctx, &amendments, query, models.AmendmentStatusPendingApproval, limit)

	if err != nil {
		r.logger.Error("Failed to get pending amendments", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return amendments, nil
}

// GetItems retrieves the per-line deltas of an amendment
func (r *AmendmentRepository) GetItems(ctx context.Context, amendmentID string) ([]*models.AmendmentItem, error) {
	query := `
		SELECT id, amendment_id, order_item_id, product_id, product_name, change_type,
			previous_quantity, new_quantity, unit_price_cents, reason
		FROM amendment_items
		WHERE amendment_id = $1
	`

	var items []*models.AmendmentItem
	err := r.db.DB.SelectContext(ctx, &items, query, amendmentID)

	if err != nil {
		r.logger.Error("Failed to get amendment items", "error", err, "amendmentID", amendmentID)
		return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return items, nil
}

// GetItemsInTx retrieves the per-line deltas of an amendment in a transaction
func (r *AmendmentRepository) GetItemsInTx(tx *sqlx.Tx, amendmentID string) ([]*models.AmendmentItem, error) {
	query := `
		SELECT id, amendment_id, order_item_id, product_id, product_name, change_type,
			previous_quantity, new_quantity, unit_price_cents, reason
		FROM amendment_items
		WHERE amendment_id = $1
	`

	var items []*models.AmendmentItem
	err := tx.Select(&items, query, amendmentID)

	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return items, nil
}
