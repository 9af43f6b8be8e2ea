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

const versionColumns = `id, order_id, version_number, items, subtotal_cents, discount_cents,
		tax_cents, total_cents, change_summary, created_by, created_at`

// VersionRepository handles database operations for order version snapshots.
// Snapshots are insert-only; there is no update path.
type VersionRepository struct {
	db     *database.Database
	logger logger.Logger
}

// NewVersionRepository creates a new VersionRepository
func NewVersionRepository(db *database.Database, logger logger.Logger) *VersionRepository {
	return &VersionRepository{
		db:     db,
		logger: logger,
	}
}

// CreateInTx inserts a version snapshot within a transaction
func (r *VersionRepository) CreateInTx(tx *sqlx.Tx, version *models.OrderVersion) error {
	query := `
		INSERT INTO order_versions (id, order_id, version_number, items, subtotal_cents,
			discount_cents, tax_cents, total_cents, change_summary, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := tx.Exec(
		query,
		version.ID,
		version.OrderID,
		version.VersionNumber,
		version.Items,
		version.SubtotalCents,
		version.DiscountCents,
		version.TaxCents,
		version.TotalCents,
		version.ChangeSummary,
		version.CreatedBy,
		version.CreatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create order version in transaction: %w", err)
	}

	return nil
}

// GetByOrderID retrieves all snapshots of an order, newest first
func (r *VersionRepository) GetByOrderID(ctx context.Context, orderID string) ([]*models.OrderVersion, error) {
	query := `SELECT ` + versionColumns + ` FROM order_versions WHERE order_id = $1 ORDER BY version_number DESC`

	var versions []*models.OrderVersion
	err := r.db.DB.SelectContext(ctx, &versions, query, orderID)

	if err != nil {
		r.logger.Error("Failed to get order versions", "error", err, "orderID", orderID)
		return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return versions, nil
}

// GetByVersionNumber retrieves one snapshot of an order
func (r *VersionRepository) GetByVersionNumber(ctx context.Context, orderID string, versionNumber int) (*models.OrderVersion, error) {
	query := `SELECT ` + versionColumns + ` FROM order_versions WHERE order_id = $1 AND version_number = $2`

	var version models.OrderVersion
	err := r.db.DB.GetContext(ctx, &version, query, orderID, versionNumber)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		r.logger.Error("Failed to get order version", "error", err, "orderID", orderID, "version", versionNumber)
		return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return &version, nil
}
