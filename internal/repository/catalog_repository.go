package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/retailworks/pos-backoffice/internal/database"
	"github.com/retailworks/pos-backoffice/internal/models"
	"github.com/retailworks/pos-backoffice/pkg/logger"
)

// CatalogRepository supplies current product prices for amendment additions
type CatalogRepository struct {
	db     *database.Database
	logger logger.Logger
}

// NewCatalogRepository creates a new CatalogRepository
func NewCatalogRepository(db *database.Database, logger logger.Logger) *CatalogRepository {
	return &CatalogRepository{
		db:     db,
		logger: logger,
	}
}

// GetByID retrieves a product by its ID
func (r *CatalogRepository) GetByID(ctx context.Context, id string) (*models.Product, error) {
	query := `
		SELECT id, name, sku, price_cents, active, created_at, updated_at
		FROM products
		WHERE id = $1
	`

	var product models.Product
	err := r.db.DB.GetContext(ctx, &product, query, id)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		r.logger.Error("Failed to get product", "error", err, "productID", id)
		return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return &product, nil
}

// Upsert creates or updates a catalog row
func (r *CatalogRepository) Upsert(ctx context.Context, product *models.Product) error {
	query := `
		INSERT INTO products (id, name, sku, price_cents, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id)
		DO UPDATE SET name = $2, sku = $3, price_cents = $4, active = $5, updated_at = $7
	`

	_, err := r.db.DB.ExecContext(
		ctx,
		query,
		product.ID,
		product.Name,
		product.SKU,
		product.PriceCents,
		product.Active,
		product.CreatedAt,
		models.GetCurrentTime(),
	)

	if err != nil {
		r.logger.Error("Failed to upsert product", "error", err, "productID", product.ID)
		return fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return nil
}
