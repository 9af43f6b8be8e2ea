package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // PostgreSQL driver

	"github.com/retailworks/pos-backoffice/internal/config"
	"github.com/retailworks/pos-backoffice/pkg/logger"
)

// Database represents a database connection
type Database struct {
	DB     *sqlx.DB
	logger logger.Logger
}

// New creates a new database connection
func New(cfg *config.Config, logger logger.Logger) (*Database, error) {
	db, err := sqlx.Connect("postgres", cfg.GetDBConnString())

	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	logger.Info("Connected to database", "host", cfg.DB.Host, "database", cfg.DB.Name)

	return &Database{
		DB:     db,
		logger: logger,
	}, nil
}

// BeginTx starts a transaction. Every multi-statement engine operation runs
// inside one of these; a failure anywhere rolls back all partial writes.
func (d *Database) BeginTx(ctx context.Context) (*sqlx.Tx, error) {
	tx, err := d.DB.BeginTxx(ctx, nil)

	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}

	return tx, nil
}

// Ping checks the database connection
func (d *Database) Ping(ctx context.Context) error {
	return d.DB.PingContext(ctx)
}

// Close closes the database connection
func (d *Database) Close() error {
	return d.DB.Close()
}

// RunMigrations creates the schema. For initial setup tables are created
// directly; a real deployment would use a migration tool.
func (d *Database) RunMigrations() error {
	schema := `
	CREATE TABLE IF NOT EXISTS products (
		id VARCHAR(50) PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		sku VARCHAR(100) NOT NULL DEFAULT '',
		price_cents BIGINT NOT NULL,
		active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMP NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMP NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS orders (
		id VARCHAR(50) PRIMARY KEY,
		order_number VARCHAR(50) NOT NULL,
		customer_id VARCHAR(50) NOT NULL,
		status VARCHAR(20) NOT NULL,
		subtotal_cents BIGINT NOT NULL DEFAULT 0,
		discount_cents BIGINT NOT NULL DEFAULT 0,
		tax_cents BIGINT NOT NULL DEFAULT 0,
		total_cents BIGINT NOT NULL DEFAULT 0,
		price_locked BOOLEAN NOT NULL DEFAULT FALSE,
		price_lock_until TIMESTAMP,
		quote_id VARCHAR(50),
		jurisdiction VARCHAR(50) NOT NULL DEFAULT '',
		current_version INT NOT NULL DEFAULT 0,
		created_at TIMESTAMP NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMP NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_orders_customer_id ON orders(customer_id);
	CREATE INDEX IF NOT EXISTS idx_orders_status ON orders(status);

	CREATE TABLE IF NOT EXISTS order_items (
		id VARCHAR(50) PRIMARY KEY,
		order_id VARCHAR(50) NOT NULL REFERENCES orders(id),
		product_id VARCHAR(50) NOT NULL,
		product_name VARCHAR(255) NOT NULL,
		quantity INT NOT NULL,
		unit_price_cents BIGINT NOT NULL,
		line_total_cents BIGINT NOT NULL,
		quote_price_cents BIGINT,
		quantity_fulfilled INT NOT NULL DEFAULT 0,
		quantity_backordered INT NOT NULL DEFAULT 0,
		quantity_cancelled INT NOT NULL DEFAULT 0,
		created_at TIMESTAMP NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMP NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_order_items_order_id ON order_items(order_id);

	CREATE TABLE IF NOT EXISTS amendments (
		id VARCHAR(50) PRIMARY KEY,
		order_id VARCHAR(50) NOT NULL REFERENCES orders(id),
		amendment_number INT NOT NULL,
		amendment_type VARCHAR(30) NOT NULL,
		status VARCHAR(30) NOT NULL,
		previous_total_cents BIGINT NOT NULL DEFAULT 0,
		new_total_cents BIGINT NOT NULL DEFAULT 0,
		difference_cents BIGINT NOT NULL DEFAULT 0,
		use_quote_prices BOOLEAN NOT NULL DEFAULT FALSE,
		requires_approval BOOLEAN NOT NULL DEFAULT FALSE,
		item_changes INT NOT NULL DEFAULT 0,
		reason TEXT NOT NULL DEFAULT '',
		rejection_reason TEXT,
		approval_notes TEXT,
		created_by VARCHAR(50) NOT NULL,
		approved_by VARCHAR(50),
		created_at TIMESTAMP NOT NULL DEFAULT NOW(),
		approved_at TIMESTAMP,
		applied_at TIMESTAMP,
		UNIQUE (order_id, amendment_number)
	);

	CREATE INDEX IF NOT EXISTS idx_amendments_order_id ON amendments(order_id);
	CREATE INDEX IF NOT EXISTS idx_amendments_status ON amendments(status);

	CREATE TABLE IF NOT EXISTS amendment_items (
		id VARCHAR(50) PRIMARY KEY,
		amendment_id VARCHAR(50) NOT NULL REFERENCES amendments(id),
		order_item_id VARCHAR(50),
		product_id VARCHAR(50) NOT NULL,
		product_name VARCHAR(255) NOT NULL,
		change_type VARCHAR(10) NOT NULL,
		previous_quantity INT NOT NULL DEFAULT 0,
		new_quantity INT NOT NULL DEFAULT 0,
		unit_price_cents BIGINT NOT NULL,
		reason TEXT NOT NULL DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_amendment_items_amendment_id ON amendment_items(amendment_id);

	CREATE TABLE IF NOT EXISTS order_versions (
		id VARCHAR(50) PRIMARY KEY,
		order_id VARCHAR(50) NOT NULL REFERENCES orders(id),
		version_number INT NOT NULL,
		items JSONB NOT NULL,
		subtotal_cents BIGINT NOT NULL DEFAULT 0,
		discount_cents BIGINT NOT NULL DEFAULT 0,
		tax_cents BIGINT NOT NULL DEFAULT 0,
		total_cents BIGINT NOT NULL DEFAULT 0,
		change_summary TEXT NOT NULL DEFAULT '',
		created_by VARCHAR(50) NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT NOW(),
		UNIQUE (order_id, version_number)
	);

	CREATE INDEX IF NOT EXISTS idx_order_versions_order_id ON order_versions(order_id);

	CREATE TABLE IF NOT EXISTS shipments (
		id VARCHAR(50) PRIMARY KEY,
		order_id VARCHAR(50) NOT NULL REFERENCES orders(id),
		shipment_number INT NOT NULL,
		carrier VARCHAR(100) NOT NULL DEFAULT '',
		tracking_number VARCHAR(100) NOT NULL DEFAULT '',
		status VARCHAR(20) NOT NULL,
		created_by VARCHAR(50) NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMP NOT NULL DEFAULT NOW(),
		UNIQUE (order_id, shipment_number)
	);

	CREATE INDEX IF NOT EXISTS idx_shipments_order_id ON shipments(order_id);

	CREATE TABLE IF NOT EXISTS shipment_items (
		id VARCHAR(50) PRIMARY KEY,
		shipment_id VARCHAR(50) NOT NULL REFERENCES shipments(id),
		order_item_id VARCHAR(50) NOT NULL,
		quantity_shipped INT NOT NULL,
		serial_numbers JSONB NOT NULL DEFAULT '[]'
	);

	CREATE INDEX IF NOT EXISTS idx_shipment_items_shipment_id ON shipment_items(shipment_id);

	-- Per-order counters for amendment, shipment and version numbers.
	-- Incremented under the same lock as the insert they number, so the
	-- sequences stay gapless and collision-free under concurrency.
	CREATE TABLE IF NOT EXISTS order_sequences (
		order_id VARCHAR(50) NOT NULL,
		sequence_name VARCHAR(30) NOT NULL,
		last_value INT NOT NULL DEFAULT 0,
		PRIMARY KEY (order_id, sequence_name)
	);

	-- Outbox table for event publishing
	CREATE TABLE IF NOT EXISTS outbox_messages (
		id SERIAL PRIMARY KEY,
		aggregate_type VARCHAR(50) NOT NULL,
		aggregate_id VARCHAR(50) NOT NULL,
		event_type VARCHAR(50) NOT NULL,
		payload JSONB NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT NOW(),
		processed_at TIMESTAMP,
		processing_attempts INT NOT NULL DEFAULT 0,
		last_error TEXT,
		status VARCHAR(20) NOT NULL DEFAULT 'pending'
	);

	CREATE INDEX IF NOT EXISTS idx_outbox_status ON outbox_messages(status);
	CREATE INDEX IF NOT EXISTS idx_outbox_aggregate ON outbox_messages(aggregate_type, aggregate_id);

	CREATE TABLE IF NOT EXISTS dead_letter_messages (
		id SERIAL PRIMARY KEY,
		original_message_id BIGINT NOT NULL,
		aggregate_type VARCHAR(50) NOT NULL,
		aggregate_id VARCHAR(50) NOT NULL,
		event_type VARCHAR(50) NOT NULL,
		payload JSONB NOT NULL,
		error_message TEXT NOT NULL DEFAULT '',
		failure_reason TEXT NOT NULL DEFAULT '',
		retry_count INT NOT NULL DEFAULT 0,
		last_retry_at TIMESTAMP,
		status VARCHAR(20) NOT NULL DEFAULT 'pending',
		created_at TIMESTAMP NOT NULL DEFAULT NOW(),
		resolved_at TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_dead_letter_status ON dead_letter_messages(status);
	`

	_, err := d.DB.Exec(schema)

	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	d.logger.Info("Database migrations completed successfully")
	return nil
}
