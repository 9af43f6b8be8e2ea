package models

import (
	"time"
)

// Product is a catalog row supplying the current price for amendment adds
type Product struct {
	ID         string    `db:"id" json:"id"`
	Name       string    `db:"name" json:"name"`
	SKU        string    `db:"sku" json:"sku"`
	PriceCents int64     `db:"price_cents" json:"price_cents"`
	Active     bool      `db:"active" json:"active"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}
