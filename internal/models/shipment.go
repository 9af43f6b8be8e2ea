package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// ShipmentStatus defines the possible statuses for a shipment
type ShipmentStatus string

const (
	ShipmentStatusShipped   ShipmentStatus = "shipped"
	ShipmentStatusDelivered ShipmentStatus = "delivered"
)

// Shipment records a physical fulfillment event against an order
type Shipment struct {
	ID             string    `db:"id" json:"id"`
	OrderID        string    `db:"order_id" json:"order_id"`
	ShipmentNumber int       `db:"shipment_number" json:"shipment_number"`
	Carrier        string    `db:"carrier" json:"carrier"`
	TrackingNumber string    `db:"tracking_number" json:"tracking_number"`
	Status         string    `db:"status" json:"status"`
	CreatedBy      string    `db:"created_by" json:"created_by"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// SerialNumbers is stored as a JSONB column
type SerialNumbers []string

// Value implements driver.Valuer for JSONB storage
func (s SerialNumbers) Value() (driver.Value, error) {
	if s == nil {
		return json.Marshal([]string{})
	}

	return json.Marshal(s)
}

// Scan implements sql.Scanner for JSONB storage
func (s *SerialNumbers) Scan(src interface{}) error {
	if src == nil {
		*s = nil
		return nil
	}

	data, ok := src.([]byte)

	if !ok {
		return fmt.Errorf("cannot scan %T into SerialNumbers", src)
	}

	return json.Unmarshal(data, s)
}

// ShipmentItem records the shipped quantity for one order item. It references
// the order item by identity only; the order item remains owned by the order.
type ShipmentItem struct {
	ID              string        `db:"id" json:"id"`
	ShipmentID      string        `db:"shipment_id" json:"shipment_id"`
	OrderItemID     string        `db:"order_item_id" json:"order_item_id"`
	QuantityShipped int           `db:"quantity_shipped" json:"quantity_shipped"`
	SerialNumbers   SerialNumbers `db:"serial_numbers" json:"serial_numbers,omitempty"`
}

// NewShipment creates a shipment in the shipped state
func NewShipment(orderID string, number int, carrier, trackingNumber, createdBy string) *Shipment {
	now := GetCurrentTime()

	return &Shipment{
		ID:             GenerateID("shp"),
		OrderID:        orderID,
		ShipmentNumber: number,
		Carrier:        carrier,
		TrackingNumber: trackingNumber,
		Status:         string(ShipmentStatusShipped),
		CreatedBy:      createdBy,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// NewShipmentItem creates a shipment line against an order item
func NewShipmentItem(shipmentID, orderItemID string, quantityShipped int, serialNumbers []string) *ShipmentItem {
	return &ShipmentItem{
		ID:              GenerateID("shi"),
		ShipmentID:      shipmentID,
		OrderItemID:     orderItemID,
		QuantityShipped: quantityShipped,
		SerialNumbers:   serialNumbers,
	}
}
