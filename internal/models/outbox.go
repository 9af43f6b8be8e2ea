package models

import (
	"encoding/json"
	"time"
)

// OutboxStatus represents the status of an outbox message
type OutboxStatus string

const (
	OutboxStatusPending    OutboxStatus = "pending"
	OutboxStatusProcessing OutboxStatus = "processing"
	OutboxStatusCompleted  OutboxStatus = "completed"
	OutboxStatusFailed     OutboxStatus = "failed"
)

// Event types published by the amendment engine
const (
	EventOrderCreated       = "order_created"
	EventPriceLockChanged   = "price_lock_changed"
	EventAmendmentCreated   = "amendment_created"
	EventAmendmentApproved  = "amendment_approved"
	EventAmendmentRejected  = "amendment_rejected"
	EventAmendmentApplied   = "amendment_applied"
	EventShipmentCreated    = "shipment_created"
	EventItemsBackordered   = "items_backordered"
)

// OutboxMessage represents a message to be published from the outbox table
type OutboxMessage struct {
	ID                 int64        `db:"id" json:"id"`
	AggregateType      string       `db:"aggregate_type" json:"aggregate_type"`
	AggregateID        string       `db:"aggregate_id" json:"aggregate_id"`
	EventType          string       `db:"event_type" json:"event_type"`
	Payload            []byte       `db:"payload" json:"payload"`
	CreatedAt          time.Time    `db:"created_at" json:"created_at"`
	ProcessedAt        *time.Time   `db:"processed_at" json:"processed_at,omitempty"`
	ProcessingAttempts int          `db:"processing_attempts" json:"processing_attempts"`
	LastError          *string      `db:"last_error" json:"last_error,omitempty"`
	Status             OutboxStatus `db:"status" json:"status"`
}

// OutboxMessageEvent represents the event data carried in the payload
type OutboxMessageEvent struct {
	EventType   string      `json:"event_type"`
	EventID     string      `json:"event_id"`
	AggregateID string      `json:"aggregate_id"`
	OccurredAt  time.Time   `json:"occurred_at"`
	Data        interface{} `json:"data"`
}

func newOutboxMessage(aggregateType, aggregateID, eventType string, data interface{}) (*OutboxMessage, error) {
	event := OutboxMessageEvent{
		EventType:   eventType,
		EventID:     GenerateID("evt"),
		AggregateID: aggregateID,
		OccurredAt:  GetCurrentTime(),
		Data:        data,
	}

	payload, err := json.Marshal(event)

	if err != nil {
		return nil, err
	}

	return &OutboxMessage{
		AggregateType: aggregateType,
		AggregateID:   aggregateID,
		EventType:     eventType,
		Payload:       payload,
		CreatedAt:     GetCurrentTime(),
		Status:        OutboxStatusPending,
	}, nil
}

// NewOrderCreatedEvent signals that an order entered the engine
func NewOrderCreatedEvent(order *Order) (*OutboxMessage, error) {
	return newOutboxMessage("order", order.ID, EventOrderCreated, order)
}

// NewPriceLockChangedEvent signals a price-lock toggle on an order
func NewPriceLockChangedEvent(order *Order, actorID string) (*OutboxMessage, error) {
	return newOutboxMessage("order", order.ID, EventPriceLockChanged, map[string]interface{}{
		"order_id":         order.ID,
		"price_locked":     order.PriceLocked,
		"price_lock_until": order.PriceLockUntil,
		"actor_id":         actorID,
	})
}

// NewAmendmentCreatedEvent signals a newly recorded amendment
func NewAmendmentCreatedEvent(amendment *Amendment) (*OutboxMessage, error) {
	return newOutboxMessage("amendment", amendment.ID, EventAmendmentCreated, amendment)
}

// NewAmendmentDecidedEvent signals an approval or rejection decision
func NewAmendmentDecidedEvent(amendment *Amendment) (*OutboxMessage, error) {
	eventType := EventAmendmentApproved

	if amendment.Status == string(AmendmentStatusRejected) {
		eventType = EventAmendmentRejected
	}

	return newOutboxMessage("amendment", amendment.ID, eventType, amendment)
}

// NewAmendmentAppliedEvent signals that an amendment mutated the live order
func NewAmendmentAppliedEvent(amendment *Amendment, order *Order) (*OutboxMessage, error) {
	return newOutboxMessage("amendment", amendment.ID, EventAmendmentApplied, map[string]interface{}{
		"amendment_id":     amendment.ID,
		"amendment_number": amendment.AmendmentNumber,
		"order_id":         order.ID,
		"previous_total":   amendment.PreviousCents,
		"new_total":        order.TotalCents,
		"difference":       amendment.DifferenceCents,
		"current_version":  order.CurrentVersion,
	})
}

// NewShipmentCreatedEvent signals a recorded fulfillment event
func NewShipmentCreatedEvent(shipment *Shipment) (*OutboxMessage, error) {
	return newOutboxMessage("shipment", shipment.ID, EventShipmentCreated, shipment)
}

// NewItemsBackorderedEvent signals backordered quantities on an order
func NewItemsBackorderedEvent(order *Order, actorID string, itemIDs []string) (*OutboxMessage, error) {
	return newOutboxMessage("order", order.ID, EventItemsBackordered, map[string]interface{}{
		"order_id":       order.ID,
		"actor_id":       actorID,
		"order_item_ids": itemIDs,
	})
}
