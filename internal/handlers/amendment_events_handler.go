package handlers

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Shopify/sarama"

	"github.com/retailworks/pos-backoffice/internal/models"
	"github.com/retailworks/pos-backoffice/pkg/logger"
)

// AmendmentEventsHandler consumes the order event stream published through
// the outbox. Back office screens subscribe to these events for live refresh;
// this handler keeps the audit trail in the logs.
type AmendmentEventsHandler struct {
	logger logger.Logger
}

// NewAmendmentEventsHandler creates a new AmendmentEventsHandler
func NewAmendmentEventsHandler(logger logger.Logger) *AmendmentEventsHandler {
	return &AmendmentEventsHandler{
		logger: logger,
	}
}

// HandleMessage handles incoming order events from Kafka messages
func (h *AmendmentEventsHandler) HandleMessage(ctx context.Context, msg *sarama.ConsumerMessage) error {
	var event models.OutboxMessageEvent

	if err := json.Unmarshal(msg.Value, &event); err != nil {
		h.logger.Error("failed to unmarshal message", "error", err)
		return fmt.Errorf("failed to unmarshal message: %w", err)
	}

	h.logger.Info("Handling order event",
		"eventType", event.EventType,
		"eventId", event.EventID,
		"aggregateId", event.AggregateID,
		"occurredAt", event.OccurredAt,
	)

	switch event.EventType {
	case models.EventAmendmentCreated:
		return h.handleAmendmentCreated(event)
	case models.EventAmendmentApproved, models.EventAmendmentRejected:
		return h.handleAmendmentDecided(event)
	case models.EventAmendmentApplied:
		return h.handleAmendmentApplied(event)
	case models.EventOrderCreated, models.EventPriceLockChanged, models.EventShipmentCreated, models.EventItemsBackordered:
		h.logger.Info("Processing order event", "eventType", event.EventType, "orderID", event.AggregateID)
		return nil
	default:
		h.logger.Warn("unknown event type", "eventType", event.EventType)
		return nil
	}
}

// handleAmendmentCreated handles the amendment_created event
func (h *AmendmentEventsHandler) handleAmendmentCreated(event models.OutboxMessageEvent) error {
	h.logger.Info("Processing amendment created event",
		"orderID", event.AggregateID,
		"eventID", event.EventID,
	)

	return nil
}

// handleAmendmentDecided handles approval and rejection events
func (h *AmendmentEventsHandler) handleAmendmentDecided(event models.OutboxMessageEvent) error {
	data, ok := event.Data.(map[string]interface{})

	if !ok {
		h.logger.Error("Invalid event data format", "eventID", event.EventID)
		return fmt.Errorf("invalid event data format")
	}

	status, _ := data["status"].(string)
	approvedBy, _ := data["approved_by"].(string)

	h.logger.Info("Amendment decision recorded",
		"orderID", event.AggregateID,
		"status", status,
		"approvedBy", approvedBy)

	return nil
}

// handleAmendmentApplied handles the amendment_applied event
func (h *AmendmentEventsHandler) handleAmendmentApplied(event models.OutboxMessageEvent) error {
	h.logger.Info("Processing amendment applied event",
		"orderID", event.AggregateID,
		"eventID", event.EventID)

	return nil
}
