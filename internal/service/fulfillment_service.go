package service

import (
	"context"
	"fmt"

	"github.com/retailworks/pos-backoffice/internal/database"
	"github.com/retailworks/pos-backoffice/internal/models"
	"github.com/retailworks/pos-backoffice/internal/repository"
	"github.com/retailworks/pos-backoffice/pkg/errors"
	"github.com/retailworks/pos-backoffice/pkg/logger"
)

// FulfillmentService records shipments and backorders against order lines
// and reports fulfillment progress
type FulfillmentService struct {
	db           *database.Database
	orderRepo    *repository.OrderRepository
	shipmentRepo *repository.ShipmentRepository
	versionRepo  *repository.VersionRepository
	sequenceRepo *repository.SequenceRepository
	outboxRepo   *repository.OutboxRepository
	logger       logger.Logger
}

// NewFulfillmentService creates a new FulfillmentService
func NewFulfillmentService(
	db *database.Database,
	orderRepo *repository.OrderRepository,
	shipmentRepo *repository.ShipmentRepository,
	versionRepo *repository.VersionRepository,
	sequenceRepo *repository.SequenceRepository,
	outboxRepo *repository.OutboxRepository,
	logger logger.Logger,
) *FulfillmentService {
	return &FulfillmentService{
		db:           db,
		orderRepo:    orderRepo,
		shipmentRepo: shipmentRepo,
		versionRepo:  versionRepo,
		sequenceRepo: sequenceRepo,
		outboxRepo:   outboxRepo,
		logger:       logger,
	}
}

// ShipmentItemInput names an order line and how many units ship now
type ShipmentItemInput struct {
	OrderItemID   string   `json:"order_item_id"`
	Quantity      int      `json:"quantity"`
	SerialNumbers []string `json:"serial_numbers,omitempty"`
}

// CreateShipmentRequest records a shipment against an order
type CreateShipmentRequest struct {
	Carrier        string              `json:"carrier"`
	TrackingNumber string              `json:"tracking_number"`
	Items          []ShipmentItemInput `json:"items"`
	CreatedBy      string              `json:"created_by"`
}

// ShipmentDetail is a shipment with its lines
type ShipmentDetail struct {
	Shipment *models.Shipment       `json:"shipment"`
	Items    []*models.ShipmentItem `json:"items"`
}

// CreateShipment records a shipment, advances the fulfilled counters on the
// touched lines, and completes the order once every line is fully fulfilled.
// The per-line counters can never exceed the ordered quantity.
func (s *FulfillmentService) CreateShipment(ctx context.Context, orderID string, req *CreateShipmentRequest) (*models.Shipment, error) {
	if req.Carrier == "" {
		return nil, errors.NewValidationError("carrier is required")
	}

	if len(req.Items) == 0 {
		return nil, errors.NewValidationError("a shipment needs at least one item")
	}

	for i, in := range req.Items {
		if in.OrderItemID == "" {
			return nil, errors.NewValidationError(fmt.Sprintf("items[%d]: order_item_id is required", i))
		}

		if in.Quantity <= 0 {
			return nil, errors.NewValidationError(fmt.Sprintf("items[%d]: quantity must be positive", i))
		}

		if len(in.SerialNumbers) > 0 && len(in.SerialNumbers) != in.Quantity {
			return nil, errors.NewValidationError(fmt.Sprintf("items[%d]: %d serial numbers do not match quantity %d", i, len(in.SerialNumbers), in.Quantity))
		}
	}

	tx, err := s.db.BeginTx(ctx)

	if err != nil {
		return nil, err
	}

	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				s.logger.Error("Failed to rollback transaction", "error", rbErr)
			}
		}
	}()

	order, err := s.orderRepo.GetByIDForUpdate(tx, orderID)

	if err != nil {
		return nil, err
	}

	if order.Status == string(models.OrderStatusCancelled) {
		err = errors.NewInvalidStateError("ship order", order.Status)
		return nil, err
	}

	items, err := s.orderRepo.GetItemsInTx(tx, orderID)

	if err != nil {
		return nil, err
	}

	byID := make(map[string]*models.OrderItem, len(items))

	for _, item := range items {
		byID[item.ID] = item
	}

	number, err := s.sequenceRepo.NextValueInTx(tx, orderID, repository.SequenceShipment)

	if err != nil {
		return nil, err
	}

	shipment := models.NewShipment(orderID, number, req.Carrier, req.TrackingNumber, req.CreatedBy)

	shipmentItems := make([]*models.ShipmentItem, 0, len(req.Items))

	for _, in := range req.Items {
		item, ok := byID[in.OrderItemID]

		if !ok {
			err = errors.NewValidationError(fmt.Sprintf("order item %q not found on this order", in.OrderItemID))
			return nil, err
		}

		if !item.CanAllocate(in.Quantity) {
			err = errors.NewConflictError(fmt.Sprintf(
				"order item %q cannot ship %d more units: %d of %d already allocated",
				item.ID, in.Quantity,
				item.QuantityFulfilled+item.QuantityBackordered+item.QuantityCancelled,
				item.Quantity))
			return nil, err
		}

		item.QuantityFulfilled += in.Quantity
		item.UpdatedAt = models.GetCurrentTime()

		if err = s.orderRepo.UpdateItemInTx(tx, item); err != nil {
			return nil, err
		}

		shipmentItems = append(shipmentItems, models.NewShipmentItem(shipment.ID, item.ID, in.Quantity, in.SerialNumbers))
	}

	if err = s.shipmentRepo.CreateInTx(tx, shipment, shipmentItems); err != nil {
		return nil, err
	}

	if allFulfilled(items) {
		order.Status = string(models.OrderStatusCompleted)
		order.UpdatedAt = models.GetCurrentTime()

		if err = s.orderRepo.UpdateInTx(tx, order); err != nil {
			return nil, err
		}
	}

	outboxMsg, err := models.NewShipmentCreatedEvent(shipment)

	if err != nil {
		s.logger.Error("Failed to create outbox message", "error", err)
		return nil, fmt.Errorf("failed to create outbox message: %w", err)
	}

	if err = s.outboxRepo.CreateInTx(tx, outboxMsg); err != nil {
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		s.logger.Error("Failed to commit transaction", "error", err)
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.logger.Info("Shipment recorded", "shipmentID", shipment.ID, "orderID", orderID, "number", number)
	return shipment, nil
}

// allFulfilled reports whether every line has shipped in full
func allFulfilled(items []*models.OrderItem) bool {
	for _, item := range items {
		if item.QuantityFulfilled < item.Quantity {
			return false
		}
	}

	return len(items) > 0
}

// BackorderItemInput names an order line and how many units move to backorder
type BackorderItemInput struct {
	OrderItemID string `json:"order_item_id"`
	Quantity    int    `json:"quantity"`
}

// MarkBackordered moves the requested number of units of each named line into
// the backordered counter and records a version snapshot of the result. A
// line can never have more units allocated than were ordered.
func (s *FulfillmentService) MarkBackordered(ctx context.Context, orderID string, inputs []BackorderItemInput, actorID string) (*models.FulfillmentSummary, error) {
	if len(inputs) == 0 {
		return nil, errors.NewValidationError("items is required")
	}

	for i, in := range inputs {
		if in.OrderItemID == "" {
			return nil, errors.NewValidationError(fmt.Sprintf("items[%d]: order_item_id is required", i))
		}

		if in.Quantity <= 0 {
			return nil, errors.NewValidationError(fmt.Sprintf("items[%d]: quantity must be positive", i))
		}
	}

	tx, err := s.db.BeginTx(ctx)

	if err != nil {
		return nil, err
	}

	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				s.logger.Error("Failed to rollback transaction", "error", rbErr)
			}
		}
	}()

	order, err := s.orderRepo.GetByIDForUpdate(tx, orderID)

	if err != nil {
		return nil, err
	}

	if order.Status != string(models.OrderStatusConfirmed) {
		err = errors.NewInvalidStateError("backorder items", order.Status)
		return nil, err
	}

	items, err := s.orderRepo.GetItemsInTx(tx, orderID)

	if err != nil {
		return nil, err
	}

	byID := make(map[string]*models.OrderItem, len(items))

	for _, item := range items {
		byID[item.ID] = item
	}

	// Each line may appear at most once per request.
	touched := make(map[string]bool, len(inputs))

	backordered := make([]string, 0, len(inputs))

	for _, in := range inputs {
		item, ok := byID[in.OrderItemID]

		if !ok {
			err = errors.NewValidationError(fmt.Sprintf("order item %q not found on this order", in.OrderItemID))
			return nil, err
		}

		if touched[item.ID] {
			err = errors.NewValidationError(fmt.Sprintf("order item %q referenced more than once", item.ID))
			return nil, err
		}
		touched[item.ID] = true

		if err = backorderUnits(item, in.Quantity); err != nil {
			return nil, err
		}

		if err = s.orderRepo.UpdateItemInTx(tx, item); err != nil {
			return nil, err
		}

		backordered = append(backordered, item.ID)
	}

	summary := fmt.Sprintf("%d line(s) backordered", len(backordered))

	if _, err = createVersionInTx(tx, s.sequenceRepo, s.versionRepo, order, items, summary, actorID); err != nil {
		return nil, err
	}

	if err = s.orderRepo.UpdateInTx(tx, order); err != nil {
		return nil, err
	}

	outboxMsg, err := models.NewItemsBackorderedEvent(order, actorID, backordered)

	if err != nil {
		s.logger.Error("Failed to create outbox message", "error", err)
		return nil, fmt.Errorf("failed to create outbox message: %w", err)
	}

	if err = s.outboxRepo.CreateInTx(tx, outboxMsg); err != nil {
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		s.logger.Error("Failed to commit transaction", "error", err)
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.logger.Info("Items backordered", "orderID", orderID, "count", len(backordered))
	return models.BuildFulfillmentSummary(orderID, items), nil
}

// backorderUnits moves quantity units of an order line into the backordered
// counter, rejecting moves that would allocate past the ordered quantity
func backorderUnits(item *models.OrderItem, quantity int) error {
	if !item.CanAllocate(quantity) {
		return errors.NewConflictError(fmt.Sprintf(
			"order item %q cannot backorder %d more units: %d of %d already allocated",
			item.ID, quantity,
			item.QuantityFulfilled+item.QuantityBackordered+item.QuantityCancelled,
			item.Quantity))
	}

	item.QuantityBackordered += quantity
	item.UpdatedAt = models.GetCurrentTime()

	return nil
}

// GetSummary reports fulfillment progress across all of an order's lines
func (s *FulfillmentService) GetSummary(ctx context.Context, orderID string) (*models.FulfillmentSummary, error) {
	if _, err := s.orderRepo.GetByID(ctx, orderID); err != nil {
		return nil, err
	}

	items, err := s.orderRepo.GetItems(ctx, orderID)

	if err != nil {
		return nil, err
	}

	return models.BuildFulfillmentSummary(orderID, items), nil
}

// GetShipments lists an order's shipments with their lines
func (s *FulfillmentService) GetShipments(ctx context.Context, orderID string) ([]*ShipmentDetail, error) {
	if _, err := s.orderRepo.GetByID(ctx, orderID); err != nil {
		return nil, err
	}

	shipments, err := s.shipmentRepo.GetByOrderID(ctx, orderID)

	if err != nil {
		return nil, err
	}

	details := make([]*ShipmentDetail, 0, len(shipments))

	for _, shipment := range shipments {
		items, err := s.shipmentRepo.GetItems(ctx, shipment.ID)

		if err != nil {
			return nil, err
		}

		details = append(details, &ShipmentDetail{Shipment: shipment, Items: items})
	}

	return details, nil
}
