package service

import (
	"context"
	"fmt"
	"time"

	"github.com/retailworks/pos-backoffice/internal/clients"
	"github.com/retailworks/pos-backoffice/internal/database"
	"github.com/retailworks/pos-backoffice/internal/models"
	"github.com/retailworks/pos-backoffice/internal/pricing"
	"github.com/retailworks/pos-backoffice/internal/repository"
	"github.com/retailworks/pos-backoffice/pkg/errors"
	"github.com/retailworks/pos-backoffice/pkg/logger"
)

// OrderService handles order intake, retrieval and price lock management
type OrderService struct {
	db           *database.Database
	orderRepo    *repository.OrderRepository
	versionRepo  *repository.VersionRepository
	sequenceRepo *repository.SequenceRepository
	catalogRepo  *repository.CatalogRepository
	outboxRepo   *repository.OutboxRepository
	taxClient    clients.TaxCalculator
	logger       logger.Logger
}

// NewOrderService creates a new OrderService
func NewOrderService(
	db *database.Database,
	orderRepo *repository.OrderRepository,
	versionRepo *repository.VersionRepository,
	sequenceRepo *repository.SequenceRepository,
	catalogRepo *repository.CatalogRepository,
	outboxRepo *repository.OutboxRepository,
	taxClient clients.TaxCalculator,
	logger logger.Logger,
) *OrderService {
	return &OrderService{
		db:           db,
		orderRepo:    orderRepo,
		versionRepo:  versionRepo,
		sequenceRepo: sequenceRepo,
		catalogRepo:  catalogRepo,
		outboxRepo:   outboxRepo,
		taxClient:    taxClient,
		logger:       logger,
	}
}

// NewOrderItemInput is one requested line on a new order
type NewOrderItemInput struct {
	ProductID       string `json:"product_id"`
	Quantity        int    `json:"quantity"`
	QuotePriceCents *int64 `json:"quote_price_cents,omitempty"`
}

// CreateOrderRequest carries the fields needed to register a confirmed order
type CreateOrderRequest struct {
	OrderNumber   string              `json:"order_number"`
	CustomerID    string              `json:"customer_id"`
	Jurisdiction  string              `json:"jurisdiction"`
	DiscountCents int64               `json:"discount_cents"`
	QuoteID       *string             `json:"quote_id,omitempty"`
	Items         []NewOrderItemInput `json:"items"`
	CreatedBy     string              `json:"created_by"`
}

// OrderItemDetail is an order line annotated with price drift information
type OrderItemDetail struct {
	*models.OrderItem
	PriceChanged bool `json:"price_changed"`
}

// OrderDetail is an order with its lines and the resolved price lock state
type OrderDetail struct {
	Order              *models.Order      `json:"order"`
	Items              []*OrderItemDetail `json:"items"`
	QuotePricingActive bool               `json:"quote_pricing_active"`
}

// CreateOrder registers a confirmed order, snapshots it as version 1 and
// publishes an outbox message, all in one transaction
func (s *OrderService) CreateOrder(ctx context.Context, req *CreateOrderRequest) (*models.Order, error) {
	if req.CustomerID == "" {
		return nil, errors.NewValidationError("customer_id is required")
	}

	if req.OrderNumber == "" {
		return nil, errors.NewValidationError("order_number is required")
	}

	if len(req.Items) == 0 {
		return nil, errors.NewValidationError("an order needs at least one item")
	}

	if req.DiscountCents < 0 {
		return nil, errors.NewValidationError("discount_cents cannot be negative")
	}

	order := models.NewOrder(req.OrderNumber, req.CustomerID, req.Jurisdiction)
	order.DiscountCents = req.DiscountCents
	order.QuoteID = req.QuoteID

	items := make([]*models.OrderItem, 0, len(req.Items))

	for i, in := range req.Items {
		if in.Quantity <= 0 {
			return nil, errors.NewValidationError(fmt.Sprintf("items[%d]: quantity must be positive", i))
		}

		product, err := s.catalogRepo.GetByID(ctx, in.ProductID)

		if err != nil {
			return nil, errors.NewValidationError(fmt.Sprintf("items[%d]: unknown product %q", i, in.ProductID))
		}

		if !product.Active {
			return nil, errors.NewValidationError(fmt.Sprintf("items[%d]: product %q is inactive", i, in.ProductID))
		}

		unitPrice := product.PriceCents

		if in.QuotePriceCents != nil {
			unitPrice = *in.QuotePriceCents
		}

		items = append(items, models.NewOrderItem(order.ID, product.ID, product.Name, in.Quantity, unitPrice, in.QuotePriceCents))
	}

	subtotal := models.SubtotalFromItems(items)

	taxResp, err := s.taxClient.CalculateTax(ctx, taxRequestFor(order, items))

	if err != nil {
		s.logger.Error("Tax calculation failed during order creation", "error", err, "orderNumber", req.OrderNumber)
		return nil, err
	}

	order.ApplyTotals(subtotal, taxResp.TaxCents)

	outboxMsg, err := models.NewOrderCreatedEvent(order)

	if err != nil {
		s.logger.Error("Failed to create outbox message", "error", err)
		return nil, fmt.Errorf("failed to create outbox message: %w", err)
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

	if err = s.orderRepo.CreateInTx(tx, order); err != nil {
		return nil, err
	}

	for _, item := range items {
		if err = s.orderRepo.InsertItemInTx(tx, item); err != nil {
			return nil, err
		}
	}

	if _, err = createVersionInTx(tx, s.sequenceRepo, s.versionRepo, order, items, "order created", req.CreatedBy); err != nil {
		return nil, err
	}

	if err = s.orderRepo.UpdateInTx(tx, order); err != nil {
		return nil, err
	}

	if err = s.outboxRepo.CreateInTx(tx, outboxMsg); err != nil {
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		s.logger.Error("Failed to commit transaction", "error", err)
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.logger.Info("Order created", "orderID", order.ID, "orderNumber", order.OrderNumber, "outboxID", outboxMsg.ID)
	return order, nil
}

// GetOrderDetail retrieves an order with its items, flagging lines whose
// current price has drifted from the quoted price
func (s *OrderService) GetOrderDetail(ctx context.Context, id string) (*OrderDetail, error) {
	order, err := s.orderRepo.GetByID(ctx, id)

	if err != nil {
		return nil, err
	}

	items, err := s.orderRepo.GetItems(ctx, id)

	if err != nil {
		return nil, err
	}

	detail := &OrderDetail{
		Order:              order,
		Items:              make([]*OrderItemDetail, 0, len(items)),
		QuotePricingActive: pricing.QuotePricingApplies(order.PriceLocked, order.PriceLockUntil, models.GetCurrentTime()),
	}

	for _, item := range items {
		detail.Items = append(detail.Items, &OrderItemDetail{
			OrderItem:    item,
			PriceChanged: item.HasPriceChange(),
		})
	}

	return detail, nil
}

// GetAllOrders retrieves orders with pagination
func (s *OrderService) GetAllOrders(ctx context.Context, limit, offset int) ([]*models.Order, error) {
	return s.orderRepo.GetAll(ctx, limit, offset)
}

// CountOrders counts the total number of orders
func (s *OrderService) CountOrders(ctx context.Context) (int, error) {
	return s.orderRepo.Count(ctx)
}

// SetPriceLock turns quote price protection on or off for an order. Clearing
// the lock also clears its expiry and quote reference.
func (s *OrderService) SetPriceLock(ctx context.Context, orderID string, locked bool, until *time.Time, quoteID *string, actorID string) (*models.Order, error) {
	if locked && until != nil && !until.After(models.GetCurrentTime()) {
		return nil, errors.NewValidationError("price_lock_until must be in the future")
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

	order.PriceLocked = locked

	if locked {
		order.PriceLockUntil = until

		if quoteID != nil {
			order.QuoteID = quoteID
		}
	} else {
		order.PriceLockUntil = nil
		order.QuoteID = nil
	}

	order.UpdatedAt = models.GetCurrentTime()

	outboxMsg, err := models.NewPriceLockChangedEvent(order, actorID)

	if err != nil {
		s.logger.Error("Failed to create outbox message", "error", err)
		return nil, fmt.Errorf("failed to create outbox message: %w", err)
	}

	if err = s.orderRepo.UpdateInTx(tx, order); err != nil {
		return nil, err
	}

	if err = s.outboxRepo.CreateInTx(tx, outboxMsg); err != nil {
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		s.logger.Error("Failed to commit transaction", "error", err)
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.logger.Info("Price lock updated", "orderID", order.ID, "locked", locked)
	return order, nil
}

// taxRequestFor builds the tax service payload from an order's lines
func taxRequestFor(order *models.Order, items []*models.OrderItem) *clients.TaxRequest {
	lines := make([]clients.TaxLine, 0, len(items))

	for _, item := range items {
		lines = append(lines, clients.TaxLine{
			ProductID:      item.ProductID,
			Quantity:       item.Quantity,
			UnitPriceCents: item.UnitPriceCents,
			LineTotalCents: item.LineTotalCents,
		})
	}

	return &clients.TaxRequest{
		OrderID:      order.ID,
		Jurisdiction: order.Jurisdiction,
		Lines:        lines,
	}
}
