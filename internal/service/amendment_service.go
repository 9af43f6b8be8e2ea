package service

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/retailworks/pos-backoffice/internal/approval"
	"github.com/retailworks/pos-backoffice/internal/clients"
	"github.com/retailworks/pos-backoffice/internal/database"
	"github.com/retailworks/pos-backoffice/internal/models"
	"github.com/retailworks/pos-backoffice/internal/pricing"
	"github.com/retailworks/pos-backoffice/internal/repository"
	"github.com/retailworks/pos-backoffice/pkg/errors"
	"github.com/retailworks/pos-backoffice/pkg/logger"
)

// AmendmentService drives the amendment lifecycle: proposal, the approval
// gate, and the transactional application of approved changes to the order
type AmendmentService struct {
	db            *database.Database
	orderRepo     *repository.OrderRepository
	amendmentRepo *repository.AmendmentRepository
	versionRepo   *repository.VersionRepository
	sequenceRepo  *repository.SequenceRepository
	catalogRepo   *repository.CatalogRepository
	outboxRepo    *repository.OutboxRepository
	taxClient     clients.TaxCalculator
	logger        logger.Logger
}

// NewAmendmentService creates a new AmendmentService
func NewAmendmentService(
	db *database.Database,
	orderRepo *repository.OrderRepository,
	amendmentRepo *repository.AmendmentRepository,
	versionRepo *repository.VersionRepository,
	sequenceRepo *repository.SequenceRepository,
	catalogRepo *repository.CatalogRepository,
	outboxRepo *repository.OutboxRepository,
	taxClient clients.TaxCalculator,
	logger logger.Logger,
) *AmendmentService {
	return &AmendmentService{
		db:            db,
		orderRepo:     orderRepo,
		amendmentRepo: amendmentRepo,
		versionRepo:   versionRepo,
		sequenceRepo:  sequenceRepo,
		catalogRepo:   catalogRepo,
		outboxRepo:    outboxRepo,
		taxClient:     taxClient,
		logger:        logger,
	}
}

// CreateAmendmentRequest proposes a set of item changes against an order
type CreateAmendmentRequest struct {
	Changes        models.ChangeSet `json:"changes"`
	UseQuotePrices bool             `json:"use_quote_prices"`
	Reason         string           `json:"reason"`
	CreatedBy      string           `json:"created_by"`
}

// AmendmentDetail is an amendment with its per-line change records
type AmendmentDetail struct {
	Amendment *models.Amendment       `json:"amendment"`
	Items     []*models.AmendmentItem `json:"items"`
}

// Create validates a proposed change set against the live order, prices the
// delta, and records the amendment. Amendments whose price impact stays under
// the approval thresholds are auto-approved on the spot; the rest wait in
// pending_approval.
func (s *AmendmentService) Create(ctx context.Context, orderID string, req *CreateAmendmentRequest) (*models.Amendment, error) {
	if req.CreatedBy == "" {
		return nil, errors.NewValidationError("created_by is required")
	}

	if err := req.Changes.Validate(); err != nil {
		return nil, errors.NewValidationError(err.Error())
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
		return nil, errors.NewInvalidStateError("amend order", order.Status)
	}

	items, err := s.orderRepo.GetItemsInTx(tx, orderID)

	if err != nil {
		return nil, err
	}

	quoteActive := req.UseQuotePrices && pricing.QuotePricingApplies(order.PriceLocked, order.PriceLockUntil, models.GetCurrentTime())

	amendmentItems, differenceCents, err := s.priceChangeSet(ctx, &req.Changes, items, quoteActive, req.Reason)

	if err != nil {
		return nil, err
	}

	previousCents := order.TotalCents
	newCents := previousCents + differenceCents

	number, err := s.sequenceRepo.NextValueInTx(tx, orderID, repository.SequenceAmendment)

	if err != nil {
		return nil, err
	}

	amendment := models.NewAmendment(orderID, number, req.Changes.DeriveAmendmentType(), req.CreatedBy)
	amendment.UseQuotePrices = quoteActive
	amendment.Reason = req.Reason
	amendment.ItemChanges = req.Changes.Count()
	amendment.Classify(previousCents, newCents, approval.RequiresApproval(differenceCents, previousCents))

	for _, ai := range amendmentItems {
		ai.AmendmentID = amendment.ID
	}

	if err = s.amendmentRepo.CreateInTx(tx, amendment, amendmentItems); err != nil {
		return nil, err
	}

	outboxMsg, err := models.NewAmendmentCreatedEvent(amendment)

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

	s.logger.Info("Amendment created",
		"amendmentID", amendment.ID,
		"orderID", orderID,
		"number", amendment.AmendmentNumber,
		"status", amendment.Status,
		"differenceCents", amendment.DifferenceCents)

	return amendment, nil
}

// priceChangeSet resolves a unit price for every proposed change and returns
// the per-line amendment records together with the signed total delta
func (s *AmendmentService) priceChangeSet(
	ctx context.Context,
	changes *models.ChangeSet,
	items []*models.OrderItem,
	quoteActive bool,
	reason string,
) ([]*models.AmendmentItem, int64, error) {
	byID := make(map[string]*models.OrderItem, len(items))

	for _, item := range items {
		byID[item.ID] = item
	}

	// Each existing line may be touched by at most one change.
	touched := make(map[string]bool)

	amendmentItems := make([]*models.AmendmentItem, 0, changes.Count())

	var differenceCents int64

	for _, add := range changes.AddItems {
		product, err := s.catalogRepo.GetByID(ctx, add.ProductID)

		if err != nil {
			return nil, 0, errors.NewValidationError(fmt.Sprintf("unknown product %q", add.ProductID))
		}

		if !product.Active {
			return nil, 0, errors.NewValidationError(fmt.Sprintf("product %q is inactive", add.ProductID))
		}

		differenceCents += int64(add.Quantity) * product.PriceCents

		amendmentItems = append(amendmentItems, &models.AmendmentItem{
			ID:             models.GenerateID("ami"),
			ProductID:      product.ID,
			ProductName:    product.Name,
			ChangeType:     string(models.AmendmentItemAdd),
			NewQuantity:    add.Quantity,
			UnitPriceCents: product.PriceCents,
		})
	}

	for _, rm := range changes.RemoveItems {
		item, ok := byID[rm.OrderItemID]

		if !ok {
			return nil, 0, errors.NewValidationError(fmt.Sprintf("order item %q not found on this order", rm.OrderItemID))
		}

		if touched[item.ID] {
			return nil, 0, errors.NewValidationError(fmt.Sprintf("order item %q referenced more than once", item.ID))
		}
		touched[item.ID] = true

		if item.QuantityFulfilled > 0 {
			return nil, 0, errors.NewValidationError(fmt.Sprintf("order item %q has fulfilled units and cannot be removed", item.ID))
		}

		unitPrice := pricing.ResolveUnitPrice(item.UnitPriceCents, item.QuotePriceCents, quoteActive)
		differenceCents -= int64(item.Quantity) * unitPrice

		itemID := item.ID
		itemReason := rm.Reason

		if itemReason == "" {
			itemReason = reason
		}

		amendmentItems = append(amendmentItems, &models.AmendmentItem{
			ID:               models.GenerateID("ami"),
			OrderItemID:      &itemID,
			ProductID:        item.ProductID,
			ProductName:      item.ProductName,
			ChangeType:       string(models.AmendmentItemRemove),
			PreviousQuantity: item.Quantity,
			UnitPriceCents:   unitPrice,
			Reason:           itemReason,
		})
	}

	for _, mod := range changes.ModifyItems {
		item, ok := byID[mod.OrderItemID]

		if !ok {
			return nil, 0, errors.NewValidationError(fmt.Sprintf("order item %q not found on this order", mod.OrderItemID))
		}

		if touched[item.ID] {
			return nil, 0, errors.NewValidationError(fmt.Sprintf("order item %q referenced more than once", item.ID))
		}
		touched[item.ID] = true

		if mod.NewQuantity < item.QuantityFulfilled {
			return nil, 0, errors.NewValidationError(fmt.Sprintf(
				"order item %q already has %d fulfilled units, cannot reduce quantity to %d",
				item.ID, item.QuantityFulfilled, mod.NewQuantity))
		}

		unitPrice := pricing.ResolveUnitPrice(item.UnitPriceCents, item.QuotePriceCents, quoteActive)
		differenceCents += int64(mod.NewQuantity-item.Quantity) * unitPrice

		itemID := item.ID

		amendmentItems = append(amendmentItems, &models.AmendmentItem{
			ID:               models.GenerateID("ami"),
			OrderItemID:      &itemID,
			ProductID:        item.ProductID,
			ProductName:      item.ProductName,
			ChangeType:       string(models.AmendmentItemModify),
			PreviousQuantity: item.Quantity,
			NewQuantity:      mod.NewQuantity,
			UnitPriceCents:   unitPrice,
		})
	}

	return amendmentItems, differenceCents, nil
}

// Approve moves a pending amendment to approved
func (s *AmendmentService) Approve(ctx context.Context, amendmentID, approverID, notes string) (*models.Amendment, error) {
	if approverID == "" {
		return nil, errors.NewValidationError("approver_id is required")
	}

	return s.decide(ctx, amendmentID, func(a *models.Amendment) error {
		if !a.CanApprove() {
			return errors.NewInvalidStateError("approve amendment", a.Status)
		}

		a.MarkApproved(approverID, notes)
		return nil
	})
}

// Reject moves a pending amendment to rejected. Rejected amendments are kept
// for audit and can never be applied.
func (s *AmendmentService) Reject(ctx context.Context, amendmentID, approverID, reason string) (*models.Amendment, error) {
	if approverID == "" {
		return nil, errors.NewValidationError("approver_id is required")
	}

	if reason == "" {
		return nil, errors.NewValidationError("a rejection reason is required")
	}

	return s.decide(ctx, amendmentID, func(a *models.Amendment) error {
		if !a.CanReject() {
			return errors.NewInvalidStateError("reject amendment", a.Status)
		}

		a.MarkRejected(approverID, reason)
		return nil
	})
}

// decide runs an approve or reject transition under a row lock and publishes
// the decision event
func (s *AmendmentService) decide(ctx context.Context, amendmentID string, transition func(*models.Amendment) error) (*models.Amendment, error) {
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

	amendment, err := s.amendmentRepo.GetByIDForUpdate(tx, amendmentID)

	if err != nil {
		return nil, err
	}

	if err = transition(amendment); err != nil {
		return nil, err
	}

	if err = s.amendmentRepo.UpdateStatusInTx(tx, amendment); err != nil {
		return nil, err
	}

	outboxMsg, err := models.NewAmendmentDecidedEvent(amendment)

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

	s.logger.Info("Amendment decision recorded", "amendmentID", amendment.ID, "status", amendment.Status)
	return amendment, nil
}

// Apply executes an approved amendment against the live order. A snapshot of
// the untouched order is written first, then the item rows are mutated,
// totals are recomputed with fresh tax, and a second snapshot captures the
// result, so the ledger always holds the before/after pair of an apply. On
// any failure the transaction rolls back and the amendment stays approved so
// apply can be retried.
func (s *AmendmentService) Apply(ctx context.Context, amendmentID, actorID string) (*models.Amendment, error) {
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

	amendment, err := s.amendmentRepo.GetByIDForUpdate(tx, amendmentID)

	if err != nil {
		return nil, err
	}

	if !amendment.CanApply() {
		err = errors.NewInvalidStateError("apply amendment", amendment.Status)
		return nil, err
	}

	order, err := s.orderRepo.GetByIDForUpdate(tx, amendment.OrderID)

	if err != nil {
		return nil, err
	}

	if order.Status != string(models.OrderStatusConfirmed) {
		err = errors.NewInvalidStateError("apply amendment to order", order.Status)
		return nil, err
	}

	amendmentItems, err := s.amendmentRepo.GetItemsInTx(tx, amendmentID)

	if err != nil {
		return nil, err
	}

	items, err := s.orderRepo.GetItemsInTx(tx, amendment.OrderID)

	if err != nil {
		return nil, err
	}

	preSummary := fmt.Sprintf("before amendment %d", amendment.AmendmentNumber)

	if _, err = createVersionInTx(tx, s.sequenceRepo, s.versionRepo, order, items, preSummary, actorID); err != nil {
		return nil, err
	}

	items, err = s.applyItemChanges(tx, order, items, amendmentItems)

	if err != nil {
		return nil, err
	}

	subtotal := models.SubtotalFromItems(items)

	taxResp, err := s.taxClient.CalculateTax(ctx, taxRequestFor(order, items))

	if err != nil {
		s.logger.Error("Tax recalculation failed, amendment stays approved", "error", err, "amendmentID", amendmentID)
		return nil, err
	}

	order.ApplyTotals(subtotal, taxResp.TaxCents)

	summary := fmt.Sprintf("amendment %d applied: %s", amendment.AmendmentNumber, amendment.AmendmentType)

	if _, err = createVersionInTx(tx, s.sequenceRepo, s.versionRepo, order, items, summary, actorID); err != nil {
		return nil, err
	}

	if err = s.orderRepo.UpdateInTx(tx, order); err != nil {
		return nil, err
	}

	amendment.MarkApplied()

	if err = s.amendmentRepo.UpdateStatusInTx(tx, amendment); err != nil {
		return nil, err
	}

	outboxMsg, err := models.NewAmendmentAppliedEvent(amendment, order)

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

	s.logger.Info("Amendment applied",
		"amendmentID", amendment.ID,
		"orderID", order.ID,
		"newVersion", order.CurrentVersion,
		"newTotalCents", order.TotalCents)

	return amendment, nil
}

// applyItemChanges mutates the order's item rows according to the recorded
// amendment items and returns the resulting item list
func (s *AmendmentService) applyItemChanges(
	tx *sqlx.Tx,
	order *models.Order,
	items []*models.OrderItem,
	amendmentItems []*models.AmendmentItem,
) ([]*models.OrderItem, error) {
	byID := make(map[string]*models.OrderItem, len(items))

	for _, item := range items {
		byID[item.ID] = item
	}

	for _, change := range amendmentItems {
		switch models.AmendmentItemChange(change.ChangeType) {
		case models.AmendmentItemAdd:
			item := models.NewOrderItem(order.ID, change.ProductID, change.ProductName, change.NewQuantity, change.UnitPriceCents, nil)

			if err := s.orderRepo.InsertItemInTx(tx, item); err != nil {
				return nil, err
			}

			items = append(items, item)
			byID[item.ID] = item

		case models.AmendmentItemRemove:
			if change.OrderItemID == nil {
				return nil, errors.NewInternalError("remove change without order item reference")
			}

			item, ok := byID[*change.OrderItemID]

			if !ok {
				return nil, errors.NewConflictError(fmt.Sprintf("order item %q no longer exists", *change.OrderItemID))
			}

			if err := guardRecordedChange(item, change); err != nil {
				return nil, err
			}

			if err := s.orderRepo.DeleteItemInTx(tx, item.ID); err != nil {
				return nil, err
			}

			delete(byID, item.ID)
			items = removeItem(items, item.ID)

		case models.AmendmentItemModify:
			if change.OrderItemID == nil {
				return nil, errors.NewInternalError("modify change without order item reference")
			}

			item, ok := byID[*change.OrderItemID]

			if !ok {
				return nil, errors.NewConflictError(fmt.Sprintf("order item %q no longer exists", *change.OrderItemID))
			}

			if err := guardRecordedChange(item, change); err != nil {
				return nil, err
			}

			item.SetQuantity(change.NewQuantity, change.UnitPriceCents)

			if err := s.orderRepo.UpdateItemInTx(tx, item); err != nil {
				return nil, err
			}

		default:
			return nil, errors.NewInternalError(fmt.Sprintf("unknown change type %q", change.ChangeType))
		}
	}

	return items, nil
}

// guardRecordedChange re-checks a recorded change against the line's current
// allocation counters. Shipments and backorders can land between amendment
// creation and apply, so the creation-time checks alone cannot keep
// fulfilled + backordered + cancelled within the ordered quantity.
func guardRecordedChange(item *models.OrderItem, change *models.AmendmentItem) error {
	switch models.AmendmentItemChange(change.ChangeType) {
	case models.AmendmentItemRemove:
		if item.QuantityFulfilled > 0 {
			return errors.NewConflictError(fmt.Sprintf(
				"order item %q has %d fulfilled units and can no longer be removed",
				item.ID, item.QuantityFulfilled))
		}

	case models.AmendmentItemModify:
		allocated := item.QuantityFulfilled + item.QuantityBackordered + item.QuantityCancelled

		if change.NewQuantity < allocated {
			return errors.NewConflictError(fmt.Sprintf(
				"order item %q has %d units allocated, cannot reduce quantity to %d",
				item.ID, allocated, change.NewQuantity))
		}
	}

	return nil
}

func removeItem(items []*models.OrderItem, id string) []*models.OrderItem {
	out := items[:0]

	for _, item := range items {
		if item.ID != id {
			out = append(out, item)
		}
	}

	return out
}

// GetAmendment retrieves an amendment with its item changes
func (s *AmendmentService) GetAmendment(ctx context.Context, id string) (*AmendmentDetail, error) {
	amendment, err := s.amendmentRepo.GetByID(ctx, id)

	if err != nil {
		return nil, err
	}

	items, err := s.amendmentRepo.GetItems(ctx, id)

	if err != nil {
		return nil, err
	}

	return &AmendmentDetail{Amendment: amendment, Items: items}, nil
}

// GetOrderAmendments lists an order's amendments, newest first
func (s *AmendmentService) GetOrderAmendments(ctx context.Context, orderID string) ([]*models.Amendment, error) {
	if _, err := s.orderRepo.GetByID(ctx, orderID); err != nil {
		return nil, err
	}

	return s.amendmentRepo.GetByOrderID(ctx, orderID)
}

// GetPendingAmendments lists amendments waiting for an approval decision
func (s *AmendmentService) GetPendingAmendments(ctx context.Context, limit int) ([]*models.Amendment, error) {
	return s.amendmentRepo.GetPending(ctx, limit)
}
