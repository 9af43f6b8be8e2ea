package models

import (
	"time"
)

// AmendmentStatus represents the lifecycle state of an amendment
type AmendmentStatus string

const (
	AmendmentStatusPendingApproval AmendmentStatus = "pending_approval"
	AmendmentStatusApproved        AmendmentStatus = "approved"
	AmendmentStatusRejected        AmendmentStatus = "rejected"
	AmendmentStatusApplied         AmendmentStatus = "applied"
)

// AmendmentType classifies what kind of change an amendment proposes
type AmendmentType string

const (
	AmendmentTypeItemAdded    AmendmentType = "item_added"
	AmendmentTypeItemRemoved  AmendmentType = "item_removed"
	AmendmentTypeItemModified AmendmentType = "item_modified"
	AmendmentTypeMultiChange  AmendmentType = "multi_change"
)

// ValidAmendmentType reports whether t names a known amendment type
func ValidAmendmentType(t string) bool {
	switch AmendmentType(t) {
	case AmendmentTypeItemAdded, AmendmentTypeItemRemoved, AmendmentTypeItemModified, AmendmentTypeMultiChange:
		return true
	}

	return false
}

// AmendmentItemChange classifies a per-line delta within an amendment
type AmendmentItemChange string

const (
	AmendmentItemAdd    AmendmentItemChange = "add"
	AmendmentItemRemove AmendmentItemChange = "remove"
	AmendmentItemModify AmendmentItemChange = "modify"
)

// Amendment records a proposed change to a confirmed order. Rejected and
// applied amendments are never deleted; they remain for audit.
type Amendment struct {
	ID              string     `db:"id" json:"id"`
	OrderID         string     `db:"order_id" json:"order_id"`
	AmendmentNumber int        `db:"amendment_number" json:"amendment_number"`
	AmendmentType   string     `db:"amendment_type" json:"amendment_type"`
	Status          string     `db:"status" json:"status"`
	PreviousCents   int64      `db:"previous_total_cents" json:"previous_total_cents"`
	NewCents        int64      `db:"new_total_cents" json:"new_total_cents"`
	DifferenceCents int64      `db:"difference_cents" json:"difference_cents"`
	UseQuotePrices  bool       `db:"use_quote_prices" json:"use_quote_prices"`
	RequiresApproval bool      `db:"requires_approval" json:"requires_approval"`
	ItemChanges     int        `db:"item_changes" json:"item_changes"`
	Reason          string     `db:"reason" json:"reason,omitempty"`
	RejectionReason *string    `db:"rejection_reason" json:"rejection_reason,omitempty"`
	ApprovalNotes   *string    `db:"approval_notes" json:"approval_notes,omitempty"`
	CreatedBy       string     `db:"created_by" json:"created_by"`
	ApprovedBy      *string    `db:"approved_by" json:"approved_by,omitempty"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
	ApprovedAt      *time.Time `db:"approved_at" json:"approved_at,omitempty"`
	AppliedAt       *time.Time `db:"applied_at" json:"applied_at,omitempty"`
}

// AmendmentItem describes one per-line delta of an amendment. OrderItemID is
// nil for additions, which have no existing line to reference.
type AmendmentItem struct {
	ID               string  `db:"id" json:"id"`
	AmendmentID      string  `db:"amendment_id" json:"amendment_id"`
	OrderItemID      *string `db:"order_item_id" json:"order_item_id,omitempty"`
	ProductID        string  `db:"product_id" json:"product_id"`
	ProductName      string  `db:"product_name" json:"product_name"`
	ChangeType       string  `db:"change_type" json:"change_type"`
	PreviousQuantity int     `db:"previous_quantity" json:"previous_quantity"`
	NewQuantity      int     `db:"new_quantity" json:"new_quantity"`
	UnitPriceCents   int64   `db:"unit_price_cents" json:"unit_price_cents"`
	Reason           string  `db:"reason" json:"reason,omitempty"`
}

// NewAmendment creates an amendment in its initial state. Amendments that do
// not require approval are born approved and immediately applicable.
func NewAmendment(orderID string, number int, amendmentType AmendmentType, createdBy string) *Amendment {
	return &Amendment{
		ID:              GenerateID("amd"),
		OrderID:         orderID,
		AmendmentNumber: number,
		AmendmentType:   string(amendmentType),
		Status:          string(AmendmentStatusPendingApproval),
		CreatedBy:       createdBy,
		CreatedAt:       GetCurrentTime(),
	}
}

// Classify sets totals and routes the amendment through the approval gate
func (a *Amendment) Classify(previousCents, newCents int64, requiresApproval bool) {
	a.PreviousCents = previousCents
	a.NewCents = newCents
	a.DifferenceCents = newCents - previousCents
	a.RequiresApproval = requiresApproval

	if !requiresApproval {
		a.Status = string(AmendmentStatusApproved)
	}
}

// CanApprove reports whether the amendment may transition to approved
func (a *Amendment) CanApprove() bool {
	return a.Status == string(AmendmentStatusPendingApproval)
}

// CanReject reports whether the amendment may transition to rejected
func (a *Amendment) CanReject() bool {
	return a.Status == string(AmendmentStatusPendingApproval)
}

// CanApply reports whether the amendment may be applied to the live order.
// Only approved amendments qualify; pending, rejected and already-applied
// amendments are fatal invalid states for apply.
func (a *Amendment) CanApply() bool {
	return a.Status == string(AmendmentStatusApproved)
}

// MarkApproved records the approval decision
func (a *Amendment) MarkApproved(approverID, notes string) {
	now := GetCurrentTime()
	a.Status = string(AmendmentStatusApproved)
	a.ApprovedBy = &approverID
	a.ApprovedAt = &now

	if notes != "" {
		a.ApprovalNotes = &notes
	}
}

// MarkRejected records the rejection decision
func (a *Amendment) MarkRejected(approverID, reason string) {
	now := GetCurrentTime()
	a.Status = string(AmendmentStatusRejected)
	a.ApprovedBy = &approverID
	a.ApprovedAt = &now
	a.RejectionReason = &reason
}

// MarkApplied records the application of the amendment to the order
func (a *Amendment) MarkApplied() {
	now := GetCurrentTime()
	a.Status = string(AmendmentStatusApplied)
	a.AppliedAt = &now
}
