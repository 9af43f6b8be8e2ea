package models

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewAmendmentStartsPending(t *testing.T) {
	t.Parallel()

	a := NewAmendment("ord-1", 1, AmendmentTypeItemAdded, "clerk-7")

	require.Equal(t, string(AmendmentStatusPendingApproval), a.Status)
	require.Equal(t, 1, a.AmendmentNumber)
	require.True(t, a.CanApprove())
	require.True(t, a.CanReject())
	require.False(t, a.CanApply())
}

func TestClassifyAutoApprovesSmallChanges(t *testing.T) {
	t.Parallel()

	a := NewAmendment("ord-1", 1, AmendmentTypeItemModified, "clerk-7")
	a.Classify(100000, 102000, false)

	require.Equal(t, string(AmendmentStatusApproved), a.Status)
	require.Equal(t, int64(100000), a.PreviousCents)
	require.Equal(t, int64(102000), a.NewCents)
	require.Equal(t, int64(2000), a.DifferenceCents)
	require.False(t, a.RequiresApproval)
	require.True(t, a.CanApply())
}

func TestClassifyKeepsLargeChangesPending(t *testing.T) {
	t.Parallel()

	a := NewAmendment("ord-1", 2, AmendmentTypeMultiChange, "clerk-7")
	a.Classify(100000, 50000, true)

	require.Equal(t, string(AmendmentStatusPendingApproval), a.Status)
	require.Equal(t, int64(-50000), a.DifferenceCents)
	require.True(t, a.RequiresApproval)
	require.False(t, a.CanApply())
}

func TestApprovalTransition(t *testing.T) {
	t.Parallel()

	a := NewAmendment("ord-1", 1, AmendmentTypeItemRemoved, "clerk-7")
	a.Classify(100000, 80000, true)

	a.MarkApproved("mgr-3", "customer called")

	require.Equal(t, string(AmendmentStatusApproved), a.Status)
	require.NotNil(t, a.ApprovedBy)
	require.Equal(t, "mgr-3", *a.ApprovedBy)
	require.NotNil(t, a.ApprovedAt)
	require.NotNil(t, a.ApprovalNotes)
	require.True(t, a.CanApply())

	// Approved is past the decision gate
	require.False(t, a.CanApprove())
	require.False(t, a.CanReject())
}

func TestRejectionIsTerminal(t *testing.T) {
	t.Parallel()

	a := NewAmendment("ord-1", 1, AmendmentTypeItemRemoved, "clerk-7")
	a.MarkRejected("mgr-3", "pricing error")

	require.Equal(t, string(AmendmentStatusRejected), a.Status)
	require.NotNil(t, a.RejectionReason)
	require.Equal(t, "pricing error", *a.RejectionReason)

	require.False(t, a.CanApprove())
	require.False(t, a.CanReject())
	require.False(t, a.CanApply())
}

func TestAppliedIsTerminal(t *testing.T) {
	t.Parallel()

	a := NewAmendment("ord-1", 1, AmendmentTypeItemModified, "clerk-7")
	a.Classify(100000, 101000, false)
	a.MarkApplied()

	require.Equal(t, string(AmendmentStatusApplied), a.Status)
	require.NotNil(t, a.AppliedAt)

	require.False(t, a.CanApprove())
	require.False(t, a.CanReject())
	require.False(t, a.CanApply())
}

func TestValidAmendmentType(t *testing.T) {
	t.Parallel()

	require.True(t, ValidAmendmentType("item_added"))
	require.True(t, ValidAmendmentType("item_removed"))
	require.True(t, ValidAmendmentType("item_modified"))
	require.True(t, ValidAmendmentType("multi_change"))
	require.False(t, ValidAmendmentType("item_duplicated"))
	require.False(t, ValidAmendmentType(""))
}
