// Package approval decides whether a proposed order change needs a manager's
// sign-off before it can be applied.
package approval

// Thresholds for routing an amendment through the approval gate. A change is
// large when it exceeds $100 in absolute terms or 10% of the pre-change total.
const (
	AbsoluteThresholdCents int64   = 10000
	RelativeThreshold      float64 = 0.10
)

// RequiresApproval reports whether a proposed total change must be approved
// by a human before application. Sign is irrelevant: a discount and an
// increase of the same magnitude are classified identically. The previous
// total is clamped to 1 so the relative rule stays defined for empty orders.
func RequiresApproval(differenceCents, previousTotalCents int64) bool {
	diff := differenceCents

	if diff < 0 {
		diff = -diff
	}

	if diff > AbsoluteThresholdCents {
		return true
	}

	base := previousTotalCents

	if base < 1 {
		base = 1
	}

	return float64(diff)/float64(base) > RelativeThreshold
}
