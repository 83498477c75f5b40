package entitlements

import (
	"time"

	"github.com/google/uuid"
)

// Plan identifiers as sold on the pricing page.
const (
	PlanFree    = "free"
	PlanPremium = "premium"
	PlanTeam    = "team"
)

// Record statuses.
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

// Record is the authoritative subscription row for a user.
// At most one active row exists per user; repeat payments mutate
// the existing row instead of inserting a second one.
type Record struct {
	ID        uuid.UUID `json:"id"`
	UserID    string    `json:"user_id"`
	PlanID    string    `json:"plan_id"`
	Status    string    `json:"status"`
	PaymentID string    `json:"payment_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Allowed reports whether a cached subscription status grants access to
// gated features. Unknown, empty, or stale values deny: a context that
// has never heard of the user fails closed.
func Allowed(subscriptionStatus string) bool {
	switch subscriptionStatus {
	case PlanPremium, PlanTeam:
		return true
	default:
		return false
	}
}
