package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/open-rails/tutorkit/adapters/ginutil"
)

// SubscriptionCanceler flips a user's active subscription off.
// *entitlements.Store satisfies it.
type SubscriptionCanceler interface {
	Deactivate(ctx context.Context, userID string) error
}

// HandleCancelSubscriptionPOST deactivates the caller's subscription. The
// row stays for bookkeeping; gating flips on the next entitlement refresh.
func HandleCancelSubscriptionPOST(store SubscriptionCanceler, rl ginutil.RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !ginutil.AllowNamed(c, rl, ginutil.RLSubscriptionCancel) {
			ginutil.TooMany(c)
			return
		}
		uid, _ := c.Get("auth.user_id")
		userID, _ := uid.(string)
		if userID == "" {
			ginutil.Unauthorized(c, "missing_token")
			return
		}
		if err := store.Deactivate(c.Request.Context(), userID); err != nil {
			ginutil.ServerErr(c, "Failed to cancel subscription")
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true})
	}
}
