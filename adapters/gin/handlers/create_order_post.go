package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/open-rails/tutorkit/adapters/ginutil"
	"github.com/open-rails/tutorkit/payments"
)

// HandleCreateOrderPOST registers a payment order with the gateway. The
// caller's identity rides along in the order notes so the completed payment
// can be tied back to the user at verification time.
func HandleCreateOrderPOST(gw *payments.Gateway, currency string, rl ginutil.RateLimiter) gin.HandlerFunc {
	type createOrderReq struct {
		Amount int64  `json:"amount"`
		PlanID string `json:"planId"`
	}
	if currency == "" {
		currency = "INR"
	}
	return func(c *gin.Context) {
		if !ginutil.AllowNamed(c, rl, ginutil.RLOrdersCreate) {
			ginutil.TooMany(c)
			return
		}
		uid, _ := c.Get("auth.user_id")
		userID, _ := uid.(string)
		if userID == "" {
			ginutil.Unauthorized(c, "missing_token")
			return
		}
		var req createOrderReq
		if err := c.ShouldBindJSON(&req); err != nil {
			ginutil.BadRequest(c, "Invalid amount")
			return
		}
		if err := payments.ValidateOrder(req.Amount, req.PlanID); err != nil {
			ginutil.BadRequest(c, "Invalid amount")
			return
		}
		order, err := gw.CreateOrder(c.Request.Context(), req.Amount, currency, strings.TrimSpace(req.PlanID), userID)
		if err != nil {
			ginutil.ServerErr(c, "Failed to create order")
			return
		}
		c.JSON(http.StatusOK, order)
	}
}
