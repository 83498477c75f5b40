package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/open-rails/tutorkit/adapters/ginutil"
	"github.com/open-rails/tutorkit/payments"
)

// HandleVerifyPaymentPOST verifies a completed payment's signature and
// activates the entitlement. Field names match the gateway's checkout
// callback and must not change.
func HandleVerifyPaymentPOST(svc *payments.Service, rl ginutil.RateLimiter) gin.HandlerFunc {
	type verifyPaymentReq struct {
		OrderID   string `json:"razorpay_order_id"`
		PaymentID string `json:"razorpay_payment_id"`
		Signature string `json:"razorpay_signature"`
		UserID    string `json:"userId"`
		PlanID    string `json:"planId"`
	}
	return func(c *gin.Context) {
		if !ginutil.AllowNamed(c, rl, ginutil.RLPaymentsVerify) {
			ginutil.TooMany(c)
			return
		}
		var req verifyPaymentReq
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Missing required parameters"})
			return
		}
		err := svc.Verify(c.Request.Context(), payments.VerificationRequest{
			OrderID:   req.OrderID,
			PaymentID: req.PaymentID,
			Signature: req.Signature,
			UserID:    req.UserID,
			PlanID:    req.PlanID,
		})
		switch {
		case err == nil:
			c.JSON(http.StatusOK, gin.H{"success": true})
		case errors.Is(err, payments.ErrMissingFields):
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Missing required parameters"})
		case errors.Is(err, payments.ErrSignatureMismatch):
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid payment signature"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Payment verification failed"})
		}
	}
}
