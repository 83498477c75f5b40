package authgin

import (
	"github.com/gin-gonic/gin"

	"github.com/open-rails/tutorkit/adapters/gin/handlers"
	"github.com/open-rails/tutorkit/adapters/ginutil"
	"github.com/open-rails/tutorkit/bus"
	"github.com/open-rails/tutorkit/payments"
	"github.com/open-rails/tutorkit/tokens"
)

// MountConfig wires the HTTP surface.
type MountConfig struct {
	Gateway       *payments.Gateway
	Payments      *payments.Service
	Subscriptions handlers.SubscriptionCanceler
	Verifier      *tokens.Verifier
	Coord         *bus.Coordinator
	Limiter       ginutil.RateLimiter
	Currency      string
}

// Mount registers the order/verification endpoints, the external session
// channel, and the internal context bus on r.
//
// Order creation requires a session token; payment verification does not —
// its only trust anchor is the gateway signature, matching the checkout
// callback's shape.
func Mount(r gin.IRouter, cfg MountConfig) {
	r.POST("/create-order",
		AuthRequired(cfg.Verifier),
		handlers.HandleCreateOrderPOST(cfg.Gateway, cfg.Currency, cfg.Limiter))
	r.POST("/verify-payment",
		handlers.HandleVerifyPaymentPOST(cfg.Payments, cfg.Limiter))
	if cfg.Subscriptions != nil {
		r.POST("/cancel-subscription",
			AuthRequired(cfg.Verifier),
			handlers.HandleCancelSubscriptionPOST(cfg.Subscriptions, cfg.Limiter))
	}

	if cfg.Coord != nil {
		r.POST("/external-message", handlers.HandleExternalMessagePOST(cfg.Coord))
		r.GET("/bus", func(c *gin.Context) {
			cfg.Coord.ServeWS(c.Writer, c.Request)
		})
	}
}
