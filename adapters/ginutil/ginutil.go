// Package ginutil carries the reply helpers and rate-limit plumbing shared
// by all gin handlers.
package ginutil

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Named rate-limit buckets.
const (
	RLOrdersCreate       = "orders.create"
	RLPaymentsVerify     = "payments.verify"
	RLSubscriptionCancel = "subscriptions.cancel"
)

// RateLimiter is implemented by the memory and redis limiters.
type RateLimiter interface {
	AllowNamed(bucket, key string) (bool, error)
}

// AllowNamed checks the caller against a named bucket, keyed by user id
// when authenticated and client IP otherwise. A limiter error fails open:
// losing Redis must not take payments down with it.
func AllowNamed(c *gin.Context, rl RateLimiter, bucket string) bool {
	if rl == nil {
		return true
	}
	key := c.ClientIP()
	if uid, ok := c.Get("auth.user_id"); ok {
		if s, ok := uid.(string); ok && s != "" {
			key = s
		}
	}
	ok, err := rl.AllowNamed(bucket, key)
	if err != nil {
		return true
	}
	return ok
}

func BadRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}

func Unauthorized(c *gin.Context, msg string) {
	c.JSON(http.StatusUnauthorized, gin.H{"error": msg})
}

func ServerErr(c *gin.Context, msg string) {
	c.JSON(http.StatusInternalServerError, gin.H{"error": msg})
}

func TooMany(c *gin.Context) {
	c.JSON(http.StatusTooManyRequests, gin.H{"error": "rate_limited"})
}
