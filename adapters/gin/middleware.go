// Package authgin mounts the order/verification HTTP surface and the
// session-token middleware on a gin router.
package authgin

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/open-rails/tutorkit/adapters/ginutil"
	"github.com/open-rails/tutorkit/tokens"
)

// AuthRequired verifies the bearer session token and stores the caller
// identity under auth.user_id / auth.email for downstream handlers.
func AuthRequired(verifier *tokens.Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := bearerToken(c)
		if raw == "" {
			ginutil.Unauthorized(c, "missing_token")
			c.Abort()
			return
		}
		claims, err := verifier.Verify(c.Request.Context(), raw)
		if err != nil {
			ginutil.Unauthorized(c, "invalid_token")
			c.Abort()
			return
		}
		c.Set("auth.user_id", claims.UserID)
		c.Set("auth.email", claims.Email)
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	h := c.GetHeader("Authorization")
	const prefix = "Bearer "
	if len(h) <= len(prefix) || !strings.EqualFold(h[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(h[len(prefix):])
}

// CurrentUserID returns the authenticated caller's id, if any.
func CurrentUserID(c *gin.Context) (string, bool) {
	v, ok := c.Get("auth.user_id")
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok && s != ""
}
