package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/open-rails/tutorkit/bus"
)

// HandleExternalMessagePOST is the external channel: arbitrary web pages
// hand a freshly established session to the coordinator here. The body is
// untrusted input; the coordinator's origin policy and message-type switch
// are the only gates.
func HandleExternalMessagePOST(coord *bus.Coordinator) gin.HandlerFunc {
	return func(c *gin.Context) {
		var env bus.Envelope
		if err := c.ShouldBindJSON(&env); err != nil {
			c.JSON(http.StatusBadRequest, bus.ExternalReply{Success: false, Error: "malformed message"})
			return
		}
		reply := coord.HandleExternal(c.Request.Context(), c.GetHeader("Origin"), env)
		status := http.StatusOK
		if !reply.Success {
			status = http.StatusBadRequest
		}
		c.JSON(status, reply)
	}
}
