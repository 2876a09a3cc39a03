package middleware

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/veridian-id/veridian/internal/shared/constants"
	"github.com/veridian-id/veridian/internal/shared/utils"
)

const headerUserID = "X-User-ID"

// Identity resolves the authenticated subject forwarded by the API gateway.
// The gateway terminates session authentication; this service only reads the
// subject header it injects.
func Identity() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader(headerUserID)
		if raw == "" {
			c.Next()
			return
		}

		userID, err := strconv.ParseUint(raw, 10, 64)
		if err != nil || userID == 0 {
			utils.ErrorResponse(c, http.StatusUnauthorized, "invalid subject header")
			c.Abort()
			return
		}

		c.Set(constants.ContextKeyUserID, uint(userID))
		c.Next()
	}
}

// RequireUser aborts requests that reached a user-scoped route without a
// resolved subject.
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, exists := c.Get(constants.ContextKeyUserID); !exists {
			utils.ErrorResponse(c, http.StatusUnauthorized, "user not authenticated")
			c.Abort()
			return
		}
		c.Next()
	}
}
