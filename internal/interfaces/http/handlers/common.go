package handlers

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/veridian-id/veridian/internal/shared/constants"
	"github.com/veridian-id/veridian/internal/shared/logger"
)

// getUserID safely extracts the authenticated user ID from gin context.
func getUserID(c *gin.Context, log logger.Interface) (uint, bool) {
	userIDVal, exists := c.Get(constants.ContextKeyUserID)
	if !exists {
		return 0, false
	}
	userID, ok := userIDVal.(uint)
	if !ok {
		log.Errorw("invalid user_id type in context", "type", fmt.Sprintf("%T", userIDVal))
		return 0, false
	}
	return userID, true
}

// decodeBase64 accepts the base64url flavors browsers emit, padded or not.
func decodeBase64(s string) ([]byte, error) {
	trimmed := strings.TrimRight(s, "=")
	if data, err := base64.RawURLEncoding.DecodeString(trimmed); err == nil {
		return data, nil
	}
	return base64.StdEncoding.DecodeString(s)
}
