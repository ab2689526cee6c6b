// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file provides the REST authentication gate. It mirrors the websocket
// admission contract: a verifiable bearer token yields a user identifier,
// anything else is rejected before the handler runs.
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-social-backend/internal/auth"
)

// Auth verifies the Authorization bearer token and stores the asserted user
// ID in the Gin context under "userID" for handlers, logging, and rate
// limiting.
func Auth(verifier auth.Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		userID, err := verifier.Verify(token)
		if err != nil {
			rid, _ := c.Get(requestIDKey)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"request_id": asString(rid),
				"code":       "unauthorized",
				"message":    "invalid or missing credential",
			})
			return
		}
		c.Set("userID", userID)
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	h := c.GetHeader("Authorization")
	if strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	return ""
}
