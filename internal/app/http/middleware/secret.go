package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
)

// RequireAPISecret guards service-to-service routes. Callers pass the shared
// secret in the "secret" query parameter.
func RequireAPISecret(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		got := c.Query("secret")
		if secret == "" || subtle.ConstantTimeCompare([]byte(got), []byte(secret)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "You are not authorized to call this API"})
			return
		}
		c.Next()
	}
}
