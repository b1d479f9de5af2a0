package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// APIKeyMiddleware guards ingestion routes: the bearer token must match the
// resolved project's API key exactly. Runs after ProjectMiddleware.
func APIKeyMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		projectCtx, exists := GetProjectContext(c)
		if !exists {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "project context not found"})
			c.Abort()
			return
		}

		auth := c.GetHeader("Authorization")
		if !strings.HasPrefix(auth, "Bearer ") {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing API key"})
			c.Abort()
			return
		}

		apiKey := strings.TrimPrefix(auth, "Bearer ")
		if subtle.ConstantTimeCompare([]byte(apiKey), []byte(projectCtx.Config.APIKey)) != 1 {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid API key"})
			c.Abort()
			return
		}

		c.Next()
	}
}
