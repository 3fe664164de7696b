package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// CORS answers preflights and stamps the headers the till front-end needs.
// The register UI runs on the same LAN as the backend, so the origin is left
// open; X-Request-ID is exposed for log correlation.
func CORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Authorization, Content-Type, X-Request-ID")
		c.Header("Access-Control-Expose-Headers", "X-Request-ID")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
