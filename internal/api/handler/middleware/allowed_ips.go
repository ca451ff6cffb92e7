package middleware

import (
	"codegen/internal/api/handler/response"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// AllowedIPs rejects clients whose IP matches none of the patterns. A pattern
// is an exact IP or ends with "*" to match a prefix, and "*" alone allows
// everyone.
func AllowedIPs(patterns []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		if !ipAllowed(ip, patterns) {
			c.AbortWithStatusJSON(http.StatusForbidden, response.APIError{Message: "You are not allowed to access this page."})
			return
		}
		c.Next()
	}
}

func ipAllowed(ip string, patterns []string) bool {
	for _, pattern := range patterns {
		if pattern == "*" || pattern == ip {
			return true
		}
		if prefix, ok := strings.CutSuffix(pattern, "*"); ok && strings.HasPrefix(ip, prefix) {
			return true
		}
	}
	return false
}
