package middleware

import (
	"github.com/gin-gonic/gin"
)

// IPMiddleware stores the resolved client address under "client_ip" so the
// login audit trail records the caller behind the proxy, not the proxy itself.
func IPMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		// ClientIP() already walks X-Forwarded-For for us.
		c.Set("client_ip", c.ClientIP())
		c.Next()
	}
}
