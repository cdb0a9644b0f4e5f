package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/relaycrm/backend/pkg/response"
)

// RequirePermission returns a middleware that allows the request only if
// the token's embedded permission set contains the exact key. An empty key
// declares no requirement and always allows. The check fails closed: no
// claims, no role, or an empty permission list all reject.
func RequirePermission(key string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if key == "" {
			c.Next()
			return
		}
		claims, ok := ClaimsFromContext(c)
		if !ok {
			response.Unauthorized(c, "missing user context")
			c.Abort()
			return
		}
		if !claims.HasPermission(key) {
			response.Forbidden(c, "insufficient permissions")
			c.Abort()
			return
		}
		c.Next()
	}
}
