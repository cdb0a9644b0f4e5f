package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/relaycrm/backend/internal/auth"
	"github.com/relaycrm/backend/internal/tenant"
	"github.com/relaycrm/backend/pkg/response"
)

// ContextClaims is the key for decoded token claims in gin context.
const ContextClaims = "token_claims"

// JWT returns a middleware that validates the bearer token and sets the
// decoded claims and tenant scope in context. Permission data is read off
// the token; no store round-trip happens here.
func JWT(jwtService *auth.JWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Unauthorized(c, "missing authorization header")
			c.Abort()
			return
		}
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			response.Unauthorized(c, "invalid authorization header")
			c.Abort()
			return
		}
		claims, err := jwtService.Validate(parts[1])
		if err != nil {
			response.Unauthorized(c, "invalid or expired token")
			c.Abort()
			return
		}
		c.Set(ContextClaims, claims)
		tenant.SetScope(c, tenant.Scope{
			OrganizationID: claims.OrganizationID,
			UserID:         claims.UserID,
		})
		c.Next()
	}
}

// ClaimsFromContext returns the decoded claims set by JWT.
func ClaimsFromContext(c *gin.Context) (*auth.Claims, bool) {
	v, ok := c.Get(ContextClaims)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*auth.Claims)
	return claims, ok
}
