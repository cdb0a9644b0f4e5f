// Package tenant carries the caller's organization scope through a request.
// Every repository method takes a Scope so an unscoped query cannot be
// written by accident; scopes are only set by the JWT middleware.
package tenant

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const contextKey = "tenant_scope"

// Scope identifies the authenticated caller and their organization.
type Scope struct {
	OrganizationID uuid.UUID
	UserID         uuid.UUID
}

// SetScope stores the scope in the gin context. Called by the JWT
// middleware after token validation.
func SetScope(c *gin.Context, s Scope) {
	c.Set(contextKey, s)
}

// FromContext returns the scope set by the JWT middleware.
func FromContext(c *gin.Context) (Scope, bool) {
	v, ok := c.Get(contextKey)
	if !ok {
		return Scope{}, false
	}
	s, ok := v.(Scope)
	if !ok || s.OrganizationID == uuid.Nil {
		return Scope{}, false
	}
	return s, true
}
