package activities

import (
	"github.com/gin-gonic/gin"

	"github.com/relaycrm/backend/internal/tenant"
	"github.com/relaycrm/backend/pkg/response"
)

// Handler serves the read-only activity log.
type Handler struct {
	repo *Repository
}

// NewHandler creates an activities handler.
func NewHandler(repo *Repository) *Handler {
	return &Handler{repo: repo}
}

// List handles GET /activities.
func (h *Handler) List(c *gin.Context) {
	scope, ok := tenant.FromContext(c)
	if !ok {
		response.Unauthorized(c, "missing tenant scope")
		return
	}
	list, err := h.repo.List(c.Request.Context(), scope)
	if err != nil {
		response.Internal(c, "failed to list activities")
		return
	}
	response.OK(c, list)
}
