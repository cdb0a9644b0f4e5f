package assignment

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/relaycrm/backend/internal/models"
	"github.com/relaycrm/backend/internal/store"
	"github.com/relaycrm/backend/internal/tenant"
	"github.com/relaycrm/backend/pkg/response"
)

// CreateRequest is the body for POST /assignment-rules.
type CreateRequest struct {
	ObjectType     string    `json:"object_type" binding:"required"`
	ConditionField string    `json:"condition_field" binding:"required"`
	ConditionValue string    `json:"condition_value" binding:"required"`
	AssignTo       uuid.UUID `json:"assign_to" binding:"required"`
}

// Handler handles assignment rule endpoints.
type Handler struct {
	repo *Repository
}

// NewHandler creates an assignment rules handler.
func NewHandler(repo *Repository) *Handler {
	return &Handler{repo: repo}
}

// Create handles POST /assignment-rules.
func (h *Handler) Create(c *gin.Context) {
	scope, ok := tenant.FromContext(c)
	if !ok {
		response.Unauthorized(c, "missing tenant scope")
		return
	}
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	objectType := models.RuleObjectType(req.ObjectType)
	if !objectType.Valid() {
		response.BadRequest(c, "object_type must be Lead or Opportunity")
		return
	}
	rule, err := h.repo.Create(c.Request.Context(), scope, objectType, req.ConditionField, req.ConditionValue, req.AssignTo)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			response.NotFound(c, "assignee not found")
			return
		}
		response.Internal(c, "failed to create assignment rule")
		return
	}
	response.Created(c, rule)
}

// List handles GET /assignment-rules.
func (h *Handler) List(c *gin.Context) {
	scope, ok := tenant.FromContext(c)
	if !ok {
		response.Unauthorized(c, "missing tenant scope")
		return
	}
	rules, err := h.repo.List(c.Request.Context(), scope)
	if err != nil {
		response.Internal(c, "failed to list assignment rules")
		return
	}
	response.OK(c, rules)
}

// Delete handles DELETE /assignment-rules/:id.
func (h *Handler) Delete(c *gin.Context) {
	scope, ok := tenant.FromContext(c)
	if !ok {
		response.Unauthorized(c, "missing tenant scope")
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid rule id")
		return
	}
	if err := h.repo.Delete(c.Request.Context(), scope, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			response.NotFound(c, "assignment rule not found")
			return
		}
		response.Internal(c, "failed to delete assignment rule")
		return
	}
	response.NoContent(c)
}
