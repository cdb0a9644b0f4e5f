package roles

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/relaycrm/backend/internal/models"
	"github.com/relaycrm/backend/internal/store"
	"github.com/relaycrm/backend/internal/tenant"
	"github.com/relaycrm/backend/pkg/response"
)

// Store is the role persistence surface the handler needs.
type Store interface {
	ListPermissions(ctx context.Context) ([]models.Permission, error)
	Create(ctx context.Context, scope tenant.Scope, name, description string, permissionIDs []uuid.UUID) (*models.RoleWithPermissions, error)
	List(ctx context.Context, scope tenant.Scope) ([]models.RoleWithPermissions, error)
	Update(ctx context.Context, scope tenant.Scope, roleID uuid.UUID, name, description string, permissionIDs []uuid.UUID) (*models.RoleWithPermissions, error)
	Delete(ctx context.Context, scope tenant.Scope, roleID uuid.UUID) error
}

// CreateRequest is the body for POST /roles.
type CreateRequest struct {
	Name          string      `json:"name" binding:"required"`
	Description   string      `json:"description"`
	PermissionIDs []uuid.UUID `json:"permission_ids"`
}

// UpdateRequest is the body for PATCH /roles/:id. The permission set is
// replaced in full.
type UpdateRequest struct {
	Name          string      `json:"name" binding:"required"`
	Description   string      `json:"description"`
	PermissionIDs []uuid.UUID `json:"permission_ids"`
}

// Handler handles role management endpoints.
type Handler struct {
	repo Store
}

// NewHandler creates a roles handler.
func NewHandler(repo Store) *Handler {
	return &Handler{repo: repo}
}

// ListPermissions handles GET /permissions.
func (h *Handler) ListPermissions(c *gin.Context) {
	list, err := h.repo.ListPermissions(c.Request.Context())
	if err != nil {
		response.Internal(c, "failed to list permissions")
		return
	}
	response.OK(c, list)
}

// Create handles POST /roles.
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
	role, err := h.repo.Create(c.Request.Context(), scope, req.Name, req.Description, req.PermissionIDs)
	if err != nil {
		h.writeError(c, err, "failed to create role")
		return
	}
	response.Created(c, role)
}

// List handles GET /roles.
func (h *Handler) List(c *gin.Context) {
	scope, ok := tenant.FromContext(c)
	if !ok {
		response.Unauthorized(c, "missing tenant scope")
		return
	}
	list, err := h.repo.List(c.Request.Context(), scope)
	if err != nil {
		response.Internal(c, "failed to list roles")
		return
	}
	response.OK(c, list)
}

// Update handles PATCH /roles/:id.
func (h *Handler) Update(c *gin.Context) {
	scope, ok := tenant.FromContext(c)
	if !ok {
		response.Unauthorized(c, "missing tenant scope")
		return
	}
	roleID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid role id")
		return
	}
	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	role, err := h.repo.Update(c.Request.Context(), scope, roleID, req.Name, req.Description, req.PermissionIDs)
	if err != nil {
		h.writeError(c, err, "failed to update role")
		return
	}
	response.OK(c, role)
}

// Delete handles DELETE /roles/:id.
func (h *Handler) Delete(c *gin.Context) {
	scope, ok := tenant.FromContext(c)
	if !ok {
		response.Unauthorized(c, "missing tenant scope")
		return
	}
	roleID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid role id")
		return
	}
	if err := h.repo.Delete(c.Request.Context(), scope, roleID); err != nil {
		h.writeError(c, err, "failed to delete role")
		return
	}
	response.NoContent(c)
}

func (h *Handler) writeError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, store.ErrSystemRole):
		response.Forbidden(c, "system roles cannot be modified")
	case errors.Is(err, store.ErrRoleInUse):
		response.Forbidden(c, "role is still assigned to users")
	case errors.Is(err, store.ErrNotFound):
		response.NotFound(c, "role not found")
	case errors.Is(err, store.ErrConflict):
		response.Conflict(c, "role name already exists")
	default:
		response.Internal(c, fallback)
	}
}
