package accounts

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

// Creator runs account creation inside a workflow transaction.
type Creator interface {
	CreateAccount(ctx context.Context, scope tenant.Scope, p CreateParams) (*models.Account, error)
}

// CreateRequest is the body for POST /accounts.
type CreateRequest struct {
	Name     string     `json:"name" binding:"required"`
	OwnerID  *uuid.UUID `json:"owner_id"`
	Industry string     `json:"industry"`
	Website  string     `json:"website"`
	Phone    string     `json:"phone"`
}

// UpdateRequest is the body for PUT /accounts/:id.
type UpdateRequest struct {
	Name     string `json:"name" binding:"required"`
	Industry string `json:"industry"`
	Website  string `json:"website"`
	Phone    string `json:"phone"`
}

// Handler handles account endpoints.
type Handler struct {
	repo    *Repository
	creator Creator
}

// NewHandler creates an accounts handler.
func NewHandler(repo *Repository, creator Creator) *Handler {
	return &Handler{repo: repo, creator: creator}
}

// Create handles POST /accounts.
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
	p := CreateParams{
		Name:     req.Name,
		Industry: req.Industry,
		Website:  req.Website,
		Phone:    req.Phone,
	}
	if req.OwnerID != nil {
		p.OwnerID = *req.OwnerID
	}
	account, err := h.creator.CreateAccount(c.Request.Context(), scope, p)
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			response.Conflict(c, "account already exists")
			return
		}
		response.Internal(c, "failed to create account")
		return
	}
	response.Created(c, account)
}

// Get handles GET /accounts/:id.
func (h *Handler) Get(c *gin.Context) {
	scope, ok := tenant.FromContext(c)
	if !ok {
		response.Unauthorized(c, "missing tenant scope")
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid account id")
		return
	}
	account, err := h.repo.GetByID(c.Request.Context(), scope, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			response.NotFound(c, "account not found")
			return
		}
		response.Internal(c, "failed to load account")
		return
	}
	response.OK(c, account)
}

// List handles GET /accounts.
func (h *Handler) List(c *gin.Context) {
	scope, ok := tenant.FromContext(c)
	if !ok {
		response.Unauthorized(c, "missing tenant scope")
		return
	}
	list, err := h.repo.List(c.Request.Context(), scope)
	if err != nil {
		response.Internal(c, "failed to list accounts")
		return
	}
	response.OK(c, list)
}

// Update handles PUT /accounts/:id.
func (h *Handler) Update(c *gin.Context) {
	scope, ok := tenant.FromContext(c)
	if !ok {
		response.Unauthorized(c, "missing tenant scope")
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid account id")
		return
	}
	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	account, err := h.repo.Update(c.Request.Context(), scope, id, UpdateParams{
		Name:     req.Name,
		Industry: req.Industry,
		Website:  req.Website,
		Phone:    req.Phone,
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			response.NotFound(c, "account not found")
			return
		}
		response.Internal(c, "failed to update account")
		return
	}
	response.OK(c, account)
}

// Delete handles DELETE /accounts/:id.
func (h *Handler) Delete(c *gin.Context) {
	scope, ok := tenant.FromContext(c)
	if !ok {
		response.Unauthorized(c, "missing tenant scope")
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid account id")
		return
	}
	if err := h.repo.SoftDelete(c.Request.Context(), scope, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			response.NotFound(c, "account not found")
			return
		}
		response.Internal(c, "failed to delete account")
		return
	}
	response.NoContent(c)
}
