package contacts

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

// Creator runs contact creation inside a workflow transaction, including
// the parent account tenancy check.
type Creator interface {
	CreateContact(ctx context.Context, scope tenant.Scope, p CreateParams) (*models.Contact, error)
}

// CreateRequest is the body for POST /contacts.
type CreateRequest struct {
	AccountID uuid.UUID  `json:"account_id" binding:"required"`
	OwnerID   *uuid.UUID `json:"owner_id"`
	FirstName string     `json:"first_name" binding:"required"`
	LastName  string     `json:"last_name" binding:"required"`
	Email     string     `json:"email"`
	Phone     string     `json:"phone"`
	Title     string     `json:"title"`
}

// UpdateRequest is the body for PUT /contacts/:id.
type UpdateRequest struct {
	FirstName string `json:"first_name" binding:"required"`
	LastName  string `json:"last_name" binding:"required"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Title     string `json:"title"`
}

// Handler handles contact endpoints.
type Handler struct {
	repo    *Repository
	creator Creator
}

// NewHandler creates a contacts handler.
func NewHandler(repo *Repository, creator Creator) *Handler {
	return &Handler{repo: repo, creator: creator}
}

// Create handles POST /contacts.
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
		AccountID: req.AccountID,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Phone:     req.Phone,
		Title:     req.Title,
	}
	if req.OwnerID != nil {
		p.OwnerID = *req.OwnerID
	}
	contact, err := h.creator.CreateContact(c.Request.Context(), scope, p)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			response.NotFound(c, "account not found")
			return
		}
		if errors.Is(err, store.ErrConflict) {
			response.Conflict(c, "contact already exists")
			return
		}
		response.Internal(c, "failed to create contact")
		return
	}
	response.Created(c, contact)
}

// Get handles GET /contacts/:id.
func (h *Handler) Get(c *gin.Context) {
	scope, ok := tenant.FromContext(c)
	if !ok {
		response.Unauthorized(c, "missing tenant scope")
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid contact id")
		return
	}
	contact, err := h.repo.GetByID(c.Request.Context(), scope, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			response.NotFound(c, "contact not found")
			return
		}
		response.Internal(c, "failed to load contact")
		return
	}
	response.OK(c, contact)
}

// List handles GET /contacts.
func (h *Handler) List(c *gin.Context) {
	scope, ok := tenant.FromContext(c)
	if !ok {
		response.Unauthorized(c, "missing tenant scope")
		return
	}
	list, err := h.repo.List(c.Request.Context(), scope)
	if err != nil {
		response.Internal(c, "failed to list contacts")
		return
	}
	response.OK(c, list)
}

// Update handles PUT /contacts/:id.
func (h *Handler) Update(c *gin.Context) {
	scope, ok := tenant.FromContext(c)
	if !ok {
		response.Unauthorized(c, "missing tenant scope")
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid contact id")
		return
	}
	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	contact, err := h.repo.Update(c.Request.Context(), scope, id, UpdateParams{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Phone:     req.Phone,
		Title:     req.Title,
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			response.NotFound(c, "contact not found")
			return
		}
		response.Internal(c, "failed to update contact")
		return
	}
	response.OK(c, contact)
}

// Delete handles DELETE /contacts/:id.
func (h *Handler) Delete(c *gin.Context) {
	scope, ok := tenant.FromContext(c)
	if !ok {
		response.Unauthorized(c, "missing tenant scope")
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid contact id")
		return
	}
	if err := h.repo.SoftDelete(c.Request.Context(), scope, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			response.NotFound(c, "contact not found")
			return
		}
		response.Internal(c, "failed to delete contact")
		return
	}
	response.NoContent(c)
}
