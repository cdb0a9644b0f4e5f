package opportunities

import (
	"context"
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/relaycrm/backend/internal/models"
	"github.com/relaycrm/backend/internal/store"
	"github.com/relaycrm/backend/internal/tenant"
	"github.com/relaycrm/backend/pkg/response"
)

// Creator runs opportunity creation inside a workflow transaction,
// including the parent account tenancy check.
type Creator interface {
	CreateOpportunity(ctx context.Context, scope tenant.Scope, p CreateParams) (*models.Opportunity, error)
}

// CreateRequest is the body for POST /opportunities.
type CreateRequest struct {
	AccountID uuid.UUID  `json:"account_id" binding:"required"`
	OwnerID   *uuid.UUID `json:"owner_id"`
	Name      string     `json:"name" binding:"required"`
	Stage     string     `json:"stage"`
	Amount    float64    `json:"amount"`
	CloseDate *time.Time `json:"close_date"`
}

// UpdateRequest is the body for PUT /opportunities/:id.
type UpdateRequest struct {
	Name      string     `json:"name" binding:"required"`
	Stage     string     `json:"stage"`
	Amount    float64    `json:"amount"`
	CloseDate *time.Time `json:"close_date"`
}

// Handler handles opportunity endpoints.
type Handler struct {
	repo    *Repository
	creator Creator
}

// NewHandler creates an opportunities handler.
func NewHandler(repo *Repository, creator Creator) *Handler {
	return &Handler{repo: repo, creator: creator}
}

// Create handles POST /opportunities.
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
		Name:      req.Name,
		Stage:     req.Stage,
		Amount:    req.Amount,
		CloseDate: req.CloseDate,
	}
	if req.OwnerID != nil {
		p.OwnerID = *req.OwnerID
	}
	opp, err := h.creator.CreateOpportunity(c.Request.Context(), scope, p)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			response.NotFound(c, "account not found")
			return
		}
		if errors.Is(err, store.ErrConflict) {
			response.Conflict(c, "opportunity already exists")
			return
		}
		response.Internal(c, "failed to create opportunity")
		return
	}
	response.Created(c, opp)
}

// Get handles GET /opportunities/:id.
func (h *Handler) Get(c *gin.Context) {
	scope, ok := tenant.FromContext(c)
	if !ok {
		response.Unauthorized(c, "missing tenant scope")
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid opportunity id")
		return
	}
	opp, err := h.repo.GetByID(c.Request.Context(), scope, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			response.NotFound(c, "opportunity not found")
			return
		}
		response.Internal(c, "failed to load opportunity")
		return
	}
	response.OK(c, opp)
}

// List handles GET /opportunities.
func (h *Handler) List(c *gin.Context) {
	scope, ok := tenant.FromContext(c)
	if !ok {
		response.Unauthorized(c, "missing tenant scope")
		return
	}
	list, err := h.repo.List(c.Request.Context(), scope)
	if err != nil {
		response.Internal(c, "failed to list opportunities")
		return
	}
	response.OK(c, list)
}

// Update handles PUT /opportunities/:id.
func (h *Handler) Update(c *gin.Context) {
	scope, ok := tenant.FromContext(c)
	if !ok {
		response.Unauthorized(c, "missing tenant scope")
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid opportunity id")
		return
	}
	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	opp, err := h.repo.Update(c.Request.Context(), scope, id, UpdateParams{
		Name:      req.Name,
		Stage:     req.Stage,
		Amount:    req.Amount,
		CloseDate: req.CloseDate,
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			response.NotFound(c, "opportunity not found")
			return
		}
		response.Internal(c, "failed to update opportunity")
		return
	}
	response.OK(c, opp)
}

// Delete handles DELETE /opportunities/:id.
func (h *Handler) Delete(c *gin.Context) {
	scope, ok := tenant.FromContext(c)
	if !ok {
		response.Unauthorized(c, "missing tenant scope")
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid opportunity id")
		return
	}
	if err := h.repo.SoftDelete(c.Request.Context(), scope, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			response.NotFound(c, "opportunity not found")
			return
		}
		response.Internal(c, "failed to delete opportunity")
		return
	}
	response.NoContent(c)
}
