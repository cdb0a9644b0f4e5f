package leads

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

// Creator runs lead creation and conversion inside workflow transactions.
type Creator interface {
	CreateLead(ctx context.Context, scope tenant.Scope, p CreateParams) (*models.Lead, error)
	ConvertLead(ctx context.Context, scope tenant.Scope, leadID uuid.UUID, accountName, opportunityName string) (uuid.UUID, error)
}

// CreateRequest is the body for POST /leads.
type CreateRequest struct {
	Name    string     `json:"name" binding:"required"`
	OwnerID *uuid.UUID `json:"owner_id"`
	Email   string     `json:"email"`
	Phone   string     `json:"phone"`
	Company string     `json:"company"`
	Source  string     `json:"source"`
	Status  string     `json:"status"`
}

// UpdateRequest is the body for PUT /leads/:id.
type UpdateRequest struct {
	Name    string `json:"name" binding:"required"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Company string `json:"company"`
	Source  string `json:"source"`
	Status  string `json:"status"`
}

// ConvertRequest is the body for POST /leads/:id/convert.
type ConvertRequest struct {
	AccountName     string `json:"account_name" binding:"required"`
	OpportunityName string `json:"opportunity_name" binding:"required"`
}

// ConvertResponse carries the id of the opportunity a conversion produced.
type ConvertResponse struct {
	OpportunityID uuid.UUID `json:"opportunity_id"`
}

// Handler handles lead endpoints.
type Handler struct {
	repo    *Repository
	creator Creator
}

// NewHandler creates a leads handler.
func NewHandler(repo *Repository, creator Creator) *Handler {
	return &Handler{repo: repo, creator: creator}
}

// Create handles POST /leads.
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
		Name:    req.Name,
		Email:   req.Email,
		Phone:   req.Phone,
		Company: req.Company,
		Source:  req.Source,
		Status:  req.Status,
	}
	if req.OwnerID != nil {
		p.OwnerID = *req.OwnerID
	}
	lead, err := h.creator.CreateLead(c.Request.Context(), scope, p)
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			response.Conflict(c, "lead already exists")
			return
		}
		response.Internal(c, "failed to create lead")
		return
	}
	response.Created(c, lead)
}

// Convert handles POST /leads/:id/convert.
func (h *Handler) Convert(c *gin.Context) {
	scope, ok := tenant.FromContext(c)
	if !ok {
		response.Unauthorized(c, "missing tenant scope")
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid lead id")
		return
	}
	var req ConvertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	oppID, err := h.creator.ConvertLead(c.Request.Context(), scope, id, req.AccountName, req.OpportunityName)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			response.NotFound(c, "lead not found")
			return
		}
		if errors.Is(err, store.ErrConflict) {
			response.Conflict(c, "conversion conflicts with an existing record")
			return
		}
		response.Internal(c, "failed to convert lead")
		return
	}
	response.OK(c, ConvertResponse{OpportunityID: oppID})
}

// Get handles GET /leads/:id.
func (h *Handler) Get(c *gin.Context) {
	scope, ok := tenant.FromContext(c)
	if !ok {
		response.Unauthorized(c, "missing tenant scope")
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid lead id")
		return
	}
	lead, err := h.repo.GetByID(c.Request.Context(), scope, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			response.NotFound(c, "lead not found")
			return
		}
		response.Internal(c, "failed to load lead")
		return
	}
	response.OK(c, lead)
}

// List handles GET /leads.
func (h *Handler) List(c *gin.Context) {
	scope, ok := tenant.FromContext(c)
	if !ok {
		response.Unauthorized(c, "missing tenant scope")
		return
	}
	list, err := h.repo.List(c.Request.Context(), scope)
	if err != nil {
		response.Internal(c, "failed to list leads")
		return
	}
	response.OK(c, list)
}

// Update handles PUT /leads/:id.
func (h *Handler) Update(c *gin.Context) {
	scope, ok := tenant.FromContext(c)
	if !ok {
		response.Unauthorized(c, "missing tenant scope")
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid lead id")
		return
	}
	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	lead, err := h.repo.Update(c.Request.Context(), scope, id, UpdateParams{
		Name:    req.Name,
		Email:   req.Email,
		Phone:   req.Phone,
		Company: req.Company,
		Source:  req.Source,
		Status:  req.Status,
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			response.NotFound(c, "lead not found")
			return
		}
		response.Internal(c, "failed to update lead")
		return
	}
	response.OK(c, lead)
}

// Delete handles DELETE /leads/:id.
func (h *Handler) Delete(c *gin.Context) {
	scope, ok := tenant.FromContext(c)
	if !ok {
		response.Unauthorized(c, "missing tenant scope")
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid lead id")
		return
	}
	if err := h.repo.SoftDelete(c.Request.Context(), scope, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			response.NotFound(c, "lead not found")
			return
		}
		response.Internal(c, "failed to delete lead")
		return
	}
	response.NoContent(c)
}
