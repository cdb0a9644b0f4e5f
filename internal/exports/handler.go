// Package exports exposes the async CSV export API: enqueue a job, poll
// its status. Job state lives in Redis; the worker binary does the actual
// extraction.
package exports

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/relaycrm/backend/internal/tenant"
	"github.com/relaycrm/backend/pkg/queue"
	"github.com/relaycrm/backend/pkg/response"
)

// JobQueue is the queue surface the handler needs.
type JobQueue interface {
	EnqueueExport(ctx context.Context, payload queue.ExportPayload) error
	GetStatus(ctx context.Context, jobID uuid.UUID) (*queue.JobStatus, error)
}

// exportableTypes are the entity collections an export job may target.
var exportableTypes = map[string]bool{
	"accounts":      true,
	"contacts":      true,
	"leads":         true,
	"opportunities": true,
}

// CreateRequest is the body for POST /exports.
type CreateRequest struct {
	ObjectType string `json:"object_type" binding:"required"`
}

// CreateResponse acknowledges an accepted export job.
type CreateResponse struct {
	JobID  uuid.UUID    `json:"job_id"`
	Status queue.Status `json:"status"`
}

// Handler handles export endpoints.
type Handler struct {
	queue  JobQueue
	logger *zap.Logger
}

// NewHandler creates an exports handler.
func NewHandler(q JobQueue, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{queue: q, logger: logger}
}

// Create handles POST /exports. It validates the target type, writes the
// queued status, and pushes the job for the worker.
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
	if !exportableTypes[req.ObjectType] {
		response.BadRequest(c, "object_type must be one of accounts, contacts, leads, opportunities")
		return
	}
	jobID := uuid.New()
	payload := queue.ExportPayload{
		JobID:          jobID,
		OrganizationID: scope.OrganizationID,
		ObjectType:     req.ObjectType,
		RequestedBy:    scope.UserID,
	}
	if err := h.queue.EnqueueExport(c.Request.Context(), payload); err != nil {
		h.logger.Error("failed to enqueue export", zap.Error(err))
		response.Internal(c, "failed to enqueue export")
		return
	}
	response.Created(c, CreateResponse{JobID: jobID, Status: queue.StatusQueued})
}

// Get handles GET /exports/:id. A job belonging to another organization is
// reported as missing.
func (h *Handler) Get(c *gin.Context) {
	scope, ok := tenant.FromContext(c)
	if !ok {
		response.Unauthorized(c, "missing tenant scope")
		return
	}
	jobID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid export job id")
		return
	}
	status, err := h.queue.GetStatus(c.Request.Context(), jobID)
	if err != nil {
		h.logger.Error("failed to load export status", zap.Error(err))
		response.Internal(c, "failed to load export status")
		return
	}
	if status == nil || status.OrganizationID != scope.OrganizationID {
		response.NotFound(c, "export not found")
		return
	}
	response.OK(c, status)
}
