package auth

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/relaycrm/backend/internal/store"
	"github.com/relaycrm/backend/internal/tenant"
	"github.com/relaycrm/backend/pkg/response"
	"github.com/relaycrm/backend/pkg/utils"
)

// RegisterRequest is the body for POST /auth/register.
type RegisterRequest struct {
	OrganizationName string `json:"organization_name" binding:"required"`
	Email            string `json:"email" binding:"required,email"`
	Password         string `json:"password" binding:"required,min=6"`
	FullName         string `json:"full_name" binding:"required"`
}

// LoginRequest is the body for POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// TokenResponse is the auth response with JWT.
type TokenResponse struct {
	Token string      `json:"token"`
	User  interface{} `json:"user"`
}

// Handler handles auth HTTP endpoints.
type Handler struct {
	repo   *Repository
	jwt    *JWTService
	logger *zap.Logger
}

// NewHandler creates an auth handler.
func NewHandler(repo *Repository, jwt *JWTService, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, jwt: jwt, logger: logger}
}

// Register handles POST /auth/register. Every call provisions a new
// organization with its system roles and the registering user as admin.
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		response.Internal(c, "failed to hash password")
		return
	}

	res, err := h.repo.Provision(c.Request.Context(), req.OrganizationName, req.Email, hash, req.FullName)
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			response.Conflict(c, "email already registered")
			return
		}
		h.logger.Error("provision organization", zap.Error(err))
		response.Internal(c, "failed to register")
		return
	}

	token, err := h.jwt.Generate(res.User, res.RoleName, res.Permissions)
	if err != nil {
		response.Internal(c, "failed to generate token")
		return
	}

	response.Created(c, TokenResponse{Token: token, User: res.User.ToPublic()})
}

// Login handles POST /auth/login. The issued token embeds the role's
// permission set as of this moment.
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	user, err := h.repo.GetByEmail(c.Request.Context(), req.Email)
	if err != nil {
		response.Unauthorized(c, "invalid email or password")
		return
	}
	if !utils.CheckPassword(req.Password, user.Password) {
		response.Unauthorized(c, "invalid email or password")
		return
	}

	role, perms, err := h.repo.RoleWithPermissions(c.Request.Context(), user.RoleID)
	if err != nil {
		h.logger.Error("resolve role", zap.Error(err), zap.String("user_id", user.ID.String()))
		response.Internal(c, "failed to log in")
		return
	}

	token, err := h.jwt.Generate(user, role.Name, perms)
	if err != nil {
		response.Internal(c, "failed to generate token")
		return
	}

	response.OK(c, TokenResponse{Token: token, User: user.ToPublic()})
}

// Impersonate handles POST /users/:id/impersonate. Requires the
// super-admin impersonation permission; the issued token carries the
// original caller's id for audit.
func (h *Handler) Impersonate(c *gin.Context) {
	targetID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid user id")
		return
	}
	scope, ok := tenant.FromContext(c)
	if !ok {
		response.Unauthorized(c, "missing user context")
		return
	}

	target, err := h.repo.GetByID(c.Request.Context(), targetID)
	if err != nil {
		response.NotFound(c, "user not found")
		return
	}

	role, perms, err := h.repo.RoleWithPermissions(c.Request.Context(), target.RoleID)
	if err != nil {
		h.logger.Error("resolve role", zap.Error(err), zap.String("user_id", target.ID.String()))
		response.Internal(c, "failed to impersonate")
		return
	}

	token, err := h.jwt.GenerateImpersonated(target, role.Name, perms, scope.UserID)
	if err != nil {
		response.Internal(c, "failed to generate token")
		return
	}

	h.logger.Info("impersonation token issued",
		zap.String("original_user_id", scope.UserID.String()),
		zap.String("target_user_id", target.ID.String()))
	response.OK(c, TokenResponse{Token: token, User: target.ToPublic()})
}

// List handles GET /users for the caller's organization.
func (h *Handler) List(c *gin.Context) {
	scope, ok := tenant.FromContext(c)
	if !ok {
		response.Unauthorized(c, "missing tenant scope")
		return
	}
	list, err := h.repo.List(c.Request.Context(), scope)
	if err != nil {
		response.Internal(c, "failed to list users")
		return
	}
	response.OK(c, list)
}
