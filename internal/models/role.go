package models

import (
	"time"

	"github.com/google/uuid"
)

// Names of the roles provisioned with every organization. They cannot be
// edited or deleted by tenant administrators.
const (
	RoleSuperAdmin   = "super-admin"
	RoleCompanyAdmin = "company-admin"
	RoleUser         = "user"
)

// Role is a named permission bundle. System roles are created once per
// organization at provisioning; custom roles are tenant-scoped.
type Role struct {
	ID             uuid.UUID `json:"id"`
	OrganizationID uuid.UUID `json:"organization_id"`
	Name           string    `json:"name"`
	Description    string    `json:"description"`
	IsSystemRole   bool      `json:"is_system_role"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// RoleWithPermissions is a role with its resolved permission list.
type RoleWithPermissions struct {
	Role
	Permissions []Permission `json:"permissions"`
}

// Permission is an atomic capability, checked by exact key match. The
// catalog is seeded once and never tenant-scoped.
type Permission struct {
	ID          uuid.UUID `json:"id"`
	Key         string    `json:"key"`
	Description string    `json:"description"`
}

// Permission keys. Enforcement is a flat set-membership check, no
// hierarchy or wildcards.
const (
	PermAccountCreate     = "account:create"
	PermAccountRead       = "account:read"
	PermAccountUpdate     = "account:update"
	PermAccountDelete     = "account:delete"
	PermContactCreate     = "contact:create"
	PermContactRead       = "contact:read"
	PermContactUpdate     = "contact:update"
	PermContactDelete     = "contact:delete"
	PermLeadCreate        = "lead:create"
	PermLeadRead          = "lead:read"
	PermLeadUpdate        = "lead:update"
	PermLeadDelete        = "lead:delete"
	PermLeadConvert       = "lead:convert"
	PermOpportunityCreate = "opportunity:create"
	PermOpportunityRead   = "opportunity:read"
	PermOpportunityUpdate = "opportunity:update"
	PermOpportunityDelete = "opportunity:delete"
	PermRoleCreate        = "role:create"
	PermRoleRead          = "role:read"
	PermRoleUpdate        = "role:update"
	PermRoleDelete        = "role:delete"
	PermUserRead          = "user:read"
	PermActivityRead      = "activity:read"
	PermExportRun         = "export:run"
	PermRuleCreate        = "assignment-rule:create"
	PermRuleRead          = "assignment-rule:read"
	PermRuleDelete        = "assignment-rule:delete"
	PermImpersonate       = "super-admin:tenant:impersonate"
)
