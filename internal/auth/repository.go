package auth

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/relaycrm/backend/internal/models"
	"github.com/relaycrm/backend/internal/store"
	"github.com/relaycrm/backend/internal/tenant"
)

// Permission keys granted to the provisioned "user" system role. Admin
// roles get the whole catalog (minus impersonation for company-admin).
var userRolePermissions = []string{
	models.PermAccountCreate, models.PermAccountRead, models.PermAccountUpdate,
	models.PermContactCreate, models.PermContactRead, models.PermContactUpdate,
	models.PermLeadCreate, models.PermLeadRead, models.PermLeadUpdate, models.PermLeadConvert,
	models.PermOpportunityCreate, models.PermOpportunityRead, models.PermOpportunityUpdate,
	models.PermActivityRead, models.PermExportRun, models.PermRuleRead,
}

// DB is the pool surface the repository needs. *pgxpool.Pool satisfies it.
type DB interface {
	store.Querier
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Repository handles user and provisioning persistence.
type Repository struct {
	db DB
}

// NewRepository creates an auth repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{db: pool}
}

// Advisory lock key owned by the provisioning transaction. Arbitrary but
// must not collide with other advisory locks on the same database.
const provisioningLockKey int64 = 0x70726F766973696F // "provisio"

const userColumns = `id, organization_id, role_id, email, password_hash, full_name, created_at, updated_at`

func scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.OrganizationID, &u.RoleID, &u.Email, &u.Password, &u.FullName, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, store.MapRowError(err)
	}
	return &u, nil
}

// GetByEmail returns a user by email. Email is globally unique, so this is
// one of the few unscoped lookups; it only backs login.
func (r *Repository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email))
}

// GetByID returns a user by id regardless of tenant. Reserved for
// impersonation, which is guarded by a super-admin permission.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

// GetScoped returns a user within the caller's organization.
func (r *Repository) GetScoped(ctx context.Context, scope tenant.Scope, id uuid.UUID) (*models.User, error) {
	return scanUser(r.db.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1 AND organization_id = $2`, id, scope.OrganizationID))
}

// List returns the users of the caller's organization.
func (r *Repository) List(ctx context.Context, scope tenant.Scope) ([]models.UserPublic, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, organization_id, role_id, email, full_name, created_at
		 FROM users WHERE organization_id = $1 ORDER BY full_name, email`, scope.OrganizationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.UserPublic
	for rows.Next() {
		var u models.UserPublic
		if err := rows.Scan(&u.ID, &u.OrganizationID, &u.RoleID, &u.Email, &u.FullName, &u.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, u)
	}
	return list, rows.Err()
}

// RoleWithPermissions returns a role and its permission keys, used to
// materialize the role snapshot at token issuance.
func (r *Repository) RoleWithPermissions(ctx context.Context, roleID uuid.UUID) (*models.Role, []string, error) {
	var role models.Role
	err := r.db.QueryRow(ctx,
		`SELECT id, organization_id, name, COALESCE(description,''), is_system_role, created_at, updated_at
		 FROM roles WHERE id = $1`, roleID).
		Scan(&role.ID, &role.OrganizationID, &role.Name, &role.Description, &role.IsSystemRole, &role.CreatedAt, &role.UpdatedAt)
	if err != nil {
		return nil, nil, store.MapRowError(err)
	}
	rows, err := r.db.Query(ctx,
		`SELECT p.key FROM permissions p
		 INNER JOIN role_permissions rp ON rp.permission_id = p.id
		 WHERE rp.role_id = $1 ORDER BY p.key`, roleID)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()
	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, nil, err
		}
		keys = append(keys, k)
	}
	return &role, keys, rows.Err()
}

// ProvisionResult is the outcome of a registration transaction.
type ProvisionResult struct {
	Organization *models.Organization
	User         *models.User
	RoleName     string
	Permissions  []string
}

// Provision creates an organization, its system roles, and the registering
// user in one transaction. The very first registration on the platform also
// creates the super-admin role and assigns it to the registering user;
// every later registration makes the registering user a company-admin.
func (r *Repository) Provision(ctx context.Context, orgName, email, passwordHash, fullName string) (*ProvisionResult, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	var org models.Organization
	err = tx.QueryRow(ctx,
		`INSERT INTO organizations (id, name) VALUES (gen_random_uuid(), $1)
		 RETURNING id, name, created_at, updated_at`, orgName).
		Scan(&org.ID, &org.Name, &org.CreatedAt, &org.UpdatedAt)
	if err != nil {
		return nil, store.MapRowError(err)
	}

	// Serializes the first-registration check so concurrent transactions
	// cannot both see an empty users table. Released at commit or rollback.
	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, provisioningLockKey); err != nil {
		return nil, err
	}

	var existingUsers int
	if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&existingUsers); err != nil {
		return nil, err
	}
	firstEver := existingUsers == 0

	createRole := func(name string) (uuid.UUID, error) {
		var id uuid.UUID
		err := tx.QueryRow(ctx,
			`INSERT INTO roles (id, organization_id, name, is_system_role)
			 VALUES (gen_random_uuid(), $1, $2, TRUE) RETURNING id`, org.ID, name).Scan(&id)
		return id, err
	}

	adminRoleID, err := createRole(models.RoleCompanyAdmin)
	if err != nil {
		return nil, err
	}
	userRoleID, err := createRole(models.RoleUser)
	if err != nil {
		return nil, err
	}

	// company-admin: the whole catalog except impersonation.
	if _, err := tx.Exec(ctx,
		`INSERT INTO role_permissions (role_id, permission_id)
		 SELECT $1, id FROM permissions WHERE key <> $2`, adminRoleID, models.PermImpersonate); err != nil {
		return nil, err
	}
	if _, err := tx.Exec(ctx,
		`INSERT INTO role_permissions (role_id, permission_id)
		 SELECT $1, id FROM permissions WHERE key = ANY($2)`, userRoleID, userRolePermissions); err != nil {
		return nil, err
	}

	registrantRole := adminRoleID
	roleName := models.RoleCompanyAdmin
	if firstEver {
		superRoleID, err := createRole(models.RoleSuperAdmin)
		if err != nil {
			return nil, err
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO role_permissions (role_id, permission_id) SELECT $1, id FROM permissions`, superRoleID); err != nil {
			return nil, err
		}
		registrantRole = superRoleID
		roleName = models.RoleSuperAdmin
	}

	var u models.User
	err = tx.QueryRow(ctx,
		`INSERT INTO users (id, organization_id, role_id, email, password_hash, full_name)
		 VALUES (gen_random_uuid(), $1, $2, $3, $4, $5)
		 RETURNING `+userColumns, org.ID, registrantRole, email, passwordHash, fullName).
		Scan(&u.ID, &u.OrganizationID, &u.RoleID, &u.Email, &u.Password, &u.FullName, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, store.MapRowError(err)
	}

	rows, err := tx.Query(ctx,
		`SELECT p.key FROM permissions p
		 INNER JOIN role_permissions rp ON rp.permission_id = p.id
		 WHERE rp.role_id = $1 ORDER BY p.key`, registrantRole)
	if err != nil {
		return nil, err
	}
	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			rows.Close()
			return nil, err
		}
		keys = append(keys, k)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return &ProvisionResult{Organization: &org, User: &u, RoleName: roleName, Permissions: keys}, nil
}
