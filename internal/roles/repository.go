package roles

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/relaycrm/backend/internal/models"
	"github.com/relaycrm/backend/internal/store"
	"github.com/relaycrm/backend/internal/tenant"
)

// Repository handles role and role_permissions persistence. Permission-set
// mutations are replace-all-or-nothing inside one transaction.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a roles repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListPermissions returns the global permission catalog.
func (r *Repository) ListPermissions(ctx context.Context) ([]models.Permission, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, key, COALESCE(description,'') FROM permissions ORDER BY key`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Permission
	for rows.Next() {
		var p models.Permission
		if err := rows.Scan(&p.ID, &p.Key, &p.Description); err != nil {
			return nil, err
		}
		list = append(list, p)
	}
	return list, rows.Err()
}

// Create inserts a custom role with its permission joins. Custom roles are
// never system roles.
func (r *Repository) Create(ctx context.Context, scope tenant.Scope, name, description string, permissionIDs []uuid.UUID) (*models.RoleWithPermissions, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	var role models.Role
	err = tx.QueryRow(ctx,
		`INSERT INTO roles (id, organization_id, name, description, is_system_role)
		 VALUES (gen_random_uuid(), $1, $2, NULLIF($3,''), FALSE)
		 RETURNING id, organization_id, name, COALESCE(description,''), is_system_role, created_at, updated_at`,
		scope.OrganizationID, name, description).
		Scan(&role.ID, &role.OrganizationID, &role.Name, &role.Description, &role.IsSystemRole, &role.CreatedAt, &role.UpdatedAt)
	if err != nil {
		return nil, store.MapRowError(err)
	}

	if err := insertJoins(ctx, tx, role.ID, permissionIDs); err != nil {
		return nil, err
	}
	perms, err := resolvePermissions(ctx, tx, role.ID)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return &models.RoleWithPermissions{Role: role, Permissions: perms}, nil
}

// List returns the organization's roles with their resolved permissions.
func (r *Repository) List(ctx context.Context, scope tenant.Scope) ([]models.RoleWithPermissions, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, organization_id, name, COALESCE(description,''), is_system_role, created_at, updated_at
		 FROM roles WHERE organization_id = $1 ORDER BY created_at`, scope.OrganizationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.RoleWithPermissions
	for rows.Next() {
		var role models.Role
		if err := rows.Scan(&role.ID, &role.OrganizationID, &role.Name, &role.Description, &role.IsSystemRole, &role.CreatedAt, &role.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, models.RoleWithPermissions{Role: role})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range list {
		perms, err := resolvePermissions(ctx, r.pool, list[i].ID)
		if err != nil {
			return nil, err
		}
		list[i].Permissions = perms
	}
	return list, nil
}

// Update replaces a role's name, description and permission set. System
// roles are rejected before anything is written.
func (r *Repository) Update(ctx context.Context, scope tenant.Scope, roleID uuid.UUID, name, description string, permissionIDs []uuid.UUID) (*models.RoleWithPermissions, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	var isSystem bool
	err = tx.QueryRow(ctx,
		`SELECT is_system_role FROM roles WHERE id = $1 AND organization_id = $2 FOR UPDATE`,
		roleID, scope.OrganizationID).Scan(&isSystem)
	if err != nil {
		return nil, store.MapRowError(err)
	}
	if isSystem {
		return nil, store.ErrSystemRole
	}

	var role models.Role
	err = tx.QueryRow(ctx,
		`UPDATE roles SET name = $1, description = NULLIF($2,''), updated_at = NOW()
		 WHERE id = $3 AND organization_id = $4
		 RETURNING id, organization_id, name, COALESCE(description,''), is_system_role, created_at, updated_at`,
		name, description, roleID, scope.OrganizationID).
		Scan(&role.ID, &role.OrganizationID, &role.Name, &role.Description, &role.IsSystemRole, &role.CreatedAt, &role.UpdatedAt)
	if err != nil {
		return nil, store.MapRowError(err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM role_permissions WHERE role_id = $1`, roleID); err != nil {
		return nil, err
	}
	if err := insertJoins(ctx, tx, roleID, permissionIDs); err != nil {
		return nil, err
	}
	perms, err := resolvePermissions(ctx, tx, roleID)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return &models.RoleWithPermissions{Role: role, Permissions: perms}, nil
}

// Delete hard-deletes a custom role. Rejected for system roles and for
// roles still referenced by users.
func (r *Repository) Delete(ctx context.Context, scope tenant.Scope, roleID uuid.UUID) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	var isSystem bool
	err = tx.QueryRow(ctx,
		`SELECT is_system_role FROM roles WHERE id = $1 AND organization_id = $2 FOR UPDATE`,
		roleID, scope.OrganizationID).Scan(&isSystem)
	if err != nil {
		return store.MapRowError(err)
	}
	if isSystem {
		return store.ErrSystemRole
	}

	var inUse int
	if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM users WHERE role_id = $1`, roleID).Scan(&inUse); err != nil {
		return err
	}
	if inUse > 0 {
		return store.ErrRoleInUse
	}

	if _, err := tx.Exec(ctx, `DELETE FROM role_permissions WHERE role_id = $1`, roleID); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM roles WHERE id = $1`, roleID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func insertJoins(ctx context.Context, q store.Querier, roleID uuid.UUID, permissionIDs []uuid.UUID) error {
	for _, pid := range permissionIDs {
		if _, err := q.Exec(ctx,
			`INSERT INTO role_permissions (role_id, permission_id) VALUES ($1, $2)`, roleID, pid); err != nil {
			return fmt.Errorf("insert role permission: %w", err)
		}
	}
	return nil
}

func resolvePermissions(ctx context.Context, q store.Querier, roleID uuid.UUID) ([]models.Permission, error) {
	rows, err := q.Query(ctx,
		`SELECT p.id, p.key, COALESCE(p.description,'')
		 FROM permissions p
		 INNER JOIN role_permissions rp ON rp.permission_id = p.id
		 WHERE rp.role_id = $1 ORDER BY p.key`, roleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var perms []models.Permission
	for rows.Next() {
		var p models.Permission
		if err := rows.Scan(&p.ID, &p.Key, &p.Description); err != nil {
			return nil, err
		}
		perms = append(perms, p)
	}
	return perms, rows.Err()
}
