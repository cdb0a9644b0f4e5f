package accounts

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/relaycrm/backend/internal/models"
	"github.com/relaycrm/backend/internal/store"
	"github.com/relaycrm/backend/internal/tenant"
)

// CreateParams holds the fields for a new account.
type CreateParams struct {
	OwnerID  uuid.UUID
	Name     string
	Industry string
	Website  string
	Phone    string
}

// UpdateParams holds the updatable account fields.
type UpdateParams struct {
	Name     string
	Industry string
	Website  string
	Phone    string
}

// Repository handles account persistence. Every query filters by the
// caller's organization id.
type Repository struct {
	db store.Querier
}

// NewRepository creates an accounts repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{db: pool}
}

const columns = `id, organization_id, owner_id, name, COALESCE(industry,''), COALESCE(website,''), COALESCE(phone,''),
	is_deleted, deleted_at, created_at, updated_at`

func scan(row pgx.Row) (*models.Account, error) {
	var a models.Account
	err := row.Scan(&a.ID, &a.OrganizationID, &a.OwnerID, &a.Name, &a.Industry, &a.Website, &a.Phone,
		&a.IsDeleted, &a.DeletedAt, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, store.MapRowError(err)
	}
	return &a, nil
}

// Create inserts an account through q so it can participate in a workflow
// transaction.
func (r *Repository) Create(ctx context.Context, q store.Querier, scope tenant.Scope, p CreateParams) (*models.Account, error) {
	return scan(q.QueryRow(ctx,
		`INSERT INTO accounts (id, organization_id, owner_id, name, industry, website, phone)
		 VALUES (gen_random_uuid(), $1, $2, $3, NULLIF($4,''), NULLIF($5,''), NULLIF($6,''))
		 RETURNING `+columns,
		scope.OrganizationID, p.OwnerID, p.Name, p.Industry, p.Website, p.Phone))
}

// GetByID returns an account by id within the caller's organization.
// Soft-deleted accounts are returned with their deleted flag set.
func (r *Repository) GetByID(ctx context.Context, scope tenant.Scope, id uuid.UUID) (*models.Account, error) {
	return scan(r.db.QueryRow(ctx,
		`SELECT `+columns+` FROM accounts WHERE id = $1 AND organization_id = $2`, id, scope.OrganizationID))
}

// GetActive returns a non-deleted account through q, used to validate a
// parent reference inside a workflow transaction.
func (r *Repository) GetActive(ctx context.Context, q store.Querier, scope tenant.Scope, id uuid.UUID) (*models.Account, error) {
	return scan(q.QueryRow(ctx,
		`SELECT `+columns+` FROM accounts WHERE id = $1 AND organization_id = $2 AND is_deleted = FALSE`,
		id, scope.OrganizationID))
}

// List returns the organization's accounts, excluding soft-deleted rows.
func (r *Repository) List(ctx context.Context, scope tenant.Scope) ([]models.Account, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+columns+` FROM accounts WHERE organization_id = $1 AND is_deleted = FALSE ORDER BY created_at DESC`,
		scope.OrganizationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Account
	for rows.Next() {
		var a models.Account
		if err := rows.Scan(&a.ID, &a.OrganizationID, &a.OwnerID, &a.Name, &a.Industry, &a.Website, &a.Phone,
			&a.IsDeleted, &a.DeletedAt, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, a)
	}
	return list, rows.Err()
}

// Update modifies a non-deleted account within the caller's organization.
func (r *Repository) Update(ctx context.Context, scope tenant.Scope, id uuid.UUID, p UpdateParams) (*models.Account, error) {
	return scan(r.db.QueryRow(ctx,
		`UPDATE accounts SET name = $1, industry = NULLIF($2,''), website = NULLIF($3,''), phone = NULLIF($4,''), updated_at = NOW()
		 WHERE id = $5 AND organization_id = $6 AND is_deleted = FALSE
		 RETURNING `+columns,
		p.Name, p.Industry, p.Website, p.Phone, id, scope.OrganizationID))
}

// SoftDelete marks an account deleted. The row stays retrievable by id.
func (r *Repository) SoftDelete(ctx context.Context, scope tenant.Scope, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE accounts SET is_deleted = TRUE, deleted_at = NOW(), updated_at = NOW()
		 WHERE id = $1 AND organization_id = $2 AND is_deleted = FALSE`, id, scope.OrganizationID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}
