package leads

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/relaycrm/backend/internal/models"
	"github.com/relaycrm/backend/internal/store"
	"github.com/relaycrm/backend/internal/tenant"
)

// CreateParams holds the fields for a new lead.
type CreateParams struct {
	OwnerID uuid.UUID
	Name    string
	Email   string
	Phone   string
	Company string
	Source  string
	Status  string
}

// UpdateParams holds the updatable lead fields.
type UpdateParams struct {
	Name    string
	Email   string
	Phone   string
	Company string
	Source  string
	Status  string
}

// Repository handles lead persistence.
type Repository struct {
	db store.Querier
}

// NewRepository creates a leads repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{db: pool}
}

const columns = `id, organization_id, owner_id, name, COALESCE(email,''), COALESCE(phone,''),
	COALESCE(company,''), COALESCE(source,''), COALESCE(status,''),
	is_deleted, deleted_at, created_at, updated_at`

func scan(row pgx.Row) (*models.Lead, error) {
	var l models.Lead
	err := row.Scan(&l.ID, &l.OrganizationID, &l.OwnerID, &l.Name, &l.Email, &l.Phone,
		&l.Company, &l.Source, &l.Status, &l.IsDeleted, &l.DeletedAt, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return nil, store.MapRowError(err)
	}
	return &l, nil
}

// Create inserts a lead through q so it can participate in a workflow
// transaction.
func (r *Repository) Create(ctx context.Context, q store.Querier, scope tenant.Scope, p CreateParams) (*models.Lead, error) {
	return scan(q.QueryRow(ctx,
		`INSERT INTO leads (id, organization_id, owner_id, name, email, phone, company, source, status)
		 VALUES (gen_random_uuid(), $1, $2, $3, NULLIF($4,''), NULLIF($5,''), NULLIF($6,''), NULLIF($7,''), NULLIF($8,''))
		 RETURNING `+columns,
		scope.OrganizationID, p.OwnerID, p.Name, p.Email, p.Phone, p.Company, p.Source, p.Status))
}

// GetActive returns a non-deleted lead through q, used by the conversion
// transaction. A cross-tenant or missing id reads the same.
func (r *Repository) GetActive(ctx context.Context, q store.Querier, scope tenant.Scope, id uuid.UUID) (*models.Lead, error) {
	return scan(q.QueryRow(ctx,
		`SELECT `+columns+` FROM leads WHERE id = $1 AND organization_id = $2 AND is_deleted = FALSE`,
		id, scope.OrganizationID))
}

// GetByID returns a lead by id within the caller's organization, including
// soft-deleted rows.
func (r *Repository) GetByID(ctx context.Context, scope tenant.Scope, id uuid.UUID) (*models.Lead, error) {
	return scan(r.db.QueryRow(ctx,
		`SELECT `+columns+` FROM leads WHERE id = $1 AND organization_id = $2`, id, scope.OrganizationID))
}

// List returns the organization's leads, excluding soft-deleted rows.
func (r *Repository) List(ctx context.Context, scope tenant.Scope) ([]models.Lead, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+columns+` FROM leads WHERE organization_id = $1 AND is_deleted = FALSE ORDER BY created_at DESC`,
		scope.OrganizationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Lead
	for rows.Next() {
		var l models.Lead
		if err := rows.Scan(&l.ID, &l.OrganizationID, &l.OwnerID, &l.Name, &l.Email, &l.Phone,
			&l.Company, &l.Source, &l.Status, &l.IsDeleted, &l.DeletedAt, &l.CreatedAt, &l.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, l)
	}
	return list, rows.Err()
}

// Update modifies a non-deleted lead within the caller's organization.
func (r *Repository) Update(ctx context.Context, scope tenant.Scope, id uuid.UUID, p UpdateParams) (*models.Lead, error) {
	return scan(r.db.QueryRow(ctx,
		`UPDATE leads SET name = $1, email = NULLIF($2,''), phone = NULLIF($3,''), company = NULLIF($4,''),
			source = NULLIF($5,''), status = NULLIF($6,''), updated_at = NOW()
		 WHERE id = $7 AND organization_id = $8 AND is_deleted = FALSE
		 RETURNING `+columns,
		p.Name, p.Email, p.Phone, p.Company, p.Source, p.Status, id, scope.OrganizationID))
}

// UpdateOwner reassigns a lead's owner through q, used by the assignment
// engine inside the creation transaction.
func (r *Repository) UpdateOwner(ctx context.Context, q store.Querier, scope tenant.Scope, id, ownerID uuid.UUID) error {
	tag, err := q.Exec(ctx,
		`UPDATE leads SET owner_id = $1, updated_at = NOW() WHERE id = $2 AND organization_id = $3`,
		ownerID, id, scope.OrganizationID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

// SoftDeleteTx marks a lead deleted through q, used standalone and by the
// conversion transaction.
func (r *Repository) SoftDeleteTx(ctx context.Context, q store.Querier, scope tenant.Scope, id uuid.UUID) error {
	tag, err := q.Exec(ctx,
		`UPDATE leads SET is_deleted = TRUE, deleted_at = NOW(), updated_at = NOW()
		 WHERE id = $1 AND organization_id = $2 AND is_deleted = FALSE`, id, scope.OrganizationID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

// SoftDelete marks a lead deleted outside any workflow transaction.
func (r *Repository) SoftDelete(ctx context.Context, scope tenant.Scope, id uuid.UUID) error {
	return r.SoftDeleteTx(ctx, r.db, scope, id)
}
