package contacts

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/relaycrm/backend/internal/models"
	"github.com/relaycrm/backend/internal/store"
	"github.com/relaycrm/backend/internal/tenant"
)

// CreateParams holds the fields for a new contact.
type CreateParams struct {
	AccountID uuid.UUID
	OwnerID   uuid.UUID
	FirstName string
	LastName  string
	Email     string
	Phone     string
	Title     string
}

// UpdateParams holds the updatable contact fields.
type UpdateParams struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
	Title     string
}

// Repository handles contact persistence.
type Repository struct {
	db store.Querier
}

// NewRepository creates a contacts repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{db: pool}
}

const columns = `id, organization_id, account_id, owner_id, first_name, last_name,
	COALESCE(email,''), COALESCE(phone,''), COALESCE(title,''),
	is_deleted, deleted_at, created_at, updated_at`

func scan(row pgx.Row) (*models.Contact, error) {
	var c models.Contact
	err := row.Scan(&c.ID, &c.OrganizationID, &c.AccountID, &c.OwnerID, &c.FirstName, &c.LastName,
		&c.Email, &c.Phone, &c.Title, &c.IsDeleted, &c.DeletedAt, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, store.MapRowError(err)
	}
	return &c, nil
}

// Create inserts a contact through q so it can participate in a workflow
// transaction. The parent account's tenancy is validated by the caller.
func (r *Repository) Create(ctx context.Context, q store.Querier, scope tenant.Scope, p CreateParams) (*models.Contact, error) {
	return scan(q.QueryRow(ctx,
		`INSERT INTO contacts (id, organization_id, account_id, owner_id, first_name, last_name, email, phone, title)
		 VALUES (gen_random_uuid(), $1, $2, $3, $4, $5, NULLIF($6,''), NULLIF($7,''), NULLIF($8,''))
		 RETURNING `+columns,
		scope.OrganizationID, p.AccountID, p.OwnerID, p.FirstName, p.LastName, p.Email, p.Phone, p.Title))
}

// GetByID returns a contact by id within the caller's organization,
// including soft-deleted rows.
func (r *Repository) GetByID(ctx context.Context, scope tenant.Scope, id uuid.UUID) (*models.Contact, error) {
	return scan(r.db.QueryRow(ctx,
		`SELECT `+columns+` FROM contacts WHERE id = $1 AND organization_id = $2`, id, scope.OrganizationID))
}

// List returns the organization's contacts, excluding soft-deleted rows.
func (r *Repository) List(ctx context.Context, scope tenant.Scope) ([]models.Contact, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+columns+` FROM contacts WHERE organization_id = $1 AND is_deleted = FALSE ORDER BY created_at DESC`,
		scope.OrganizationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Contact
	for rows.Next() {
		var c models.Contact
		if err := rows.Scan(&c.ID, &c.OrganizationID, &c.AccountID, &c.OwnerID, &c.FirstName, &c.LastName,
			&c.Email, &c.Phone, &c.Title, &c.IsDeleted, &c.DeletedAt, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, c)
	}
	return list, rows.Err()
}

// Update modifies a non-deleted contact within the caller's organization.
func (r *Repository) Update(ctx context.Context, scope tenant.Scope, id uuid.UUID, p UpdateParams) (*models.Contact, error) {
	return scan(r.db.QueryRow(ctx,
		`UPDATE contacts SET first_name = $1, last_name = $2, email = NULLIF($3,''), phone = NULLIF($4,''), title = NULLIF($5,''), updated_at = NOW()
		 WHERE id = $6 AND organization_id = $7 AND is_deleted = FALSE
		 RETURNING `+columns,
		p.FirstName, p.LastName, p.Email, p.Phone, p.Title, id, scope.OrganizationID))
}

// SoftDelete marks a contact deleted.
func (r *Repository) SoftDelete(ctx context.Context, scope tenant.Scope, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE contacts SET is_deleted = TRUE, deleted_at = NOW(), updated_at = NOW()
		 WHERE id = $1 AND organization_id = $2 AND is_deleted = FALSE`, id, scope.OrganizationID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}
