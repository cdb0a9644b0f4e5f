package opportunities

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/relaycrm/backend/internal/models"
	"github.com/relaycrm/backend/internal/store"
	"github.com/relaycrm/backend/internal/tenant"
)

// CreateParams holds the fields for a new opportunity.
type CreateParams struct {
	AccountID uuid.UUID
	OwnerID   uuid.UUID
	Name      string
	Stage     string
	Amount    float64
	CloseDate *time.Time
}

// UpdateParams holds the updatable opportunity fields.
type UpdateParams struct {
	Name      string
	Stage     string
	Amount    float64
	CloseDate *time.Time
}

// Repository handles opportunity persistence.
type Repository struct {
	db store.Querier
}

// NewRepository creates an opportunities repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{db: pool}
}

const columns = `id, organization_id, account_id, owner_id, name, COALESCE(stage,''), amount, close_date,
	is_deleted, deleted_at, created_at, updated_at`

func scan(row pgx.Row) (*models.Opportunity, error) {
	var o models.Opportunity
	err := row.Scan(&o.ID, &o.OrganizationID, &o.AccountID, &o.OwnerID, &o.Name, &o.Stage, &o.Amount, &o.CloseDate,
		&o.IsDeleted, &o.DeletedAt, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, store.MapRowError(err)
	}
	return &o, nil
}

// Create inserts an opportunity through q so it can participate in a
// workflow transaction. The parent account's tenancy is validated by the
// caller.
func (r *Repository) Create(ctx context.Context, q store.Querier, scope tenant.Scope, p CreateParams) (*models.Opportunity, error) {
	return scan(q.QueryRow(ctx,
		`INSERT INTO opportunities (id, organization_id, account_id, owner_id, name, stage, amount, close_date)
		 VALUES (gen_random_uuid(), $1, $2, $3, $4, NULLIF($5,''), $6, $7)
		 RETURNING `+columns,
		scope.OrganizationID, p.AccountID, p.OwnerID, p.Name, p.Stage, p.Amount, p.CloseDate))
}

// GetByID returns an opportunity by id within the caller's organization,
// including soft-deleted rows.
func (r *Repository) GetByID(ctx context.Context, scope tenant.Scope, id uuid.UUID) (*models.Opportunity, error) {
	return scan(r.db.QueryRow(ctx,
		`SELECT `+columns+` FROM opportunities WHERE id = $1 AND organization_id = $2`, id, scope.OrganizationID))
}

// List returns the organization's opportunities, excluding soft-deleted rows.
func (r *Repository) List(ctx context.Context, scope tenant.Scope) ([]models.Opportunity, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+columns+` FROM opportunities WHERE organization_id = $1 AND is_deleted = FALSE ORDER BY created_at DESC`,
		scope.OrganizationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Opportunity
	for rows.Next() {
		var o models.Opportunity
		if err := rows.Scan(&o.ID, &o.OrganizationID, &o.AccountID, &o.OwnerID, &o.Name, &o.Stage, &o.Amount, &o.CloseDate,
			&o.IsDeleted, &o.DeletedAt, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, o)
	}
	return list, rows.Err()
}

// Update modifies a non-deleted opportunity within the caller's organization.
func (r *Repository) Update(ctx context.Context, scope tenant.Scope, id uuid.UUID, p UpdateParams) (*models.Opportunity, error) {
	return scan(r.db.QueryRow(ctx,
		`UPDATE opportunities SET name = $1, stage = NULLIF($2,''), amount = $3, close_date = $4, updated_at = NOW()
		 WHERE id = $5 AND organization_id = $6 AND is_deleted = FALSE
		 RETURNING `+columns,
		p.Name, p.Stage, p.Amount, p.CloseDate, id, scope.OrganizationID))
}

// UpdateOwner reassigns an opportunity's owner through q, used by the
// assignment engine inside the creation transaction.
func (r *Repository) UpdateOwner(ctx context.Context, q store.Querier, scope tenant.Scope, id, ownerID uuid.UUID) error {
	tag, err := q.Exec(ctx,
		`UPDATE opportunities SET owner_id = $1, updated_at = NOW() WHERE id = $2 AND organization_id = $3`,
		ownerID, id, scope.OrganizationID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

// SoftDelete marks an opportunity deleted.
func (r *Repository) SoftDelete(ctx context.Context, scope tenant.Scope, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE opportunities SET is_deleted = TRUE, deleted_at = NOW(), updated_at = NOW()
		 WHERE id = $1 AND organization_id = $2 AND is_deleted = FALSE`, id, scope.OrganizationID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}
