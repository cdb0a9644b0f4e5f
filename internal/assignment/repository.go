package assignment

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/relaycrm/backend/internal/models"
	"github.com/relaycrm/backend/internal/store"
	"github.com/relaycrm/backend/internal/tenant"
)

// Repository handles assignment rule persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an assignment rules repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a rule for the caller's organization. The assignee must
// belong to the same organization.
func (r *Repository) Create(ctx context.Context, scope tenant.Scope, objectType models.RuleObjectType, conditionField, conditionValue string, assignTo uuid.UUID) (*models.AssignmentRule, error) {
	var assigneeOrg uuid.UUID
	err := r.pool.QueryRow(ctx, `SELECT organization_id FROM users WHERE id = $1`, assignTo).Scan(&assigneeOrg)
	if err != nil {
		return nil, store.MapRowError(err)
	}
	if assigneeOrg != scope.OrganizationID {
		return nil, store.ErrNotFound
	}

	var rule models.AssignmentRule
	err = r.pool.QueryRow(ctx,
		`INSERT INTO assignment_rules (id, organization_id, object_type, condition_field, condition_value, assign_to)
		 VALUES (gen_random_uuid(), $1, $2, $3, $4, $5)
		 RETURNING id, organization_id, object_type, condition_field, condition_value, assign_to, created_at`,
		scope.OrganizationID, objectType, conditionField, conditionValue, assignTo).
		Scan(&rule.ID, &rule.OrganizationID, &rule.ObjectType, &rule.ConditionField, &rule.ConditionValue, &rule.AssignTo, &rule.CreatedAt)
	if err != nil {
		return nil, store.MapRowError(err)
	}
	return &rule, nil
}

// List returns the organization's rules in evaluation order.
func (r *Repository) List(ctx context.Context, scope tenant.Scope) ([]models.AssignmentRule, error) {
	return r.listRules(ctx, r.pool, scope,
		`SELECT id, organization_id, object_type, condition_field, condition_value, assign_to, created_at
		 FROM assignment_rules WHERE organization_id = $1 ORDER BY created_at, id`)
}

// ListForMatching returns the rules for one object type in evaluation
// order (oldest first), using the caller's querier so the read happens
// inside the enclosing record-creation transaction.
func (r *Repository) ListForMatching(ctx context.Context, q store.Querier, scope tenant.Scope, objectType models.RuleObjectType) ([]models.AssignmentRule, error) {
	rows, err := q.Query(ctx,
		`SELECT id, organization_id, object_type, condition_field, condition_value, assign_to, created_at
		 FROM assignment_rules WHERE organization_id = $1 AND object_type = $2
		 ORDER BY created_at, id`, scope.OrganizationID, objectType)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRules(rows)
}

// Delete removes a rule within the caller's organization.
func (r *Repository) Delete(ctx context.Context, scope tenant.Scope, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM assignment_rules WHERE id = $1 AND organization_id = $2`, id, scope.OrganizationID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *Repository) listRules(ctx context.Context, q store.Querier, scope tenant.Scope, sql string) ([]models.AssignmentRule, error) {
	rows, err := q.Query(ctx, sql, scope.OrganizationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRules(rows)
}

func scanRules(rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}) ([]models.AssignmentRule, error) {
	var rules []models.AssignmentRule
	for rows.Next() {
		var rule models.AssignmentRule
		if err := rows.Scan(&rule.ID, &rule.OrganizationID, &rule.ObjectType, &rule.ConditionField, &rule.ConditionValue, &rule.AssignTo, &rule.CreatedAt); err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	return rules, rows.Err()
}
