package activities

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/relaycrm/backend/internal/models"
	"github.com/relaycrm/backend/internal/store"
	"github.com/relaycrm/backend/internal/tenant"
)

// Repository handles activity persistence. Activities are write-once and
// created only inside workflow transactions.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an activities repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create appends an activity through q inside the caller's transaction.
// The related reference is taken from a validated RelatedTo.
func (r *Repository) Create(ctx context.Context, q store.Querier, scope tenant.Scope, activityType string, details map[string]string, related models.RelatedTo) (*models.Activity, error) {
	var detailsJSON []byte
	if len(details) > 0 {
		var err error
		detailsJSON, err = json.Marshal(details)
		if err != nil {
			return nil, fmt.Errorf("marshal details: %w", err)
		}
	}
	var a models.Activity
	var raw []byte
	err := q.QueryRow(ctx,
		`INSERT INTO activities (id, organization_id, type, details, actor_user_id, related_type, related_id)
		 VALUES (gen_random_uuid(), $1, $2, $3, $4, $5, $6)
		 RETURNING id, organization_id, type, COALESCE(details, 'null'::jsonb), actor_user_id, related_type, related_id, created_at`,
		scope.OrganizationID, activityType, detailsJSON, scope.UserID, related.Type(), related.ID()).
		Scan(&a.ID, &a.OrganizationID, &a.Type, &raw, &a.ActorUserID, &a.RelatedType, &a.RelatedID, &a.CreatedAt)
	if err != nil {
		return nil, store.MapRowError(err)
	}
	_ = json.Unmarshal(raw, &a.Details)
	return &a, nil
}

// List returns the organization's activities, newest first.
func (r *Repository) List(ctx context.Context, scope tenant.Scope) ([]models.Activity, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, organization_id, type, COALESCE(details, 'null'::jsonb), actor_user_id, related_type, related_id, created_at
		 FROM activities WHERE organization_id = $1 ORDER BY created_at DESC LIMIT 200`, scope.OrganizationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Activity
	for rows.Next() {
		var a models.Activity
		var raw []byte
		if err := rows.Scan(&a.ID, &a.OrganizationID, &a.Type, &raw, &a.ActorUserID, &a.RelatedType, &a.RelatedID, &a.CreatedAt); err != nil {
			return nil, err
		}
		_ = json.Unmarshal(raw, &a.Details)
		list = append(list, a)
	}
	return list, rows.Err()
}
