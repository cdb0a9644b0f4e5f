package exports

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository runs the org-scoped extraction queries behind export jobs.
// Soft-deleted rows are excluded, matching what the list endpoints show.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an export data repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type extraction struct {
	header []string
	sql    string
}

var extractions = map[string]extraction{
	"accounts": {
		header: []string{"id", "name", "industry", "website", "phone", "created_at"},
		sql: `SELECT id::text, name, COALESCE(industry, ''), COALESCE(website, ''), COALESCE(phone, ''), created_at::text
              FROM accounts WHERE organization_id = $1 AND is_deleted = FALSE ORDER BY created_at`,
	},
	"contacts": {
		header: []string{"id", "account_id", "first_name", "last_name", "email", "phone", "title", "created_at"},
		sql: `SELECT id::text, account_id::text, first_name, last_name, COALESCE(email, ''), COALESCE(phone, ''), COALESCE(title, ''), created_at::text
              FROM contacts WHERE organization_id = $1 AND is_deleted = FALSE ORDER BY created_at`,
	},
	"leads": {
		header: []string{"id", "name", "email", "phone", "company", "source", "status", "created_at"},
		sql: `SELECT id::text, name, COALESCE(email, ''), COALESCE(phone, ''), COALESCE(company, ''), COALESCE(source, ''), COALESCE(status, ''), created_at::text
              FROM leads WHERE organization_id = $1 AND is_deleted = FALSE ORDER BY created_at`,
	},
	"opportunities": {
		header: []string{"id", "account_id", "name", "stage", "amount", "close_date", "created_at"},
		sql: `SELECT id::text, account_id::text, name, COALESCE(stage, ''), amount::text, COALESCE(close_date::text, ''), created_at::text
              FROM opportunities WHERE organization_id = $1 AND is_deleted = FALSE ORDER BY created_at`,
	},
}

// Extract returns the CSV header and rows for one entity collection,
// scoped to the given organization.
func (r *Repository) Extract(ctx context.Context, orgID uuid.UUID, objectType string) ([]string, [][]string, error) {
	ex, ok := extractions[objectType]
	if !ok {
		return nil, nil, fmt.Errorf("unknown export object type %q", objectType)
	}
	rows, err := r.pool.Query(ctx, ex.sql, orgID)
	if err != nil {
		return nil, nil, fmt.Errorf("export query: %w", err)
	}
	defer rows.Close()

	width := len(ex.header)
	var out [][]string
	for rows.Next() {
		record := make([]string, width)
		dest := make([]interface{}, width)
		for i := range record {
			dest[i] = &record[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, nil, fmt.Errorf("export scan: %w", err)
		}
		out = append(out, record)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("export rows: %w", err)
	}
	return ex.header, out, nil
}
