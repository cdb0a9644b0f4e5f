package opportunities

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relaycrm/backend/internal/store"
	"github.com/relaycrm/backend/internal/store/storetest"
	"github.com/relaycrm/backend/internal/tenant"
)

func testScope() tenant.Scope {
	return tenant.Scope{OrganizationID: uuid.New(), UserID: uuid.New()}
}

func opportunityRow(id uuid.UUID, scope tenant.Scope) []any {
	now := time.Now()
	return []any{id, scope.OrganizationID, uuid.New(), scope.UserID, "Initech deal", "qualification",
		12500.0, (*time.Time)(nil), false, (*time.Time)(nil), now, now}
}

func TestGetByIDBindsOrganization(t *testing.T) {
	scope := testScope()
	id := uuid.New()
	db := &storetest.Querier{Row: storetest.Row{Values: opportunityRow(id, scope)}}
	r := &Repository{db: db}

	got, err := r.GetByID(context.Background(), scope, id)
	require.NoError(t, err)
	assert.Equal(t, id, got.ID)

	call := db.Last()
	assert.Contains(t, call.SQL, "organization_id = $2")
	assert.Equal(t, []any{id, scope.OrganizationID}, call.Args)
}

func TestListBindsOrganizationAndExcludesDeleted(t *testing.T) {
	scope := testScope()
	db := &storetest.Querier{Rows: [][]any{opportunityRow(uuid.New(), scope)}}
	r := &Repository{db: db}

	list, err := r.List(context.Background(), scope)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	call := db.Last()
	assert.Contains(t, call.SQL, "organization_id = $1")
	assert.Contains(t, call.SQL, "is_deleted = FALSE")
	assert.Equal(t, []any{scope.OrganizationID}, call.Args)
}

func TestUpdateBindsOrganization(t *testing.T) {
	scope := testScope()
	id := uuid.New()
	db := &storetest.Querier{Row: storetest.Row{Values: opportunityRow(id, scope)}}
	r := &Repository{db: db}

	_, err := r.Update(context.Background(), scope, id, UpdateParams{Name: "Initech deal"})
	require.NoError(t, err)

	call := db.Last()
	assert.Contains(t, call.SQL, "organization_id = $6")
	assert.Contains(t, call.SQL, "is_deleted = FALSE")
	assert.Equal(t, id, call.Args[4])
	assert.Equal(t, scope.OrganizationID, call.Args[5])
}

func TestUpdateOwnerBindsOrganization(t *testing.T) {
	scope := testScope()
	id := uuid.New()
	owner := uuid.New()
	db := &storetest.Querier{}
	r := &Repository{db: db}

	require.NoError(t, r.UpdateOwner(context.Background(), db, scope, id, owner))

	call := db.Last()
	assert.Contains(t, call.SQL, "organization_id = $3")
	assert.Equal(t, []any{owner, id, scope.OrganizationID}, call.Args)
}

func TestSoftDeleteBindsOrganization(t *testing.T) {
	scope := testScope()
	id := uuid.New()
	db := &storetest.Querier{}
	r := &Repository{db: db}

	require.NoError(t, r.SoftDelete(context.Background(), scope, id))

	call := db.Last()
	assert.Contains(t, call.SQL, "organization_id = $2")
	assert.Equal(t, []any{id, scope.OrganizationID}, call.Args)
}

func TestSoftDeleteMissingRowNotFound(t *testing.T) {
	db := &storetest.Querier{ExecTag: pgconn.NewCommandTag("UPDATE 0")}
	r := &Repository{db: db}

	err := r.SoftDelete(context.Background(), testScope(), uuid.New())
	assert.ErrorIs(t, err, store.ErrNotFound)
}
