package accounts

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
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

func accountRow(id uuid.UUID, scope tenant.Scope, deleted bool) []any {
	now := time.Now()
	var deletedAt *time.Time
	if deleted {
		deletedAt = &now
	}
	return []any{id, scope.OrganizationID, scope.UserID, "Globex", "Manufacturing", "", "",
		deleted, deletedAt, now, now}
}

func TestGetByIDBindsOrganization(t *testing.T) {
	scope := testScope()
	id := uuid.New()
	db := &storetest.Querier{Row: storetest.Row{Values: accountRow(id, scope, false)}}
	r := &Repository{db: db}

	got, err := r.GetByID(context.Background(), scope, id)
	require.NoError(t, err)
	assert.Equal(t, id, got.ID)

	call := db.Last()
	assert.Contains(t, call.SQL, "organization_id = $2")
	assert.Equal(t, []any{id, scope.OrganizationID}, call.Args)
}

func TestGetByIDReturnsSoftDeletedRow(t *testing.T) {
	scope := testScope()
	id := uuid.New()
	db := &storetest.Querier{Row: storetest.Row{Values: accountRow(id, scope, true)}}
	r := &Repository{db: db}

	got, err := r.GetByID(context.Background(), scope, id)
	require.NoError(t, err)
	assert.True(t, got.IsDeleted)
	assert.NotNil(t, got.DeletedAt)
	assert.NotContains(t, db.Last().SQL, "is_deleted")
}

func TestGetByIDMissingRowNotFound(t *testing.T) {
	db := &storetest.Querier{Row: storetest.Row{Err: pgx.ErrNoRows}}
	r := &Repository{db: db}

	_, err := r.GetByID(context.Background(), testScope(), uuid.New())
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestGetActiveExcludesDeletedRows(t *testing.T) {
	scope := testScope()
	id := uuid.New()
	db := &storetest.Querier{Row: storetest.Row{Values: accountRow(id, scope, false)}}
	r := &Repository{db: db}

	_, err := r.GetActive(context.Background(), db, scope, id)
	require.NoError(t, err)

	call := db.Last()
	assert.Contains(t, call.SQL, "organization_id = $2")
	assert.Contains(t, call.SQL, "is_deleted = FALSE")
	assert.Equal(t, []any{id, scope.OrganizationID}, call.Args)
}

func TestListBindsOrganizationAndExcludesDeleted(t *testing.T) {
	scope := testScope()
	db := &storetest.Querier{Rows: [][]any{accountRow(uuid.New(), scope, false)}}
	r := &Repository{db: db}

	list, err := r.List(context.Background(), scope)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	call := db.Last()
	assert.Contains(t, call.SQL, "organization_id = $1")
	assert.Contains(t, call.SQL, "is_deleted = FALSE")
	assert.Equal(t, []any{scope.OrganizationID}, call.Args)
}

func TestCreateBindsOrganization(t *testing.T) {
	scope := testScope()
	id := uuid.New()
	db := &storetest.Querier{Row: storetest.Row{Values: accountRow(id, scope, false)}}
	r := &Repository{db: db}

	_, err := r.Create(context.Background(), db, scope, CreateParams{OwnerID: scope.UserID, Name: "Globex"})
	require.NoError(t, err)
	assert.Equal(t, scope.OrganizationID, db.Last().Args[0])
}

func TestUpdateBindsOrganization(t *testing.T) {
	scope := testScope()
	id := uuid.New()
	db := &storetest.Querier{Row: storetest.Row{Values: accountRow(id, scope, false)}}
	r := &Repository{db: db}

	_, err := r.Update(context.Background(), scope, id, UpdateParams{Name: "Globex"})
	require.NoError(t, err)

	call := db.Last()
	assert.Contains(t, call.SQL, "organization_id = $6")
	assert.Contains(t, call.SQL, "is_deleted = FALSE")
	assert.Equal(t, id, call.Args[4])
	assert.Equal(t, scope.OrganizationID, call.Args[5])
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
