package auth

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relaycrm/backend/internal/models"
	"github.com/relaycrm/backend/internal/store/storetest"
)

// provisionTx replays the provisioning transaction's statements against
// canned results and keeps an ordered statement log.
type provisionTx struct {
	pgx.Tx
	userCount  int
	orgID      uuid.UUID
	log        []string
	lockArgs   []any
	roleNames  []string
	roleIDs    map[string]uuid.UUID
	userRoleID uuid.UUID
	committed  bool
	rolledBack bool
}

func newProvisionTx(userCount int) *provisionTx {
	return &provisionTx{userCount: userCount, orgID: uuid.New(), roleIDs: make(map[string]uuid.UUID)}
}

func (t *provisionTx) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	t.log = append(t.log, sql)
	if strings.Contains(sql, "pg_advisory_xact_lock") {
		t.lockArgs = args
	}
	return pgconn.NewCommandTag("INSERT 1"), nil
}

func (t *provisionTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	t.log = append(t.log, sql)
	now := time.Now()
	switch {
	case strings.Contains(sql, "INSERT INTO organizations"):
		return storetest.Row{Values: []any{t.orgID, args[0], now, now}}
	case strings.Contains(sql, "COUNT(*)"):
		return storetest.Row{Values: []any{t.userCount}}
	case strings.Contains(sql, "INSERT INTO roles"):
		id := uuid.New()
		name := args[1].(string)
		t.roleNames = append(t.roleNames, name)
		t.roleIDs[name] = id
		return storetest.Row{Values: []any{id}}
	case strings.Contains(sql, "INSERT INTO users"):
		t.userRoleID = args[1].(uuid.UUID)
		return storetest.Row{Values: []any{uuid.New(), args[0], t.userRoleID, args[2], args[3], args[4], now, now}}
	}
	return storetest.Row{Err: fmt.Errorf("unexpected query: %s", sql)}
}

func (t *provisionTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	t.log = append(t.log, sql)
	return &storetest.Rows{Data: [][]any{{models.PermLeadCreate}}}, nil
}

func (t *provisionTx) Commit(ctx context.Context) error {
	t.committed = true
	return nil
}

func (t *provisionTx) Rollback(ctx context.Context) error {
	if !t.committed {
		t.rolledBack = true
	}
	return nil
}

type provisionDB struct {
	storetest.Querier
	tx *provisionTx
}

func (d *provisionDB) Begin(ctx context.Context) (pgx.Tx, error) { return d.tx, nil }

func (t *provisionTx) logIndex(substr string) int {
	for i, sql := range t.log {
		if strings.Contains(sql, substr) {
			return i
		}
	}
	return -1
}

func TestProvisionLocksBeforeFirstRegistrationCheck(t *testing.T) {
	tx := newProvisionTx(4)
	r := &Repository{db: &provisionDB{tx: tx}}

	_, err := r.Provision(context.Background(), "Globex", "jane@example.com", "hash", "Jane Cooper")
	require.NoError(t, err)

	lockIdx := tx.logIndex("pg_advisory_xact_lock")
	countIdx := tx.logIndex("COUNT(*)")
	require.NotEqual(t, -1, lockIdx)
	require.NotEqual(t, -1, countIdx)
	assert.Less(t, lockIdx, countIdx)
	assert.Equal(t, []any{provisioningLockKey}, tx.lockArgs)
}

func TestProvisionFirstRegistrationGetsSuperAdmin(t *testing.T) {
	tx := newProvisionTx(0)
	r := &Repository{db: &provisionDB{tx: tx}}

	res, err := r.Provision(context.Background(), "Globex", "jane@example.com", "hash", "Jane Cooper")
	require.NoError(t, err)

	assert.Equal(t, models.RoleSuperAdmin, res.RoleName)
	assert.Contains(t, tx.roleNames, models.RoleSuperAdmin)
	assert.Equal(t, tx.roleIDs[models.RoleSuperAdmin], tx.userRoleID)
	assert.True(t, tx.committed)
}

func TestProvisionLaterRegistrationGetsCompanyAdmin(t *testing.T) {
	tx := newProvisionTx(4)
	r := &Repository{db: &provisionDB{tx: tx}}

	res, err := r.Provision(context.Background(), "Globex", "jane@example.com", "hash", "Jane Cooper")
	require.NoError(t, err)

	assert.Equal(t, models.RoleCompanyAdmin, res.RoleName)
	assert.NotContains(t, tx.roleNames, models.RoleSuperAdmin)
	assert.Equal(t, tx.roleIDs[models.RoleCompanyAdmin], tx.userRoleID)
	assert.True(t, tx.committed)
}
