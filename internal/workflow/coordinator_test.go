package workflow

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relaycrm/backend/internal/accounts"
	"github.com/relaycrm/backend/internal/assignment"
	"github.com/relaycrm/backend/internal/contacts"
	"github.com/relaycrm/backend/internal/leads"
	"github.com/relaycrm/backend/internal/models"
	"github.com/relaycrm/backend/internal/opportunities"
	"github.com/relaycrm/backend/internal/store"
	"github.com/relaycrm/backend/internal/tenant"
)

// fakeTx embeds pgx.Tx for interface satisfaction; only Commit and
// Rollback are implemented. No query ever reaches it because the fake
// stores below keep their state in memory.
type fakeTx struct {
	pgx.Tx
	committed  bool
	rolledBack bool
}

func (t *fakeTx) Commit(ctx context.Context) error {
	t.committed = true
	return nil
}

func (t *fakeTx) Rollback(ctx context.Context) error {
	if !t.committed {
		t.rolledBack = true
	}
	return nil
}

type fakeDB struct {
	tx *fakeTx
}

func (db *fakeDB) Begin(ctx context.Context) (pgx.Tx, error) {
	db.tx = &fakeTx{}
	return db.tx, nil
}

type fakeAccounts struct {
	created []accounts.CreateParams
	err     error
}

func (f *fakeAccounts) Create(ctx context.Context, q store.Querier, scope tenant.Scope, p accounts.CreateParams) (*models.Account, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.created = append(f.created, p)
	return &models.Account{ID: uuid.New(), OrganizationID: scope.OrganizationID, OwnerID: p.OwnerID, Name: p.Name}, nil
}

func (f *fakeAccounts) GetActive(ctx context.Context, q store.Querier, scope tenant.Scope, id uuid.UUID) (*models.Account, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.Account{ID: id, OrganizationID: scope.OrganizationID}, nil
}

type fakeContacts struct {
	created []contacts.CreateParams
	err     error
}

func (f *fakeContacts) Create(ctx context.Context, q store.Querier, scope tenant.Scope, p contacts.CreateParams) (*models.Contact, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.created = append(f.created, p)
	return &models.Contact{ID: uuid.New(), OrganizationID: scope.OrganizationID, AccountID: p.AccountID, FirstName: p.FirstName, LastName: p.LastName}, nil
}

type fakeLeads struct {
	lead        *models.Lead
	getErr      error
	softDeleted []uuid.UUID
	owners      map[uuid.UUID]uuid.UUID
}

func (f *fakeLeads) Create(ctx context.Context, q store.Querier, scope tenant.Scope, p leads.CreateParams) (*models.Lead, error) {
	return &models.Lead{ID: uuid.New(), OrganizationID: scope.OrganizationID, OwnerID: p.OwnerID, Name: p.Name, Source: p.Source, Company: p.Company}, nil
}

func (f *fakeLeads) GetActive(ctx context.Context, q store.Querier, scope tenant.Scope, id uuid.UUID) (*models.Lead, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.lead, nil
}

func (f *fakeLeads) UpdateOwner(ctx context.Context, q store.Querier, scope tenant.Scope, id, ownerID uuid.UUID) error {
	if f.owners == nil {
		f.owners = map[uuid.UUID]uuid.UUID{}
	}
	f.owners[id] = ownerID
	return nil
}

func (f *fakeLeads) SoftDeleteTx(ctx context.Context, q store.Querier, scope tenant.Scope, id uuid.UUID) error {
	f.softDeleted = append(f.softDeleted, id)
	return nil
}

type fakeOpportunities struct {
	created []opportunities.CreateParams
	err     error
	owners  map[uuid.UUID]uuid.UUID
}

func (f *fakeOpportunities) Create(ctx context.Context, q store.Querier, scope tenant.Scope, p opportunities.CreateParams) (*models.Opportunity, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.created = append(f.created, p)
	return &models.Opportunity{ID: uuid.New(), OrganizationID: scope.OrganizationID, AccountID: p.AccountID, OwnerID: p.OwnerID, Name: p.Name, Stage: p.Stage}, nil
}

func (f *fakeOpportunities) UpdateOwner(ctx context.Context, q store.Querier, scope tenant.Scope, id, ownerID uuid.UUID) error {
	if f.owners == nil {
		f.owners = map[uuid.UUID]uuid.UUID{}
	}
	f.owners[id] = ownerID
	return nil
}

type fakeActivities struct {
	entries []string
	err     error
}

func (f *fakeActivities) Create(ctx context.Context, q store.Querier, scope tenant.Scope, activityType string, details map[string]string, related models.RelatedTo) (*models.Activity, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.entries = append(f.entries, activityType)
	return &models.Activity{ID: uuid.New()}, nil
}

type fakeEngine struct {
	assignee uuid.UUID
	matched  bool
	err      error
}

func (f *fakeEngine) Apply(ctx context.Context, q store.Querier, scope tenant.Scope, objectType models.RuleObjectType, rec assignment.Record) (uuid.UUID, bool, error) {
	if f.err != nil {
		return uuid.Nil, false, f.err
	}
	if f.matched {
		rec.SetOwner(f.assignee)
	}
	return f.assignee, f.matched, nil
}

type fixture struct {
	db            *fakeDB
	accounts      *fakeAccounts
	contacts      *fakeContacts
	leads         *fakeLeads
	opportunities *fakeOpportunities
	activities    *fakeActivities
	engine        *fakeEngine
	coordinator   *Coordinator
	scope         tenant.Scope
}

func newFixture() *fixture {
	f := &fixture{
		db:            &fakeDB{},
		accounts:      &fakeAccounts{},
		contacts:      &fakeContacts{},
		leads:         &fakeLeads{},
		opportunities: &fakeOpportunities{},
		activities:    &fakeActivities{},
		engine:        &fakeEngine{},
		scope:         tenant.Scope{OrganizationID: uuid.New(), UserID: uuid.New()},
	}
	f.coordinator = NewCoordinator(f.db, f.accounts, f.contacts, f.leads, f.opportunities, f.activities, f.engine, nil)
	return f
}

func TestCreateAccountCommitsWithActivity(t *testing.T) {
	f := newFixture()

	account, err := f.coordinator.CreateAccount(context.Background(), f.scope, accounts.CreateParams{Name: "Acme"})
	require.NoError(t, err)
	assert.Equal(t, "Acme", account.Name)
	assert.Equal(t, f.scope.UserID, account.OwnerID, "owner defaults to the caller")
	assert.Equal(t, []string{models.ActivityRecordCreated}, f.activities.entries)
	assert.True(t, f.db.tx.committed)
	assert.False(t, f.db.tx.rolledBack)
}

func TestCreateAccountRollsBackOnActivityFailure(t *testing.T) {
	f := newFixture()
	f.activities.err = errors.New("insert failed")

	_, err := f.coordinator.CreateAccount(context.Background(), f.scope, accounts.CreateParams{Name: "Acme"})
	require.Error(t, err)
	assert.False(t, f.db.tx.committed)
	assert.True(t, f.db.tx.rolledBack)
}

func TestCreateContactRejectsMissingAccount(t *testing.T) {
	f := newFixture()
	f.accounts.err = store.ErrNotFound

	_, err := f.coordinator.CreateContact(context.Background(), f.scope, contacts.CreateParams{
		AccountID: uuid.New(),
		FirstName: "Ada",
		LastName:  "Lovelace",
	})
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.Empty(t, f.contacts.created)
	assert.True(t, f.db.tx.rolledBack)
}

func TestCreateLeadAppliesAssignmentRules(t *testing.T) {
	f := newFixture()
	assignee := uuid.New()
	f.engine.assignee = assignee
	f.engine.matched = true

	lead, err := f.coordinator.CreateLead(context.Background(), f.scope, leads.CreateParams{Name: "Grace Hopper", Source: "webinar"})
	require.NoError(t, err)
	assert.Equal(t, assignee, f.leads.owners[lead.ID], "owner persisted in the same transaction")
	assert.True(t, f.db.tx.committed)
}

func TestCreateLeadNoMatchKeepsCallerAsOwner(t *testing.T) {
	f := newFixture()

	lead, err := f.coordinator.CreateLead(context.Background(), f.scope, leads.CreateParams{Name: "Grace Hopper"})
	require.NoError(t, err)
	assert.Equal(t, f.scope.UserID, lead.OwnerID)
	assert.Empty(t, f.leads.owners)
}

func TestCreateOpportunityRollsBackWhenEngineFails(t *testing.T) {
	f := newFixture()
	f.engine.err = errors.New("rule query failed")

	_, err := f.coordinator.CreateOpportunity(context.Background(), f.scope, opportunities.CreateParams{
		AccountID: uuid.New(),
		Name:      "Big Deal",
	})
	require.Error(t, err)
	assert.True(t, f.db.tx.rolledBack)
	assert.False(t, f.db.tx.committed)
}

func TestConvertLeadCreatesFullChain(t *testing.T) {
	f := newFixture()
	leadOwner := uuid.New()
	leadID := uuid.New()
	f.leads.lead = &models.Lead{
		ID:             leadID,
		OrganizationID: f.scope.OrganizationID,
		OwnerID:        leadOwner,
		Name:           "Grace Hopper",
		Email:          "grace@navy.mil",
	}

	oppID, err := f.coordinator.ConvertLead(context.Background(), f.scope, leadID, "US Navy", "Compiler Contract")
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, oppID)

	require.Len(t, f.accounts.created, 1)
	assert.Equal(t, "US Navy", f.accounts.created[0].Name)
	assert.Equal(t, leadOwner, f.accounts.created[0].OwnerID, "account inherits the lead's owner")

	require.Len(t, f.contacts.created, 1)
	assert.Equal(t, "Grace", f.contacts.created[0].FirstName)
	assert.Equal(t, "Hopper", f.contacts.created[0].LastName)
	assert.Equal(t, "grace@navy.mil", f.contacts.created[0].Email)

	require.Len(t, f.opportunities.created, 1)
	assert.Equal(t, "Compiler Contract", f.opportunities.created[0].Name)
	assert.Equal(t, leadOwner, f.opportunities.created[0].OwnerID)

	assert.Equal(t, []uuid.UUID{leadID}, f.leads.softDeleted)
	assert.Equal(t, []string{models.ActivityLeadConverted}, f.activities.entries)
	assert.True(t, f.db.tx.committed)
}

func TestConvertLeadMissingLeadRollsBack(t *testing.T) {
	f := newFixture()
	f.leads.getErr = store.ErrNotFound

	_, err := f.coordinator.ConvertLead(context.Background(), f.scope, uuid.New(), "US Navy", "Compiler Contract")
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.Empty(t, f.accounts.created)
	assert.Empty(t, f.leads.softDeleted)
	assert.True(t, f.db.tx.rolledBack)
}

func TestConvertLeadOpportunityFailureLeavesNoPartialWrites(t *testing.T) {
	f := newFixture()
	f.leads.lead = &models.Lead{ID: uuid.New(), OrganizationID: f.scope.OrganizationID, OwnerID: uuid.New(), Name: "Grace Hopper"}
	f.opportunities.err = store.ErrConflict

	_, err := f.coordinator.ConvertLead(context.Background(), f.scope, f.leads.lead.ID, "US Navy", "Compiler Contract")
	assert.ErrorIs(t, err, store.ErrConflict)
	assert.Empty(t, f.leads.softDeleted, "lead stays active when the chain fails")
	assert.False(t, f.db.tx.committed)
	assert.True(t, f.db.tx.rolledBack)
}

func TestSplitName(t *testing.T) {
	tests := []struct {
		full  string
		first string
		last  string
	}{
		{"Grace Hopper", "Grace", "Hopper"},
		{"Ada", "Ada", ""},
		{"Jean Bartik Jennings", "Jean Bartik", "Jennings"},
		{"", "", ""},
	}
	for _, tt := range tests {
		first, last := splitName(tt.full)
		assert.Equal(t, tt.first, first)
		assert.Equal(t, tt.last, last)
	}
}
