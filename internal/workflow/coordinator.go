// Package workflow executes the multi-table write protocols: record
// creation with audit logging, and lead conversion. Each call is one
// database transaction; every step commits together or none do.
package workflow

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/relaycrm/backend/internal/accounts"
	"github.com/relaycrm/backend/internal/assignment"
	"github.com/relaycrm/backend/internal/contacts"
	"github.com/relaycrm/backend/internal/leads"
	"github.com/relaycrm/backend/internal/models"
	"github.com/relaycrm/backend/internal/opportunities"
	"github.com/relaycrm/backend/internal/store"
	"github.com/relaycrm/backend/internal/tenant"
)

// TxBeginner starts database transactions. *pgxpool.Pool satisfies it.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// AccountStore is the account persistence surface the coordinator needs.
type AccountStore interface {
	Create(ctx context.Context, q store.Querier, scope tenant.Scope, p accounts.CreateParams) (*models.Account, error)
	GetActive(ctx context.Context, q store.Querier, scope tenant.Scope, id uuid.UUID) (*models.Account, error)
}

// ContactStore is the contact persistence surface the coordinator needs.
type ContactStore interface {
	Create(ctx context.Context, q store.Querier, scope tenant.Scope, p contacts.CreateParams) (*models.Contact, error)
}

// LeadStore is the lead persistence surface the coordinator needs.
type LeadStore interface {
	Create(ctx context.Context, q store.Querier, scope tenant.Scope, p leads.CreateParams) (*models.Lead, error)
	GetActive(ctx context.Context, q store.Querier, scope tenant.Scope, id uuid.UUID) (*models.Lead, error)
	UpdateOwner(ctx context.Context, q store.Querier, scope tenant.Scope, id, ownerID uuid.UUID) error
	SoftDeleteTx(ctx context.Context, q store.Querier, scope tenant.Scope, id uuid.UUID) error
}

// OpportunityStore is the opportunity persistence surface the coordinator needs.
type OpportunityStore interface {
	Create(ctx context.Context, q store.Querier, scope tenant.Scope, p opportunities.CreateParams) (*models.Opportunity, error)
	UpdateOwner(ctx context.Context, q store.Querier, scope tenant.Scope, id, ownerID uuid.UUID) error
}

// ActivityStore appends audit entries inside the transaction.
type ActivityStore interface {
	Create(ctx context.Context, q store.Querier, scope tenant.Scope, activityType string, details map[string]string, related models.RelatedTo) (*models.Activity, error)
}

// RuleEngine applies assignment rules to newly created records.
type RuleEngine interface {
	Apply(ctx context.Context, q store.Querier, scope tenant.Scope, objectType models.RuleObjectType, rec assignment.Record) (uuid.UUID, bool, error)
}

// Coordinator runs the workflow transactions.
type Coordinator struct {
	db            TxBeginner
	accounts      AccountStore
	contacts      ContactStore
	leads         LeadStore
	opportunities OpportunityStore
	activities    ActivityStore
	engine        RuleEngine
	logger        *zap.Logger
}

// NewCoordinator creates a workflow coordinator.
func NewCoordinator(db TxBeginner, accountStore AccountStore, contactStore ContactStore, leadStore LeadStore, opportunityStore OpportunityStore, activityStore ActivityStore, engine RuleEngine, logger *zap.Logger) *Coordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Coordinator{
		db:            db,
		accounts:      accountStore,
		contacts:      contactStore,
		leads:         leadStore,
		opportunities: opportunityStore,
		activities:    activityStore,
		engine:        engine,
		logger:        logger,
	}
}

// CreateAccount inserts an account and its audit activity atomically.
func (c *Coordinator) CreateAccount(ctx context.Context, scope tenant.Scope, p accounts.CreateParams) (*models.Account, error) {
	if p.OwnerID == uuid.Nil {
		p.OwnerID = scope.UserID
	}
	var account *models.Account
	err := c.inTx(ctx, func(tx pgx.Tx) error {
		var err error
		account, err = c.accounts.Create(ctx, tx, scope, p)
		if err != nil {
			return err
		}
		related, err := models.NewRelatedTo(models.RelatedAccount, account.ID)
		if err != nil {
			return err
		}
		_, err = c.activities.Create(ctx, tx, scope, models.ActivityRecordCreated,
			map[string]string{"entity": "Account", "name": account.Name}, related)
		return err
	})
	if err != nil {
		return nil, err
	}
	return account, nil
}

// CreateContact validates the parent account's tenancy, then inserts the
// contact and its audit activity atomically. A cross-tenant account id is
// indistinguishable from a missing one.
func (c *Coordinator) CreateContact(ctx context.Context, scope tenant.Scope, p contacts.CreateParams) (*models.Contact, error) {
	if p.OwnerID == uuid.Nil {
		p.OwnerID = scope.UserID
	}
	var contact *models.Contact
	err := c.inTx(ctx, func(tx pgx.Tx) error {
		if _, err := c.accounts.GetActive(ctx, tx, scope, p.AccountID); err != nil {
			return fmt.Errorf("parent account: %w", err)
		}
		var err error
		contact, err = c.contacts.Create(ctx, tx, scope, p)
		if err != nil {
			return err
		}
		related, err := models.NewRelatedTo(models.RelatedContact, contact.ID)
		if err != nil {
			return err
		}
		_, err = c.activities.Create(ctx, tx, scope, models.ActivityRecordCreated,
			map[string]string{"entity": "Contact", "name": contact.FirstName + " " + contact.LastName}, related)
		return err
	})
	if err != nil {
		return nil, err
	}
	return contact, nil
}

// CreateLead inserts a lead, its audit activity, and applies assignment
// rules, all in one transaction.
func (c *Coordinator) CreateLead(ctx context.Context, scope tenant.Scope, p leads.CreateParams) (*models.Lead, error) {
	if p.OwnerID == uuid.Nil {
		p.OwnerID = scope.UserID
	}
	var lead *models.Lead
	err := c.inTx(ctx, func(tx pgx.Tx) error {
		var err error
		lead, err = c.leads.Create(ctx, tx, scope, p)
		if err != nil {
			return err
		}
		related, err := models.NewRelatedTo(models.RelatedLead, lead.ID)
		if err != nil {
			return err
		}
		if _, err := c.activities.Create(ctx, tx, scope, models.ActivityRecordCreated,
			map[string]string{"entity": "Lead", "name": lead.Name}, related); err != nil {
			return err
		}
		assignee, matched, err := c.engine.Apply(ctx, tx, scope, models.RuleObjectLead, lead)
		if err != nil {
			return err
		}
		if matched {
			if err := c.leads.UpdateOwner(ctx, tx, scope, lead.ID, assignee); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return lead, nil
}

// CreateOpportunity validates the parent account's tenancy, inserts the
// opportunity, its audit activity, and applies assignment rules, all in
// one transaction.
func (c *Coordinator) CreateOpportunity(ctx context.Context, scope tenant.Scope, p opportunities.CreateParams) (*models.Opportunity, error) {
	if p.OwnerID == uuid.Nil {
		p.OwnerID = scope.UserID
	}
	var opp *models.Opportunity
	err := c.inTx(ctx, func(tx pgx.Tx) error {
		if _, err := c.accounts.GetActive(ctx, tx, scope, p.AccountID); err != nil {
			return fmt.Errorf("parent account: %w", err)
		}
		var err error
		opp, err = c.opportunities.Create(ctx, tx, scope, p)
		if err != nil {
			return err
		}
		related, err := models.NewRelatedTo(models.RelatedOpportunity, opp.ID)
		if err != nil {
			return err
		}
		if _, err := c.activities.Create(ctx, tx, scope, models.ActivityRecordCreated,
			map[string]string{"entity": "Opportunity", "name": opp.Name}, related); err != nil {
			return err
		}
		assignee, matched, err := c.engine.Apply(ctx, tx, scope, models.RuleObjectOpportunity, opp)
		if err != nil {
			return err
		}
		if matched {
			if err := c.opportunities.UpdateOwner(ctx, tx, scope, opp.ID, assignee); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return opp, nil
}

// ConvertLead atomically turns a lead into an account + contact +
// opportunity and soft-deletes the lead, returning the new opportunity's
// id. Any failure leaves no partial writes.
func (c *Coordinator) ConvertLead(ctx context.Context, scope tenant.Scope, leadID uuid.UUID, accountName, opportunityName string) (uuid.UUID, error) {
	var opportunityID uuid.UUID
	err := c.inTx(ctx, func(tx pgx.Tx) error {
		lead, err := c.leads.GetActive(ctx, tx, scope, leadID)
		if err != nil {
			return fmt.Errorf("lead: %w", err)
		}

		account, err := c.accounts.Create(ctx, tx, scope, accounts.CreateParams{
			OwnerID: lead.OwnerID,
			Name:    accountName,
		})
		if err != nil {
			return err
		}

		first, last := splitName(lead.Name)
		if _, err := c.contacts.Create(ctx, tx, scope, contacts.CreateParams{
			AccountID: account.ID,
			OwnerID:   lead.OwnerID,
			FirstName: first,
			LastName:  last,
			Email:     lead.Email,
			Phone:     lead.Phone,
		}); err != nil {
			return err
		}

		opp, err := c.opportunities.Create(ctx, tx, scope, opportunities.CreateParams{
			AccountID: account.ID,
			OwnerID:   lead.OwnerID,
			Name:      opportunityName,
		})
		if err != nil {
			return err
		}
		opportunityID = opp.ID

		if err := c.leads.SoftDeleteTx(ctx, tx, scope, lead.ID); err != nil {
			return err
		}

		related, err := models.NewRelatedTo(models.RelatedLead, lead.ID)
		if err != nil {
			return err
		}
		_, err = c.activities.Create(ctx, tx, scope, models.ActivityLeadConverted, map[string]string{
			"lead":        lead.Name,
			"account":     accountName,
			"opportunity": opportunityName,
		}, related)
		return err
	})
	if err != nil {
		return uuid.Nil, err
	}
	c.logger.Info("lead converted",
		zap.String("lead_id", leadID.String()),
		zap.String("opportunity_id", opportunityID.String()))
	return opportunityID, nil
}

func (c *Coordinator) inTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := c.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)
	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func splitName(full string) (first, last string) {
	for i := len(full) - 1; i >= 0; i-- {
		if full[i] == ' ' {
			return full[:i], full[i+1:]
		}
	}
	return full, ""
}
