package assignment

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/relaycrm/backend/internal/models"
	"github.com/relaycrm/backend/internal/store"
	"github.com/relaycrm/backend/internal/tenant"
)

// Record is a newly created Lead or Opportunity seen by the engine.
type Record interface {
	// Field reads a condition field off the record by name.
	Field(name string) (string, bool)
	// SetOwner updates the in-memory owner after a rule match.
	SetOwner(id uuid.UUID)
}

// RuleSource loads the candidate rules for matching.
type RuleSource interface {
	ListForMatching(ctx context.Context, q store.Querier, scope tenant.Scope, objectType models.RuleObjectType) ([]models.AssignmentRule, error)
}

// Engine evaluates ordered assignment rules against newly created records.
// It runs inside the caller's transaction so a reader can never observe a
// new record with a stale owner. The rule set is not locked during
// matching; a rule committed concurrently with a creation may or may not
// apply.
type Engine struct {
	rules RuleSource
}

// NewEngine creates an assignment rule engine.
func NewEngine(rules RuleSource) *Engine {
	return &Engine{rules: rules}
}

// Match returns the assignee of the first rule whose condition field,
// read off the record, case-insensitively equals the rule's condition
// value. Later matching rules are never evaluated.
func Match(rules []models.AssignmentRule, rec Record) (uuid.UUID, bool) {
	for _, rule := range rules {
		value, ok := rec.Field(rule.ConditionField)
		if !ok {
			continue
		}
		if strings.EqualFold(value, rule.ConditionValue) {
			return rule.AssignTo, true
		}
	}
	return uuid.Nil, false
}

// Apply loads the organization's rules for objectType through q, matches
// rec, and on a match sets the record's owner and returns the assignee.
// A no-match leaves the record untouched.
func (e *Engine) Apply(ctx context.Context, q store.Querier, scope tenant.Scope, objectType models.RuleObjectType, rec Record) (uuid.UUID, bool, error) {
	rules, err := e.rules.ListForMatching(ctx, q, scope, objectType)
	if err != nil {
		return uuid.Nil, false, err
	}
	assignee, matched := Match(rules, rec)
	if !matched {
		return uuid.Nil, false, nil
	}
	rec.SetOwner(assignee)
	return assignee, true, nil
}
