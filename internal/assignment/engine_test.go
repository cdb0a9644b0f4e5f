package assignment

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/relaycrm/backend/internal/models"
)

func rule(field, value string, assignTo uuid.UUID) models.AssignmentRule {
	return models.AssignmentRule{
		ID:             uuid.New(),
		ObjectType:     models.RuleObjectLead,
		ConditionField: field,
		ConditionValue: value,
		AssignTo:       assignTo,
	}
}

func TestMatchFirstRuleWins(t *testing.T) {
	first := uuid.New()
	second := uuid.New()
	rules := []models.AssignmentRule{
		rule("source", "webinar", first),
		rule("source", "webinar", second),
	}
	lead := &models.Lead{Source: "webinar"}

	assignee, matched := Match(rules, lead)
	assert.True(t, matched)
	assert.Equal(t, first, assignee)
}

func TestMatchCaseInsensitive(t *testing.T) {
	assignTo := uuid.New()
	rules := []models.AssignmentRule{rule("source", "Webinar", assignTo)}
	lead := &models.Lead{Source: "WEBINAR"}

	assignee, matched := Match(rules, lead)
	assert.True(t, matched)
	assert.Equal(t, assignTo, assignee)
}

func TestMatchSkipsUnknownField(t *testing.T) {
	fallback := uuid.New()
	rules := []models.AssignmentRule{
		rule("favorite_color", "blue", uuid.New()),
		rule("company", "acme", fallback),
	}
	lead := &models.Lead{Company: "Acme"}

	assignee, matched := Match(rules, lead)
	assert.True(t, matched)
	assert.Equal(t, fallback, assignee)
}

func TestMatchNoRuleLeavesRecordUntouched(t *testing.T) {
	owner := uuid.New()
	rules := []models.AssignmentRule{rule("source", "webinar", uuid.New())}
	lead := &models.Lead{OwnerID: owner, Source: "cold-call"}

	_, matched := Match(rules, lead)
	assert.False(t, matched)
	assert.Equal(t, owner, lead.OwnerID)
}

func TestMatchEmptyRuleSet(t *testing.T) {
	_, matched := Match(nil, &models.Lead{Source: "webinar"})
	assert.False(t, matched)
}

func TestMatchOpportunityFields(t *testing.T) {
	assignTo := uuid.New()
	rules := []models.AssignmentRule{
		{ObjectType: models.RuleObjectOpportunity, ConditionField: "stage", ConditionValue: "negotiation", AssignTo: assignTo},
	}
	opp := &models.Opportunity{Stage: "Negotiation"}

	assignee, matched := Match(rules, opp)
	assert.True(t, matched)
	assert.Equal(t, assignTo, assignee)
}
