package models

import (
	"time"

	"github.com/google/uuid"
)

// RuleObjectType names the record types assignment rules can target.
type RuleObjectType string

const (
	RuleObjectLead        RuleObjectType = "Lead"
	RuleObjectOpportunity RuleObjectType = "Opportunity"
)

// Valid reports whether t is a known rule object type.
func (t RuleObjectType) Valid() bool {
	return t == RuleObjectLead || t == RuleObjectOpportunity
}

// AssignmentRule reassigns ownership of a newly created Lead or Opportunity
// when its condition field case-insensitively equals the condition value.
// Rules are evaluated in creation order; the first match wins.
type AssignmentRule struct {
	ID             uuid.UUID      `json:"id"`
	OrganizationID uuid.UUID      `json:"organization_id"`
	ObjectType     RuleObjectType `json:"object_type"`
	ConditionField string         `json:"condition_field"`
	ConditionValue string         `json:"condition_value"`
	AssignTo       uuid.UUID      `json:"assign_to"`
	CreatedAt      time.Time      `json:"created_at"`
}
