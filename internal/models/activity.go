package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// RelatedType tags which entity kind an activity points at.
type RelatedType string

const (
	RelatedAccount     RelatedType = "Account"
	RelatedContact     RelatedType = "Contact"
	RelatedLead        RelatedType = "Lead"
	RelatedOpportunity RelatedType = "Opportunity"
)

// RelatedTo is a validated polymorphic reference to a pipeline record.
// Invalid type tags are rejected at construction, not at lookup time.
type RelatedTo struct {
	entityType RelatedType
	entityID   uuid.UUID
}

// NewRelatedTo builds a RelatedTo, rejecting unknown type tags and nil ids.
func NewRelatedTo(entityType RelatedType, entityID uuid.UUID) (RelatedTo, error) {
	switch entityType {
	case RelatedAccount, RelatedContact, RelatedLead, RelatedOpportunity:
	default:
		return RelatedTo{}, fmt.Errorf("invalid related entity type %q", entityType)
	}
	if entityID == uuid.Nil {
		return RelatedTo{}, fmt.Errorf("related entity id is required")
	}
	return RelatedTo{entityType: entityType, entityID: entityID}, nil
}

// Type returns the entity kind.
func (r RelatedTo) Type() RelatedType { return r.entityType }

// ID returns the entity id.
func (r RelatedTo) ID() uuid.UUID { return r.entityID }

// Activity is an append-only audit entry, created only as a side effect of
// workflow transactions.
type Activity struct {
	ID             uuid.UUID         `json:"id"`
	OrganizationID uuid.UUID         `json:"organization_id"`
	Type           string            `json:"type"`
	Details        map[string]string `json:"details,omitempty"`
	ActorUserID    uuid.UUID         `json:"actor_user_id"`
	RelatedType    RelatedType       `json:"related_type"`
	RelatedID      uuid.UUID         `json:"related_id"`
	CreatedAt      time.Time         `json:"created_at"`
}

// Activity types written by the workflow coordinator.
const (
	ActivityRecordCreated = "record_created"
	ActivityLeadConverted = "lead_converted"
)
