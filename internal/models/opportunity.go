package models

import (
	"time"

	"github.com/google/uuid"
)

// Opportunity is a potential deal under an Account.
type Opportunity struct {
	ID             uuid.UUID  `json:"id"`
	OrganizationID uuid.UUID  `json:"organization_id"`
	AccountID      uuid.UUID  `json:"account_id"`
	OwnerID        uuid.UUID  `json:"owner_id"`
	Name           string     `json:"name"`
	Stage          string     `json:"stage,omitempty"`
	Amount         float64    `json:"amount"`
	CloseDate      *time.Time `json:"close_date,omitempty"`
	IsDeleted      bool       `json:"is_deleted"`
	DeletedAt      *time.Time `json:"deleted_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// Field returns the named condition field for assignment-rule matching.
func (o *Opportunity) Field(name string) (string, bool) {
	switch name {
	case "name":
		return o.Name, true
	case "stage":
		return o.Stage, true
	default:
		return "", false
	}
}

// SetOwner records a rule-assigned owner on the in-memory record.
func (o *Opportunity) SetOwner(id uuid.UUID) { o.OwnerID = id }
