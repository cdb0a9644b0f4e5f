package models

import (
	"time"

	"github.com/google/uuid"
)

// Lead is an unqualified prospect. Converting a lead atomically produces an
// Account, a Contact, and an Opportunity, and soft-deletes the lead.
type Lead struct {
	ID             uuid.UUID  `json:"id"`
	OrganizationID uuid.UUID  `json:"organization_id"`
	OwnerID        uuid.UUID  `json:"owner_id"`
	Name           string     `json:"name"`
	Email          string     `json:"email,omitempty"`
	Phone          string     `json:"phone,omitempty"`
	Company        string     `json:"company,omitempty"`
	Source         string     `json:"source,omitempty"`
	Status         string     `json:"status,omitempty"`
	IsDeleted      bool       `json:"is_deleted"`
	DeletedAt      *time.Time `json:"deleted_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// Field returns the named condition field for assignment-rule matching.
func (l *Lead) Field(name string) (string, bool) {
	switch name {
	case "name":
		return l.Name, true
	case "email":
		return l.Email, true
	case "phone":
		return l.Phone, true
	case "company":
		return l.Company, true
	case "source":
		return l.Source, true
	case "status":
		return l.Status, true
	default:
		return "", false
	}
}

// SetOwner records a rule-assigned owner on the in-memory record.
func (l *Lead) SetOwner(id uuid.UUID) { l.OwnerID = id }
