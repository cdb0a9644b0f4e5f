package models

import (
	"time"

	"github.com/google/uuid"
)

// Account is a customer company in the sales pipeline.
type Account struct {
	ID             uuid.UUID  `json:"id"`
	OrganizationID uuid.UUID  `json:"organization_id"`
	OwnerID        uuid.UUID  `json:"owner_id"`
	Name           string     `json:"name"`
	Industry       string     `json:"industry,omitempty"`
	Website        string     `json:"website,omitempty"`
	Phone          string     `json:"phone,omitempty"`
	IsDeleted      bool       `json:"is_deleted"`
	DeletedAt      *time.Time `json:"deleted_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}
