// Package company defines the company domain model. A company is the tenant
// unit: employees, calendar events, and realtime broadcast scope all hang
// off a company ID.
package company

import (
	"errors"
	"time"
)

// Company represents a tenant organization.
type Company struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CVR       string    `json:"cvr"` // Danish business registration number
	OwnerID   string    `json:"ownerId"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// CreateRequest holds the fields required to create a company.
type CreateRequest struct {
	Name string `json:"name"`
	CVR  string `json:"cvr"`
}

// Validate checks that the CreateRequest has all required fields.
func (r *CreateRequest) Validate() error {
	if r.Name == "" {
		return errors.New("company name is required")
	}
	if r.CVR == "" {
		return errors.New("cvr is required")
	}
	return nil
}

// UpdateRequest holds the fields that can be updated on a company.
// Empty fields are left unchanged.
type UpdateRequest struct {
	Name string `json:"name,omitempty"`
	CVR  string `json:"cvr,omitempty"`
}
