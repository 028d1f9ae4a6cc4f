// Package employee defines the employee domain model.
package employee

import (
	"errors"
	"net/mail"
	"time"
)

// Employee is a user attached to a company.
type Employee struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userId"`
	CompanyID   string    `json:"companyId"`
	FirstName   string    `json:"firstName"`
	LastName    string    `json:"lastName"`
	Email       string    `json:"email"`
	JobTitle    string    `json:"jobTitle"`
	MobilePhone string    `json:"mobilePhone,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// CreateRequest holds the fields required to add an employee to a company.
type CreateRequest struct {
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	Email       string `json:"email"`
	JobTitle    string `json:"jobTitle"`
	MobilePhone string `json:"mobilePhone,omitempty"`
}

// Validate checks that the CreateRequest has all required fields.
func (r *CreateRequest) Validate() error {
	if r.FirstName == "" {
		return errors.New("first name is required")
	}
	if r.LastName == "" {
		return errors.New("last name is required")
	}
	if r.Email == "" {
		return errors.New("email is required")
	}
	if _, err := mail.ParseAddress(r.Email); err != nil {
		return errors.New("invalid email format")
	}
	if r.JobTitle == "" {
		return errors.New("job title is required")
	}
	return nil
}

// UpdateRequest holds the fields that can be updated on an employee.
type UpdateRequest struct {
	JobTitle    string `json:"jobTitle,omitempty"`
	MobilePhone string `json:"mobilePhone,omitempty"`
}
