// Package calendar defines the calendar event domain model.
package calendar

import (
	"errors"
	"time"
)

// Event is a scheduled calendar entry belonging to a company.
type Event struct {
	ID          string    `json:"id"`
	CompanyID   string    `json:"companyId"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	StartTime   time.Time `json:"startTime"`
	EndTime     time.Time `json:"endTime"`
	CreatedByID string    `json:"createdById"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// CreateRequest holds the fields required to create a calendar event.
type CreateRequest struct {
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	StartTime   time.Time `json:"startTime"`
	EndTime     time.Time `json:"endTime"`
}

// Validate checks that the CreateRequest has all required fields and a
// coherent time range.
func (r *CreateRequest) Validate() error {
	if r.Title == "" {
		return errors.New("event title is required")
	}
	if r.StartTime.IsZero() || r.EndTime.IsZero() {
		return errors.New("start and end times are required")
	}
	if !r.StartTime.Before(r.EndTime) {
		return errors.New("end time must be after start time")
	}
	return nil
}

// UpdateRequest holds the fields that can be updated on an event.
// Nil times are left unchanged.
type UpdateRequest struct {
	Title       string     `json:"title,omitempty"`
	Description *string    `json:"description,omitempty"`
	StartTime   *time.Time `json:"startTime,omitempty"`
	EndTime     *time.Time `json:"endTime,omitempty"`
}

// Apply validates the update against the current event and mutates it.
func (r *UpdateRequest) Apply(ev *Event) error {
	start, end := ev.StartTime, ev.EndTime
	if r.StartTime != nil {
		start = *r.StartTime
	}
	if r.EndTime != nil {
		end = *r.EndTime
	}
	if !start.Before(end) {
		return errors.New("end time must be after start time")
	}
	if r.Title != "" {
		ev.Title = r.Title
	}
	if r.Description != nil {
		ev.Description = *r.Description
	}
	ev.StartTime, ev.EndTime = start, end
	return nil
}
