package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/rostralabs/rostra/internal/domain"
	"github.com/rostralabs/rostra/internal/domain/employee"
	"github.com/rostralabs/rostra/internal/port/broadcast"
	"github.com/rostralabs/rostra/internal/port/database"
	"github.com/rostralabs/rostra/internal/port/messagequeue"
)

// EmployeeService handles the employee roster of a company.
type EmployeeService struct {
	store    database.Store
	queue    messagequeue.Queue
	notifier broadcast.Notifier
}

// NewEmployeeService creates a new EmployeeService.
func NewEmployeeService(store database.Store, queue messagequeue.Queue, notifier broadcast.Notifier) *EmployeeService {
	return &EmployeeService{store: store, queue: queue, notifier: notifier}
}

// requireOwner checks that the actor owns the company.
func (s *EmployeeService) requireOwner(ctx context.Context, actorID, companyID string) error {
	c, err := s.store.GetCompany(ctx, companyID)
	if err != nil {
		return err
	}
	if c.OwnerID != actorID {
		return fmt.Errorf("company %s: %w", companyID, domain.ErrForbidden)
	}
	return nil
}

// Create adds an employee to a company owned by the actor.
func (s *EmployeeService) Create(ctx context.Context, actorID, companyID string, req *employee.CreateRequest) (*employee.Employee, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrValidation, err)
	}
	if err := s.requireOwner(ctx, actorID, companyID); err != nil {
		return nil, err
	}

	e := &employee.Employee{
		ID:          uuid.NewString(),
		CompanyID:   companyID,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Email:       req.Email,
		JobTitle:    req.JobTitle,
		MobilePhone: req.MobilePhone,
	}
	if err := s.store.CreateEmployee(ctx, e); err != nil {
		return nil, fmt.Errorf("create employee: %w", err)
	}

	s.publish(ctx, messagequeue.SubjectEmployeeAdded, employeeEventPayload{EmployeeID: e.ID, CompanyID: companyID})
	s.notifier.NotifyEmployeeAdded(ctx, companyID, e.ID)
	return e, nil
}

// Get returns one employee of a company owned by the actor.
func (s *EmployeeService) Get(ctx context.Context, actorID, id string) (*employee.Employee, error) {
	e, err := s.store.GetEmployee(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.requireOwner(ctx, actorID, e.CompanyID); err != nil {
		return nil, err
	}
	return e, nil
}

// List returns the roster of a company owned by the actor.
func (s *EmployeeService) List(ctx context.Context, actorID, companyID string) ([]employee.Employee, error) {
	if err := s.requireOwner(ctx, actorID, companyID); err != nil {
		return nil, err
	}
	return s.store.ListEmployeesByCompany(ctx, companyID)
}

// Update applies an update to an employee of a company owned by the actor.
func (s *EmployeeService) Update(ctx context.Context, actorID, id string, req *employee.UpdateRequest) (*employee.Employee, error) {
	e, err := s.Get(ctx, actorID, id)
	if err != nil {
		return nil, err
	}

	if req.JobTitle != "" {
		e.JobTitle = req.JobTitle
	}
	if req.MobilePhone != "" {
		e.MobilePhone = req.MobilePhone
	}
	if err := s.store.UpdateEmployee(ctx, e); err != nil {
		return nil, err
	}

	s.notifier.NotifyCompanyDataChanged(ctx, e.CompanyID, "EmployeeUpdated",
		employeeEventPayload{EmployeeID: e.ID, CompanyID: e.CompanyID})
	return e, nil
}

// Delete removes an employee from a company owned by the actor.
func (s *EmployeeService) Delete(ctx context.Context, actorID, id string) error {
	e, err := s.Get(ctx, actorID, id)
	if err != nil {
		return err
	}
	if err := s.store.DeleteEmployee(ctx, id); err != nil {
		return err
	}

	s.publish(ctx, messagequeue.SubjectEmployeeRemoved, employeeEventPayload{EmployeeID: id, CompanyID: e.CompanyID})
	s.notifier.NotifyEmployeeRemoved(ctx, e.CompanyID, id)
	return nil
}

func (s *EmployeeService) publish(ctx context.Context, subject string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		slog.Error("marshal integration event", "subject", subject, "error", err)
		return
	}
	if err := s.queue.Publish(ctx, subject, data); err != nil {
		slog.Error("publish integration event", "subject", subject, "error", err)
	}
}

// employeeEventPayload is the integration event body for roster changes.
type employeeEventPayload struct {
	EmployeeID string `json:"employeeId"`
	CompanyID  string `json:"companyId"`
}
