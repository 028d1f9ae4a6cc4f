package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/rostralabs/rostra/internal/domain"
	"github.com/rostralabs/rostra/internal/domain/company"
	"github.com/rostralabs/rostra/internal/port/broadcast"
	"github.com/rostralabs/rostra/internal/port/database"
	"github.com/rostralabs/rostra/internal/port/messagequeue"
)

// CompanyService handles company lifecycle. Writes commit to the store
// first, then fan out: an integration event to the queue and a realtime
// notification to connections scoped to the company. Both are best-effort.
type CompanyService struct {
	store    database.Store
	queue    messagequeue.Queue
	notifier broadcast.Notifier
}

// NewCompanyService creates a new CompanyService.
func NewCompanyService(store database.Store, queue messagequeue.Queue, notifier broadcast.Notifier) *CompanyService {
	return &CompanyService{store: store, queue: queue, notifier: notifier}
}

// Create creates a company owned by ownerID.
func (s *CompanyService) Create(ctx context.Context, ownerID string, req *company.CreateRequest) (*company.Company, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrValidation, err)
	}

	c := &company.Company{
		ID:      uuid.NewString(),
		Name:    req.Name,
		CVR:     req.CVR,
		OwnerID: ownerID,
	}
	if err := s.store.CreateCompany(ctx, c); err != nil {
		return nil, fmt.Errorf("create company: %w", err)
	}
	return c, nil
}

// Get returns a company if the actor may see it.
func (s *CompanyService) Get(ctx context.Context, actorID, id string) (*company.Company, error) {
	c, err := s.store.GetCompany(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.OwnerID != actorID {
		return nil, fmt.Errorf("company %s: %w", id, domain.ErrForbidden)
	}
	return c, nil
}

// List returns the companies owned by the actor.
func (s *CompanyService) List(ctx context.Context, actorID string) ([]company.Company, error) {
	return s.store.ListCompaniesByOwner(ctx, actorID)
}

// Update applies an update to a company owned by the actor.
func (s *CompanyService) Update(ctx context.Context, actorID, id string, req *company.UpdateRequest) (*company.Company, error) {
	c, err := s.Get(ctx, actorID, id)
	if err != nil {
		return nil, err
	}

	if req.Name != "" {
		c.Name = req.Name
	}
	if req.CVR != "" {
		c.CVR = req.CVR
	}
	if err := s.store.UpdateCompany(ctx, c); err != nil {
		return nil, err
	}

	s.publish(ctx, messagequeue.SubjectCompanyUpdated, companyEventPayload{CompanyID: c.ID})
	s.notifier.NotifyCompanyDataChanged(ctx, c.ID, "CompanyUpdated", companyEventPayload{CompanyID: c.ID})
	return c, nil
}

// Delete removes a company owned by the actor. Employees, events, and
// sessions scoped to it cascade in the store.
func (s *CompanyService) Delete(ctx context.Context, actorID, id string) error {
	if _, err := s.Get(ctx, actorID, id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		return err
	}
	return s.store.DeleteCompany(ctx, id)
}

// publish sends an integration event. The write already committed, so a
// queue failure is logged and swallowed.
func (s *CompanyService) publish(ctx context.Context, subject string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		slog.Error("marshal integration event", "subject", subject, "error", err)
		return
	}
	if err := s.queue.Publish(ctx, subject, data); err != nil {
		slog.Error("publish integration event", "subject", subject, "error", err)
	}
}

// companyEventPayload is the integration event body for company changes.
type companyEventPayload struct {
	CompanyID string `json:"companyId"`
}
