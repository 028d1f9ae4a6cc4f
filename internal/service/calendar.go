package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/rostralabs/rostra/internal/domain"
	"github.com/rostralabs/rostra/internal/domain/calendar"
	"github.com/rostralabs/rostra/internal/port/broadcast"
	"github.com/rostralabs/rostra/internal/port/database"
	"github.com/rostralabs/rostra/internal/port/messagequeue"
)

// CalendarService handles a company's calendar events. Every mutation fans
// out a realtime notification to the company's connections so open calendars
// converge without polling.
type CalendarService struct {
	store    database.Store
	queue    messagequeue.Queue
	notifier broadcast.Notifier
}

// NewCalendarService creates a new CalendarService.
func NewCalendarService(store database.Store, queue messagequeue.Queue, notifier broadcast.Notifier) *CalendarService {
	return &CalendarService{store: store, queue: queue, notifier: notifier}
}

// requireOwner checks that the actor owns the company.
func (s *CalendarService) requireOwner(ctx context.Context, actorID, companyID string) error {
	c, err := s.store.GetCompany(ctx, companyID)
	if err != nil {
		return err
	}
	if c.OwnerID != actorID {
		return fmt.Errorf("company %s: %w", companyID, domain.ErrForbidden)
	}
	return nil
}

// Create schedules an event on a company's calendar.
func (s *CalendarService) Create(ctx context.Context, actorID, companyID string, req *calendar.CreateRequest) (*calendar.Event, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrValidation, err)
	}
	if err := s.requireOwner(ctx, actorID, companyID); err != nil {
		return nil, err
	}

	ev := &calendar.Event{
		ID:          uuid.NewString(),
		CompanyID:   companyID,
		Title:       req.Title,
		Description: req.Description,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		CreatedByID: actorID,
	}
	if err := s.store.CreateEvent(ctx, ev); err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}

	s.publish(ctx, messagequeue.SubjectEventCreated, calendarEventPayload{EventID: ev.ID, CompanyID: companyID})
	s.notifier.NotifyEventCreated(ctx, companyID, ev.ID)
	return ev, nil
}

// Get returns one event of a company owned by the actor.
func (s *CalendarService) Get(ctx context.Context, actorID, id string) (*calendar.Event, error) {
	ev, err := s.store.GetEvent(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.requireOwner(ctx, actorID, ev.CompanyID); err != nil {
		return nil, err
	}
	return ev, nil
}

// List returns the calendar of a company owned by the actor, ordered by
// start time.
func (s *CalendarService) List(ctx context.Context, actorID, companyID string) ([]calendar.Event, error) {
	if err := s.requireOwner(ctx, actorID, companyID); err != nil {
		return nil, err
	}
	return s.store.ListEventsByCompany(ctx, companyID)
}

// Update applies an update to an event of a company owned by the actor.
func (s *CalendarService) Update(ctx context.Context, actorID, id string, req *calendar.UpdateRequest) (*calendar.Event, error) {
	ev, err := s.Get(ctx, actorID, id)
	if err != nil {
		return nil, err
	}
	if err := req.Apply(ev); err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrValidation, err)
	}
	if err := s.store.UpdateEvent(ctx, ev); err != nil {
		return nil, err
	}

	s.publish(ctx, messagequeue.SubjectEventUpdated, calendarEventPayload{EventID: ev.ID, CompanyID: ev.CompanyID})
	s.notifier.NotifyEventUpdated(ctx, ev.CompanyID, ev.ID)
	return ev, nil
}

// Delete removes an event from a company owned by the actor.
func (s *CalendarService) Delete(ctx context.Context, actorID, id string) error {
	ev, err := s.Get(ctx, actorID, id)
	if err != nil {
		return err
	}
	if err := s.store.DeleteEvent(ctx, id); err != nil {
		return err
	}

	s.publish(ctx, messagequeue.SubjectEventDeleted, calendarEventPayload{EventID: id, CompanyID: ev.CompanyID})
	s.notifier.NotifyEventDeleted(ctx, ev.CompanyID, id)
	return nil
}

func (s *CalendarService) publish(ctx context.Context, subject string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		slog.Error("marshal integration event", "subject", subject, "error", err)
		return
	}
	if err := s.queue.Publish(ctx, subject, data); err != nil {
		slog.Error("publish integration event", "subject", subject, "error", err)
	}
}

// calendarEventPayload is the integration event body for calendar changes.
type calendarEventPayload struct {
	EventID   string `json:"eventId"`
	CompanyID string `json:"companyId"`
}
