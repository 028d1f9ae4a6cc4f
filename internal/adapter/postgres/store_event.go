package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/rostralabs/rostra/internal/domain"
	"github.com/rostralabs/rostra/internal/domain/calendar"
)

func scanEvent(row scannable) (calendar.Event, error) {
	var ev calendar.Event
	err := row.Scan(&ev.ID, &ev.CompanyID, &ev.Title, &ev.Description,
		&ev.StartTime, &ev.EndTime, &ev.CreatedByID, &ev.CreatedAt, &ev.UpdatedAt)
	return ev, err
}

func (s *Store) CreateEvent(ctx context.Context, ev *calendar.Event) error {
	row := s.pool.QueryRow(ctx,
		`INSERT INTO calendar_events (id, company_id, title, description, start_time, end_time, created_by_id)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING created_at, updated_at`,
		ev.ID, ev.CompanyID, ev.Title, ev.Description, ev.StartTime, ev.EndTime, ev.CreatedByID)
	if err := row.Scan(&ev.CreatedAt, &ev.UpdatedAt); err != nil {
		return fmt.Errorf("create event: %w", err)
	}
	return nil
}

func (s *Store) GetEvent(ctx context.Context, id string) (*calendar.Event, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, company_id, title, description, start_time, end_time, created_by_id, created_at, updated_at
		 FROM calendar_events WHERE id = $1`, id)

	ev, err := scanEvent(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("get event %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get event %s: %w", id, err)
	}
	return &ev, nil
}

func (s *Store) ListEventsByCompany(ctx context.Context, companyID string) ([]calendar.Event, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, company_id, title, description, start_time, end_time, created_by_id, created_at, updated_at
		 FROM calendar_events WHERE company_id = $1 ORDER BY start_time`, companyID)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var events []calendar.Event
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

func (s *Store) UpdateEvent(ctx context.Context, ev *calendar.Event) error {
	row := s.pool.QueryRow(ctx,
		`UPDATE calendar_events SET title = $2, description = $3, start_time = $4, end_time = $5, updated_at = now()
		 WHERE id = $1
		 RETURNING updated_at`,
		ev.ID, ev.Title, ev.Description, ev.StartTime, ev.EndTime)
	if err := row.Scan(&ev.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("update event %s: %w", ev.ID, domain.ErrNotFound)
		}
		return fmt.Errorf("update event %s: %w", ev.ID, err)
	}
	return nil
}

func (s *Store) DeleteEvent(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM calendar_events WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("delete event %s: %w", id, domain.ErrNotFound)
	}
	return nil
}
