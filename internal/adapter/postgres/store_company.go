package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/rostralabs/rostra/internal/domain"
	"github.com/rostralabs/rostra/internal/domain/company"
)

func scanCompany(row scannable) (company.Company, error) {
	var c company.Company
	err := row.Scan(&c.ID, &c.Name, &c.CVR, &c.OwnerID, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

func (s *Store) CreateCompany(ctx context.Context, c *company.Company) error {
	row := s.pool.QueryRow(ctx,
		`INSERT INTO companies (id, name, cvr, owner_id)
		 VALUES ($1, $2, $3, $4)
		 RETURNING created_at, updated_at`,
		c.ID, c.Name, c.CVR, c.OwnerID)
	if err := row.Scan(&c.CreatedAt, &c.UpdatedAt); err != nil {
		return fmt.Errorf("create company: %w", err)
	}
	return nil
}

func (s *Store) GetCompany(ctx context.Context, id string) (*company.Company, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, name, cvr, owner_id, created_at, updated_at
		 FROM companies WHERE id = $1`, id)

	c, err := scanCompany(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("get company %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get company %s: %w", id, err)
	}
	return &c, nil
}

func (s *Store) ListCompaniesByOwner(ctx context.Context, ownerID string) ([]company.Company, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, cvr, owner_id, created_at, updated_at
		 FROM companies WHERE owner_id = $1 ORDER BY created_at`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list companies: %w", err)
	}
	defer rows.Close()

	var companies []company.Company
	for rows.Next() {
		c, err := scanCompany(rows)
		if err != nil {
			return nil, err
		}
		companies = append(companies, c)
	}
	return companies, rows.Err()
}

func (s *Store) UpdateCompany(ctx context.Context, c *company.Company) error {
	row := s.pool.QueryRow(ctx,
		`UPDATE companies SET name = $2, cvr = $3, updated_at = now()
		 WHERE id = $1
		 RETURNING updated_at`,
		c.ID, c.Name, c.CVR)
	if err := row.Scan(&c.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("update company %s: %w", c.ID, domain.ErrNotFound)
		}
		return fmt.Errorf("update company %s: %w", c.ID, err)
	}
	return nil
}

func (s *Store) DeleteCompany(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM companies WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete company: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("delete company %s: %w", id, domain.ErrNotFound)
	}
	return nil
}
