package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/rostralabs/rostra/internal/domain"
	"github.com/rostralabs/rostra/internal/domain/employee"
)

func scanEmployee(row scannable) (employee.Employee, error) {
	var (
		e      employee.Employee
		userID *string
	)
	err := row.Scan(&e.ID, &userID, &e.CompanyID, &e.FirstName, &e.LastName,
		&e.Email, &e.JobTitle, &e.MobilePhone, &e.CreatedAt, &e.UpdatedAt)
	if userID != nil {
		e.UserID = *userID
	}
	return e, err
}

func (s *Store) CreateEmployee(ctx context.Context, e *employee.Employee) error {
	row := s.pool.QueryRow(ctx,
		`INSERT INTO employees (id, user_id, company_id, first_name, last_name, email, job_title, mobile_phone)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING created_at, updated_at`,
		e.ID, nullIfEmpty(e.UserID), e.CompanyID, e.FirstName, e.LastName,
		e.Email, e.JobTitle, e.MobilePhone)
	if err := row.Scan(&e.CreatedAt, &e.UpdatedAt); err != nil {
		return fmt.Errorf("create employee: %w", err)
	}
	return nil
}

func (s *Store) GetEmployee(ctx context.Context, id string) (*employee.Employee, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, user_id, company_id, first_name, last_name, email, job_title, mobile_phone, created_at, updated_at
		 FROM employees WHERE id = $1`, id)

	e, err := scanEmployee(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("get employee %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get employee %s: %w", id, err)
	}
	return &e, nil
}

func (s *Store) ListEmployeesByCompany(ctx context.Context, companyID string) ([]employee.Employee, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, user_id, company_id, first_name, last_name, email, job_title, mobile_phone, created_at, updated_at
		 FROM employees WHERE company_id = $1 ORDER BY last_name, first_name`, companyID)
	if err != nil {
		return nil, fmt.Errorf("list employees: %w", err)
	}
	defer rows.Close()

	var employees []employee.Employee
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		employees = append(employees, e)
	}
	return employees, rows.Err()
}

func (s *Store) UpdateEmployee(ctx context.Context, e *employee.Employee) error {
	row := s.pool.QueryRow(ctx,
		`UPDATE employees SET job_title = $2, mobile_phone = $3, updated_at = now()
		 WHERE id = $1
		 RETURNING updated_at`,
		e.ID, e.JobTitle, e.MobilePhone)
	if err := row.Scan(&e.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("update employee %s: %w", e.ID, domain.ErrNotFound)
		}
		return fmt.Errorf("update employee %s: %w", e.ID, err)
	}
	return nil
}

func (s *Store) DeleteEmployee(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM employees WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete employee: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("delete employee %s: %w", id, domain.ErrNotFound)
	}
	return nil
}
