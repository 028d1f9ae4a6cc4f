// Package database defines the persistence port for Rostra.
package database

import (
	"context"

	"github.com/rostralabs/rostra/internal/domain/calendar"
	"github.com/rostralabs/rostra/internal/domain/company"
	"github.com/rostralabs/rostra/internal/domain/employee"
	"github.com/rostralabs/rostra/internal/domain/user"
)

// Store is the persistence interface consumed by the service layer.
// Implementations must be safe for concurrent use.
type Store interface {
	// Users
	CreateUser(ctx context.Context, u *user.User) error
	GetUser(ctx context.Context, id string) (*user.User, error)
	GetUserByEmail(ctx context.Context, email string) (*user.User, error)

	// Sessions
	CreateSession(ctx context.Context, s *user.Session) error
	GetSession(ctx context.Context, id string) (*user.Session, error)
	DeleteSession(ctx context.Context, id string) error
	DeleteExpiredSessions(ctx context.Context) (int64, error)

	// Companies
	CreateCompany(ctx context.Context, c *company.Company) error
	GetCompany(ctx context.Context, id string) (*company.Company, error)
	ListCompaniesByOwner(ctx context.Context, ownerID string) ([]company.Company, error)
	UpdateCompany(ctx context.Context, c *company.Company) error
	DeleteCompany(ctx context.Context, id string) error

	// Employees
	CreateEmployee(ctx context.Context, e *employee.Employee) error
	GetEmployee(ctx context.Context, id string) (*employee.Employee, error)
	ListEmployeesByCompany(ctx context.Context, companyID string) ([]employee.Employee, error)
	UpdateEmployee(ctx context.Context, e *employee.Employee) error
	DeleteEmployee(ctx context.Context, id string) error

	// Calendar events
	CreateEvent(ctx context.Context, ev *calendar.Event) error
	GetEvent(ctx context.Context, id string) (*calendar.Event, error)
	ListEventsByCompany(ctx context.Context, companyID string) ([]calendar.Event, error)
	UpdateEvent(ctx context.Context, ev *calendar.Event) error
	DeleteEvent(ctx context.Context, id string) error
}
