package http

import (
	"github.com/rostralabs/rostra/internal/service"
)

// Handlers bundles the REST handlers and their service dependencies.
type Handlers struct {
	auth      *service.AuthService
	companies *service.CompanyService
	employees *service.EmployeeService
	calendar  *service.CalendarService
}

// NewHandlers creates the handler set.
func NewHandlers(
	auth *service.AuthService,
	companies *service.CompanyService,
	employees *service.EmployeeService,
	calendar *service.CalendarService,
) *Handlers {
	return &Handlers{
		auth:      auth,
		companies: companies,
		employees: employees,
		calendar:  calendar,
	}
}
