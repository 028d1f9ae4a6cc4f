package http

import (
	"net/http"

	"github.com/rostralabs/rostra/internal/domain/employee"
	"github.com/rostralabs/rostra/internal/middleware"
)

// CreateEmployee adds an employee to a company.
func (h *Handlers) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[employee.CreateRequest](w, r)
	if !ok {
		return
	}

	e, err := h.employees.Create(r.Context(), middleware.UserIDFromContext(r.Context()), urlParam(r, "id"), &req)
	if err != nil {
		writeDomainError(w, err, "company not found")
		return
	}
	writeJSON(w, http.StatusCreated, e)
}

// ListEmployees returns a company's roster.
func (h *Handlers) ListEmployees(w http.ResponseWriter, r *http.Request) {
	employees, err := h.employees.List(r.Context(), middleware.UserIDFromContext(r.Context()), urlParam(r, "id"))
	if err != nil {
		writeDomainError(w, err, "company not found")
		return
	}
	if employees == nil {
		employees = []employee.Employee{}
	}
	writeJSON(w, http.StatusOK, employees)
}

// GetEmployee returns one employee.
func (h *Handlers) GetEmployee(w http.ResponseWriter, r *http.Request) {
	e, err := h.employees.Get(r.Context(), middleware.UserIDFromContext(r.Context()), urlParam(r, "id"))
	if err != nil {
		writeDomainError(w, err, "employee not found")
		return
	}
	writeJSON(w, http.StatusOK, e)
}

// UpdateEmployee applies a partial update to an employee.
func (h *Handlers) UpdateEmployee(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[employee.UpdateRequest](w, r)
	if !ok {
		return
	}

	e, err := h.employees.Update(r.Context(), middleware.UserIDFromContext(r.Context()), urlParam(r, "id"), &req)
	if err != nil {
		writeDomainError(w, err, "employee not found")
		return
	}
	writeJSON(w, http.StatusOK, e)
}

// DeleteEmployee removes an employee from its company.
func (h *Handlers) DeleteEmployee(w http.ResponseWriter, r *http.Request) {
	if err := h.employees.Delete(r.Context(), middleware.UserIDFromContext(r.Context()), urlParam(r, "id")); err != nil {
		writeDomainError(w, err, "employee not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
