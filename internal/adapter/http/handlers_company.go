package http

import (
	"net/http"

	"github.com/rostralabs/rostra/internal/domain/company"
	"github.com/rostralabs/rostra/internal/middleware"
)

// CreateCompany creates a company owned by the caller.
func (h *Handlers) CreateCompany(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[company.CreateRequest](w, r)
	if !ok {
		return
	}

	c, err := h.companies.Create(r.Context(), middleware.UserIDFromContext(r.Context()), &req)
	if err != nil {
		writeDomainError(w, err, "company not found")
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

// ListCompanies returns the caller's companies.
func (h *Handlers) ListCompanies(w http.ResponseWriter, r *http.Request) {
	companies, err := h.companies.List(r.Context(), middleware.UserIDFromContext(r.Context()))
	if err != nil {
		writeDomainError(w, err, "companies not found")
		return
	}
	if companies == nil {
		companies = []company.Company{}
	}
	writeJSON(w, http.StatusOK, companies)
}

// GetCompany returns one company.
func (h *Handlers) GetCompany(w http.ResponseWriter, r *http.Request) {
	c, err := h.companies.Get(r.Context(), middleware.UserIDFromContext(r.Context()), urlParam(r, "id"))
	if err != nil {
		writeDomainError(w, err, "company not found")
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// UpdateCompany applies a partial update to a company.
func (h *Handlers) UpdateCompany(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[company.UpdateRequest](w, r)
	if !ok {
		return
	}

	c, err := h.companies.Update(r.Context(), middleware.UserIDFromContext(r.Context()), urlParam(r, "id"), &req)
	if err != nil {
		writeDomainError(w, err, "company not found")
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// DeleteCompany removes a company.
func (h *Handlers) DeleteCompany(w http.ResponseWriter, r *http.Request) {
	if err := h.companies.Delete(r.Context(), middleware.UserIDFromContext(r.Context()), urlParam(r, "id")); err != nil {
		writeDomainError(w, err, "company not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
