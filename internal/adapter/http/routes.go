package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// MountRoutes registers all REST routes on the given chi router. Session
// auth middleware is applied by the caller; register and login are public.
func MountRoutes(r chi.Router, h *Handlers) {
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		// Auth
		r.Post("/auth/register", h.Register)
		r.Post("/auth/login", h.Login)
		r.Post("/auth/logout", h.Logout)
		r.Get("/auth/me", h.Me)

		// Companies
		r.Post("/companies", h.CreateCompany)
		r.Get("/companies", h.ListCompanies)
		r.Get("/companies/{id}", h.GetCompany)
		r.Put("/companies/{id}", h.UpdateCompany)
		r.Delete("/companies/{id}", h.DeleteCompany)

		// Employees (nested under companies)
		r.Post("/companies/{id}/employees", h.CreateEmployee)
		r.Get("/companies/{id}/employees", h.ListEmployees)

		// Employees (direct access)
		r.Get("/employees/{id}", h.GetEmployee)
		r.Put("/employees/{id}", h.UpdateEmployee)
		r.Delete("/employees/{id}", h.DeleteEmployee)

		// Calendar events (nested under companies)
		r.Post("/companies/{id}/events", h.CreateEvent)
		r.Get("/companies/{id}/events", h.ListEvents)

		// Calendar events (direct access)
		r.Get("/events/{id}", h.GetEvent)
		r.Put("/events/{id}", h.UpdateEvent)
		r.Delete("/events/{id}", h.DeleteEvent)
	})
}
