package http

import (
	"net/http"

	"github.com/rostralabs/rostra/internal/domain/calendar"
	"github.com/rostralabs/rostra/internal/middleware"
)

// CreateEvent schedules an event on a company's calendar.
func (h *Handlers) CreateEvent(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[calendar.CreateRequest](w, r)
	if !ok {
		return
	}

	ev, err := h.calendar.Create(r.Context(), middleware.UserIDFromContext(r.Context()), urlParam(r, "id"), &req)
	if err != nil {
		writeDomainError(w, err, "company not found")
		return
	}
	writeJSON(w, http.StatusCreated, ev)
}

// ListEvents returns a company's calendar ordered by start time.
func (h *Handlers) ListEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.calendar.List(r.Context(), middleware.UserIDFromContext(r.Context()), urlParam(r, "id"))
	if err != nil {
		writeDomainError(w, err, "company not found")
		return
	}
	if events == nil {
		events = []calendar.Event{}
	}
	writeJSON(w, http.StatusOK, events)
}

// GetEvent returns one calendar event.
func (h *Handlers) GetEvent(w http.ResponseWriter, r *http.Request) {
	ev, err := h.calendar.Get(r.Context(), middleware.UserIDFromContext(r.Context()), urlParam(r, "id"))
	if err != nil {
		writeDomainError(w, err, "event not found")
		return
	}
	writeJSON(w, http.StatusOK, ev)
}

// UpdateEvent applies a partial update to a calendar event.
func (h *Handlers) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[calendar.UpdateRequest](w, r)
	if !ok {
		return
	}

	ev, err := h.calendar.Update(r.Context(), middleware.UserIDFromContext(r.Context()), urlParam(r, "id"), &req)
	if err != nil {
		writeDomainError(w, err, "event not found")
		return
	}
	writeJSON(w, http.StatusOK, ev)
}

// DeleteEvent removes a calendar event.
func (h *Handlers) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	if err := h.calendar.Delete(r.Context(), middleware.UserIDFromContext(r.Context()), urlParam(r, "id")); err != nil {
		writeDomainError(w, err, "event not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
