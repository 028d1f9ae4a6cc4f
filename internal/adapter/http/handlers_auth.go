package http

import (
	"net/http"

	"github.com/rostralabs/rostra/internal/domain/user"
	"github.com/rostralabs/rostra/internal/middleware"
)

// Register creates a new user account.
func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[user.CreateRequest](w, r)
	if !ok {
		return
	}

	u, err := h.auth.Register(r.Context(), &req)
	if err != nil {
		writeDomainError(w, err, "user not found")
		return
	}
	writeJSON(w, http.StatusCreated, u)
}

// Login authenticates a user and returns an opaque session credential.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[user.LoginRequest](w, r)
	if !ok {
		return
	}

	resp, err := h.auth.Login(r.Context(), &req)
	if err != nil {
		if resp == nil && err.Error() == "invalid credentials" {
			writeError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		writeDomainError(w, err, "user not found")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Logout invalidates the presented session.
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	credential := r.Header.Get("Authorization")
	if after, found := cutBearer(credential); found {
		credential = after
	}
	if credential == "" {
		writeError(w, http.StatusBadRequest, "no session to log out")
		return
	}

	if err := h.auth.Logout(r.Context(), credential); err != nil {
		writeDomainError(w, err, "session not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Me returns the authenticated user.
func (h *Handlers) Me(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())
	u, err := h.auth.User(r.Context(), userID)
	if err != nil {
		writeDomainError(w, err, "user not found")
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func cutBearer(h string) (string, bool) {
	const prefix = "Bearer "
	if len(h) > len(prefix) && h[:len(prefix)] == prefix {
		return h[len(prefix):], true
	}
	return "", false
}
