package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/coder/websocket"
	"github.com/google/uuid"

	"github.com/rostralabs/rostra/internal/adapter/otel"
	"github.com/rostralabs/rostra/internal/config"
	"github.com/rostralabs/rostra/internal/port/identity"
)

// Hub accepts realtime connections and drives the per-connection handshake
// state machine. Authentication happens in-band after the socket is
// accepted: the connection is registered only once a credential resolves.
type Hub struct {
	reg      *Registry
	resolver identity.Resolver
	cfg      config.Realtime
	metrics  *otel.Metrics
}

// NewHub creates a Hub over the given registry and identity resolver.
func NewHub(reg *Registry, resolver identity.Resolver, cfg config.Realtime, metrics *otel.Metrics) *Hub {
	return &Hub{reg: reg, resolver: resolver, cfg: cfg, metrics: metrics}
}

// HandleWS upgrades the request to a WebSocket and runs the connection's
// receive loop until close or error. One goroutine per connection: the
// handler blocks for the connection's lifetime.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	sock, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true, // CORS handled by middleware
	})
	if err != nil {
		slog.Error("ws accept failed", "remote", r.RemoteAddr, "error", err)
		return
	}
	sock.SetReadLimit(h.cfg.MaxMessageBytes)

	c := newConn(sock, h.cfg.WriteTimeout)
	slog.Info("ws connected", "remote", r.RemoteAddr)
	h.metrics.ConnOpened(r.Context())

	h.readLoop(r.Context(), c, sock)
}

// readLoop consumes whole frames until the transport closes or errors, then
// tears the connection down: unregister (no-op if never registered),
// transition to Closed.
func (h *Hub) readLoop(ctx context.Context, c *Conn, sock *websocket.Conn) {
	defer func() {
		if userID := c.UserID(); userID != "" {
			h.reg.RemoveConn(userID, c)
		}
		c.close(websocket.StatusNormalClosure, "")
		h.metrics.ConnClosed(context.WithoutCancel(ctx))
		slog.Info("ws disconnected", "userId", c.UserID(), "state", c.State().String())
	}()

	for {
		_, data, err := sock.Read(ctx)
		if err != nil {
			return
		}
		h.handleMessage(ctx, c, data)
	}
}

// handleMessage dispatches one inbound frame. Malformed or unknown messages
// are logged and ignored; they never affect connection state.
func (h *Hub) handleMessage(ctx context.Context, c *Conn, data []byte) {
	msg, err := ParseClientMessage(data)
	if err != nil {
		slog.Warn("ws message ignored", "userId", c.UserID(), "error", err)
		return
	}

	switch m := msg.(type) {
	case AuthenticateMessage:
		h.handleAuthenticate(ctx, c, m)
	case SetCompanyMessage:
		h.handleSetCompany(ctx, c, m)
	}
}

// handleAuthenticate runs the handshake: resolve the credential, register
// the connection, acknowledge. On failure the connection stays open, but
// repeated failures force-close it to bound resource use.
func (h *Hub) handleAuthenticate(ctx context.Context, c *Conn, m AuthenticateMessage) {
	c.beginAuth()

	switch {
	case !m.Provided:
		h.rejectAuth(ctx, c, ReasonNoCredential)
		return
	case m.Credential == "":
		h.rejectAuth(ctx, c, ReasonEmptyCredential)
		return
	}

	userID, err := h.resolver.Resolve(ctx, m.Credential)
	if err != nil {
		slog.Warn("ws authentication failed", "error", err)
		h.rejectAuth(ctx, c, ReasonInvalidSession)
		return
	}

	c.authenticated(userID)
	if evicted := h.reg.Add(userID, c); evicted != nil {
		slog.Info("ws evicting superseded connection", "userId", userID)
		evicted.close(websocket.StatusPolicyViolation, "superseded by a newer connection")
	}

	h.send(ctx, c, authSuccess(userID))
	slog.Info("ws authenticated", "userId", userID)
}

// rejectAuth reports a handshake failure and closes the connection once the
// failure budget is exhausted.
func (h *Hub) rejectAuth(ctx context.Context, c *Conn, reason string) {
	h.send(ctx, c, authFailure(reason))

	if failures := c.authFailed(); h.cfg.MaxAuthFailures > 0 && failures >= h.cfg.MaxAuthFailures {
		slog.Warn("ws closing connection after repeated auth failures", "failures", failures)
		c.close(websocket.StatusPolicyViolation, "too many failed authentication attempts")
	}
}

// handleSetCompany rescopes an authenticated connection. Unauthenticated
// connections are rejected without a state change.
func (h *Hub) handleSetCompany(ctx context.Context, c *Conn, m SetCompanyMessage) {
	userID := c.UserID()
	if userID == "" {
		slog.Warn("ws setCompany from unauthenticated connection")
		h.send(ctx, c, authFailure(ReasonNotAuthenticated))
		return
	}

	if err := uuid.Validate(m.CompanyID); err != nil {
		slog.Warn("ws setCompany with invalid company id", "userId", userID, "companyId", m.CompanyID)
		return
	}

	h.reg.UpdateCompany(userID, m.CompanyID)
	h.send(ctx, c, companySet{Type: TypeCompanySet, CompanyID: m.CompanyID})
	slog.Info("ws company scope set", "userId", userID, "companyId", m.CompanyID)
}

// send marshals and writes one control reply. Write failures here are left
// to the read loop: the next Read observes the broken transport and tears
// the connection down.
func (h *Hub) send(ctx context.Context, c *Conn, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		slog.Error("ws marshal reply", "error", err)
		return
	}
	if err := c.Send(ctx, data); err != nil && !errors.Is(err, errClosed) {
		slog.Debug("ws reply write failed", "userId", c.UserID(), "error", err)
	}
}
