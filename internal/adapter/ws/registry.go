// Package ws implements the realtime subsystem: the connection registry,
// the fan-out broadcaster, and the post-accept authentication handshake
// over WebSocket transport.
package ws

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/coder/websocket"
)

// State tracks a connection through its lifecycle. Closed is terminal;
// every other state may transition to Closed on error or explicit close.
type State int

const (
	StateOpen State = iota
	StateAuthenticating
	StateAuthenticated
	StateScoped
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateAuthenticating:
		return "authenticating"
	case StateAuthenticated:
		return "authenticated"
	case StateScoped:
		return "scoped"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// errClosed is returned by Send on a connection that has transitioned to Closed.
var errClosed = errors.New("ws: connection closed")

// transport is the subset of *websocket.Conn the connection owns. Narrowed
// to an interface so tests can substitute an in-memory frame sink.
type transport interface {
	Write(ctx context.Context, typ websocket.MessageType, p []byte) error
	Close(code websocket.StatusCode, reason string) error
}

// Conn is one live realtime session. The embedded transport is exclusively
// owned by the send path: all writes go through Send, which serializes
// frames under writeMu so concurrent broadcasters never interleave.
type Conn struct {
	sock         transport
	writeMu      sync.Mutex
	writeTimeout time.Duration

	mu           sync.Mutex
	state        State
	userID       string
	companyID    string
	authFailures int
}

func newConn(sock transport, writeTimeout time.Duration) *Conn {
	return &Conn{sock: sock, writeTimeout: writeTimeout, state: StateOpen}
}

// Send writes one complete frame to the connection. Safe for concurrent
// callers; frames are serialized, never interleaved.
func (c *Conn) Send(ctx context.Context, data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if c.State() == StateClosed {
		return errClosed
	}

	if c.writeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.writeTimeout)
		defer cancel()
	}
	return c.sock.Write(ctx, websocket.MessageText, data)
}

// UserID returns the authenticated identity, or "" before authentication.
func (c *Conn) UserID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.userID
}

// CompanyID returns the company the connection is currently scoped to.
func (c *Conn) CompanyID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.companyID
}

// State returns the current lifecycle state.
func (c *Conn) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// beginAuth moves an unauthenticated connection into Authenticating.
func (c *Conn) beginAuth() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateOpen {
		c.state = StateAuthenticating
	}
}

// authenticated records the resolved identity.
func (c *Conn) authenticated(userID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateClosed {
		return
	}
	c.userID = userID
	c.state = StateAuthenticated
	c.authFailures = 0
}

// authFailed rolls the connection back to Open and returns the cumulative
// failure count so the caller can bound retry abuse.
func (c *Conn) authFailed() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateAuthenticating {
		c.state = StateOpen
	}
	c.authFailures++
	return c.authFailures
}

// setCompany rescopes an authenticated connection.
func (c *Conn) setCompany(companyID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateAuthenticated || c.state == StateScoped {
		c.companyID = companyID
		c.state = StateScoped
	}
}

// close transitions to Closed and shuts the transport. Idempotent.
func (c *Conn) close(code websocket.StatusCode, reason string) {
	c.mu.Lock()
	if c.state == StateClosed {
		c.mu.Unlock()
		return
	}
	c.state = StateClosed
	c.mu.Unlock()

	_ = c.sock.Close(code, reason)
}

// Registry is the concurrent store of authenticated connections, keyed by
// user ID. It is constructed once at startup and injected into the hub and
// broadcaster; it never lives in package-level state.
type Registry struct {
	mu    sync.RWMutex
	conns map[string]*Conn
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{conns: make(map[string]*Conn)}
}

// Add registers a connection under userID. A previous connection for the
// same identity is evicted and returned so the caller can close it: leaving
// the replaced socket open would orphan it with no owner.
func (r *Registry) Add(userID string, c *Conn) (evicted *Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()

	prev := r.conns[userID]
	r.conns[userID] = c
	if prev != nil && prev != c {
		return prev
	}
	return nil
}

// Remove deletes the entry for userID. Idempotent; no-op when absent.
func (r *Registry) Remove(userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.conns, userID)
}

// RemoveConn deletes the entry for userID only if it still maps to c.
// Connection teardown paths use this so a stale connection's exit never
// unregisters the connection that replaced it.
func (r *Registry) RemoveConn(userID string, c *Conn) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.conns[userID] != c {
		return false
	}
	delete(r.conns, userID)
	return true
}

// Get returns the connection registered for userID.
func (r *Registry) Get(userID string) (*Conn, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.conns[userID]
	return c, ok
}

// ListByCompany returns a point-in-time snapshot of every connection scoped
// to companyID. The snapshot is a copy: broadcast iteration is never
// invalidated by concurrent registry mutation, and no socket I/O happens
// under the registry lock.
func (r *Registry) ListByCompany(companyID string) []*Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*Conn
	for _, c := range r.conns {
		if c.CompanyID() == companyID {
			out = append(out, c)
		}
	}
	return out
}

// UpdateCompany rescopes the connection registered for userID. No-op when
// the identity is not registered.
func (r *Registry) UpdateCompany(userID, companyID string) bool {
	r.mu.RLock()
	c, ok := r.conns[userID]
	r.mu.RUnlock()
	if !ok {
		return false
	}
	c.setCompany(companyID)
	return true
}

// Len returns the number of registered connections.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

// Shutdown closes every registered connection and empties the registry.
func (r *Registry) Shutdown() {
	r.mu.Lock()
	conns := r.conns
	r.conns = make(map[string]*Conn)
	r.mu.Unlock()

	for userID, c := range conns {
		c.close(websocket.StatusGoingAway, "server shutting down")
		slog.Debug("ws connection closed on shutdown", "userId", userID)
	}
}
