// Package gateway implements the protocol-multiplexing front-end: one
// public TCP listener whose accepted connections are classified by their
// opening bytes and spliced to either the internal REST backend or the
// internal realtime backend. The gateway never terminates either protocol;
// it inspects without consuming and relays bytes verbatim.
package gateway

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rostralabs/rostra/internal/adapter/otel"
	"github.com/rostralabs/rostra/internal/config"
)

// headerTerminator ends an HTTP request head.
var headerTerminator = []byte("\r\n\r\n")

// Gateway accepts public connections and proxies each one to a backend.
type Gateway struct {
	cfg     config.Gateway
	metrics *otel.Metrics
}

// New creates a Gateway from its configuration.
func New(cfg config.Gateway, metrics *otel.Metrics) *Gateway {
	return &Gateway{cfg: cfg, metrics: metrics}
}

// Run listens on the configured public address and serves until ctx is
// canceled.
func (g *Gateway) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", g.cfg.Addr)
	if err != nil {
		return fmt.Errorf("gateway listen %s: %w", g.cfg.Addr, err)
	}
	slog.Info("gateway listening", "addr", ln.Addr().String(),
		"rest_backend", g.cfg.RESTBackend, "realtime_backend", g.cfg.RealtimeBackend)
	return g.Serve(ctx, ln)
}

// Serve accepts connections from ln until ctx is canceled. Exposed
// separately from Run so callers can listen on an ephemeral port.
func (g *Gateway) Serve(ctx context.Context, ln net.Listener) error {
	go func() {
		<-ctx.Done()
		_ = ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("gateway accept: %w", err)
		}
		go g.handle(ctx, conn)
	}
}

// handle classifies one public connection and splices it to the chosen
// backend. All failures are local to this connection.
func (g *Gateway) handle(ctx context.Context, public net.Conn) {
	g.metrics.GatewaySessionStarted(ctx)

	if g.cfg.IdleTimeout > 0 {
		public = &idleConn{Conn: public, timeout: g.cfg.IdleTimeout}
	}

	// The buffered reader peeks the request head without consuming it;
	// whatever was buffered is forwarded to the backend through the
	// reader, byte for byte.
	br := bufio.NewReaderSize(public, g.cfg.MaxHeaderBytes)
	target, err := g.classify(br)
	if err != nil {
		slog.Warn("gateway classify failed", "remote", public.RemoteAddr().String(), "error", err)
		_ = public.Close()
		return
	}

	backend, err := net.DialTimeout("tcp", target, g.cfg.DialTimeout)
	if err != nil {
		slog.Error("gateway backend dial failed", "backend", target, "error", err)
		_ = public.Close()
		return
	}

	session := &proxySession{public: public, publicRead: br, backend: backend}
	if err := session.run(); err != nil {
		slog.Warn("gateway relay ended with error",
			"remote", public.RemoteAddr().String(), "backend", target, "error", err)
		return
	}
	slog.Debug("gateway session closed", "remote", public.RemoteAddr().String(), "backend", target)
}

// classify peeks at the connection's opening bytes and picks the backend
// address: a WebSocket upgrade signature routes to the realtime backend,
// anything else to the REST backend. The peeked bytes stay buffered.
func (g *Gateway) classify(br *bufio.Reader) (string, error) {
	head, err := peekHead(br, g.cfg.MaxHeaderBytes)
	if err != nil {
		return "", err
	}
	if hasWebSocketUpgrade(head) {
		return g.cfg.RealtimeBackend, nil
	}
	return g.cfg.RESTBackend, nil
}

// peekHead returns the request head without consuming it: everything up to
// the header terminator, or up to max bytes when the terminator has not
// appeared by then (classification then works on the partial head).
// Grows one fill at a time: peeking a fixed size would block on requests
// shorter than that size.
func peekHead(br *bufio.Reader, max int) ([]byte, error) {
	for {
		buffered := br.Buffered()
		if buffered > 0 {
			head, _ := br.Peek(buffered)
			if i := bytes.Index(head, headerTerminator); i >= 0 {
				return head[:i+len(headerTerminator)], nil
			}
			if buffered >= max {
				return head, nil
			}
		}

		// Block until at least one more byte arrives or the peer closes.
		if _, err := br.Peek(buffered + 1); err != nil {
			if br.Buffered() > 0 {
				head, _ := br.Peek(br.Buffered())
				return head, nil
			}
			return nil, fmt.Errorf("peek request head: %w", err)
		}
	}
}

// hasWebSocketUpgrade reports whether the request head carries an
// "Upgrade: websocket" header.
func hasWebSocketUpgrade(head []byte) bool {
	lower := bytes.ToLower(head)
	i := bytes.Index(lower, []byte("\r\nupgrade:"))
	if i < 0 {
		return false
	}
	value := lower[i+len("\r\nupgrade:"):]
	if j := bytes.Index(value, []byte("\r\n")); j >= 0 {
		value = value[:j]
	}
	return bytes.Contains(value, []byte("websocket"))
}

// proxySession pairs one public connection with one freshly dialed backend
// connection: two symmetric copy loops under a shared teardown, destroyed
// when either side closes or errors.
type proxySession struct {
	public     net.Conn
	publicRead io.Reader // carries bytes already buffered during classification
	backend    net.Conn
}

// run relays bytes in both directions until either side terminates, then
// closes both transports. Returns the first unexpected error observed, or
// nil on orderly closure.
func (s *proxySession) run() error {
	closeBoth := sync.OnceFunc(func() {
		_ = s.public.Close()
		_ = s.backend.Close()
	})
	defer closeBoth()

	g := new(errgroup.Group)
	g.Go(func() error {
		_, err := io.Copy(s.backend, s.publicRead)
		closeBoth()
		return err
	})
	g.Go(func() error {
		_, err := io.Copy(s.public, s.backend)
		closeBoth()
		return err
	})

	if err := g.Wait(); err != nil && !isExpectedCloseErr(err) {
		return err
	}
	return nil
}

// isExpectedCloseErr reports whether err is ordinary connection teardown
// rather than a relay failure.
func isExpectedCloseErr(err error) bool {
	if errors.Is(err, net.ErrClosed) ||
		errors.Is(err, io.EOF) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.EPIPE) {
		return true
	}
	var netErr net.Error
	// An idle-timeout expiry surfaces as a deadline error; treat it as a
	// normal end of session.
	return errors.As(err, &netErr) && netErr.Timeout()
}

// idleConn enforces a per-read idle deadline on the public side so an
// abandoned session cannot hold a proxy pair open forever.
type idleConn struct {
	net.Conn
	timeout time.Duration
}

func (c *idleConn) Read(p []byte) (int, error) {
	if err := c.Conn.SetReadDeadline(time.Now().Add(c.timeout)); err != nil {
		return 0, err
	}
	return c.Conn.Read(p)
}
