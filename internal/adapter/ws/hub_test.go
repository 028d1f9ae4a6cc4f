package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"

	"github.com/rostralabs/rostra/internal/config"
	"github.com/rostralabs/rostra/internal/domain"
	"github.com/rostralabs/rostra/internal/port/identity"
)

// knownSessions maps test credentials to user IDs.
var knownSessions = map[string]string{
	"sess-alice": "alice",
	"sess-bob":   "bob",
}

func testResolver() identity.Resolver {
	return identity.ResolverFunc(func(_ context.Context, credential string) (string, error) {
		if userID, ok := knownSessions[credential]; ok {
			return userID, nil
		}
		return "", domain.ErrInvalidSession
	})
}

func testRealtimeConfig() config.Realtime {
	return config.Realtime{
		MaxMessageBytes: 32 * 1024,
		WriteTimeout:    time.Second,
		FanoutLimit:     4,
		MaxAuthFailures: 3,
	}
}

// startHub runs a hub on an httptest server and returns the registry and a
// dialer.
func startHub(t *testing.T) (*Registry, func() *websocket.Conn) {
	t.Helper()

	reg := NewRegistry()
	hub := NewHub(reg, testResolver(), testRealtimeConfig(), nil)
	srv := httptest.NewServer(http.HandlerFunc(hub.HandleWS))
	t.Cleanup(srv.Close)
	t.Cleanup(reg.Shutdown)

	dial := func() *websocket.Conn {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		sock, _, err := websocket.Dial(ctx, "ws"+srv.URL[len("http"):], nil)
		if err != nil {
			t.Fatalf("dial: %v", err)
		}
		t.Cleanup(func() { _ = sock.CloseNow() })
		return sock
	}
	return reg, dial
}

// sendJSON writes one raw frame.
func sendJSON(t *testing.T, sock *websocket.Conn, raw string) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := sock.Write(ctx, websocket.MessageText, []byte(raw)); err != nil {
		t.Fatalf("write: %v", err)
	}
}

// readReply reads one frame into a generic map.
func readReply(t *testing.T, sock *websocket.Conn) map[string]any {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, data, err := sock.Read(ctx)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var reply map[string]any
	if err := json.Unmarshal(data, &reply); err != nil {
		t.Fatalf("unmarshal %q: %v", data, err)
	}
	return reply
}

// waitForLen polls until the registry holds want connections.
func waitForLen(t *testing.T, reg *Registry, want int) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if reg.Len() == want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("registry len = %d, want %d", reg.Len(), want)
}

func TestHandshakeSuccess(t *testing.T) {
	reg, dial := startHub(t)
	sock := dial()

	sendJSON(t, sock, `{"type":"session","sessionId":"sess-alice"}`)

	reply := readReply(t, sock)
	if reply["type"] != TypeAuthenticationResult || reply["success"] != true {
		t.Fatalf("reply = %v, want successful AuthenticationResult", reply)
	}
	if reply["userId"] != "alice" {
		t.Errorf("userId = %v, want alice", reply["userId"])
	}

	waitForLen(t, reg, 1)
	if _, ok := reg.Get("alice"); !ok {
		t.Fatal("alice not registered after handshake")
	}
}

func TestHandshakeNoCredential(t *testing.T) {
	reg, dial := startHub(t)
	sock := dial()

	sendJSON(t, sock, `{"type":"session"}`)

	reply := readReply(t, sock)
	if reply["success"] != false {
		t.Fatalf("reply = %v, want failure", reply)
	}
	if reply["reason"] != ReasonNoCredential {
		t.Errorf("reason = %v, want %q", reply["reason"], ReasonNoCredential)
	}

	// A present but empty credential is answered with a different reason.
	sendJSON(t, sock, `{"type":"authenticate","token":""}`)
	reply = readReply(t, sock)
	if reply["reason"] != ReasonEmptyCredential {
		t.Errorf("reason = %v, want %q", reply["reason"], ReasonEmptyCredential)
	}
	if reg.Len() != 0 {
		t.Error("unauthenticated connection was registered")
	}
}

func TestHandshakeInvalidCredential(t *testing.T) {
	reg, dial := startHub(t)
	sock := dial()

	sendJSON(t, sock, `{"type":"session","sessionId":"sess-nope"}`)

	reply := readReply(t, sock)
	if reply["success"] != false || reply["reason"] != ReasonInvalidSession {
		t.Fatalf("reply = %v, want %q failure", reply, ReasonInvalidSession)
	}

	// The connection stays open: a corrected handshake succeeds.
	sendJSON(t, sock, `{"type":"session","sessionId":"sess-alice"}`)
	reply = readReply(t, sock)
	if reply["success"] != true {
		t.Fatalf("retry reply = %v, want success", reply)
	}
	waitForLen(t, reg, 1)
}

func TestHandshakeFailureBudget(t *testing.T) {
	_, dial := startHub(t)
	sock := dial()

	for range 3 {
		sendJSON(t, sock, `{"type":"session","sessionId":"sess-wrong"}`)
		reply := readReply(t, sock)
		if reply["success"] != false {
			t.Fatalf("reply = %v, want failure", reply)
		}
	}

	// The third failure exhausts the budget and the server closes the socket.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, _, err := sock.Read(ctx); err == nil {
		t.Fatal("connection still open after repeated auth failures")
	}
}

func TestSetCompanyScopesConnection(t *testing.T) {
	reg, dial := startHub(t)
	sock := dial()
	companyID := uuid.NewString()

	sendJSON(t, sock, `{"type":"session","sessionId":"sess-alice"}`)
	readReply(t, sock)

	sendJSON(t, sock, `{"type":"setCompany","data":{"companyId":"`+companyID+`"}}`)
	reply := readReply(t, sock)
	if reply["type"] != TypeCompanySet || reply["companyId"] != companyID {
		t.Fatalf("reply = %v, want CompanySet for %s", reply, companyID)
	}

	waitForLen(t, reg, 1)
	if n := len(reg.ListByCompany(companyID)); n != 1 {
		t.Fatalf("scoped conns = %d, want 1", n)
	}
}

func TestSetCompanyBeforeAuthRejected(t *testing.T) {
	reg, dial := startHub(t)
	sock := dial()

	sendJSON(t, sock, `{"type":"setCompany","data":{"companyId":"`+uuid.NewString()+`"}}`)

	reply := readReply(t, sock)
	if reply["success"] != false || reply["reason"] != ReasonNotAuthenticated {
		t.Fatalf("reply = %v, want %q failure", reply, ReasonNotAuthenticated)
	}
	if reg.Len() != 0 {
		t.Error("connection registered without authentication")
	}
}

func TestUnknownMessageIgnored(t *testing.T) {
	_, dial := startHub(t)
	sock := dial()

	sendJSON(t, sock, `{"type":"dance"}`)
	sendJSON(t, sock, `not even json`)

	// The connection survives garbage and still completes a handshake.
	sendJSON(t, sock, `{"type":"session","sessionId":"sess-alice"}`)
	reply := readReply(t, sock)
	if reply["success"] != true {
		t.Fatalf("reply = %v, want success after ignored messages", reply)
	}
}

func TestSecondConnectionSupersedesFirst(t *testing.T) {
	reg, dial := startHub(t)

	first := dial()
	sendJSON(t, first, `{"type":"session","sessionId":"sess-alice"}`)
	readReply(t, first)
	waitForLen(t, reg, 1)

	second := dial()
	sendJSON(t, second, `{"type":"session","sessionId":"sess-alice"}`)
	readReply(t, second)

	// The first socket is closed by the eviction.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, _, err := first.Read(ctx); err == nil {
		t.Fatal("superseded connection still open")
	}

	waitForLen(t, reg, 1)
	c, ok := reg.Get("alice")
	if !ok {
		t.Fatal("alice not registered")
	}
	if c.State() == StateClosed {
		t.Fatal("registry points at a closed connection")
	}
}

func TestBroadcastReachesHandshakedConnection(t *testing.T) {
	reg, dial := startHub(t)
	b := NewBroadcaster(reg, 4, nil)
	companyID := uuid.NewString()

	sock := dial()
	sendJSON(t, sock, `{"type":"session","sessionId":"sess-alice"}`)
	readReply(t, sock)
	sendJSON(t, sock, `{"type":"setCompany","data":{"companyId":"`+companyID+`"}}`)
	readReply(t, sock)

	other := dial()
	sendJSON(t, other, `{"type":"session","sessionId":"sess-bob"}`)
	readReply(t, other)
	sendJSON(t, other, `{"type":"setCompany","data":{"companyId":"`+uuid.NewString()+`"}}`)
	readReply(t, other)

	b.NotifyEventCreated(context.Background(), companyID, "evt-9")

	reply := readReply(t, sock)
	if reply["type"] != TypeEventCreated {
		t.Fatalf("reply type = %v, want %q", reply["type"], TypeEventCreated)
	}
	data, _ := reply["data"].(map[string]any)
	if data["eventId"] != "evt-9" {
		t.Errorf("eventId = %v, want evt-9", data["eventId"])
	}

	// The other company's connection saw nothing; a follow-up scoped
	// broadcast to it arrives first.
	b.NotifyEventCreated(context.Background(), companyOf(t, reg, "bob"), "evt-bob")
	botReply := readReply(t, other)
	data, _ = botReply["data"].(map[string]any)
	if data["eventId"] != "evt-bob" {
		t.Errorf("bob's first frame = %v, want evt-bob", botReply)
	}
}

// companyOf returns the company the given user's connection is scoped to.
func companyOf(t *testing.T, reg *Registry, userID string) string {
	t.Helper()
	c, ok := reg.Get(userID)
	if !ok {
		t.Fatalf("user %s not registered", userID)
	}
	return c.CompanyID()
}
