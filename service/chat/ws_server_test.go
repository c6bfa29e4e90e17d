package chat

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

type fakeMirror struct {
	mu       sync.Mutex
	online   int
	offline  int
	node     string
	lastUser string
}

func (m *fakeMirror) Online(_ context.Context, user string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.online++
	m.lastUser = user
	return nil
}

func (m *fakeMirror) Offline(_ context.Context, user string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.offline++
	m.lastUser = user
	return nil
}

func (m *fakeMirror) Lookup(_ context.Context, _ string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.node, m.node != "", nil
}

func (m *fakeMirror) onlineCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.online
}

func (m *fakeMirror) offlineCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.offline
}

type explodingHandler struct{}

func (explodingHandler) EventType() string { return "boom" }

func (explodingHandler) Handle(*Session, *Envelope) error {
	panic("handler blew up")
}

func TestTeardownRunsWhenHandlerPanics(t *testing.T) {
	srv := NewServer("n1", func(token string) (UserID, error) { return UserID(token), nil })
	srv.disp.Register(explodingHandler{})
	mirror := &fakeMirror{}
	srv.SetPresenceMirror(mirror, time.Minute)

	peer := &fakeTransport{}
	srv.reg.Admit("u2", peer)
	srv.reg.JoinConversation("u2", "c1")

	ft := &fakeTransport{}
	client := srv.reg.Admit("u1", ft)
	srv.reg.JoinConversation("u1", "c1")
	sess := &Session{Server: srv, UserID: "u1", Client: client}

	func() {
		defer func() {
			if recover() == nil {
				t.Fatal("handler was expected to panic")
			}
		}()
		// mimics the connection scope: cleanup registered before the loop runs
		defer srv.teardown(sess)
		srv.disp.Dispatch(sess, &Envelope{EventType: "boom", Data: map[string]any{}})
	}()

	if srv.reg.IsOnline("u1") {
		t.Fatal("u1 still online after panic unwind")
	}
	for _, u := range srv.reg.MembersOf("c1") {
		if u == "u1" {
			t.Fatal("u1 still a member of c1 after panic unwind")
		}
	}
	if !ft.closed {
		t.Fatal("transport not closed")
	}
	if mirror.offlineCalls() != 1 {
		t.Fatalf("mirror offline calls = %d, want 1", mirror.offlineCalls())
	}

	var env Envelope
	if err := json.Unmarshal(peer.last(), &env); err != nil {
		t.Fatalf("peer frame not an envelope: %v", err)
	}
	if env.EventType != EventUserLeft || env.Data["user_id"] != "u1" {
		t.Fatalf("peer did not see the departure: %+v", env)
	}
}

func TestTeardownIdempotentAfterPrune(t *testing.T) {
	srv := NewServer("n1", func(token string) (UserID, error) { return UserID(token), nil })

	dead := &fakeTransport{fail: true}
	client := srv.reg.Admit("u1", dead)
	srv.reg.JoinConversation("u1", "c1")
	sess := &Session{Server: srv, UserID: "u1", Client: client}

	// broadcast-side prune fully retires u1 first
	srv.bcast.SendTo("u1", NewErrorEnvelope("x"))
	if srv.reg.IsOnline("u1") {
		t.Fatal("prune did not retire u1")
	}

	srv.teardown(sess) // read-loop cleanup arrives second; must be a no-op

	if srv.reg.IsOnline("u1") || srv.reg.MembersOf("c1") != nil {
		t.Fatal("state changed by redundant teardown")
	}
}

func TestRenewPresenceTicks(t *testing.T) {
	srv := NewServer("n1", func(token string) (UserID, error) { return UserID(token), nil })
	mirror := &fakeMirror{}
	srv.SetPresenceMirror(mirror, 5*time.Millisecond)

	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		srv.renewPresence("u1", stop)
		close(done)
	}()

	time.Sleep(60 * time.Millisecond)
	close(stop)
	<-done

	if n := mirror.onlineCalls(); n < 2 {
		t.Fatalf("renewal ticked %d times, want at least 2", n)
	}
}

func TestUserPresenceReportsMirrorNode(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := NewServer("n1", func(token string) (UserID, error) { return UserID(token), nil })
	srv.SetPresenceMirror(&fakeMirror{node: "node_a"}, time.Minute)
	srv.reg.Admit("u1", &fakeTransport{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/presence/users/u1", nil)
	c.Params = gin.Params{{Key: "id", Value: "u1"}}

	srv.HandleUserPresence(c)

	var resp map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad response body: %v", err)
	}
	if resp["online"] != true || resp["node_id"] != "node_a" {
		t.Fatalf("response = %v", resp)
	}
}
