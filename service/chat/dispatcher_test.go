package chat_test

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"PulseChat/service/chat"
	"PulseChat/service/chat/handlers"
)

type recordingTransport struct {
	mu     sync.Mutex
	writes [][]byte
	fail   bool
}

func (r *recordingTransport) WriteMessage(data []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail {
		return errors.New("closed")
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	r.writes = append(r.writes, cp)
	return nil
}

func (r *recordingTransport) Close() error { return nil }

func (r *recordingTransport) envelopes(t *testing.T) []chat.Envelope {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]chat.Envelope, 0, len(r.writes))
	for _, w := range r.writes {
		var env chat.Envelope
		if err := json.Unmarshal(w, &env); err != nil {
			t.Fatalf("non-envelope frame on the wire: %v", err)
		}
		out = append(out, env)
	}
	return out
}

func newTestServer() *chat.Server {
	srv := chat.NewServer("test_node", func(token string) (chat.UserID, error) {
		return chat.UserID(token), nil
	})
	handlers.RegisterAll(srv)
	return srv
}

func connect(srv *chat.Server, user chat.UserID) (*chat.Session, *recordingTransport) {
	rt := &recordingTransport{}
	client := srv.Reg().Admit(user, rt)
	return &chat.Session{Server: srv, UserID: user, Client: client}, rt
}

func dispatchJSON(t *testing.T, srv *chat.Server, sess *chat.Session, raw string) {
	t.Helper()
	env, err := chat.ParseEnvelope([]byte(raw))
	if err != nil {
		t.Fatalf("ParseEnvelope(%s): %v", raw, err)
	}
	srv.Disp().Dispatch(sess, env)
}

func TestMessageSendScenario(t *testing.T) {
	srv := newTestServer()
	s1, t1 := connect(srv, "u1")
	s2, t2 := connect(srv, "u2")

	dispatchJSON(t, srv, s1, `{"event_type":"join_conversation","data":{"conversation_id":"c1"}}`)
	dispatchJSON(t, srv, s2, `{"event_type":"join_conversation","data":{"conversation_id":"c1"}}`)

	// u1 saw u2 arrive
	got := t1.envelopes(t)
	if len(got) != 1 || got[0].EventType != chat.EventUserJoined {
		t.Fatalf("u1 frames = %+v, want one user_joined_conversation", got)
	}
	if got[0].Data["user_id"] != "u2" || got[0].Data["conversation_id"] != "c1" {
		t.Fatalf("user_joined payload = %v", got[0].Data)
	}

	dispatchJSON(t, srv, s1, `{"event_type":"message_send","data":{"conversation_id":"c1","content":"hi"}}`)

	frames := t2.envelopes(t)
	if len(frames) != 1 {
		t.Fatalf("u2 received %d frames, want 1", len(frames))
	}
	msg := frames[0]
	if msg.EventType != chat.EventMessageReceived {
		t.Fatalf("event = %s, want message_received", msg.EventType)
	}
	if msg.Data["sender_id"] != "u1" || msg.Data["content"] != "hi" || msg.Data["message_type"] != "text" {
		t.Fatalf("message payload = %v", msg.Data)
	}
	// no echo to the sender
	if frames := t1.envelopes(t); len(frames) != 1 {
		t.Fatalf("u1 got an echo: %+v", frames)
	}
}

func TestMessageSendMissingFields(t *testing.T) {
	srv := newTestServer()
	s1, t1 := connect(srv, "u1")
	_, t2 := connect(srv, "u2")
	srv.Reg().JoinConversation("u1", "c1")
	srv.Reg().JoinConversation("u2", "c1")

	dispatchJSON(t, srv, s1, `{"event_type":"message_send","data":{"content":"hi"}}`)
	dispatchJSON(t, srv, s1, `{"event_type":"message_send","data":{"conversation_id":"c1","content":"   "}}`)

	frames := t1.envelopes(t)
	if len(frames) != 2 {
		t.Fatalf("sender got %d frames, want 2 errors", len(frames))
	}
	for _, f := range frames {
		if f.EventType != chat.EventError {
			t.Fatalf("expected error envelope, got %s", f.EventType)
		}
	}
	if n := len(t2.envelopes(t)); n != 0 {
		t.Fatalf("invalid sends reached other members: %d frames", n)
	}
}

func TestTypingAloneIsSilent(t *testing.T) {
	srv := newTestServer()
	s1, t1 := connect(srv, "u1")
	srv.Reg().JoinConversation("u1", "c1")

	dispatchJSON(t, srv, s1, `{"event_type":"typing_start","data":{"conversation_id":"c1"}}`)
	dispatchJSON(t, srv, s1, `{"event_type":"typing_start","data":{}}`) // missing id, ignored

	if frames := t1.envelopes(t); len(frames) != 0 {
		t.Fatalf("typing alone produced frames: %+v", frames)
	}
}

func TestTypingRelayedToOthers(t *testing.T) {
	srv := newTestServer()
	s1, _ := connect(srv, "u1")
	_, t2 := connect(srv, "u2")
	srv.Reg().JoinConversation("u1", "c1")
	srv.Reg().JoinConversation("u2", "c1")

	dispatchJSON(t, srv, s1, `{"event_type":"typing_start","data":{"conversation_id":"c1"}}`)
	dispatchJSON(t, srv, s1, `{"event_type":"typing_stop","data":{"conversation_id":"c1"}}`)

	frames := t2.envelopes(t)
	if len(frames) != 2 || frames[0].EventType != chat.EventTypingStart || frames[1].EventType != chat.EventTypingStop {
		t.Fatalf("typing relay frames = %+v", frames)
	}
	if frames[0].Data["user_id"] != "u1" {
		t.Fatalf("typing payload missing sender: %v", frames[0].Data)
	}
}

func TestUnknownEventType(t *testing.T) {
	srv := newTestServer()
	s1, t1 := connect(srv, "u1")
	_, t2 := connect(srv, "u2")
	srv.Reg().JoinConversation("u1", "c1")
	srv.Reg().JoinConversation("u2", "c1")

	dispatchJSON(t, srv, s1, `{"event_type":"bogus","data":{}}`)

	frames := t1.envelopes(t)
	if len(frames) != 1 || frames[0].EventType != chat.EventError {
		t.Fatalf("sender frames = %+v, want one error", frames)
	}
	if frames[0].Data["message"] != "Unknown event type: bogus" {
		t.Fatalf("error message = %v", frames[0].Data["message"])
	}
	if n := len(t2.envelopes(t)); n != 0 {
		t.Fatalf("unknown event broadcast to %d other frames", n)
	}
}

func TestLeaveNotifiesBeforeRemoval(t *testing.T) {
	srv := newTestServer()
	s1, _ := connect(srv, "u1")
	_, t2 := connect(srv, "u2")
	srv.Reg().JoinConversation("u1", "c1")
	srv.Reg().JoinConversation("u2", "c1")

	dispatchJSON(t, srv, s1, `{"event_type":"leave_conversation","data":{"conversation_id":"c1"}}`)

	frames := t2.envelopes(t)
	if len(frames) != 1 || frames[0].EventType != chat.EventUserLeft {
		t.Fatalf("u2 frames = %+v, want one user_left_conversation", frames)
	}
	for _, u := range srv.Reg().MembersOf("c1") {
		if u == "u1" {
			t.Fatal("u1 still a member after leave")
		}
	}
}

func TestMalformedEnvelopeRejected(t *testing.T) {
	if _, err := chat.ParseEnvelope([]byte(`{not json`)); err == nil {
		t.Fatal("garbage accepted")
	}
	if _, err := chat.ParseEnvelope([]byte(`{"data":{}}`)); err == nil {
		t.Fatal("envelope without event_type accepted")
	}
}
