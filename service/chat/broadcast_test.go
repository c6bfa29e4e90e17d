package chat

import (
	"encoding/json"
	"testing"
)

func TestBroadcastExcludesSenderOnly(t *testing.T) {
	reg := NewRegistry()
	b := NewBroadcaster(reg)

	t1 := &fakeTransport{}
	t2 := &fakeTransport{}
	t3 := &fakeTransport{}
	reg.Admit("u1", t1)
	reg.Admit("u2", t2)
	reg.Admit("outsider", t3)
	reg.JoinConversation("u1", "c1")
	reg.JoinConversation("u2", "c1")

	b.BroadcastToConversation("c1", NewEnvelope(EventMessageReceived, map[string]any{"content": "hi"}), "u1")

	if t1.count() != 0 {
		t.Fatalf("excluded sender received %d envelopes", t1.count())
	}
	if t2.count() != 1 {
		t.Fatalf("member received %d envelopes, want 1", t2.count())
	}
	if t3.count() != 0 {
		t.Fatalf("non-member received %d envelopes", t3.count())
	}

	var env Envelope
	if err := json.Unmarshal(t2.last(), &env); err != nil {
		t.Fatalf("delivered frame not an envelope: %v", err)
	}
	if env.EventType != EventMessageReceived || env.Timestamp == "" {
		t.Fatalf("bad envelope on the wire: %+v", env)
	}
}

func TestBroadcastReachesAllConnections(t *testing.T) {
	reg := NewRegistry()
	b := NewBroadcaster(reg)

	phone := &fakeTransport{}
	laptop := &fakeTransport{}
	reg.Admit("u2", phone)
	reg.Admit("u2", laptop)
	reg.Admit("u1", &fakeTransport{})
	reg.JoinConversation("u1", "c1")
	reg.JoinConversation("u2", "c1")

	b.BroadcastToConversation("c1", NewErrorEnvelope("x"), "u1")

	if phone.count() != 1 || laptop.count() != 1 {
		t.Fatalf("deliveries phone=%d laptop=%d, want 1 each", phone.count(), laptop.count())
	}
}

func TestBroadcastPrunesFailedConnection(t *testing.T) {
	reg := NewRegistry()
	b := NewBroadcaster(reg)

	dead := &fakeTransport{fail: true}
	alive := &fakeTransport{}
	deadClient := reg.Admit("u1", dead)
	reg.Admit("u2", alive)
	reg.JoinConversation("u1", "c1")
	reg.JoinConversation("u2", "c1")

	b.BroadcastToConversation("c1", NewEnvelope(EventTypingStart, map[string]any{}), "")

	if alive.count() != 1 {
		t.Fatalf("healthy recipient got %d envelopes, want 1", alive.count())
	}
	// the failed connection is gone and, being u1's last, u1 is fully retired
	if reg.IsOnline("u1") {
		t.Fatal("failed connection's identity still online")
	}
	for _, c := range reg.ConnectionsOf("u1") {
		if c.ConnID == deadClient.ConnID {
			t.Fatal("failed connection still registered")
		}
	}
	for _, u := range reg.MembersOf("c1") {
		if u == "u1" {
			t.Fatal("pruned identity still a member")
		}
	}
}

func TestSendToFansOutPerConnection(t *testing.T) {
	reg := NewRegistry()
	b := NewBroadcaster(reg)

	good := &fakeTransport{}
	bad := &fakeTransport{fail: true}
	reg.Admit("u1", good)
	badClient := reg.Admit("u1", bad)

	b.SendTo("u1", NewErrorEnvelope("oops"))

	if good.count() != 1 {
		t.Fatalf("healthy connection got %d envelopes, want 1", good.count())
	}
	// only the failed connection is pruned; u1 stays online via the other one
	if !reg.IsOnline("u1") || reg.ConnectionCount("u1") != 1 {
		t.Fatalf("after prune: online=%v count=%d, want online with 1",
			reg.IsOnline("u1"), reg.ConnectionCount("u1"))
	}
	for _, c := range reg.ConnectionsOf("u1") {
		if c.ConnID == badClient.ConnID {
			t.Fatal("failed connection survived the prune")
		}
	}
}
